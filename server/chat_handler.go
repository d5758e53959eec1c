package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"lukachat/core/emotion"
	"lukachat/core/llm"
	"lukachat/core/spotify"
	"lukachat/logger"
	"lukachat/model"
)

// crisisReply is returned verbatim whenever crisis language is detected.
const crisisReply = "I'm hearing that you are in a lot of pain right now. Please, your life matters. " +
	"If you are in immediate danger or thinking about hurting yourself, call your local emergency number or a crisis hotline right now. " +
	"In the U.S. you can call or text 988 for the Suicide & Crisis Lifeline."

// ChatHandler handles the chat and health endpoints.
type ChatHandler struct {
	sessions  *llm.SessionRegistry
	catalog   *spotify.Client
	llmClient *llm.Client
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(sessions *llm.SessionRegistry, catalog *spotify.Client, llmClient *llm.Client) *ChatHandler {
	return &ChatHandler{
		sessions:  sessions,
		catalog:   catalog,
		llmClient: llmClient,
	}
}

// HandleChat processes one chat turn: crisis interception, local emotion
// classification, model dispatch, then best-effort music enrichment.
func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req model.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	text := strings.TrimSpace(req.Message)
	if text == "" {
		writeError(w, http.StatusBadRequest, "empty message provided")
		return
	}

	// Crisis language never reaches the provider. Deterministic, local,
	// and independent of model availability.
	if emotion.IsCrisis(text) {
		writeJSON(w, http.StatusOK, model.ChatResponse{
			Reply: crisisReply,
			Mood:  model.MoodCrisis,
		})
		return
	}

	mood := emotion.Classify(text)

	session := h.sessions.Get(req.SessionID)
	reply, err := session.Send(r.Context(), text)
	if err != nil {
		logger.Error("Error during message processing",
			logger.String("sessionID", session.ID),
			logger.ErrorField(err))
		if errors.Is(err, llm.ErrModelNotFound) {
			writeError(w, http.StatusInternalServerError,
				"Model not found or not accessible with this API key. Set MODEL_NAME in environment variables to a supported model id.")
			return
		}
		writeError(w, http.StatusInternalServerError, "Error processing chat request.")
		return
	}

	resp := model.ChatResponse{
		Reply: reply,
		Mood:  mood,
	}

	if h.catalog.Enabled() {
		track, err := h.catalog.SearchTrack(r.Context(), mood)
		if err != nil {
			// Enrichment is best effort; a failed lookup never turns a
			// successful reply into a failed request.
			logger.Warn("Spotify search failed",
				logger.String("mood", string(mood)),
				logger.ErrorField(err))
		} else if track != nil {
			resp.Music = track
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleHealth reports liveness and the resolved model identifier.
func (h *ChatHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.HealthResponse{
		Status: "ok",
		Model:  h.llmClient.Model(),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("Failed to encode response", logger.ErrorField(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}
