package llm

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"lukachat/logger"
	"lukachat/model"
)

// maxHistoryMessages caps the context window per session (user and model
// turns counted separately).
const maxHistoryMessages = 100

// Session holds the multi-turn history of one conversation. Turns within a
// session are serialized by its mutex; a failed dispatch leaves the history
// untouched.
type Session struct {
	ID string

	client  *Client
	mu      sync.Mutex
	history []model.GeminiContent
}

// Send dispatches text as the next turn and returns the model reply.
// The user turn and the reply are appended to the history only on success.
func (s *Session) Send(ctx context.Context, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	userTurn := model.GeminiContent{
		Role:  "user",
		Parts: []model.GeminiPart{{Text: text}},
	}

	contents := make([]model.GeminiContent, 0, len(s.history)+1)
	contents = append(contents, s.history...)
	contents = append(contents, userTurn)

	reply, err := s.client.GenerateContent(ctx, contents)
	if err != nil {
		return "", err
	}

	s.history = append(s.history, userTurn, model.GeminiContent{
		Role:  "model",
		Parts: []model.GeminiPart{{Text: reply}},
	})
	if len(s.history) > maxHistoryMessages {
		s.history = s.history[len(s.history)-maxHistoryMessages:]
	}

	return reply, nil
}

// Len returns the number of stored history messages.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

// SessionRegistry maps caller-supplied session ids to live sessions.
// Requests without an id share a single process-wide default session, which
// preserves the original one-conversation-per-process behavior.
type SessionRegistry struct {
	client *Client

	mu        sync.Mutex
	sessions  map[string]*Session
	defaultID string
}

// NewSessionRegistry creates an empty registry backed by client.
func NewSessionRegistry(client *Client) *SessionRegistry {
	return &SessionRegistry{
		client:    client,
		sessions:  make(map[string]*Session),
		defaultID: uuid.NewString(),
	}
}

// Get returns the session for id, creating it on first use. An empty id
// resolves to the shared default session.
func (r *SessionRegistry) Get(id string) *Session {
	if id == "" {
		id = r.defaultID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok {
		session = &Session{ID: id, client: r.client}
		r.sessions[id] = session
		logger.Debug("Chat session created", logger.String("sessionID", id))
	}
	return session
}
