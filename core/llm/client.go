package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"lukachat/logger"
	"lukachat/model"
)

// ErrModelNotFound marks provider failures caused by an unrecognized or
// inaccessible model identifier, as opposed to any other dispatch failure.
var ErrModelNotFound = errors.New("model not found or not accessible")

// Config contains configuration for the Gemini client.
type Config struct {
	APIBaseURL string
	APIKey     string
	Model      string
}

// Client talks to the Gemini generateContent API.
type Client struct {
	cfg        *Config
	httpClient *http.Client
}

// NewClient creates a new Gemini client. Dispatches are long-running; the
// client timeout is a backstop, not a per-request deadline.
func NewClient(cfg *Config) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// Model returns the model identifier the client dispatches to.
func (c *Client) Model() string {
	return c.cfg.Model
}

// SetModel sets the model identifier, normally after resolution at startup.
func (c *Client) SetModel(name string) {
	c.cfg.Model = name
}

func (c *Client) endpoint(modelName, method string) string {
	u := strings.TrimRight(c.cfg.APIBaseURL, "/") + "/models/" + url.PathEscape(modelName) + ":" + method
	if c.cfg.APIKey != "" {
		u += "?key=" + url.QueryEscape(c.cfg.APIKey)
	}
	return u
}

// GenerateContent sends the full conversation to the model and returns the
// reply text. When the provider returns a 2xx body without any text part,
// the raw body is returned as a defensive fallback.
func (c *Client) GenerateContent(ctx context.Context, contents []model.GeminiContent) (string, error) {
	reqBody := model.GeminiRequest{
		Contents: contents,
		SystemInstruction: &model.GeminiContent{
			Parts: []model.GeminiPart{{Text: SystemInstruction}},
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(c.cfg.Model, "generateContent"), bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if isModelNotFound(resp.StatusCode, body) {
			return "", fmt.Errorf("%w: model %q: status %d: %s", ErrModelNotFound, c.cfg.Model, resp.StatusCode, body)
		}
		return "", fmt.Errorf("API returned status %d: %s", resp.StatusCode, body)
	}

	var chatResp model.GeminiResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	text := joinText(chatResp)
	if text == "" {
		logger.Warn("Gemini response carried no text part, falling back to raw body",
			logger.String("model", c.cfg.Model),
			logger.Int("bodyLength", len(body)))
		return string(body), nil
	}
	return text, nil
}

// CountTokens issues a trivial tokenization call against modelName. Used as
// a cheap availability probe during model resolution.
func (c *Client) CountTokens(ctx context.Context, modelName, text string) error {
	reqBody := model.GeminiCountTokensRequest{
		Contents: []model.GeminiContent{
			{Role: "user", Parts: []model.GeminiPart{{Text: text}}},
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(modelName, "countTokens"), bytes.NewBuffer(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("API returned status %d: %s", resp.StatusCode, body)
	}

	var countResp model.GeminiCountTokensResponse
	if err := json.NewDecoder(resp.Body).Decode(&countResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// ListModels returns the model names visible to the configured API key.
// Diagnostic only; callers log and ignore failures.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	u := strings.TrimRight(c.cfg.APIBaseURL, "/") + "/models"
	if c.cfg.APIKey != "" {
		u += "?key=" + url.QueryEscape(c.cfg.APIKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, body)
	}

	var list model.GeminiModelList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	names := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

func joinText(resp model.GeminiResponse) string {
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		for _, part := range cand.Content.Parts {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}

// isModelNotFound classifies a provider failure as a model identity problem.
// The API reports these as 404s, with a "not found" message in the body.
func isModelNotFound(status int, body []byte) bool {
	if status == http.StatusNotFound {
		return true
	}
	msg := strings.ToLower(string(body))
	return strings.Contains(msg, "not found") || strings.Contains(msg, "is not found")
}
