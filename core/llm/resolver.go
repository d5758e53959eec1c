package llm

import (
	"context"
	"fmt"

	"lukachat/logger"
)

// candidateModels is the ordered probe list used when no model is configured.
var candidateModels = []string{
	"gemini-2.5-flash",
	"gemini-2.5-pro",
	"gemini-2.0-flash",
	"gemini-1.5-flash",
	"gemini-1.5-pro",
	"gemini-1.5",
}

// DefaultModel is the fallback when configuration is absent and every probe
// fails.
func DefaultModel() string {
	return candidateModels[0]
}

// ResolveModel returns the model identifier to dispatch to. A configured
// name is used as-is. Otherwise each candidate is probed with a trivial
// countTokens call and the first responder wins. When every probe fails the
// first candidate is returned together with a descriptive error; the caller
// decides whether to proceed on the fallback.
func (c *Client) ResolveModel(ctx context.Context, configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}

	var lastErr error
	for _, candidate := range candidateModels {
		if err := c.CountTokens(ctx, candidate, "hi"); err != nil {
			logger.Debug("Model probe failed",
				logger.String("model", candidate),
				logger.ErrorField(err))
			lastErr = err
			continue
		}
		logger.Info("Model probe succeeded", logger.String("model", candidate))
		return candidate, nil
	}

	return DefaultModel(), fmt.Errorf("no candidate model responded to probing, last error: %w", lastErr)
}
