package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"lukachat/logger"
)

const (
	defaultTokenURL = "https://accounts.spotify.com/api/token"
	defaultAPIURL   = "https://api.spotify.com"

	// tokenSafetyMargin keeps a credential from being handed out right at
	// the edge of its validity window.
	tokenSafetyMargin = 30 * time.Second

	// defaultExpiresIn applies when the token response omits expires_in.
	defaultExpiresIn = 3600

	// redisTokenKey is where replicas share one credential.
	redisTokenKey = "spotify:access_token"
)

// Config contains the Spotify client configuration. Empty credentials
// disable the client entirely.
type Config struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	APIBaseURL   string
}

// Client performs client-credentials token exchanges and track searches.
// Every failure is reported to the caller as an absent result or an error
// the caller is expected to log and drop; nothing here fails a chat request.
type Client struct {
	cfg          Config
	tokenClient  *http.Client
	searchClient *http.Client

	// cache is an optional shared token cache; nil when Redis is not
	// configured. The in-memory entry remains authoritative per process.
	cache *redis.Client

	// Token refreshes are not serialized: concurrent callers may both
	// perform an exchange and the last writer wins. Tokens are fungible,
	// so a redundant refresh is harmless. The mutex only guards the
	// entry's memory visibility.
	mu        sync.Mutex
	accessToken string
	expiresAt time.Time
}

// NewClient creates a Spotify client. cache may be nil.
func NewClient(cfg Config, cache *redis.Client) *Client {
	if cfg.TokenURL == "" {
		cfg.TokenURL = defaultTokenURL
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = defaultAPIURL
	}
	return &Client{
		cfg:          cfg,
		tokenClient:  &http.Client{Timeout: 10 * time.Second},
		searchClient: &http.Client{Timeout: 8 * time.Second},
		cache:        cache,
	}
}

// Enabled reports whether credentials are configured.
func (c *Client) Enabled() bool {
	return c.cfg.ClientID != "" && c.cfg.ClientSecret != ""
}

// token returns a valid bearer token, or "" when the feature is disabled or
// the exchange failed. Failures are logged here and never propagate further.
func (c *Client) token(ctx context.Context) string {
	if !c.Enabled() {
		return ""
	}

	if tok := c.cachedToken(ctx); tok != "" {
		return tok
	}

	tok, expiresIn, err := c.exchange(ctx)
	if err != nil {
		logger.Warn("Spotify token request failed", logger.ErrorField(err))
		return ""
	}

	c.storeToken(ctx, tok, expiresIn)
	return tok
}

// cachedToken serves the in-memory entry while it is inside the validity
// window, falling back to the shared Redis entry when one is configured.
func (c *Client) cachedToken(ctx context.Context) string {
	now := time.Now()

	c.mu.Lock()
	tok, expiresAt := c.accessToken, c.expiresAt
	c.mu.Unlock()

	if tok != "" && now.Before(expiresAt.Add(-tokenSafetyMargin)) {
		return tok
	}

	if c.cache == nil {
		return ""
	}

	// Another replica may have refreshed already. TTL recovers the
	// remaining validity so the local entry expires in step.
	pipe := c.cache.Pipeline()
	getCmd := pipe.Get(ctx, redisTokenKey)
	ttlCmd := pipe.TTL(ctx, redisTokenKey)
	if _, err := pipe.Exec(ctx); err != nil {
		if err != redis.Nil {
			logger.Debug("Shared token cache read failed", logger.ErrorField(err))
		}
		return ""
	}

	shared := getCmd.Val()
	ttl := ttlCmd.Val()
	if shared == "" || ttl <= tokenSafetyMargin {
		return ""
	}

	c.mu.Lock()
	c.accessToken = shared
	c.expiresAt = now.Add(ttl)
	c.mu.Unlock()
	return shared
}

// storeToken replaces the cached entry wholesale.
func (c *Client) storeToken(ctx context.Context, tok string, expiresIn int) {
	expiry := time.Duration(expiresIn) * time.Second

	c.mu.Lock()
	c.accessToken = tok
	c.expiresAt = time.Now().Add(expiry)
	c.mu.Unlock()

	if c.cache != nil {
		if err := c.cache.Set(ctx, redisTokenKey, tok, expiry).Err(); err != nil {
			logger.Debug("Shared token cache write failed", logger.ErrorField(err))
		}
	}
}

// exchange performs one client-credentials exchange against the token
// endpoint and returns the token with its lifetime in seconds.
func (c *Client) exchange(ctx context.Context) (string, int, error) {
	form := url.Values{"grant_type": {"client_credentials"}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)

	resp, err := c.tokenClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", 0, fmt.Errorf("token endpoint returned status %d: %s", resp.StatusCode, body)
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", 0, fmt.Errorf("failed to decode response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", 0, fmt.Errorf("token endpoint returned no access_token")
	}
	if tokenResp.ExpiresIn <= 0 {
		tokenResp.ExpiresIn = defaultExpiresIn
	}

	return tokenResp.AccessToken, tokenResp.ExpiresIn, nil
}
