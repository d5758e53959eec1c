package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"lukachat/logger"
	"lukachat/model"
)

// moodQueries maps each mood to a canned search query.
var moodQueries = map[model.Mood]string{
	model.MoodSad:      "melancholic acoustic sad song",
	model.MoodHappy:    "upbeat happy pop song",
	model.MoodStressed: "calm relaxing instrumental",
	model.MoodAnxious:  "calming ambient music",
	model.MoodAngry:    "energetic rock angry song",
	model.MoodNeutral:  "chill indie song",
}

// queryForMood returns the canned query for mood, falling back to the
// neutral query for anything unmapped.
func queryForMood(mood model.Mood) string {
	if q, ok := moodQueries[mood]; ok {
		return q
	}
	return moodQueries[model.MoodNeutral]
}

// SearchTrack looks up one track matching the mood. A (nil, nil) result
// means no recommendation: credentials unconfigured, token unavailable, no
// search hits, or a hit without a shareable link. A non-nil error is for the
// caller to log and drop; enrichment never fails a chat request.
func (c *Client) SearchTrack(ctx context.Context, mood model.Mood) (*model.TrackInfo, error) {
	if !c.Enabled() {
		return nil, nil
	}

	token := c.token(ctx)
	if token == "" {
		return nil, nil
	}

	query := queryForMood(mood)
	params := url.Values{
		"q":     {query},
		"type":  {"track"},
		"limit": {"1"},
	}

	searchURL := strings.TrimRight(c.cfg.APIBaseURL, "/") + "/v1/search?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.searchClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("search returned status %d: %s", resp.StatusCode, body)
	}

	var result struct {
		Tracks struct {
			Items []struct {
				Name         string `json:"name"`
				ExternalURLs struct {
					Spotify string `json:"spotify"`
				} `json:"external_urls"`
				Artists []struct {
					Name string `json:"name"`
				} `json:"artists"`
			} `json:"items"`
		} `json:"tracks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(result.Tracks.Items) == 0 {
		logger.Debug("Spotify search returned no tracks",
			logger.String("mood", string(mood)),
			logger.String("query", query))
		return nil, nil
	}

	item := result.Tracks.Items[0]
	if item.ExternalURLs.Spotify == "" {
		// A track without a shareable link is useless to the caller.
		return nil, nil
	}

	artist := ""
	if len(item.Artists) > 0 {
		artist = item.Artists[0].Name
	}

	return &model.TrackInfo{
		URL:    item.ExternalURLs.Spotify,
		Name:   item.Name,
		Artist: artist,
	}, nil
}
