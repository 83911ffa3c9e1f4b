package rest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"interlude/internal/media"
	"interlude/internal/store"
)

const defaultTimeout = 15 * time.Second

// Client talks to the REST surface.
type Client struct {
	base *url.URL
	http *http.Client
}

// NewClient builds a client for the given bind address or base URL.
func NewClient(bind string) (*Client, error) {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return nil, fmt.Errorf("api address is required")
	}
	if !strings.Contains(bind, "://") {
		bind = "http://" + bind
	}
	base, err := url.Parse(bind)
	if err != nil {
		return nil, fmt.Errorf("parse api address: %w", err)
	}
	base.Path = ""
	base.RawQuery = ""
	base.Fragment = ""

	return &Client{
		base: base,
		http: &http.Client{Timeout: defaultTimeout},
	}, nil
}

// DaemonStatus mirrors the payload of the status endpoint.
type DaemonStatus struct {
	Status        string `json:"status"`
	Address       string `json:"address"`
	UptimeSeconds int64  `json:"uptimeSeconds"`
}

// Status fetches the daemon's health summary.
func (c *Client) Status(ctx context.Context) (*DaemonStatus, error) {
	var status DaemonStatus
	if err := c.get(ctx, "/api/status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Games lists the catalog.
func (c *Client) Games(ctx context.Context) ([]*store.Game, error) {
	var games []*store.Game
	if err := c.get(ctx, "/api/games", &games); err != nil {
		return nil, err
	}
	return games, nil
}

// Episodes lists the episodes of one game.
func (c *Client) Episodes(ctx context.Context, gameID int64) ([]*store.Episode, error) {
	var episodes []*store.Episode
	if err := c.get(ctx, fmt.Sprintf("/api/games/%d/episodes", gameID), &episodes); err != nil {
		return nil, err
	}
	return episodes, nil
}

// Episode fetches an episode with its decoded branching graph.
func (c *Client) Episode(ctx context.Context, id int64) (*media.EpisodeDetail, error) {
	var detail media.EpisodeDetail
	if err := c.get(ctx, fmt.Sprintf("/api/episodes/%d", id), &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Progress fetches the saved cursor for a (user, episode) pair. A user who
// never played the episode yields nil, not an error.
func (c *Client) Progress(ctx context.Context, userID, episodeID int64) (*store.UserProgress, error) {
	var progress *store.UserProgress
	if err := c.get(ctx, fmt.Sprintf("/api/progress/%d/%d", userID, episodeID), &progress); err != nil {
		return nil, err
	}
	return progress, nil
}

// Recent fetches the user's recently played rail.
func (c *Client) Recent(ctx context.Context, userID int64) ([]*store.RecentPlay, error) {
	var recent []*store.RecentPlay
	if err := c.get(ctx, fmt.Sprintf("/api/progress/recent/%d", userID), &recent); err != nil {
		return nil, err
	}
	return recent, nil
}

// Save commits one progress update. It satisfies the playback session's
// gateway contract.
func (c *Client) Save(ctx context.Context, update store.ProgressUpdate) (*store.UserProgress, error) {
	var progress store.UserProgress
	if err := c.send(ctx, http.MethodPost, "/api/progress", update, &progress); err != nil {
		return nil, err
	}
	return &progress, nil
}

// Settings fetches the user's playback preferences.
func (c *Client) Settings(ctx context.Context, userID int64) (*store.UserSettings, error) {
	var settings store.UserSettings
	if err := c.get(ctx, fmt.Sprintf("/api/settings/%d", userID), &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// UpdateSettings applies a partial settings patch and returns the merged row.
func (c *Client) UpdateSettings(ctx context.Context, userID int64, patch store.SettingsPatch) (*store.UserSettings, error) {
	var settings store.UserSettings
	if err := c.send(ctx, http.MethodPut, fmt.Sprintf("/api/settings/%d", userID), patch, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) send(ctx context.Context, method, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	return c.do(ctx, method, path, payload, out)
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte, out any) error {
	endpoint := c.base.ResolveReference(&url.URL{Path: path})

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return apiError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// apiError converts an error response into a tagged error. The body shape is
// {"error": "..."} as produced by the server.
func apiError(resp *http.Response) error {
	var envelope struct {
		Error string `json:"error"`
	}
	message := resp.Status
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&envelope); err == nil && envelope.Error != "" {
		message = envelope.Error
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", media.ErrNotFound, message)
	case resp.StatusCode == http.StatusConflict:
		return fmt.Errorf("%w: %s", media.ErrConflict, message)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return fmt.Errorf("%w: %s", media.ErrValidation, message)
	default:
		return fmt.Errorf("api returned status %d: %s", resp.StatusCode, message)
	}
}
