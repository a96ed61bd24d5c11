// Package client provides a typed HTTP client for the echo interpretation
// service.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MarcoLSC/echo-emergent/internal/types"
	"github.com/gorilla/websocket"
)

// Client talks to a running echo service.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// Config holds client construction parameters.
type Config struct {
	// BaseURL is the service root, e.g. "http://localhost:8080".
	BaseURL string

	// APIKey is the bearer token for protected routes.
	APIKey string

	// Timeout applies to each HTTP request. Zero means 30 seconds.
	Timeout time.Duration
}

// New creates a Client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("BaseURL is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Health reports service health.
type Health struct {
	Status            string      `json:"status"`
	Version           string      `json:"version"`
	Backend           string      `json:"backend"`
	Phase             types.Phase `json:"phase"`
	TotalInteractions int         `json:"total_interactions"`
}

// Health checks connectivity and returns the service health report.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var health Health
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/health", nil, &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// AddInteraction records one interaction. Text-bearing interactions also
// drive the service's interpretation pipeline; outcomes arrive on the
// event stream.
func (c *Client) AddInteraction(ctx context.Context, interactionType types.InteractionType, position *types.Position, data *types.InteractionData) (*types.Interaction, error) {
	body := map[string]any{"type": interactionType}
	if position != nil {
		body["position"] = position
	}
	if data != nil {
		body["data"] = data
	}

	var interaction types.Interaction
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/interactions", body, &interaction); err != nil {
		return nil, err
	}
	return &interaction, nil
}

// Stats returns interaction frequency counts.
func (c *Client) Stats(ctx context.Context) (*types.InteractionStats, error) {
	var stats types.InteractionStats
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/interactions/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Session returns the current session snapshot.
func (c *Client) Session(ctx context.Context) (*types.SessionState, error) {
	var state types.SessionState
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/session", nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// Interpret schedules a debounced interpretation of text. The outcome is
// delivered on the event stream, not in the response.
func (c *Client) Interpret(ctx context.Context, text string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/v1/interpret", map[string]string{"text": text}, nil)
}

// Preferences returns the durable preference record.
func (c *Client) Preferences(ctx context.Context) (*types.PreferenceRecord, error) {
	var record types.PreferenceRecord
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/preferences", nil, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// PreferredCategories returns categories ordered by preference weight.
func (c *Client) PreferredCategories(ctx context.Context) ([]types.Category, error) {
	var resp struct {
		Categories []types.Category `json:"categories"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/preferences/categories", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Categories, nil
}

// RecordPreference records a preference interaction for a category.
func (c *Client) RecordPreference(ctx context.Context, category types.Category, text string, accepted bool) error {
	body := map[string]any{
		"category": category,
		"text":     text,
		"accepted": accepted,
	}
	return c.doJSON(ctx, http.MethodPost, "/api/v1/preferences/interactions", body, nil)
}

// ToggleCollection flips preference data collection and returns the new
// state. Disabling destroys accumulated data on the server.
func (c *Client) ToggleCollection(ctx context.Context) (bool, error) {
	var resp struct {
		Enabled bool `json:"enabled"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/preferences/toggle", nil, &resp); err != nil {
		return false, err
	}
	return resp.Enabled, nil
}

// ClearPreferences clears all stored preference history.
func (c *Client) ClearPreferences(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/v1/preferences", nil, nil)
}

// Event is one message from the interpretation event stream.
type Event struct {
	Type    string                      `json:"type"`
	Result  *types.InterpretationResult `json:"result,omitempty"`
	Message string                      `json:"message,omitempty"`
}

// Events connects to the event stream and delivers interpretation events
// on the returned channel until ctx is canceled or the connection drops.
// The channel is closed on exit.
func (c *Client) Events(ctx context.Context) (<-chan Event, error) {
	wsURL := c.baseURL + "/api/v1/events"
	switch {
	case strings.HasPrefix(wsURL, "https"):
		wsURL = "wss" + strings.TrimPrefix(wsURL, "https")
	case strings.HasPrefix(wsURL, "http"):
		wsURL = "ws" + strings.TrimPrefix(wsURL, "http")
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing event stream: %w", err)
	}
	if resp != nil {
		resp.Body.Close()
	}

	events := make(chan Event)
	go func() {
		defer close(events)
		defer conn.Close()
		go func() {
			<-ctx.Done()
			conn.Close()
		}()
		for {
			var event Event
			if err := conn.ReadJSON(&event); err != nil {
				return
			}
			select {
			case events <- event:
			case <-ctx.Done():
				return
			}
		}
	}()
	return events, nil
}

// APIError is a non-2xx response from the service.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("echo: %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("echo: unexpected status %d", e.StatusCode)
}

// doJSON sends an authenticated JSON request and decodes the response into
// out when non-nil.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var problem struct {
			Detail string `json:"detail"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&problem)
		return &APIError{StatusCode: resp.StatusCode, Detail: problem.Detail}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
