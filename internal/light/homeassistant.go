package light

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds a Home Assistant service call.
const DefaultTimeout = 10 * time.Second

// HomeAssistant calls the light.turn_on service of a Home Assistant instance
// through its REST API.
type HomeAssistant struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHomeAssistant creates a backend for the instance at baseURL, using a
// long-lived access token. A zero timeout uses DefaultTimeout.
func NewHomeAssistant(baseURL, token string, timeout time.Duration) *HomeAssistant {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HomeAssistant{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

// TurnOn posts params to /api/services/light/turn_on and waits for the
// response.
func (h *HomeAssistant) TurnOn(ctx context.Context, params map[string]any) error {
	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to encode service data: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/api/services/light/turn_on", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("home assistant request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("home assistant returned %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
