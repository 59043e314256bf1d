// Package admin posts operator corrections to the game server, which pushes
// them to connected players as override_update or image_update frames.
package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// TokenHeader carries the shared admin secret.
const TokenHeader = "X-Admin-Token"

var ErrMissingField = errors.New("missing required field")

const defaultTimeout = 15 * time.Second

// OverrideRequest replaces parts of an already narrated turn. Empty media
// fields are omitted so the server leaves them alone.
type OverrideRequest struct {
	SessionID  string `json:"session_id"`
	Turn       int    `json:"turn"`
	Text       string `json:"text,omitempty"`
	Image      string `json:"image,omitempty"`
	VoiceAudio string `json:"voice_audio,omitempty"`
	Music      string `json:"music,omitempty"`
}

type imageUpdateRequest struct {
	SessionID string `json:"session_id"`
	Turn      int    `json:"turn"`
	Image     string `json:"image"`
}

type Client struct {
	base  string
	token string
	http  *http.Client
}

func NewClient(base, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		base:  strings.TrimRight(strings.TrimSpace(base), "/"),
		token: strings.TrimSpace(token),
		http:  httpClient,
	}
}

func (c *Client) Override(ctx context.Context, req OverrideRequest) error {
	if strings.TrimSpace(req.SessionID) == "" {
		return fmt.Errorf("%w: session_id", ErrMissingField)
	}
	return c.post(ctx, "/override", req)
}

// ImageUpdate swaps the scene image of players in session without touching
// the narration.
func (c *Client) ImageUpdate(ctx context.Context, sessionID string, turn int, image string) error {
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("%w: session_id", ErrMissingField)
	}
	if strings.TrimSpace(image) == "" {
		return fmt.Errorf("%w: image", ErrMissingField)
	}
	return c.post(ctx, "/image_update", imageUpdateRequest{SessionID: sessionID, Turn: turn, Image: image})
}

func (c *Client) post(ctx context.Context, path string, body any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set(TokenHeader, c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("admin request failed on %s: %w", path, err)
	}
	defer resp.Body.Close()
	payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := strings.Join(strings.Fields(string(payload)), " ")
		return fmt.Errorf("admin %s: http %d: %s", path, resp.StatusCode, detail)
	}
	return nil
}
