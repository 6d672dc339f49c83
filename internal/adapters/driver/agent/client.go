// Package agent implements ports.ChannelDriver against a local automation
// agent over HTTP. The agent owns the actual chat-application session (window
// focus, element discovery, clipboard tricks); this client only speaks its
// small JSON API.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"chatblast/internal/ports"
)

// Client talks to the automation agent at baseURL.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// New creates a Client targeting the given base URL. Timeouts are generous:
// a single UI interaction on the agent side can legitimately take many
// seconds of simulated human input.
func New(baseURL string, log *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 90 * time.Second,
		},
		log: log,
	}
}

type openRequest struct {
	Number string `json:"number"`
}

type openResponse struct {
	Status string `json:"status"` // "ready" or "invalid_number"
}

type textRequest struct {
	Text string `json:"text"`
}

type filesRequest struct {
	Paths []string `json:"paths"`
}

type sentResponse struct {
	Sent bool `json:"sent"`
}

// OpenConversation asks the agent to open the chat for number. Any transport
// or agent-level error means the driver is unreachable.
func (c *Client) OpenConversation(ctx context.Context, number string) (ports.OpenStatus, error) {
	var resp openResponse
	if err := c.post(ctx, "/conversation", openRequest{Number: number}, &resp); err != nil {
		return ports.OpenReady, err
	}
	if resp.Status == "invalid_number" {
		return ports.OpenInvalidNumber, nil
	}
	return ports.OpenReady, nil
}

// SendText pastes and submits text into the open conversation.
func (c *Client) SendText(ctx context.Context, text string) (bool, error) {
	var resp sentResponse
	if err := c.post(ctx, "/text", textRequest{Text: text}, &resp); err != nil {
		return false, err
	}
	return resp.Sent, nil
}

// SendFiles attaches the given files as one action.
func (c *Client) SendFiles(ctx context.Context, paths []string) (bool, error) {
	var resp sentResponse
	if err := c.post(ctx, "/files", filesRequest{Paths: paths}, &resp); err != nil {
		return false, err
	}
	return resp.Sent, nil
}

// Reset closes the agent's current session. Failures are logged and
// swallowed; Reset must never fail the caller.
func (c *Client) Reset(ctx context.Context) {
	if err := c.post(ctx, "/reset", struct{}{}, nil); err != nil {
		c.log.Warn("agent reset failed", "err", err)
	}
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("agent returned %d on %s", resp.StatusCode, path)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
