package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pedeai/pedeai/internal/config"
	"go.uber.org/zap"
)

const maxResponseBytes = 16 << 20

// Client talks to the WhatsApp gateway's HTTP API. Credentials are injected
// at construction; the client holds no process-wide state.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient creates a gateway client from the injected configuration.
func NewClient(cfg config.Gateway, logger *zap.Logger) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

// FindChats fetches the full raw chat list. The gateway wraps the list in
// {"chats": [...]} or returns a bare array depending on version.
func (c *Client) FindChats(ctx context.Context) ([]RawChat, error) {
	body, err := c.post(ctx, "/chat/find", map[string]any{})
	if err != nil {
		return nil, err
	}

	var chats []RawChat
	if err := decodeListEnvelope(body, "chats", &chats); err != nil {
		return nil, fmt.Errorf("decode chat list: %w", err)
	}
	return chats, nil
}

// FindMessages fetches raw messages for one chat. The where clause carries
// the identifier as both chatId and remoteJid because the gateway filters on
// whichever field it stored.
func (c *Client) FindMessages(ctx context.Context, chatID string) ([]RawMessage, error) {
	body, err := c.post(ctx, "/message/find", map[string]any{
		"where": map[string]string{
			"chatId":    chatID,
			"remoteJid": chatID,
		},
	})
	if err != nil {
		return nil, err
	}

	var msgs []RawMessage
	if err := decodeListEnvelope(body, "messages", &msgs); err != nil {
		return nil, fmt.Errorf("decode message list: %w", err)
	}
	return msgs, nil
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("token", c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("gateway %s: read body: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("gateway %s: HTTP %d", path, resp.StatusCode)
	}
	return body, nil
}

// decodeListEnvelope decodes either {"<key>": [...]} or a bare array into out.
// A wrapped envelope with no such key yields an empty list, not an error.
func decodeListEnvelope(body []byte, key string, out any) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(trimmed, out)
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return err
	}
	list, ok := envelope[key]
	if !ok {
		return nil
	}
	return json.Unmarshal(list, out)
}
