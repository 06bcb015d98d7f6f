package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hkmon/hknews/internal/logger"
)

// Client delivers messages to one Telegram chat. Delivery is a single HTTP
// attempt: a failed send is retried by the next scheduled cycle, not here.
type Client struct {
	baseURL string
	token   string
	chatID  string
	client  *http.Client
}

func NewClient(token, chatID string, timeout time.Duration) *Client {
	return &Client{
		baseURL: "https://api.telegram.org",
		token:   token,
		chatID:  chatID,
		client:  &http.Client{Timeout: timeout},
	}
}

// Configured reports whether both credentials were supplied.
func (c *Client) Configured() bool {
	return c.token != "" && c.chatID != ""
}

// Send posts text as an HTML-formatted message with link previews off.
func (c *Client) Send(ctx context.Context, text string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.token)

	payload := map[string]any{
		"chat_id":                  c.chatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Warn("failed to close telegram response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API: status %d", resp.StatusCode)
	}
	return nil
}
