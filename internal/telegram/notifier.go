package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/minishop/backend-minishop/internal/resilience"
)

// Notifier delivers a text message to a Telegram user.
type Notifier interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// BotClient talks to the Telegram Bot API.
type BotClient struct {
	Token   string
	BaseURL string
	HTTP    resilience.HTTPClient
}

type sendMessageRequest struct {
	ChatID    int64  `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

// SendMessage calls the sendMessage Bot API method.
func (c *BotClient) SendMessage(ctx context.Context, chatID int64, text string) error {
	base := c.BaseURL
	if base == "" {
		base = "https://api.telegram.org"
	}
	body, err := json.Marshal(sendMessageRequest{ChatID: chatID, Text: text, ParseMode: "HTML"})
	if err != nil {
		return fmt.Errorf("telegram: encode message: %w", err)
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", base, c.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("telegram: send message: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram: send message: %s", resp.Status)
	}
	return nil
}

// NopNotifier drops every message. Used when no bot token is configured.
type NopNotifier struct{}

func (NopNotifier) SendMessage(context.Context, int64, string) error { return nil }
