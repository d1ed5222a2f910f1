package slack

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

// Message is an incoming-webhook payload.
type Message struct {
	Text      string `json:"text"`
	Username  string `json:"username,omitempty"`
	IconEmoji string `json:"icon_emoji,omitempty"`
}

// CommandResponse is the JSON body returned to a slash command.
type CommandResponse struct {
	ResponseType string `json:"response_type"`
	Text         string `json:"text"`
}

const alertUsername = "DealershipAI Sentinel"

// AlertMessage formats a sentinel alert the way operators see it in Slack.
func AlertMessage(severity, title, body string) Message {
	icon := ":information_source:"
	if severity == "critical" {
		icon = ":warning:"
	}
	return Message{
		Text:      fmt.Sprintf("*%s ALERT:* %s\n%s", strings.ToUpper(severity), title, body),
		Username:  alertUsername,
		IconEmoji: icon,
	}
}

// WebhookClient posts JSON messages to webhook URLs.
type WebhookClient struct {
	http *http.Client
}

// NewWebhookClient returns a client. A nil httpClient uses one with a 10 second timeout.
func NewWebhookClient(httpClient *http.Client) *WebhookClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &WebhookClient{http: httpClient}
}

// Post sends msg to url. Any non-2xx status is an error.
func (c *WebhookClient) Post(ctx context.Context, url string, msg Message) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return errors.New("slack: webhook url is empty")
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("slack: encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("slack: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("slack: post webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("slack: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
