package aiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// replyKeys are the fields checked, in order, for the answer text
var replyKeys = []string{"reply", "output", "text", "message", "answer"}

const maxResponseBytes = 1 << 20

// WebhookClient posts the question to an n8n style workflow webhook
type WebhookClient struct {
	url    string
	client *http.Client
}

// NewWebhookClient creates a WebhookClient. A nil client uses http.DefaultClient.
func NewWebhookClient(url string, client *http.Client) *WebhookClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &WebhookClient{url: url, client: client}
}

type webhookRequest struct {
	Message string `json:"message"`
}

// AskAIText posts {"message": text} and extracts the reply from the response
func (c *WebhookClient) AskAIText(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(webhookRequest{Message: text})
	if err != nil {
		return "", fmt.Errorf("encode webhook request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call webhook: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("read webhook response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	reply := extractReply(raw)
	if reply == "" {
		return "", fmt.Errorf("webhook returned an empty reply")
	}
	return reply, nil
}

// extractReply accepts an object, an array whose first element is an object,
// a JSON string or plain text.
func extractReply(raw []byte) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return ""
	}

	var decoded interface{}
	if err := json.Unmarshal(trimmed, &decoded); err != nil {
		return string(trimmed)
	}

	switch v := decoded.(type) {
	case string:
		return strings.TrimSpace(v)
	case map[string]interface{}:
		return replyFromObject(v)
	case []interface{}:
		if len(v) == 0 {
			return ""
		}
		if obj, ok := v[0].(map[string]interface{}); ok {
			return replyFromObject(obj)
		}
		if s, ok := v[0].(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func replyFromObject(obj map[string]interface{}) string {
	for _, key := range replyKeys {
		if s, ok := obj[key].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}
