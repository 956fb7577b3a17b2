package aiclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
)

// LLMClient answers through a langchaingo model
type LLMClient struct {
	llm          llms.Model
	systemPrompt string
}

// NewLLMClient wraps model. An empty systemPrompt sends the text alone.
func NewLLMClient(model llms.Model, systemPrompt string) *LLMClient {
	return &LLMClient{llm: model, systemPrompt: systemPrompt}
}

// AskAIText generates a reply for text
func (c *LLMClient) AskAIText(ctx context.Context, text string) (string, error) {
	messages := make([]llms.MessageContent, 0, 2)
	if c.systemPrompt != "" {
		messages = append(messages, llms.TextParts(schema.ChatMessageTypeSystem, c.systemPrompt))
	}
	messages = append(messages, llms.TextParts(schema.ChatMessageTypeHuman, text))

	response, err := c.llm.GenerateContent(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response choices")
	}

	reply := strings.TrimSpace(response.Choices[0].Content)
	if reply == "" {
		return "", fmt.Errorf("empty response")
	}
	return reply, nil
}
