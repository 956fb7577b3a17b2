package aiclient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
)

type fakeModel struct {
	reply    string
	err      error
	received []llms.MessageContent
}

func (m *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	m.received = messages
	if m.err != nil {
		return nil, m.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: m.reply}}}, nil
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func TestLLMClientSendsSystemPrompt(t *testing.T) {
	model := &fakeModel{reply: "  Office hours are 9-5. "}
	client := NewLLMClient(model, "You answer university questions.")

	reply, err := client.AskAIText(context.Background(), "When is the office open?")
	require.NoError(t, err)
	assert.Equal(t, "Office hours are 9-5.", reply)

	require.Len(t, model.received, 2)
	assert.Equal(t, schema.ChatMessageTypeSystem, model.received[0].Role)
	assert.Equal(t, schema.ChatMessageTypeHuman, model.received[1].Role)
}

func TestLLMClientErrors(t *testing.T) {
	_, err := NewLLMClient(&fakeModel{err: errors.New("rate limit")}, "").AskAIText(context.Background(), "q")
	assert.EqualError(t, err, "generate: rate limit")

	_, err = NewLLMClient(&fakeModel{reply: "  "}, "").AskAIText(context.Background(), "q")
	assert.EqualError(t, err, "empty response")
}

func TestNewSelectsProvider(t *testing.T) {
	svc, err := New(Config{Provider: ProviderWebhook, WebhookURL: "http://localhost:5678/webhook/chat", Timeout: time.Second})
	require.NoError(t, err)
	assert.IsType(t, &WebhookClient{}, svc)

	svc, err = New(Config{Provider: ProviderEcho})
	require.NoError(t, err)
	reply, err := svc.AskAIText(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "echo: hi", reply)

	_, err = New(Config{Provider: ProviderOpenAI})
	assert.Error(t, err)

	_, err = New(Config{Provider: "bard"})
	assert.EqualError(t, err, "unsupported AI provider: bard")
}
