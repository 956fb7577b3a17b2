// Package aiclient talks to the external text service that answers student
// messages.
package aiclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Provider names accepted by New
const (
	ProviderWebhook   = "webhook"
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderEcho      = "echo"
)

// TextService answers a free-form question with free-form text
type TextService interface {
	AskAIText(ctx context.Context, text string) (string, error)
}

// Config selects and configures a TextService implementation
type Config struct {
	Provider     string
	WebhookURL   string
	Model        string
	APIKey       string
	ServerURL    string
	Timeout      time.Duration
	SystemPrompt string
}

// New builds the TextService named by cfg.Provider
func New(cfg Config) (TextService, error) {
	switch strings.ToLower(cfg.Provider) {
	case ProviderWebhook, "":
		if cfg.WebhookURL == "" {
			return nil, fmt.Errorf("webhook url required")
		}
		return NewWebhookClient(cfg.WebhookURL, &http.Client{Timeout: cfg.Timeout}), nil

	case ProviderOllama:
		opts := []ollama.Option{ollama.WithModel(cfg.Model)}
		if cfg.ServerURL != "" {
			opts = append(opts, ollama.WithServerURL(cfg.ServerURL))
		}
		model, err := ollama.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}
		return NewLLMClient(model, cfg.SystemPrompt), nil

	case ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		opts := []openai.Option{openai.WithToken(cfg.APIKey), openai.WithModel(cfg.Model)}
		if cfg.ServerURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.ServerURL))
		}
		model, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}
		return NewLLMClient(model, cfg.SystemPrompt), nil

	case ProviderAnthropic:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("Anthropic API key required")
		}
		model, err := anthropic.New(
			anthropic.WithToken(cfg.APIKey),
			anthropic.WithModel(cfg.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}
		return NewLLMClient(model, cfg.SystemPrompt), nil

	case ProviderEcho:
		return EchoClient{}, nil

	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", cfg.Provider)
	}
}

// EchoClient replies with the question itself. Useful for local runs
// without an AI backend.
type EchoClient struct{}

// AskAIText returns text prefixed with "echo: "
func (EchoClient) AskAIText(_ context.Context, text string) (string, error) {
	return "echo: " + text, nil
}
