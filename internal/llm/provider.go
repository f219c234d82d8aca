// Package llm adapts OpenAI-compatible chat completion APIs to the zyn
// provider interface.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"github.com/zoobzio/zyn"
)

// ErrNoChoices is returned when the API answers without a completion.
var ErrNoChoices = errors.New("completion returned no choices")

// Provider calls an OpenAI-compatible chat completion endpoint. DeepSeek,
// Groq, OpenRouter and Ollama all expose one.
type Provider struct {
	client *openai.Client
	name   string
	model  string
}

// New creates a provider for the given endpoint. An empty API key is sent
// as-is, which local servers accept.
func New(name, baseURL, apiKey, model string) *Provider {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Provider{
		client: openai.NewClientWithConfig(config),
		name:   name,
		model:  model,
	}
}

// Name implements zyn.Provider.
func (p *Provider) Name() string {
	return p.name
}

// Model returns the model id requests are sent to.
func (p *Provider) Model() string {
	return p.model
}

// Call implements zyn.Provider.
func (p *Provider) Call(ctx context.Context, messages []zyn.Message, temperature float32) (*zyn.ProviderResponse, error) {
	req := openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    convert(messages),
		Temperature: temperature,
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s chat completion failed: %w", p.name, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%s: %w", p.name, ErrNoChoices)
	}

	return &zyn.ProviderResponse{
		Content: resp.Choices[0].Message.Content,
		Usage: zyn.TokenUsage{
			Prompt:     resp.Usage.PromptTokens,
			Completion: resp.Usage.CompletionTokens,
			Total:      resp.Usage.TotalTokens,
		},
	}, nil
}

func convert(messages []zyn.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, openai.ChatCompletionMessage{
			Role:    role(m.Role),
			Content: m.Content,
		})
	}
	return out
}

func role(r string) string {
	switch r {
	case zyn.RoleSystem:
		return openai.ChatMessageRoleSystem
	case zyn.RoleAssistant:
		return openai.ChatMessageRoleAssistant
	default:
		return openai.ChatMessageRoleUser
	}
}
