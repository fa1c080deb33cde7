package textgen

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"codeberg.org/snonux/polyglot/internal/breaker"
)

// OpenAIGenerator writes descriptions with an OpenAI chat model
type OpenAIGenerator struct {
	client    *openai.Client
	model     string
	maxTokens int
}

// NewOpenAIGenerator creates a chat-backed generator
func NewOpenAIGenerator(apiKey, model string, maxTokens int) *OpenAIGenerator {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIGenerator{
		client:    openai.NewClient(apiKey),
		model:     model,
		maxTokens: maxTokensOrDefault(maxTokens),
	}
}

// Name returns the provider name
func (g *OpenAIGenerator) Name() string {
	return "openai"
}

// Generate returns the description for prompt
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	p, err := validatePrompt(prompt)
	if err != nil {
		return "", err
	}

	req := g.request(p)
	resp, err := breaker.Do("openai", func() (openai.ChatCompletionResponse, error) {
		return g.client.CreateChatCompletion(ctx, req)
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no description generated")
	}

	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", fmt.Errorf("no description generated")
	}
	return out, nil
}

func (g *OpenAIGenerator) request(prompt string) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxCompletionTokens: g.maxTokens,
		Temperature:         0.9,
	}
}

var _ Generator = (*OpenAIGenerator)(nil)
