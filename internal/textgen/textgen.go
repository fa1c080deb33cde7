// Package textgen expands a short prompt into the scene description that
// drives story image generation.
package textgen

import (
	"context"
	"fmt"
	"strings"
)

// DefaultMaxTokens caps the generated description
const DefaultMaxTokens = 50

// Generator produces a description from a prompt
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Name() string
}

// Config selects and configures a generator
type Config struct {
	Provider  string // "openai" or "gemini"
	Model     string
	MaxTokens int
	OpenAIKey string
	GeminiKey string
}

// NewGenerator creates the configured generator
func NewGenerator(ctx context.Context, config *Config) (Generator, error) {
	if config == nil {
		return nil, fmt.Errorf("text generation config is required")
	}
	switch config.Provider {
	case "", "openai":
		if config.OpenAIKey == "" {
			return nil, fmt.Errorf("OpenAI API key is required")
		}
		return NewOpenAIGenerator(config.OpenAIKey, config.Model, config.MaxTokens), nil
	case "gemini":
		return NewGeminiGenerator(ctx, config.GeminiKey, config.Model, config.MaxTokens)
	default:
		return nil, fmt.Errorf("unknown text provider: %s", config.Provider)
	}
}

const systemPrompt = "Continue the user's prompt into a short, vivid visual description of a single scene " +
	"suitable for an image generator. Start with the prompt text itself and reply with plain text only."

func validatePrompt(prompt string) (string, error) {
	p := strings.TrimSpace(prompt)
	if p == "" {
		return "", fmt.Errorf("prompt cannot be empty")
	}
	return p, nil
}

func maxTokensOrDefault(n int) int {
	if n <= 0 {
		return DefaultMaxTokens
	}
	return n
}
