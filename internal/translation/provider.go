package translation

import (
	"context"
	"fmt"
)

// Config selects and configures a translation provider
type Config struct {
	Provider     string // "openai" or "gemini"
	Model        string
	OpenAIKey    string
	GeminiKey    string
	DisableCache bool
}

// NewTranslator creates the configured translator, memoized unless disabled
func NewTranslator(ctx context.Context, config *Config) (Translator, error) {
	if config == nil {
		return nil, fmt.Errorf("translation config is required")
	}

	var t Translator
	switch config.Provider {
	case "", "openai":
		if config.OpenAIKey == "" {
			return nil, fmt.Errorf("OpenAI API key is required")
		}
		t = NewOpenAITranslator(config.OpenAIKey, config.Model)
	case "gemini":
		g, err := NewGeminiTranslator(ctx, config.GeminiKey, config.Model)
		if err != nil {
			return nil, err
		}
		t = g
	default:
		return nil, fmt.Errorf("unknown translation provider: %s", config.Provider)
	}

	if config.DisableCache {
		return t, nil
	}
	return NewCachedTranslator(t, nil), nil
}
