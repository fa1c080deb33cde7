package translation

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"codeberg.org/snonux/polyglot/internal/breaker"
)

// DefaultGeminiModel is used when no model is configured
const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiTranslator translates with a Gemini model
type GeminiTranslator struct {
	client *genai.Client
	model  string
}

// NewGeminiTranslator creates a Gemini-backed translator
func NewGeminiTranslator(ctx context.Context, apiKey, model string) (*GeminiTranslator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key not found")
	}
	if model == "" || strings.HasPrefix(model, "gpt-") {
		model = DefaultGeminiModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &GeminiTranslator{client: client, model: model}, nil
}

// Name returns the provider name
func (g *GeminiTranslator) Name() string {
	return "gemini"
}

// Translate translates text chunk by chunk into targetLanguage
func (g *GeminiTranslator) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	return translateChunked(ctx, text, targetLanguage, g.translateChunk)
}

func (g *GeminiTranslator) translateChunk(ctx context.Context, chunk, targetLanguage string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt(targetLanguage), genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.2),
	}

	resp, err := breaker.Do("gemini", func() (*genai.GenerateContentResponse, error) {
		return g.client.Models.GenerateContent(ctx, g.model, genai.Text(chunk), cfg)
	})
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}

	out := strings.TrimSpace(resp.Text())
	if out == "" {
		return "", fmt.Errorf("no translation returned")
	}
	return out, nil
}
