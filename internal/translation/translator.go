package translation

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sashabaranov/go-openai"

	"codeberg.org/snonux/polyglot/internal/breaker"
)

// DefaultTargetLanguage is used when a caller does not name one
const DefaultTargetLanguage = "hi"

// Translator translates text into a target language
type Translator interface {
	Translate(ctx context.Context, text, targetLanguage string) (string, error)
	Name() string
}

// OpenAITranslator translates with an OpenAI chat model
type OpenAITranslator struct {
	apiKey string
	model  string
	client *openai.Client
}

// NewOpenAITranslator creates a new translator instance
func NewOpenAITranslator(apiKey, model string) *OpenAITranslator {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAITranslator{
		apiKey: apiKey,
		model:  model,
		client: openai.NewClient(apiKey),
	}
}

// Name returns the provider name
func (t *OpenAITranslator) Name() string {
	return "openai"
}

// Translate translates text chunk by chunk into targetLanguage
func (t *OpenAITranslator) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	if t.apiKey == "" {
		return "", fmt.Errorf("OpenAI API key not found")
	}
	return translateChunked(ctx, text, targetLanguage, t.translateChunk)
}

func (t *OpenAITranslator) translateChunk(ctx context.Context, chunk, targetLanguage string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: t.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt(targetLanguage),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: chunk,
			},
		},
		Temperature: 0.2,
	}

	resp, err := breaker.Do("openai", func() (openai.ChatCompletionResponse, error) {
		return t.client.CreateChatCompletion(ctx, req)
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no translation returned")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func systemPrompt(targetLanguage string) string {
	return fmt.Sprintf("You are a translation engine. Translate the user's text into the language with ISO code '%s' (%s). "+
		"Keep the line breaks of the input exactly. Respond with only the translation, nothing else.",
		targetLanguage, LanguageName(targetLanguage))
}

// LanguageName returns the English name for common language codes
func LanguageName(code string) string {
	names := map[string]string{
		"hi": "Hindi",
		"en": "English",
		"es": "Spanish",
		"fr": "French",
		"de": "German",
		"bn": "Bengali",
		"ta": "Tamil",
		"te": "Telugu",
		"mr": "Marathi",
		"gu": "Gujarati",
		"kn": "Kannada",
		"ml": "Malayalam",
		"pa": "Punjabi",
		"ur": "Urdu",
		"bg": "Bulgarian",
		"ja": "Japanese",
		"zh": "Chinese",
	}
	base := strings.ToLower(strings.SplitN(code, "-", 2)[0])
	if name, ok := names[base]; ok {
		return name
	}
	return code
}

// TranslationCache stores translations in memory keyed by text and target
type TranslationCache struct {
	mu           sync.RWMutex
	translations map[string]string
}

// NewTranslationCache creates a new translation cache
func NewTranslationCache() *TranslationCache {
	return &TranslationCache{
		translations: make(map[string]string),
	}
}

func cacheKey(text, targetLanguage string) string {
	return targetLanguage + "\x00" + text
}

// Add adds a translation to the cache
func (tc *TranslationCache) Add(text, targetLanguage, translation string) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.translations[cacheKey(text, targetLanguage)] = translation
}

// Get retrieves a translation from the cache
func (tc *TranslationCache) Get(text, targetLanguage string) (string, bool) {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	translation, ok := tc.translations[cacheKey(text, targetLanguage)]
	return translation, ok
}

// Len returns the number of cached translations
func (tc *TranslationCache) Len() int {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return len(tc.translations)
}

// CachedTranslator wraps a Translator with a TranslationCache
type CachedTranslator struct {
	next  Translator
	cache *TranslationCache
}

// NewCachedTranslator memoizes results of next
func NewCachedTranslator(next Translator, cache *TranslationCache) *CachedTranslator {
	if cache == nil {
		cache = NewTranslationCache()
	}
	return &CachedTranslator{next: next, cache: cache}
}

// Name returns the wrapped provider name
func (c *CachedTranslator) Name() string {
	return c.next.Name()
}

// Translate returns a cached translation or asks the wrapped translator
func (c *CachedTranslator) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	if translation, ok := c.cache.Get(text, targetLanguage); ok {
		return translation, nil
	}
	translation, err := c.next.Translate(ctx, text, targetLanguage)
	if err != nil {
		return "", err
	}
	c.cache.Add(text, targetLanguage, translation)
	return translation, nil
}
