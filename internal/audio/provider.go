package audio

import (
	"context"
	"fmt"

	"codeberg.org/snonux/polyglot/internal/logger"
	"codeberg.org/snonux/polyglot/internal/translation"
)

// Provider defines the interface for text-to-speech providers
type Provider interface {
	// GenerateAudio generates audio from text and saves it to the specified file
	GenerateAudio(ctx context.Context, text string, outputFile string) error

	// Name returns the provider name
	Name() string

	// IsAvailable checks if the provider is properly configured and available
	IsAvailable() error
}

// LanguageProvider is a Provider that can be switched to another language
// than the one it was configured with
type LanguageProvider interface {
	Provider
	ForLanguage(lang string) Provider
}

// ForLanguage returns p set up to speak lang. An empty lang, or a provider
// without language support, returns p unchanged.
func ForLanguage(p Provider, lang string) Provider {
	if lang == "" {
		return p
	}
	if lp, ok := p.(LanguageProvider); ok {
		return lp.ForLanguage(lang)
	}
	return p
}

// Config holds common configuration for audio providers
type Config struct {
	Provider     string // "openai" or "espeak"
	Language     string // Language of the text to speak, e.g. "hi"
	OutputDir    string // Directory for output files
	OutputFormat string // Output format: "mp3" or "wav"
	FFmpegPath   string // Used by espeak to produce mp3

	// OpenAI-specific settings
	OpenAIKey         string
	OpenAIModel       string  // "tts-1", "tts-1-hd", or "gpt-4o-mini-tts"
	OpenAIVoice       string  // "alloy", "ash", "ballad", "coral", "echo", "fable", "onyx", "nova", "sage", "shimmer", "verse"
	OpenAISpeed       float64 // 0.25 to 4.0
	OpenAIInstruction string  // Voice instructions for gpt-4o-mini-tts; derived from Language when empty

	// Caching
	CacheDir    string
	EnableCache bool

	Logger *logger.Logger
}

// DefaultProviderConfig returns default configuration
func DefaultProviderConfig() *Config {
	return &Config{
		Provider:     "openai",
		Language:     translation.DefaultTargetLanguage,
		OutputDir:    "./",
		OutputFormat: "mp3",
		FFmpegPath:   "ffmpeg",
		OpenAIModel:  "gpt-4o-mini-tts",
		OpenAIVoice:  "alloy",
		OpenAISpeed:  1.0,
	}
}

// Instruction returns the voice instruction sent with gpt-4o-mini-tts
// requests
func (c *Config) Instruction() string {
	if c.OpenAIInstruction != "" {
		return c.OpenAIInstruction
	}
	if c.Language == "" {
		return ""
	}
	lang := translation.LanguageName(c.Language)
	return fmt.Sprintf("You are speaking %s. Pronounce the %s text with native %s phonetics and speak at a natural, clear pace.", lang, lang, lang)
}

// withLanguage returns a copy of c speaking lang
func (c *Config) withLanguage(lang string) *Config {
	clone := *c
	clone.Language = lang
	return &clone
}

func (c *Config) log() *logger.Logger {
	if c.Logger == nil {
		return logger.Nop()
	}
	return c.Logger
}

// NewProvider creates the appropriate audio provider based on configuration
func NewProvider(config *Config) (Provider, error) {
	if config == nil {
		config = DefaultProviderConfig()
	}

	switch config.Provider {
	case "openai", "":
		if config.OpenAIKey == "" {
			return nil, fmt.Errorf("OpenAI API key is required")
		}
		return NewOpenAIProvider(config)
	case "espeak", "espeak-ng":
		return NewESpeakProvider(ESpeakConfigFor(config))
	default:
		return nil, fmt.Errorf("unknown audio provider: %s", config.Provider)
	}
}

// ProviderWithFallback wraps a primary provider with a fallback option
type ProviderWithFallback struct {
	primary  Provider
	fallback Provider
	log      *logger.Logger
}

// NewProviderWithFallback creates a provider that falls back to secondary if primary fails
func NewProviderWithFallback(primary, fallback Provider, log *logger.Logger) Provider {
	if log == nil {
		log = logger.Nop()
	}
	return &ProviderWithFallback{
		primary:  primary,
		fallback: fallback,
		log:      log,
	}
}

// GenerateAudio tries primary provider first, falls back to secondary on error
func (p *ProviderWithFallback) GenerateAudio(ctx context.Context, text string, outputFile string) error {
	err := p.primary.GenerateAudio(ctx, text, outputFile)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return err
	}

	p.log.Warn("primary TTS provider failed, falling back",
		"primary", p.primary.Name(), "fallback", p.fallback.Name(), "error", err)

	if ferr := p.fallback.GenerateAudio(ctx, text, outputFile); ferr != nil {
		return fmt.Errorf("%s failed: %v; fallback %s failed: %w", p.primary.Name(), err, p.fallback.Name(), ferr)
	}
	return nil
}

// ForLanguage switches both providers to lang
func (p *ProviderWithFallback) ForLanguage(lang string) Provider {
	return &ProviderWithFallback{
		primary:  ForLanguage(p.primary, lang),
		fallback: ForLanguage(p.fallback, lang),
		log:      p.log,
	}
}

// Name returns the provider name
func (p *ProviderWithFallback) Name() string {
	return fmt.Sprintf("%s (fallback: %s)", p.primary.Name(), p.fallback.Name())
}

// IsAvailable checks if at least one provider is available
func (p *ProviderWithFallback) IsAvailable() error {
	primaryErr := p.primary.IsAvailable()
	if primaryErr == nil {
		return nil
	}

	fallbackErr := p.fallback.IsAvailable()
	if fallbackErr == nil {
		return nil
	}

	return fmt.Errorf("both providers unavailable: primary=%v, fallback=%v",
		primaryErr, fallbackErr)
}

// ValidateText rejects text with nothing to speak
func ValidateText(text string) error {
	for _, r := range text {
		if !isSpace(r) {
			return nil
		}
	}
	return fmt.Errorf("text cannot be empty")
}
