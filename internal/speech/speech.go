// Package speech turns an audio file into text using a hosted speech
// recognition service (OpenAI Whisper or Google Cloud Speech-to-Text).
package speech

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrRequest means the recognition service could not be reached or
	// refused the request
	ErrRequest = errors.New("could not request results from the recognition service")

	// ErrUnknownValue means the service answered but understood nothing
	ErrUnknownValue = errors.New("could not understand audio")
)

// Recognizer transcribes audio files
type Recognizer interface {
	// Transcribe returns the text spoken in audioFile. language is a BCP-47
	// code such as "en-US"; providers that detect the language may ignore it.
	Transcribe(ctx context.Context, audioFile string, language string) (string, error)

	// Name returns the provider name
	Name() string
}

// Config selects and configures a recognizer
type Config struct {
	Provider        string // "openai" or "google"
	OpenAIKey       string
	OpenAIModel     string
	CredentialsFile string // Google service account JSON; empty uses ADC
}

// NewRecognizer creates the configured recognizer
func NewRecognizer(ctx context.Context, config *Config) (Recognizer, error) {
	if config == nil {
		return nil, fmt.Errorf("speech config is required")
	}
	switch config.Provider {
	case "", "openai":
		if config.OpenAIKey == "" {
			return nil, fmt.Errorf("OpenAI API key is required")
		}
		return NewWhisperRecognizer(config.OpenAIKey, config.OpenAIModel), nil
	case "google":
		return NewGoogleRecognizer(ctx, config.CredentialsFile)
	default:
		return nil, fmt.Errorf("unknown speech provider: %s", config.Provider)
	}
}

func requestError(provider string, err error) error {
	return fmt.Errorf("%s: %w: %w", provider, ErrRequest, err)
}

func unknownValue(provider string) error {
	return fmt.Errorf("%s: %w", provider, ErrUnknownValue)
}
