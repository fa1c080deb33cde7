package audio

import (
	"context"
	"path/filepath"
	"strings"
)

// ESpeakProvider implements Provider interface for espeak-ng
type ESpeakProvider struct {
	espeak *ESpeak
}

// NewESpeakProvider creates a new espeak-ng provider
func NewESpeakProvider(config *ESpeakConfig) (Provider, error) {
	espeak, err := New(config)
	if err != nil {
		return nil, err
	}
	return &ESpeakProvider{espeak: espeak}, nil
}

// GenerateAudio writes WAV for ".wav" outputs and MP3 otherwise
func (p *ESpeakProvider) GenerateAudio(ctx context.Context, text string, outputFile string) error {
	switch strings.ToLower(filepath.Ext(outputFile)) {
	case ".wav":
		return p.espeak.GenerateAudio(ctx, text, outputFile)
	case ".mp3":
		return p.espeak.GenerateMP3(ctx, text, outputFile)
	default:
		return p.espeak.GenerateMP3(ctx, text, outputFile+".mp3")
	}
}

// ForLanguage returns a provider using the espeak-ng voice for lang. A
// voice variant such as "+f1" is kept.
func (p *ESpeakProvider) ForLanguage(lang string) Provider {
	voice := voiceForLanguage(lang)
	current := p.espeak.config.Voice
	if i := strings.Index(current, "+"); i >= 0 {
		voice += current[i:]
	}
	if voice == "" || voice == current || strings.HasPrefix(voice, "+") {
		return p
	}

	config := *p.espeak.config
	espeak := &ESpeak{config: &config, ffmpeg: p.espeak.ffmpeg}
	espeak.SetVoice(voice)
	return &ESpeakProvider{espeak: espeak}
}

// Name returns the provider name
func (p *ESpeakProvider) Name() string {
	return "espeak-ng"
}

// IsAvailable checks if espeak-ng is installed
func (p *ESpeakProvider) IsAvailable() error {
	return checkESpeakInstalled()
}
