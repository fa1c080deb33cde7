package audio

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"codeberg.org/snonux/polyglot/internal/media"
	"codeberg.org/snonux/polyglot/internal/translation"
)

var commandContext = exec.CommandContext

// ESpeakConfig holds configuration for espeak-ng audio generation
type ESpeakConfig struct {
	Voice      string // espeak-ng voice, a language code with optional variant ("hi", "hi+f1")
	Speed      int    // Speech speed in words per minute (default: 150)
	Pitch      int    // Pitch adjustment, 0 to 99 (default: 50)
	Amplitude  int    // Volume/amplitude, 0 to 200 (default: 100)
	WordGap    int    // Gap between words in 10ms units (default: 0)
	OutputDir  string
	FFmpegPath string
}

// DefaultConfig returns the default espeak-ng configuration
func DefaultConfig() *ESpeakConfig {
	return &ESpeakConfig{
		Voice:      translation.DefaultTargetLanguage,
		Speed:      150,
		Pitch:      50,
		Amplitude:  100,
		WordGap:    0,
		OutputDir:  "./",
		FFmpegPath: "ffmpeg",
	}
}

// ESpeakConfigFor derives an espeak-ng configuration from the provider
// config. The voice is the base language code.
func ESpeakConfigFor(config *Config) *ESpeakConfig {
	ec := DefaultConfig()
	if config == nil {
		return ec
	}
	if v := voiceForLanguage(config.Language); v != "" {
		ec.Voice = v
	}
	if config.OutputDir != "" {
		ec.OutputDir = config.OutputDir
	}
	if config.FFmpegPath != "" {
		ec.FFmpegPath = config.FFmpegPath
	}
	return ec
}

func voiceForLanguage(lang string) string {
	return strings.ToLower(strings.SplitN(strings.TrimSpace(lang), "-", 2)[0])
}

// ESpeak provides an interface to the espeak-ng text-to-speech engine
type ESpeak struct {
	config *ESpeakConfig
	ffmpeg *media.Tools
}

// New creates a new ESpeak instance with the given configuration
func New(config *ESpeakConfig) (*ESpeak, error) {
	if err := checkESpeakInstalled(); err != nil {
		return nil, err
	}

	if config == nil {
		config = DefaultConfig()
	}

	return &ESpeak{config: config, ffmpeg: media.New(config.FFmpegPath)}, nil
}

// GenerateAudio writes a WAV file for text
func (e *ESpeak) GenerateAudio(ctx context.Context, text string, outputFile string) error {
	if err := ValidateText(text); err != nil {
		return err
	}

	dir := filepath.Dir(outputFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	cmd := commandContext(ctx, "espeak-ng", e.args(text, outputFile)...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("espeak-ng failed: %w\nOutput: %s", err, string(output))
	}

	return nil
}

func (e *ESpeak) args(text, outputFile string) []string {
	args := []string{
		"-v", e.config.Voice,
		"-s", fmt.Sprintf("%d", e.config.Speed),
		"-p", fmt.Sprintf("%d", e.config.Pitch),
		"-a", fmt.Sprintf("%d", e.config.Amplitude),
	}
	if e.config.WordGap > 0 {
		args = append(args, "-g", fmt.Sprintf("%d", e.config.WordGap))
	}
	return append(args, "-w", outputFile, text)
}

// GenerateMP3 synthesizes a temporary WAV and converts it with ffmpeg
func (e *ESpeak) GenerateMP3(ctx context.Context, text string, outputFile string) error {
	tempWAV := strings.TrimSuffix(outputFile, filepath.Ext(outputFile)) + "_temp.wav"
	defer os.Remove(tempWAV)

	if err := e.GenerateAudio(ctx, text, tempWAV); err != nil {
		return err
	}
	return e.ffmpeg.ConvertWAVToMP3(ctx, tempWAV, outputFile)
}

// SetVoice updates the voice variant
func (e *ESpeak) SetVoice(voice string) {
	e.config.Voice = voice
}

var lookPath = exec.LookPath

func checkESpeakInstalled() error {
	if _, err := lookPath("espeak-ng"); err != nil {
		return fmt.Errorf("espeak-ng is not installed or not in PATH: %w", err)
	}
	return nil
}
