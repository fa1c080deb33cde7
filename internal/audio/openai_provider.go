package audio

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/sashabaranov/go-openai"

	"codeberg.org/snonux/polyglot/internal/breaker"
)

// MaxInputRunes is the longest input a single OpenAI speech request accepts
const MaxInputRunes = 4096

// OpenAIProvider implements Provider interface for OpenAI TTS
type OpenAIProvider struct {
	client      *openai.Client
	config      *Config
	cacheDir    string
	enableCache bool
}

// NewOpenAIProvider creates a new OpenAI TTS provider
func NewOpenAIProvider(config *Config) (Provider, error) {
	if config.OpenAIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	provider := &OpenAIProvider{
		client:      openai.NewClient(config.OpenAIKey),
		config:      config,
		cacheDir:    config.CacheDir,
		enableCache: config.EnableCache,
	}

	if provider.enableCache && provider.cacheDir != "" {
		if err := os.MkdirAll(provider.cacheDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	return provider, nil
}

// GenerateAudio generates audio using OpenAI TTS. Text longer than one
// request allows is cut at MaxInputRunes.
func (p *OpenAIProvider) GenerateAudio(ctx context.Context, text string, outputFile string) error {
	if err := ValidateText(text); err != nil {
		return err
	}

	if p.enableCache {
		cacheFile := p.getCacheFilePath(text)
		if _, err := os.Stat(cacheFile); err == nil {
			return p.copyFile(cacheFile, outputFile)
		}
	}

	input := normalizeSpeechText(text)
	if runes := []rune(input); len(runes) > MaxInputRunes {
		p.config.log().Warn("TTS input truncated", "runes", len(runes), "limit", MaxInputRunes)
		input = string(runes[:MaxInputRunes])
	}

	req := openai.CreateSpeechRequest{
		Model: openai.SpeechModel(p.config.OpenAIModel),
		Input: input,
		Voice: openai.SpeechVoice(p.config.OpenAIVoice),
		Speed: p.config.OpenAISpeed,
	}
	if p.supportsInstructions() {
		req.Instructions = p.config.Instruction()
	}

	var format openai.SpeechResponseFormat
	format, outputFile = responseFormat(outputFile)
	req.ResponseFormat = format

	p.config.log().Debug("OpenAI TTS request",
		"model", p.config.OpenAIModel, "voice", p.config.OpenAIVoice,
		"speed", p.config.OpenAISpeed, "language", p.config.Language, "runes", len([]rune(input)))

	response, err := breaker.Do("openai", func() (openai.RawResponse, error) {
		return p.client.CreateSpeech(ctx, req)
	})
	if err != nil {
		if strings.Contains(err.Error(), "does not have access to model") && p.supportsInstructions() {
			return fmt.Errorf("OpenAI TTS API error: %w\nNote: The %s model requires access. Try using --openai-model tts-1-hd instead", err, p.config.OpenAIModel)
		}
		return fmt.Errorf("OpenAI TTS API error: %w", err)
	}
	defer response.Close()

	dir := filepath.Dir(outputFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	out, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	written, err := io.Copy(out, response)
	if err != nil {
		return fmt.Errorf("failed to write audio file: %w", err)
	}

	if written == 0 {
		return fmt.Errorf("no audio data received from OpenAI")
	}

	if p.enableCache {
		_ = p.copyFile(outputFile, p.getCacheFilePath(text))
	}

	return nil
}

// responseFormat picks the API format from the file extension. Unknown
// extensions get mp3 and the ".mp3" suffix appended.
func responseFormat(outputFile string) (openai.SpeechResponseFormat, string) {
	switch strings.ToLower(filepath.Ext(outputFile)) {
	case ".mp3":
		return openai.SpeechResponseFormatMp3, outputFile
	case ".wav":
		return openai.SpeechResponseFormatWav, outputFile
	case ".opus":
		return openai.SpeechResponseFormatOpus, outputFile
	case ".aac":
		return openai.SpeechResponseFormatAac, outputFile
	case ".flac":
		return openai.SpeechResponseFormatFlac, outputFile
	default:
		return openai.SpeechResponseFormatMp3, outputFile + ".mp3"
	}
}

// ForLanguage returns a provider whose voice instruction names lang. The
// client and cache are shared.
func (p *OpenAIProvider) ForLanguage(lang string) Provider {
	if lang == p.config.Language {
		return p
	}
	clone := *p
	clone.config = p.config.withLanguage(lang)
	return &clone
}

func (p *OpenAIProvider) supportsInstructions() bool {
	return p.config.OpenAIModel == "gpt-4o-mini-tts" || p.config.OpenAIModel == "gpt-4o-mini-audio-preview"
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// IsAvailable checks if the OpenAI API is accessible
func (p *OpenAIProvider) IsAvailable() error {
	if p.config.OpenAIKey == "" {
		return fmt.Errorf("OpenAI API key not configured")
	}
	return nil
}

// normalizeSpeechText collapses runs of whitespace so transcript line
// breaks do not turn into long pauses
func normalizeSpeechText(text string) string {
	return strings.Join(strings.FieldsFunc(text, unicode.IsSpace), " ")
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r)
}

// getCacheFilePath generates a cache file path for the given text
func (p *OpenAIProvider) getCacheFilePath(text string) string {
	h := md5.New()
	h.Write([]byte(text))
	h.Write([]byte(p.config.OpenAIModel))
	h.Write([]byte(p.config.OpenAIVoice))
	h.Write([]byte(fmt.Sprintf("%.2f", p.config.OpenAISpeed)))
	if p.supportsInstructions() {
		h.Write([]byte(p.config.Instruction()))
	}
	hash := hex.EncodeToString(h.Sum(nil))

	// First 2 chars as subdirectory
	return filepath.Join(p.cacheDir, hash[:2], hash[2:]+".mp3")
}

// copyFile copies a file from src to dst
func (p *OpenAIProvider) copyFile(src, dst string) error {
	dir := filepath.Dir(dst)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	source, err := os.Open(src)
	if err != nil {
		return err
	}
	defer source.Close()

	destination, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destination.Close()

	_, err = io.Copy(destination, source)
	return err
}

// ClearCache removes all cached audio files
func (p *OpenAIProvider) ClearCache() error {
	if p.cacheDir == "" {
		return nil
	}
	return os.RemoveAll(p.cacheDir)
}

// GetCacheStats returns cache statistics
func (p *OpenAIProvider) GetCacheStats() (fileCount int, totalSize int64, err error) {
	if !p.enableCache || p.cacheDir == "" {
		return 0, 0, nil
	}

	err = filepath.Walk(p.cacheDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			fileCount++
			totalSize += info.Size()
		}
		return nil
	})

	return fileCount, totalSize, err
}
