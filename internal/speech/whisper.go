package speech

import (
	"context"
	"strings"

	"github.com/sashabaranov/go-openai"

	"codeberg.org/snonux/polyglot/internal/breaker"
)

// WhisperRecognizer transcribes with the OpenAI transcription endpoint
type WhisperRecognizer struct {
	client *openai.Client
	model  string
}

// NewWhisperRecognizer creates an OpenAI Whisper recognizer
func NewWhisperRecognizer(apiKey, model string) *WhisperRecognizer {
	if model == "" {
		model = openai.Whisper1
	}
	return &WhisperRecognizer{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// Name returns the provider name
func (w *WhisperRecognizer) Name() string {
	return "openai-whisper"
}

// Transcribe sends audioFile to Whisper
func (w *WhisperRecognizer) Transcribe(ctx context.Context, audioFile string, language string) (string, error) {
	req := openai.AudioRequest{
		Model:    w.model,
		FilePath: audioFile,
		Language: whisperLanguage(language),
		Format:   openai.AudioResponseFormatJSON,
	}

	resp, err := breaker.Do("openai", func() (openai.AudioResponse, error) {
		return w.client.CreateTranscription(ctx, req)
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", requestError(w.Name(), err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", unknownValue(w.Name())
	}
	return text, nil
}

// whisperLanguage reduces a BCP-47 tag to the ISO-639-1 code Whisper expects
func whisperLanguage(language string) string {
	language = strings.TrimSpace(language)
	if language == "" || strings.EqualFold(language, "auto") {
		return ""
	}
	base := strings.SplitN(language, "-", 2)[0]
	return strings.ToLower(base)
}

var _ Recognizer = (*WhisperRecognizer)(nil)
