package speech

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestNewRecognizer(t *testing.T) {
	tests := []struct {
		name     string
		config   *Config
		wantErr  bool
		wantName string
	}{
		{"nil config", nil, true, ""},
		{"openai without key", &Config{Provider: "openai"}, true, ""},
		{"openai", &Config{Provider: "openai", OpenAIKey: "k"}, false, "openai-whisper"},
		{"default provider is openai", &Config{OpenAIKey: "k"}, false, "openai-whisper"},
		{"unknown provider", &Config{Provider: "sphinx"}, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRecognizer(context.Background(), tt.config)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewRecognizer() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && r.Name() != tt.wantName {
				t.Errorf("Name() = %s, want %s", r.Name(), tt.wantName)
			}
		})
	}
}

func TestErrorKinds(t *testing.T) {
	cause := errors.New("connection refused")

	reqErr := requestError("openai-whisper", cause)
	if !errors.Is(reqErr, ErrRequest) {
		t.Error("requestError does not match ErrRequest")
	}
	if !errors.Is(reqErr, cause) {
		t.Error("requestError does not wrap the cause")
	}
	if errors.Is(reqErr, ErrUnknownValue) {
		t.Error("requestError matches ErrUnknownValue")
	}

	uv := unknownValue("google-speech")
	if !errors.Is(uv, ErrUnknownValue) {
		t.Error("unknownValue does not match ErrUnknownValue")
	}
}

func TestWhisperLanguage(t *testing.T) {
	tests := map[string]string{
		"en-US": "en",
		"hi":    "hi",
		"":      "",
		"auto":  "",
		" ES ":  "es",
	}
	for in, want := range tests {
		if got := whisperLanguage(in); got != want {
			t.Errorf("whisperLanguage(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWhisperTranscribe_Integration(t *testing.T) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	audio := os.Getenv("POLYGLOT_TEST_AUDIO")
	if apiKey == "" || audio == "" {
		t.Skip("OPENAI_API_KEY or POLYGLOT_TEST_AUDIO not set, skipping integration test")
	}

	text, err := NewWhisperRecognizer(apiKey, "").Transcribe(context.Background(), audio, "en-US")
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	t.Logf("Transcript: %s", text)
}

func TestInferEncoding(t *testing.T) {
	tests := map[string]speechpb.RecognitionConfig_AudioEncoding{
		"audio.wav":  speechpb.RecognitionConfig_LINEAR16,
		"audio.FLAC": speechpb.RecognitionConfig_FLAC,
		"a.mp3":      speechpb.RecognitionConfig_MP3,
		"a.opus":     speechpb.RecognitionConfig_OGG_OPUS,
		"a.bin":      speechpb.RecognitionConfig_ENCODING_UNSPECIFIED,
	}
	for file, want := range tests {
		if got := inferEncoding(file); got != want {
			t.Errorf("inferEncoding(%q) = %v, want %v", file, got, want)
		}
	}
}

func TestRecognitionConfig_DefaultLanguage(t *testing.T) {
	cfg := recognitionConfig("a.wav", "")
	if cfg.GetLanguageCode() != "en-US" {
		t.Errorf("LanguageCode = %q, want en-US", cfg.GetLanguageCode())
	}
	if cfg.GetSampleRateHertz() != 0 {
		t.Errorf("SampleRateHertz = %d, want 0 (read from header)", cfg.GetSampleRateHertz())
	}
}

func TestJoinTranscripts(t *testing.T) {
	results := []*speechpb.SpeechRecognitionResult{
		{Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: " hello "}, {Transcript: "yellow"}}},
		{},
		{Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: "world"}}},
	}
	if got := joinTranscripts(results); got != "hello world" {
		t.Errorf("joinTranscripts() = %q, want %q", got, "hello world")
	}
	if got := joinTranscripts(nil); got != "" {
		t.Errorf("joinTranscripts(nil) = %q, want empty", got)
	}
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{status.Error(codes.Unavailable, "down"), true},
		{status.Error(codes.ResourceExhausted, "quota"), true},
		{status.Error(codes.InvalidArgument, "bad audio"), false},
		{errors.New("plain"), false},
	}
	for _, tt := range tests {
		if got := retryable(tt.err); got != tt.want {
			t.Errorf("retryable(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestGoogleTranscribe_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.wav")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}

	g := &GoogleRecognizer{}
	_, err := g.Transcribe(context.Background(), path, "en-US")
	if !errors.Is(err, ErrUnknownValue) {
		t.Errorf("error = %v, want ErrUnknownValue", err)
	}

	_, err = g.Transcribe(context.Background(), filepath.Join(t.TempDir(), "missing.wav"), "en-US")
	if err == nil || errors.Is(err, ErrUnknownValue) || errors.Is(err, ErrRequest) {
		t.Errorf("missing file error = %v, want plain read error", err)
	}
}
