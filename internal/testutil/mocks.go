package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"codeberg.org/snonux/polyglot/internal/audio"
	"codeberg.org/snonux/polyglot/internal/image"
	"codeberg.org/snonux/polyglot/internal/media"
)

// CallLog records calls made to a mock, in order
type CallLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *CallLog) add(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, fmt.Sprintf(format, args...))
}

// Calls returns a copy of the recorded calls
func (l *CallLog) Calls() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

// MockTextGenerator mocks description generation
type MockTextGenerator struct {
	CallLog
	Description string
	Err         error
}

// Generate returns Description, or "<prompt> description" when unset
func (m *MockTextGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	m.add("Generate: %s", prompt)
	if m.Err != nil {
		return "", m.Err
	}
	if m.Description != "" {
		return m.Description, nil
	}
	return prompt + " description", nil
}

// Name returns the provider name
func (m *MockTextGenerator) Name() string { return "mock-text" }

// MockImageGenerator mocks image generation with tiny fake PNG bytes
type MockImageGenerator struct {
	CallLog
	Err error
}

// Generate returns fake image data for frame
func (m *MockImageGenerator) Generate(ctx context.Context, description string, frame int) (*image.Result, error) {
	m.add("Image %d: %s", frame, description)
	if m.Err != nil {
		return nil, m.Err
	}
	return &image.Result{PNG: GenerateImageData(), Width: 1, Height: 1, Source: "mock"}, nil
}

// GetAttribution returns no attribution
func (m *MockImageGenerator) GetAttribution() string { return "" }

// Name returns the provider name
func (m *MockImageGenerator) Name() string { return "mock-image" }

// MockMedia mocks the ffmpeg operations by writing placeholder output files
type MockMedia struct {
	CallLog
	Errors map[string]error // keyed by operation: "frames", "extract", "replace"
}

func (m *MockMedia) result(op, out string) error {
	if err, ok := m.Errors[op]; ok {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return err
	}
	return os.WriteFile(out, []byte(op+" output"), 0644)
}

// FramesToVideo records the call and writes out
func (m *MockMedia) FramesToVideo(ctx context.Context, framesDir, pattern string, fps float64, out string) error {
	m.add("FramesToVideo: %s/%s @%g -> %s", filepath.Base(framesDir), pattern, fps, filepath.Base(out))
	return m.result("frames", out)
}

// ExtractAudio records the call and writes out
func (m *MockMedia) ExtractAudio(ctx context.Context, video, out string, opts media.ExtractOptions) error {
	m.add("ExtractAudio: %s -> %s", filepath.Base(video), filepath.Base(out))
	return m.result("extract", out)
}

// ReplaceAudio records the call and writes out
func (m *MockMedia) ReplaceAudio(ctx context.Context, video, audio, out string) error {
	m.add("ReplaceAudio: %s + %s -> %s", filepath.Base(video), filepath.Base(audio), filepath.Base(out))
	return m.result("replace", out)
}

// MockRecognizer mocks speech recognition
type MockRecognizer struct {
	CallLog
	Transcript string
	Err        error
}

// Transcribe returns Transcript or Err
func (m *MockRecognizer) Transcribe(ctx context.Context, audioFile, language string) (string, error) {
	m.add("Transcribe: %s (%s)", filepath.Base(audioFile), language)
	if m.Err != nil {
		return "", m.Err
	}
	return m.Transcript, nil
}

// Name returns the provider name
func (m *MockRecognizer) Name() string { return "mock-speech" }

// MockTranslator mocks translation service
type MockTranslator struct {
	CallLog
	Translations map[string]string
	Errors       map[string]error
}

// Translate returns the configured translation or "[lang] text"
func (m *MockTranslator) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	m.add("Translate: %s (->%s)", text, targetLanguage)

	if err, ok := m.Errors[text]; ok {
		return "", err
	}
	if translation, ok := m.Translations[text]; ok {
		return translation, nil
	}
	return fmt.Sprintf("[%s] %s", targetLanguage, text), nil
}

// Name returns the provider name
func (m *MockTranslator) Name() string { return "mock-translator" }

// MockTTS mocks text-to-speech and writes GenerateAudioData to the output.
// Calls are recorded with the language they were made in.
type MockTTS struct {
	CallLog
	Language string
	Err      error
}

// GenerateAudio records the call and writes fake audio
func (m *MockTTS) GenerateAudio(ctx context.Context, text, outputFile string) error {
	return m.generate(m.Language, text, outputFile)
}

func (m *MockTTS) generate(lang, text, outputFile string) error {
	m.add("TTS %s: %s -> %s", lang, text, filepath.Base(outputFile))
	if m.Err != nil {
		return m.Err
	}
	return os.WriteFile(outputFile, GenerateAudioData(), 0644)
}

// ForLanguage returns a view of m speaking lang
func (m *MockTTS) ForLanguage(lang string) audio.Provider {
	return &mockTTSLanguage{parent: m, lang: lang}
}

type mockTTSLanguage struct {
	parent *MockTTS
	lang   string
}

func (v *mockTTSLanguage) GenerateAudio(ctx context.Context, text, outputFile string) error {
	return v.parent.generate(v.lang, text, outputFile)
}

func (v *mockTTSLanguage) Name() string { return v.parent.Name() }

func (v *mockTTSLanguage) IsAvailable() error { return nil }

// Name returns the provider name
func (m *MockTTS) Name() string { return "mock-tts" }

// IsAvailable always succeeds
func (m *MockTTS) IsAvailable() error { return nil }

// GenerateAudioData generates mock audio data
func GenerateAudioData() []byte {
	// Simple mock MP3 header
	return []byte{0xFF, 0xFB, 0x90, 0x00, 0x00, 0x00, 0x00, 0x00}
}

// GenerateImageData generates mock image data
func GenerateImageData() []byte {
	// PNG signature only
	return []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
}
