package speech

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	gspeech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// GoogleRecognizer transcribes with Google Cloud Speech-to-Text
type GoogleRecognizer struct {
	client     *gspeech.Client
	maxRetries int
	backoff    time.Duration
}

// NewGoogleRecognizer creates a Cloud Speech client. credentialsFile may
// be empty to use application default credentials.
func NewGoogleRecognizer(ctx context.Context, credentialsFile string) (*GoogleRecognizer, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	c, err := gspeech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("speech client: %w", err)
	}
	return &GoogleRecognizer{client: c, maxRetries: 3, backoff: 2 * time.Second}, nil
}

// Name returns the provider name
func (g *GoogleRecognizer) Name() string {
	return "google-speech"
}

// Close releases the underlying gRPC connection
func (g *GoogleRecognizer) Close() error {
	if g == nil || g.client == nil {
		return nil
	}
	return g.client.Close()
}

// Transcribe sends the audio inline and waits for the long-running operation
func (g *GoogleRecognizer) Transcribe(ctx context.Context, audioFile string, language string) (string, error) {
	audio, err := os.ReadFile(audioFile)
	if err != nil {
		return "", fmt.Errorf("read audio: %w", err)
	}
	if len(audio) == 0 {
		return "", unknownValue(g.Name())
	}

	req := &speechpb.LongRunningRecognizeRequest{
		Config: recognitionConfig(audioFile, language),
		Audio:  &speechpb.RecognitionAudio{AudioSource: &speechpb.RecognitionAudio_Content{Content: audio}},
	}

	var resp *speechpb.LongRunningRecognizeResponse
	for attempt := 0; ; attempt++ {
		resp, err = g.recognize(ctx, req)
		if err == nil || attempt >= g.maxRetries || !retryable(err) {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(g.backoff * time.Duration(attempt+1)):
		}
	}
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", requestError(g.Name(), err)
	}

	text := joinTranscripts(resp.GetResults())
	if text == "" {
		return "", unknownValue(g.Name())
	}
	return text, nil
}

func (g *GoogleRecognizer) recognize(ctx context.Context, req *speechpb.LongRunningRecognizeRequest) (*speechpb.LongRunningRecognizeResponse, error) {
	op, err := g.client.LongRunningRecognize(ctx, req)
	if err != nil {
		return nil, err
	}
	return op.Wait(ctx)
}

func recognitionConfig(audioFile, language string) *speechpb.RecognitionConfig {
	if strings.TrimSpace(language) == "" {
		language = "en-US"
	}
	return &speechpb.RecognitionConfig{
		LanguageCode:               language,
		Encoding:                   inferEncoding(audioFile),
		EnableAutomaticPunctuation: true,
	}
}

// inferEncoding maps a file extension to a Cloud Speech encoding. WAV and
// FLAC carry their sample rate in the header, so none is set explicitly.
func inferEncoding(audioFile string) speechpb.RecognitionConfig_AudioEncoding {
	switch strings.ToLower(filepath.Ext(audioFile)) {
	case ".wav":
		return speechpb.RecognitionConfig_LINEAR16
	case ".flac":
		return speechpb.RecognitionConfig_FLAC
	case ".mp3":
		return speechpb.RecognitionConfig_MP3
	case ".ogg", ".opus":
		return speechpb.RecognitionConfig_OGG_OPUS
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED
	}
}

func joinTranscripts(results []*speechpb.SpeechRecognitionResult) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		alts := r.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		if t := strings.TrimSpace(alts[0].GetTranscript()); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

func retryable(err error) bool {
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Internal:
		return true
	default:
		return false
	}
}

var _ Recognizer = (*GoogleRecognizer)(nil)
