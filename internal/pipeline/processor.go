package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"codeberg.org/snonux/polyglot/internal/audio"
	"codeberg.org/snonux/polyglot/internal/document"
	"codeberg.org/snonux/polyglot/internal/image"
	"codeberg.org/snonux/polyglot/internal/logger"
	"codeberg.org/snonux/polyglot/internal/media"
	"codeberg.org/snonux/polyglot/internal/speech"
	"codeberg.org/snonux/polyglot/internal/store"
	"codeberg.org/snonux/polyglot/internal/textgen"
	"codeberg.org/snonux/polyglot/internal/translation"
)

// Output file names inside a job directory
const (
	TranslatedPDFName   = "translated_document.pdf"
	ExtractedAudioName  = "audio.wav"
	TranslatedAudioName = "translated_audio.mp3"
	TranslatedVideoName = "translated_video.mp4"
	StoryVideoName      = "output_video.mp4"
)

// MediaTools is the ffmpeg surface the flows need
type MediaTools interface {
	FramesToVideo(ctx context.Context, framesDir, pattern string, fps float64, out string) error
	ExtractAudio(ctx context.Context, video, out string, opts media.ExtractOptions) error
	ReplaceAudio(ctx context.Context, video, audio, out string) error
}

// History records jobs; *store.Store implements it
type History interface {
	Start(ctx context.Context, id, kind, source, language string) error
	Finish(ctx context.Context, id, outputPath string, jobErr error) error
}

// Stages holds the implementation of every stage. A flow only needs the
// stages it uses.
type Stages struct {
	Text       textgen.Generator
	Images     image.Generator
	Media      MediaTools
	Speech     speech.Recognizer
	Translator translation.Translator
	TTS        audio.Provider

	ExtractText func(path string) (string, error)
	WritePDF    func(text, out string, opts document.WriteOptions) error
}

// Options tune the flows
type Options struct {
	Frames         int     // story frames, default 10
	FPS            float64 // story frame rate, default 1.0
	SpeechLanguage string  // language spoken in dubbed videos, e.g. "en-US"
	PDF            document.WriteOptions
	Stdout         io.Writer // user-facing progress; nil discards it
}

// ProgressFunc receives stage updates for a job
type ProgressFunc func(jobID, stage, message string)

// Processor runs the flows
type Processor struct {
	stages   Stages
	opts     Options
	history  History
	log      *logger.Logger
	progress ProgressFunc
}

// NewProcessor creates a processor. Unset document functions default to
// the document package.
func NewProcessor(stages Stages, opts Options, log *logger.Logger) *Processor {
	if stages.ExtractText == nil {
		stages.ExtractText = document.ExtractText
	}
	if stages.WritePDF == nil {
		stages.WritePDF = document.WritePDF
	}
	if opts.Frames <= 0 {
		opts.Frames = image.DefaultFrames
	}
	if opts.FPS <= 0 {
		opts.FPS = media.DefaultFPS
	}
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Processor{stages: stages, opts: opts, log: log}
}

// WithHistory records every job in h
func (p *Processor) WithHistory(h History) *Processor {
	p.history = h
	return p
}

// WithProgress reports stage updates to fn
func (p *Processor) WithProgress(fn ProgressFunc) *Processor {
	p.progress = fn
	return p
}

// NewJobDir creates <root>/<uuid> and returns the id and directory
func NewJobDir(root string) (string, string, error) {
	id := uuid.NewString()
	dir := filepath.Join(root, id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", "", fmt.Errorf("failed to create job directory: %w", err)
	}
	return id, dir, nil
}

// TranscriptionError reports that the speech stage failed. It wraps the
// speech error, so errors.Is(err, speech.ErrUnknownValue) works.
type TranscriptionError struct {
	Err error
}

func (e *TranscriptionError) Error() string {
	return "transcription failed: " + e.Err.Error()
}

func (e *TranscriptionError) Unwrap() error {
	return e.Err
}

// Message returns the text shown to users for this failure
func (e *TranscriptionError) Message() string {
	if errors.Is(e.Err, speech.ErrUnknownValue) {
		return "Error: Could not understand audio."
	}
	return "Error: Could not request results from the recognition service."
}

func jobID(jobDir string) string {
	return filepath.Base(filepath.Clean(jobDir))
}

func (p *Processor) stage(id, stage, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(p.opts.Stdout, "  %s\n", msg)
	p.log.Info(msg, "job", id, "stage", stage)
	if p.progress != nil {
		p.progress(id, stage, msg)
	}
}

// begin records a job start; history failures are logged only
func (p *Processor) begin(ctx context.Context, id, kind, source, lang string) {
	if p.history == nil {
		return
	}
	if err := p.history.Start(ctx, id, kind, source, lang); err != nil {
		p.log.Warn("failed to record job", "job", id, "error", err)
	}
}

func (p *Processor) finish(id, output string, err error) {
	if p.history == nil {
		return
	}
	// The request context may already be gone
	if herr := p.history.Finish(context.Background(), id, output, err); herr != nil {
		p.log.Warn("failed to update job", "job", id, "error", herr)
	}
}

type check struct {
	name string
	ok   bool
}

func requireAll(checks ...check) error {
	for _, c := range checks {
		if !c.ok {
			return fmt.Errorf("%s stage is not configured", c.name)
		}
	}
	return nil
}

func statFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("input file: %w", err)
	}
	return nil
}

var _ History = (*store.Store)(nil)
