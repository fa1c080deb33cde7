// Package media wraps the ffmpeg invocations used to assemble story videos,
// pull audio out of uploaded videos and put the dubbed track back in.
package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

var commandContext = exec.CommandContext

var lookPath = exec.LookPath

const (
	// DefaultFramePattern matches the names written by image.SaveFrames
	DefaultFramePattern = "frame_%03d.png"

	// DefaultFPS is the story video frame rate
	DefaultFPS = 1.0

	DefaultTimeout = 10 * time.Minute
)

// Tools runs ffmpeg
type Tools struct {
	FFmpeg  string
	Timeout time.Duration
}

// New returns Tools using the given ffmpeg binary ("ffmpeg" when empty)
func New(ffmpeg string) *Tools {
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	return &Tools{FFmpeg: ffmpeg, Timeout: DefaultTimeout}
}

// AssertReady checks that the ffmpeg binary can be found
func (t *Tools) AssertReady(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := lookPath(t.FFmpeg); err != nil {
		return fmt.Errorf("%s is not installed or not in PATH: %w", t.FFmpeg, err)
	}
	return nil
}

// FramesToVideo encodes an image sequence into an MP4. The frame size is
// taken from the first frame.
func (t *Tools) FramesToVideo(ctx context.Context, framesDir, pattern string, fps float64, out string) error {
	if pattern == "" {
		pattern = DefaultFramePattern
	}
	if fps <= 0 {
		fps = DefaultFPS
	}
	first := filepath.Join(framesDir, fmt.Sprintf(pattern, 0))
	if _, err := os.Stat(first); err != nil {
		return fmt.Errorf("frames to video: no first frame: %w", err)
	}
	return t.run(ctx, "frames to video", framesToVideoArgs(filepath.Join(framesDir, pattern), fps, out))
}

func framesToVideoArgs(input string, fps float64, out string) []string {
	rate := formatRate(fps)
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-framerate", rate,
		"-i", input,
		"-c:v", "mpeg4",
		"-q:v", "2",
		"-pix_fmt", "yuv420p",
		"-r", rate,
		out,
	}
}

// ExtractOptions selects the extracted audio layout
type ExtractOptions struct {
	Format     string // "wav" (default) or "flac"
	SampleRate int    // default 16000
	Channels   int    // default 1
}

// ExtractAudio writes the first audio stream of video to out
func (t *Tools) ExtractAudio(ctx context.Context, video, out string, opts ExtractOptions) error {
	args, err := extractAudioArgs(video, out, opts)
	if err != nil {
		return err
	}
	if _, err := os.Stat(video); err != nil {
		return fmt.Errorf("extract audio: %w", err)
	}
	return t.run(ctx, "extract audio", args)
}

func extractAudioArgs(video, out string, opts ExtractOptions) ([]string, error) {
	if opts.SampleRate <= 0 {
		opts.SampleRate = 16000
	}
	if opts.Channels <= 0 {
		opts.Channels = 1
	}
	var codec string
	switch strings.ToLower(opts.Format) {
	case "", "wav":
		codec = "pcm_s16le"
	case "flac":
		codec = "flac"
	default:
		return nil, fmt.Errorf("extract audio: unsupported format %q", opts.Format)
	}
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", video,
		"-vn",
		"-sn",
		"-dn",
		"-ac", fmt.Sprintf("%d", opts.Channels),
		"-ar", fmt.Sprintf("%d", opts.SampleRate),
		"-c:a", codec,
		out,
	}, nil
}

// ReplaceAudio muxes the video stream of video with the audio of audio.
// The output keeps the full video length.
func (t *Tools) ReplaceAudio(ctx context.Context, video, audio, out string) error {
	for _, in := range []string{video, audio} {
		if _, err := os.Stat(in); err != nil {
			return fmt.Errorf("replace audio: %w", err)
		}
	}
	return t.run(ctx, "replace audio", replaceAudioArgs(video, audio, out))
}

func replaceAudioArgs(video, audio, out string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", video,
		"-i", audio,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		out,
	}
}

// ConvertWAVToMP3 transcodes a WAV file to MP3
func (t *Tools) ConvertWAVToMP3(ctx context.Context, wavFile, mp3File string) error {
	return t.run(ctx, "wav to mp3", []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", wavFile,
		"-c:a", "libmp3lame",
		mp3File,
	})
}

func (t *Tools) run(ctx context.Context, op string, args []string) error {
	if t.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}
	if dir := filepath.Dir(args[len(args)-1]); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("%s: create output directory: %w", op, err)
		}
	}

	cmd := commandContext(ctx, t.FFmpeg, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%s: ffmpeg timed out after %s", op, t.Timeout)
		}
		return fmt.Errorf("%s: %w: %s", op, err, strings.TrimSpace(string(output)))
	}
	return nil
}

func formatRate(fps float64) string {
	s := fmt.Sprintf("%.3f", fps)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
