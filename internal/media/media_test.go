package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestFramesToVideoArgs(t *testing.T) {
	got := framesToVideoArgs("/tmp/job/frame_%03d.png", 1.0, "/tmp/job/output_video.mp4")
	want := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-framerate", "1",
		"-i", "/tmp/job/frame_%03d.png",
		"-c:v", "mpeg4", "-q:v", "2",
		"-pix_fmt", "yuv420p",
		"-r", "1",
		"/tmp/job/output_video.mp4",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("framesToVideoArgs() =\n%v\nwant\n%v", got, want)
	}
}

func TestFormatRate(t *testing.T) {
	tests := map[float64]string{
		1.0:    "1",
		0.5:    "0.5",
		29.97:  "29.97",
		24:     "24",
		0.3333: "0.333",
	}
	for in, want := range tests {
		if got := formatRate(in); got != want {
			t.Errorf("formatRate(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestExtractAudioArgs(t *testing.T) {
	tests := []struct {
		name      string
		opts      ExtractOptions
		wantCodec string
		wantRate  string
		wantErr   bool
	}{
		{name: "defaults to wav", opts: ExtractOptions{}, wantCodec: "pcm_s16le", wantRate: "16000"},
		{name: "flac", opts: ExtractOptions{Format: "FLAC", SampleRate: 44100}, wantCodec: "flac", wantRate: "44100"},
		{name: "mp3 rejected", opts: ExtractOptions{Format: "mp3"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, err := extractAudioArgs("in.mp4", "audio.wav", tt.opts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("extractAudioArgs() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if v := argAfter(args, "-c:a"); v != tt.wantCodec {
				t.Errorf("codec = %q, want %q", v, tt.wantCodec)
			}
			if v := argAfter(args, "-ar"); v != tt.wantRate {
				t.Errorf("sample rate = %q, want %q", v, tt.wantRate)
			}
			if v := argAfter(args, "-ac"); v != "1" {
				t.Errorf("channels = %q, want 1", v)
			}
			if findArg(args, "-vn") < 0 {
				t.Error("expected -vn to drop the video stream")
			}
			if args[len(args)-1] != "audio.wav" {
				t.Errorf("output = %q, want audio.wav", args[len(args)-1])
			}
		})
	}
}

func TestReplaceAudioArgs(t *testing.T) {
	args := replaceAudioArgs("in.mp4", "dub.mp3", "out.mp4")

	maps := []string{}
	for i, a := range args {
		if a == "-map" {
			maps = append(maps, args[i+1])
		}
	}
	if !reflect.DeepEqual(maps, []string{"0:v:0", "1:a:0"}) {
		t.Errorf("maps = %v", maps)
	}
	if v := argAfter(args, "-c:v"); v != "libx264" {
		t.Errorf("video codec = %q, want libx264", v)
	}
	if v := argAfter(args, "-c:a"); v != "aac" {
		t.Errorf("audio codec = %q, want aac", v)
	}
	if findArg(args, "-shortest") >= 0 {
		t.Error("output must keep the full video length")
	}
}

func TestAssertReady(t *testing.T) {
	original := lookPath
	t.Cleanup(func() { lookPath = original })

	lookPath = func(file string) (string, error) { return "/usr/bin/" + file, nil }
	if err := New("").AssertReady(context.Background()); err != nil {
		t.Errorf("AssertReady() error = %v", err)
	}

	lookPath = func(file string) (string, error) { return "", exec.ErrNotFound }
	err := New("ffmpeg-missing").AssertReady(context.Background())
	if err == nil || !errors.Is(err, exec.ErrNotFound) {
		t.Errorf("AssertReady() error = %v, want ErrNotFound", err)
	}
}

func TestFramesToVideo_MissingFirstFrame(t *testing.T) {
	tools := New("ffmpeg")
	err := tools.FramesToVideo(context.Background(), t.TempDir(), "", 0, "out.mp4")
	if err == nil || !strings.Contains(err.Error(), "no first frame") {
		t.Errorf("FramesToVideo() error = %v, want missing frame error", err)
	}
}

func TestExtractAudio_RunsFFmpeg(t *testing.T) {
	var captured []string
	stubCommand(t, "success", &captured)

	dir := t.TempDir()
	video := filepath.Join(dir, "in.mp4")
	if err := os.WriteFile(video, []byte("video"), 0644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "job", "audio.wav")

	if err := New("ffmpeg").ExtractAudio(context.Background(), video, out, ExtractOptions{}); err != nil {
		t.Fatalf("ExtractAudio() error = %v", err)
	}
	if len(captured) == 0 || captured[len(captured)-1] != out {
		t.Errorf("captured args = %v", captured)
	}
	if _, err := os.Stat(filepath.Dir(out)); err != nil {
		t.Errorf("output directory not created: %v", err)
	}
}

func TestReplaceAudio_FailureIncludesOutput(t *testing.T) {
	stubCommand(t, "failure", nil)

	dir := t.TempDir()
	video := filepath.Join(dir, "in.mp4")
	audio := filepath.Join(dir, "dub.mp3")
	for _, f := range []string{video, audio} {
		if err := os.WriteFile(f, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	err := New("ffmpeg").ReplaceAudio(context.Background(), video, audio, filepath.Join(dir, "out.mp4"))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "Invalid data found") {
		t.Errorf("error %q does not carry ffmpeg output", err)
	}
}

func TestReplaceAudio_MissingInput(t *testing.T) {
	dir := t.TempDir()
	err := New("ffmpeg").ReplaceAudio(context.Background(), filepath.Join(dir, "nope.mp4"), filepath.Join(dir, "a.mp3"), "out.mp4")
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error = %v, want ErrNotExist", err)
	}
}

func stubCommand(t *testing.T, mode string, captured *[]string) {
	t.Helper()
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		if captured != nil {
			*captured = append([]string(nil), args...)
		}
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "FFMPEG_HELPER_MODE="+mode)
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	switch os.Getenv("FFMPEG_HELPER_MODE") {
	case "failure":
		fmt.Fprintln(os.Stderr, "in.mp4: Invalid data found when processing input")
		os.Exit(1)
	default:
		os.Exit(0)
	}
}

func findArg(args []string, target string) int {
	for i, arg := range args {
		if arg == target {
			return i
		}
	}
	return -1
}

func argAfter(args []string, flag string) string {
	i := findArg(args, flag)
	if i < 0 || i+1 >= len(args) {
		return ""
	}
	return args[i+1]
}
