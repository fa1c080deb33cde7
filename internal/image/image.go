// Package image generates the still frames of a story video from a text
// description.
package image

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FramePattern names frame files; the index starts at 0
const FramePattern = "frame_%03d.png"

// DefaultFrames is the number of frames a story gets
const DefaultFrames = 10

// Result is one generated image
type Result struct {
	PNG           []byte
	Width         int
	Height        int
	RevisedPrompt string // Prompt as rewritten by the provider, if any
	Cached        bool
	Source        string
}

// Generator creates an image for a description. frame distinguishes
// repeated requests for the same description.
type Generator interface {
	Generate(ctx context.Context, description string, frame int) (*Result, error)

	// GetAttribution returns the attribution text for generated images
	GetAttribution() string

	// Name returns the name of the provider
	Name() string
}

// GenerationError represents an error from an image provider
type GenerationError struct {
	Provider string
	Code     string
	Message  string
}

func (e *GenerationError) Error() string {
	return e.Provider + ": " + e.Message
}

// SaveFrames generates n frames for description and writes them to dir as
// frame_000.png, frame_001.png, ... The returned paths are in frame order.
func SaveFrames(ctx context.Context, gen Generator, description string, n int, dir string) ([]string, error) {
	if n <= 0 {
		n = DefaultFrames
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create frames directory: %w", err)
	}

	paths := make([]string, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return paths, err
		}
		res, err := gen.Generate(ctx, description, i)
		if err != nil {
			return paths, fmt.Errorf("frame %d: %w", i, err)
		}
		if len(res.PNG) == 0 {
			return paths, &GenerationError{Provider: gen.Name(), Code: "EMPTY", Message: fmt.Sprintf("frame %d: no image data", i)}
		}
		path := filepath.Join(dir, fmt.Sprintf(FramePattern, i))
		if err := os.WriteFile(path, res.PNG, 0644); err != nil {
			return paths, fmt.Errorf("failed to write frame %d: %w", i, err)
		}
		paths = append(paths, path)
	}

	if attribution := gen.GetAttribution(); attribution != "" {
		attrPath := filepath.Join(dir, "attribution.txt")
		if err := os.WriteFile(attrPath, []byte(attribution+"\n"), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to save attribution: %v\n", err)
		}
	}
	return paths, nil
}
