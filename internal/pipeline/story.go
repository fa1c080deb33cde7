package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"codeberg.org/snonux/polyglot/internal/batch"
	"codeberg.org/snonux/polyglot/internal/image"
	"codeberg.org/snonux/polyglot/internal/store"
)

// StoryResult describes a generated story video
type StoryResult struct {
	JobID       string
	Description string
	Frames      []string
	VideoPath   string
}

// GenerateStory expands prompt into a description, renders frames for it
// and encodes them into jobDir/output_video.mp4
func (p *Processor) GenerateStory(ctx context.Context, prompt, jobDir string) (res *StoryResult, err error) {
	id := jobID(jobDir)
	res = &StoryResult{JobID: id}
	p.begin(ctx, id, store.KindStory, prompt, "")
	defer func() { p.finish(id, res.VideoPath, err) }()

	if err := requireAll(
		check{"text", p.stages.Text != nil},
		check{"image", p.stages.Images != nil},
		check{"media", p.stages.Media != nil},
	); err != nil {
		return res, err
	}

	p.stage(id, "describe", "Generating description with %s...", p.stages.Text.Name())
	description, err := p.stages.Text.Generate(ctx, prompt)
	if err != nil {
		return res, fmt.Errorf("generate description: %w", err)
	}
	res.Description = description
	fmt.Fprintf(p.opts.Stdout, "Generated Description: %s\n", description)

	p.stage(id, "images", "Generating %d frames with %s...", p.opts.Frames, p.stages.Images.Name())
	frames, err := image.SaveFrames(ctx, p.stages.Images, description, p.opts.Frames, jobDir)
	res.Frames = frames
	if err != nil {
		return res, fmt.Errorf("generate frames: %w", err)
	}

	video := filepath.Join(jobDir, StoryVideoName)
	p.stage(id, "encode", "Encoding %d frames at %g fps...", len(frames), p.opts.FPS)
	if err := p.stages.Media.FramesToVideo(ctx, jobDir, image.FramePattern, p.opts.FPS, video); err != nil {
		return res, fmt.Errorf("create video: %w", err)
	}
	res.VideoPath = video
	fmt.Fprintln(p.opts.Stdout, "Video created successfully!")
	return res, nil
}

// BatchSummary counts the outcome of a story batch
type BatchSummary struct {
	Total     int
	Processed int
	Errors    int
}

// GenerateStories runs GenerateStory for every entry, each in a new job
// directory under outputRoot. A failing entry does not stop the batch.
func (p *Processor) GenerateStories(ctx context.Context, entries []batch.StoryEntry, outputRoot string) (BatchSummary, error) {
	summary := BatchSummary{Total: len(entries)}
	if err := os.MkdirAll(outputRoot, 0755); err != nil {
		return summary, fmt.Errorf("failed to create output directory: %w", err)
	}

	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		fmt.Fprintf(p.opts.Stdout, "\nProcessing %d/%d: %s\n", i+1, len(entries), entry.Name)

		_, dir, err := NewJobDir(outputRoot)
		if err == nil {
			_, err = p.GenerateStory(ctx, entry.Prompt, dir)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error processing '%s': %v\n", entry.Name, err)
			summary.Errors++
			continue
		}
		summary.Processed++
	}

	fmt.Fprintf(p.opts.Stdout, "\n=== Batch Processing Summary ===\n")
	fmt.Fprintf(p.opts.Stdout, "Total stories: %d\n", summary.Total)
	fmt.Fprintf(p.opts.Stdout, "Processed: %d\n", summary.Processed)
	if summary.Errors > 0 {
		fmt.Fprintf(p.opts.Stdout, "Errors: %d\n", summary.Errors)
	}
	fmt.Fprintf(p.opts.Stdout, "================================\n")
	return summary, nil
}
