package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"codeberg.org/snonux/polyglot/internal/archive"
	"codeberg.org/snonux/polyglot/internal/audio"
	"codeberg.org/snonux/polyglot/internal/batch"
	"codeberg.org/snonux/polyglot/internal/breaker"
	"codeberg.org/snonux/polyglot/internal/cli"
	"codeberg.org/snonux/polyglot/internal/document"
	"codeberg.org/snonux/polyglot/internal/image"
	"codeberg.org/snonux/polyglot/internal/logger"
	"codeberg.org/snonux/polyglot/internal/media"
	"codeberg.org/snonux/polyglot/internal/models"
	"codeberg.org/snonux/polyglot/internal/pipeline"
	"codeberg.org/snonux/polyglot/internal/server"
	"codeberg.org/snonux/polyglot/internal/speech"
	"codeberg.org/snonux/polyglot/internal/store"
	"codeberg.org/snonux/polyglot/internal/textgen"
	"codeberg.org/snonux/polyglot/internal/translation"
)

// app holds what every subcommand shares
type app struct {
	flags   *cli.Flags
	log     *logger.Logger
	closers []io.Closer
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	cli.ResolveFlags(cmd, a.flags)

	log, err := logger.New(a.flags.LogMode)
	if err != nil {
		return err
	}
	a.log = log.With("command", cmd.Name())
	breaker.Configure(breaker.DefaultSettings())
	return nil
}

// close releases clients and the history database; safe to call when
// setup never ran
func (a *app) close() {
	log := a.log
	if log == nil {
		log = logger.Nop()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			log.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
	log.Sync()
}

func cacheDir(kind string) string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "polyglot", kind)
}

// openHistory returns nil when history is disabled
func (a *app) openHistory() (*store.Store, error) {
	if a.flags.HistoryPath == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(a.flags.HistoryPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}
	s, err := store.Open(a.flags.HistoryPath)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, s)
	return s, nil
}

func (a *app) newMedia(ctx context.Context) (*media.Tools, error) {
	tools := media.New(a.flags.FFmpegPath)
	if err := tools.AssertReady(ctx); err != nil {
		return nil, err
	}
	return tools, nil
}

func (a *app) newTranslator(ctx context.Context) (translation.Translator, error) {
	return translation.NewTranslator(ctx, &translation.Config{
		Provider:  a.flags.TranslateProvider,
		Model:     a.flags.TranslateModel,
		OpenAIKey: cli.GetOpenAIKey(),
		GeminiKey: cli.GetGeminiKey(),
	})
}

func (a *app) newRecognizer(ctx context.Context) (speech.Recognizer, error) {
	rec, err := speech.NewRecognizer(ctx, &speech.Config{
		Provider:        a.flags.SpeechProvider,
		OpenAIKey:       cli.GetOpenAIKey(),
		CredentialsFile: cli.GetGoogleCredentialsFile(),
	})
	if err != nil {
		return nil, err
	}
	if c, ok := rec.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}
	return rec, nil
}

// newTTS creates the configured speech synthesizer. OpenAI falls back to
// espeak-ng when it is installed.
func (a *app) newTTS() (audio.Provider, error) {
	config := &audio.Config{
		Provider:          a.flags.AudioProvider,
		Language:          a.flags.Language,
		OutputFormat:      "mp3",
		FFmpegPath:        a.flags.FFmpegPath,
		OpenAIKey:         cli.GetOpenAIKey(),
		OpenAIModel:       a.flags.OpenAIModel,
		OpenAIVoice:       a.flags.OpenAIVoice,
		OpenAISpeed:       a.flags.OpenAISpeed,
		OpenAIInstruction: a.flags.OpenAIInstruction,
		CacheDir:          cacheDir("audio"),
		EnableCache:       true,
		Logger:            a.log,
	}
	primary, err := audio.NewProvider(config)
	if err != nil {
		return nil, err
	}
	if config.Provider != "openai" && config.Provider != "" {
		return primary, nil
	}

	fallbackConfig := *config
	fallbackConfig.Provider = "espeak"
	fallback, err := audio.NewProvider(&fallbackConfig)
	if err != nil {
		a.log.Debug("no speech synthesis fallback", "error", err)
		return primary, nil
	}
	return audio.NewProviderWithFallback(primary, fallback, a.log), nil
}

func (a *app) newTextGenerator(ctx context.Context) (textgen.Generator, error) {
	return textgen.NewGenerator(ctx, &textgen.Config{
		Provider:  a.flags.TextProvider,
		Model:     a.flags.TextModel,
		MaxTokens: a.flags.StoryMaxTokens,
		OpenAIKey: cli.GetOpenAIKey(),
		GeminiKey: cli.GetGeminiKey(),
	})
}

func (a *app) newImageGenerator() image.Generator {
	return image.NewOpenAIClient(&image.OpenAIConfig{
		APIKey:      cli.GetOpenAIKey(),
		Model:       a.flags.OpenAIImageModel,
		Size:        a.flags.OpenAIImageSize,
		Quality:     a.flags.OpenAIImageQuality,
		Style:       a.flags.OpenAIImageStyle,
		CacheDir:    cacheDir("images"),
		EnableCache: true,
	})
}

// dubStages builds everything the pdf and dub flows need
func (a *app) dubStages(ctx context.Context) (pipeline.Stages, error) {
	var stages pipeline.Stages
	var err error

	if stages.Media, err = a.newMedia(ctx); err != nil {
		return stages, err
	}
	if stages.Speech, err = a.newRecognizer(ctx); err != nil {
		return stages, fmt.Errorf("speech recognition: %w", err)
	}
	if stages.Translator, err = a.newTranslator(ctx); err != nil {
		return stages, fmt.Errorf("translation: %w", err)
	}
	if stages.TTS, err = a.newTTS(); err != nil {
		return stages, fmt.Errorf("speech synthesis: %w", err)
	}
	return stages, nil
}

func (a *app) newProcessor(stages pipeline.Stages) (*pipeline.Processor, *store.Store) {
	proc := pipeline.NewProcessor(stages, pipeline.Options{
		Frames:         a.flags.StoryFrames,
		FPS:            a.flags.StoryFPS,
		SpeechLanguage: a.flags.SpeechLanguage,
		PDF:            document.WriteOptions{FontPath: a.flags.FontPath, NoWrap: a.flags.NoWrap},
		Stdout:         os.Stdout,
	}, a.log)

	history, err := a.openHistory()
	if err != nil {
		a.log.Warn("job history disabled", "error", err)
		return proc, nil
	}
	if history != nil {
		proc.WithHistory(history)
	}
	return proc, history
}

func (a *app) runStory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// Auto-adjust image size for DALL-E 3
	if a.flags.OpenAIImageModel == "dall-e-3" && !cmd.Flags().Changed("openai-image-size") && a.flags.OpenAIImageSize == "512x512" {
		a.flags.OpenAIImageSize = "1024x1024"
		fmt.Printf("Note: Using image size 1024x1024 for DALL-E 3 (use --openai-image-size to override)\n")
	}

	text, err := a.newTextGenerator(ctx)
	if err != nil {
		return fmt.Errorf("description generation: %w", err)
	}
	tools, err := a.newMedia(ctx)
	if err != nil {
		return err
	}
	proc, _ := a.newProcessor(pipeline.Stages{Text: text, Images: a.newImageGenerator(), Media: tools})

	if a.flags.BatchFile != "" {
		entries, err := batch.ReadBatchFile(a.flags.BatchFile)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return fmt.Errorf("no prompts found in %s", a.flags.BatchFile)
		}
		summary, err := proc.GenerateStories(ctx, entries, a.flags.OutputDir)
		if err != nil {
			return err
		}
		if summary.Errors > 0 {
			return fmt.Errorf("%d of %d stories failed", summary.Errors, summary.Total)
		}
		fmt.Printf("\nDone! Videos saved to: %s\n", a.flags.OutputDir)
		return nil
	}

	prompt := cli.DefaultStoryPrompt
	if len(args) > 0 {
		prompt = args[0]
	}
	_, dir, err := pipeline.NewJobDir(a.flags.OutputDir)
	if err != nil {
		return err
	}
	res, err := proc.GenerateStory(ctx, prompt, dir)
	if err != nil {
		return err
	}
	fmt.Printf("\nDone! Video saved to: %s\n", res.VideoPath)
	return nil
}

func (a *app) runDub(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	stages, err := a.dubStages(ctx)
	if err != nil {
		return err
	}
	proc, _ := a.newProcessor(stages)
	_, dir, err := pipeline.NewJobDir(a.flags.OutputDir)
	if err != nil {
		return err
	}

	out, err := proc.DubVideo(ctx, args[0], dir, a.flags.Language)
	if err != nil {
		var terr *pipeline.TranscriptionError
		if errors.As(err, &terr) {
			fmt.Fprintln(os.Stderr, terr.Message())
		}
		return err
	}
	fmt.Printf("\nDone! Translated video saved to: %s\n", out)
	return nil
}

func (a *app) runPDF(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	translator, err := a.newTranslator(ctx)
	if err != nil {
		return fmt.Errorf("translation: %w", err)
	}
	proc, _ := a.newProcessor(pipeline.Stages{Translator: translator})
	_, dir, err := pipeline.NewJobDir(a.flags.OutputDir)
	if err != nil {
		return err
	}

	out, err := proc.TranslatePDF(ctx, args[0], dir, a.flags.Language)
	if err != nil {
		return err
	}
	fmt.Printf("\nDone! Translated document saved to: %s\n", out)
	return nil
}

func (a *app) runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	stages, err := a.dubStages(ctx)
	if err != nil {
		return err
	}
	proc, history := a.newProcessor(stages)

	hub := server.NewHub()
	proc.WithProgress(hub.Report)

	mode := gin.DebugMode
	if a.flags.LogMode == "prod" {
		mode = gin.ReleaseMode
	}
	var jobs server.JobLister
	if history != nil {
		jobs = history
	}

	srv, err := server.New(server.Config{
		Address:         a.flags.ListenAddr,
		UploadDir:       a.flags.UploadDir,
		MaxUploadMB:     a.flags.MaxUploadMB,
		DefaultLanguage: a.flags.Language,
		Mode:            mode,
	}, proc, jobs, hub, a.log)
	if err != nil {
		return err
	}
	fmt.Printf("Serving on %s\n", a.flags.ListenAddr)
	return srv.Run(ctx)
}

func (a *app) runModels(cmd *cobra.Command, args []string) error {
	lister := models.NewLister(cli.GetOpenAIKey())
	return lister.ListAvailableModels(cmd.Context(), os.Stdout)
}

func (a *app) runHistory(cmd *cobra.Command, args []string) error {
	history, err := a.openHistory()
	if err != nil {
		return err
	}
	if history == nil {
		return fmt.Errorf("job history is disabled")
	}
	jobs, err := history.List(cmd.Context(), 20)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		fmt.Println("No jobs recorded yet.")
		return nil
	}
	printJobs(os.Stdout, jobs)
	return nil
}

func printJobs(w io.Writer, jobs []store.Job) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CREATED\tKIND\tSTATUS\tLANG\tSOURCE\tRESULT")
	for _, j := range jobs {
		result := j.OutputPath
		if j.Status == store.StatusFailed {
			result = j.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			j.CreatedAt.Local().Format("2006-01-02 15:04:05"), j.Kind, j.Status, j.Language, j.Source, result)
	}
	tw.Flush()
}

func (a *app) runArchive(cmd *cobra.Command, args []string) error {
	dest, err := archive.ArchiveOutput(a.flags.OutputDir)
	if err != nil {
		return fmt.Errorf("failed to archive output: %w", err)
	}
	fmt.Printf("Archived %s to %s\n", a.flags.OutputDir, dest)
	return nil
}
