package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"codeberg.org/snonux/polyglot/internal"
)

// RunFunc is the signature every subcommand action has
type RunFunc func(cmd *cobra.Command, args []string) error

// Actions are the handlers the main package plugs into the command tree
type Actions struct {
	Story   RunFunc
	Dub     RunFunc
	PDF     RunFunc
	Serve   RunFunc
	Models  RunFunc
	History RunFunc
	Archive RunFunc
}

// viperBindings maps flag names to configuration keys
var viperBindings = map[string]string{
	"output":               "output.directory",
	"lang":                 "translate.target_language",
	"log-mode":             "log.mode",
	"history":              "history.path",
	"ffmpeg":               "media.ffmpeg",
	"text-provider":        "story.text_provider",
	"text-model":           "story.text_model",
	"max-tokens":           "story.max_tokens",
	"frames":               "story.frames",
	"fps":                  "story.fps",
	"translate-provider":   "translate.provider",
	"translate-model":      "translate.model",
	"speech-provider":      "speech.provider",
	"speech-lang":          "speech.language",
	"listen":               "server.address",
	"upload-dir":           "server.upload_dir",
	"max-upload-mb":        "server.max_upload_mb",
	"font":                 "pdf.font_path",
	"no-wrap":              "pdf.no_wrap",
	"audio-provider":       "audio.provider",
	"openai-model":         "audio.openai_model",
	"openai-voice":         "audio.openai_voice",
	"openai-speed":         "audio.openai_speed",
	"openai-instruction":   "audio.openai_instruction",
	"openai-image-model":   "image.openai_model",
	"openai-image-size":    "image.openai_size",
	"openai-image-quality": "image.openai_quality",
	"openai-image-style":   "image.openai_style",
}

// CreateRootCommand creates and configures the root cobra command
func CreateRootCommand(flags *Flags, actions Actions) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "polyglot",
		Short: "Story video generator and document/video translator",
		Long: `polyglot chains hosted models into three pipelines:

  story  prompt -> description -> generated images -> video
  pdf    PDF -> text -> translated text -> PDF
  dub    video -> audio -> transcript -> translation -> speech -> video

The pdf and dub pipelines are also served over HTTP by "polyglot serve".

Examples:
  polyglot                          # Run the story demo with the default prompt
  polyglot story "a foggy harbour"  # Story video from your own prompt
  polyglot dub talk.mp4 --lang es   # Dub a video into Spanish
  polyglot serve --listen :8080     # Start the web service`,
		Args:         cobra.NoArgs,
		Version:      internal.Version,
		SilenceUsage: true,
		RunE:         actions.Story,
	}

	setupPersistentFlags(rootCmd, flags)

	storyCmd := &cobra.Command{
		Use:   "story [prompt]",
		Short: "Generate a description, images and a video from a prompt",
		Args:  cobra.MaximumNArgs(1),
		RunE:  actions.Story,
	}
	setupStoryFlags(storyCmd, flags)
	// The bare root command runs the story demo, so it takes the same flags.
	setupStoryFlags(rootCmd, flags)

	dubCmd := &cobra.Command{
		Use:   "dub <video>",
		Short: "Dub a video into the target language",
		Args:  cobra.ExactArgs(1),
		RunE:  actions.Dub,
	}

	pdfCmd := &cobra.Command{
		Use:   "pdf <file.pdf>",
		Short: "Translate a PDF document into the target language",
		Args:  cobra.ExactArgs(1),
		RunE:  actions.PDF,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the PDF and video translation web pages",
		Args:  cobra.NoArgs,
		RunE:  actions.Serve,
	}
	setupServeFlags(serveCmd, flags)

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "List available OpenAI models for the current API key",
		Args:  cobra.NoArgs,
		RunE:  actions.Models,
	}

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently processed jobs",
		Args:  cobra.NoArgs,
		RunE:  actions.History,
	}

	archiveCmd := &cobra.Command{
		Use:   "archive",
		Short: "Move the output directory into a timestamped archive",
		Args:  cobra.NoArgs,
		RunE:  actions.Archive,
	}

	rootCmd.AddCommand(storyCmd, dubCmd, pdfCmd, serveCmd, modelsCmd, historyCmd, archiveCmd)
	return rootCmd
}

func setupPersistentFlags(cmd *cobra.Command, flags *Flags) {
	home, _ := os.UserHomeDir()
	defaultHistory := filepath.Join(home, ".local", "state", "polyglot", "history.db")

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.polyglot.yaml)")
	pf.StringVarP(&flags.OutputDir, "output", "o", "static/output", "Output directory")
	pf.StringVarP(&flags.Language, "lang", "l", flags.Language, "Target language code for translation and speech")
	pf.StringVar(&flags.LogMode, "log-mode", flags.LogMode, "Log mode: dev, prod or quiet")
	pf.StringVar(&flags.HistoryPath, "history", defaultHistory, "Job history database (empty disables history)")
	pf.StringVar(&flags.FFmpegPath, "ffmpeg", flags.FFmpegPath, "ffmpeg binary")

	// Translation
	pf.StringVar(&flags.TranslateProvider, "translate-provider", flags.TranslateProvider, "Translation provider: openai or gemini")
	pf.StringVar(&flags.TranslateModel, "translate-model", flags.TranslateModel, "Model used for translation")

	// Speech recognition
	pf.StringVar(&flags.SpeechProvider, "speech-provider", flags.SpeechProvider, "Speech recognition provider: openai or google")
	pf.StringVar(&flags.SpeechLanguage, "speech-lang", flags.SpeechLanguage, "Spoken language of source videos")

	// PDF output
	pf.StringVar(&flags.FontPath, "font", "", "TTF font for translated PDFs (needed for non-Latin scripts)")
	pf.BoolVar(&flags.NoWrap, "no-wrap", false, "Do not wrap long lines in translated PDFs")

	// Text-to-speech
	pf.StringVar(&flags.AudioProvider, "audio-provider", flags.AudioProvider, "Speech synthesis provider: openai or espeak")
	pf.StringVar(&flags.OpenAIModel, "openai-model", flags.OpenAIModel, "OpenAI TTS model: tts-1, tts-1-hd, gpt-4o-mini-tts")
	pf.StringVar(&flags.OpenAIVoice, "openai-voice", flags.OpenAIVoice, "OpenAI voice: alloy, ash, ballad, coral, echo, fable, onyx, nova, sage, shimmer, verse")
	pf.Float64Var(&flags.OpenAISpeed, "openai-speed", flags.OpenAISpeed, "OpenAI speech speed (0.25 to 4.0)")
	pf.StringVar(&flags.OpenAIInstruction, "openai-instruction", "", "Voice instructions for gpt-4o-mini-tts")

	bindFlagsToViper(pf)
}

func setupStoryFlags(cmd *cobra.Command, flags *Flags) {
	f := cmd.Flags()
	f.IntVar(&flags.StoryFrames, "frames", flags.StoryFrames, "Number of generated images")
	f.Float64Var(&flags.StoryFPS, "fps", flags.StoryFPS, "Video frame rate")
	f.IntVar(&flags.StoryMaxTokens, "max-tokens", flags.StoryMaxTokens, "Token limit for the generated description")
	f.StringVar(&flags.TextProvider, "text-provider", flags.TextProvider, "Description provider: openai or gemini")
	f.StringVar(&flags.TextModel, "text-model", flags.TextModel, "Model used for the description")
	f.StringVar(&flags.BatchFile, "batch", "", "Process prompts from file (one per line, optional 'name = prompt'; start a line with '=' to keep ' = ' inside an unnamed prompt)")

	// OpenAI Image Generation flags
	f.StringVar(&flags.OpenAIImageModel, "openai-image-model", flags.OpenAIImageModel, "OpenAI image model: dall-e-2 or dall-e-3")
	f.StringVar(&flags.OpenAIImageSize, "openai-image-size", flags.OpenAIImageSize, "Image size: 256x256, 512x512, 1024x1024 (dall-e-3: also 1024x1792, 1792x1024)")
	f.StringVar(&flags.OpenAIImageQuality, "openai-image-quality", flags.OpenAIImageQuality, "Image quality: standard or hd (dall-e-3 only)")
	f.StringVar(&flags.OpenAIImageStyle, "openai-image-style", flags.OpenAIImageStyle, "Image style: natural or vivid (dall-e-3 only)")

	bindFlagsToViper(f)
}

func setupServeFlags(cmd *cobra.Command, flags *Flags) {
	f := cmd.Flags()
	f.StringVar(&flags.ListenAddr, "listen", flags.ListenAddr, "Listen address")
	f.StringVar(&flags.UploadDir, "upload-dir", flags.UploadDir, "Directory for uploaded files")
	f.IntVar(&flags.MaxUploadMB, "max-upload-mb", flags.MaxUploadMB, "Maximum upload size in MiB")

	bindFlagsToViper(f)
}

func bindFlagsToViper(fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		if key, ok := viperBindings[f.Name]; ok {
			viper.BindPFlag(key, f)
		}
	})
}

// ResolveFlags fills flag values from viper so config file and environment
// values apply to every flag the user did not set explicitly
func ResolveFlags(cmd *cobra.Command, flags *Flags) {
	// Flags registered on several commands are bound to the last one
	// registered; rebind to the command that is actually running.
	bindFlagsToViper(cmd.Flags())

	flags.OutputDir = viper.GetString("output.directory")
	flags.Language = viper.GetString("translate.target_language")
	flags.LogMode = viper.GetString("log.mode")
	flags.HistoryPath = viper.GetString("history.path")
	flags.FFmpegPath = viper.GetString("media.ffmpeg")

	flags.StoryFrames = viper.GetInt("story.frames")
	flags.StoryFPS = viper.GetFloat64("story.fps")
	flags.StoryMaxTokens = viper.GetInt("story.max_tokens")
	flags.TextProvider = viper.GetString("story.text_provider")
	flags.TextModel = viper.GetString("story.text_model")

	flags.TranslateProvider = viper.GetString("translate.provider")
	flags.TranslateModel = viper.GetString("translate.model")
	flags.SpeechProvider = viper.GetString("speech.provider")
	flags.SpeechLanguage = viper.GetString("speech.language")

	flags.ListenAddr = viper.GetString("server.address")
	flags.UploadDir = viper.GetString("server.upload_dir")
	flags.MaxUploadMB = viper.GetInt("server.max_upload_mb")

	flags.FontPath = viper.GetString("pdf.font_path")
	flags.NoWrap = viper.GetBool("pdf.no_wrap")

	flags.AudioProvider = viper.GetString("audio.provider")
	flags.OpenAIModel = viper.GetString("audio.openai_model")
	flags.OpenAIVoice = viper.GetString("audio.openai_voice")
	flags.OpenAISpeed = viper.GetFloat64("audio.openai_speed")
	flags.OpenAIInstruction = viper.GetString("audio.openai_instruction")

	flags.OpenAIImageModel = viper.GetString("image.openai_model")
	flags.OpenAIImageSize = viper.GetString("image.openai_size")
	flags.OpenAIImageQuality = viper.GetString("image.openai_quality")
	flags.OpenAIImageStyle = viper.GetString("image.openai_style")
}

// InitConfig initializes viper configuration
func InitConfig(cfgFile string) {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			return
		}

		// Search config in home directory with name ".polyglot" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".polyglot")
	}

	// Environment variables
	viper.SetEnvPrefix("POLYGLOT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// GetOpenAIKey retrieves the OpenAI API key from environment or config
func GetOpenAIKey() string {
	// First check environment variable
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return key
	}

	// Then check config file
	return viper.GetString("openai.api_key")
}

// GetGeminiKey retrieves the Gemini API key from environment or config
func GetGeminiKey() string {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return key
	}
	return viper.GetString("gemini.api_key")
}

// GetGoogleCredentialsFile returns the service account file for Google Cloud Speech
func GetGoogleCredentialsFile() string {
	if path := viper.GetString("speech.google_credentials"); path != "" {
		return path
	}
	return os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
}
