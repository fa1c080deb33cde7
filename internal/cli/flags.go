package cli

// Flags holds all command-line flag values
type Flags struct {
	// General flags
	CfgFile     string
	OutputDir   string
	Language    string
	LogMode     string
	HistoryPath string
	FFmpegPath  string

	// Story (prompt -> images -> video) flags
	StoryFrames    int
	StoryFPS       float64
	StoryMaxTokens int
	TextProvider   string
	TextModel      string
	BatchFile      string

	// Translation flags
	TranslateProvider string
	TranslateModel    string

	// Speech recognition flags
	SpeechProvider string
	SpeechLanguage string

	// Web service flags
	ListenAddr  string
	UploadDir   string
	MaxUploadMB int

	// PDF flags
	FontPath string
	NoWrap   bool

	// Audio (TTS) flags
	AudioProvider     string
	OpenAIModel       string
	OpenAIVoice       string
	OpenAISpeed       float64
	OpenAIInstruction string

	// OpenAI Image flags
	OpenAIImageModel   string
	OpenAIImageSize    string
	OpenAIImageQuality string
	OpenAIImageStyle   string
}

// DefaultStoryPrompt is the prompt used when story runs without one
const DefaultStoryPrompt = "A serene landscape with mountains and a river"

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{
		Language:           "hi",
		LogMode:            "dev",
		FFmpegPath:         "ffmpeg",
		StoryFrames:        10,
		StoryFPS:           1.0,
		StoryMaxTokens:     50,
		TextProvider:       "openai",
		TextModel:          "gpt-4o-mini",
		TranslateProvider:  "openai",
		TranslateModel:     "gpt-4o-mini",
		SpeechProvider:     "openai",
		SpeechLanguage:     "en-US",
		ListenAddr:         ":5000",
		UploadDir:          "static/uploads",
		MaxUploadMB:        512,
		AudioProvider:      "openai",
		OpenAIModel:        "gpt-4o-mini-tts",
		OpenAIVoice:        "alloy",
		OpenAISpeed:        1.0,
		OpenAIImageModel:   "dall-e-2",
		OpenAIImageSize:    "512x512",
		OpenAIImageQuality: "standard",
		OpenAIImageStyle:   "natural",
	}
}
