package domain

// Preferences holds the persisted user settings consumed by the orchestrator.
type Preferences struct {
	UseLocalProcessing      bool          `yaml:"useLocalProcessing" json:"useLocalProcessing"`
	SummaryTemplate         string        `yaml:"summaryTemplate" json:"summaryTemplate"`
	AnamediAPIKey           string        `yaml:"anamediApiKey" json:"anamediApiKey"`
	ContactEmail            string        `yaml:"contactEmail" json:"contactEmail"`
	AutoPasteOnFinish       bool          `yaml:"autoPasteOnFinish" json:"autoPasteOnFinish"`
	SoundOnFinish           bool          `yaml:"soundOnFinish" json:"soundOnFinish"`
	FocusOnFinish           bool          `yaml:"focusOnFinish" json:"focusOnFinish"`
	StoreRecordInDocuments  bool          `yaml:"storeRecordInDocuments" json:"storeRecordInDocuments"`
	UseGPU                  bool          `yaml:"useGpu" json:"useGpu"`
	ModelPath               string        `yaml:"modelPath" json:"modelPath"`
	ModelOptions            ModelOptions  `yaml:"modelOptions" json:"modelOptions"`
	DiarizeThreshold        float64       `yaml:"diarizeThreshold" json:"diarizeThreshold"`
	MaxSpeakers             int           `yaml:"maxSpeakers" json:"maxSpeakers"`
	RecognizeSpeakers       bool          `yaml:"recognizeSpeakers" json:"recognizeSpeakers"`
	FFmpegOptions           FFmpegOptions `yaml:"ffmpegOptions" json:"ffmpegOptions"`
	GlobalShortcutModifiers string        `yaml:"globalShortcutModifiers" json:"globalShortcutModifiers"`
	GlobalShortcutKey       string        `yaml:"globalShortcutKey" json:"globalShortcutKey"`
	LLMConfig               LLMConfig     `yaml:"llmConfig" json:"llmConfig"`
}

// ModelOptions are passed through to the local speech engine.
type ModelOptions struct {
	Lang        string  `yaml:"lang" json:"lang"`
	Verbose     bool    `yaml:"verbose" json:"verbose"`
	NThreads    int     `yaml:"nThreads" json:"nThreads"`
	Temperature float64 `yaml:"temperature" json:"temperature"`
	InitPrompt  string  `yaml:"initPrompt" json:"initPrompt"`
	Translate   bool    `yaml:"translate" json:"translate"`
	WordTimes   bool    `yaml:"wordTimestamps" json:"wordTimestamps"`
	MaxTextCtx  int     `yaml:"maxTextCtx" json:"maxTextCtx"`
}

// FFmpegOptions control audio decoding before local transcription.
type FFmpegOptions struct {
	NormalizeLoudness bool   `yaml:"normalizeLoudness" json:"normalizeLoudness"`
	CustomCommand     string `yaml:"customCommand" json:"customCommand"`
}

// DiarizeOptions select speaker recognition in the local engine.
type DiarizeOptions struct {
	Threshold   float64 `json:"threshold"`
	MaxSpeakers int     `json:"maxSpeakers"`
	Enabled     bool    `json:"enabled"`
}

// LLMPlatform selects the local summarization backend.
type LLMPlatform string

const (
	LLMPlatformClaude LLMPlatform = "claude"
	LLMPlatformOllama LLMPlatform = "ollama"
)

// LLMConfig configures local-path summarization.
type LLMConfig struct {
	Platform      LLMPlatform `yaml:"platform" json:"platform"`
	Prompt        string      `yaml:"prompt" json:"prompt"`
	Enabled       bool        `yaml:"enabled" json:"enabled"`
	Model         string      `yaml:"model" json:"model"`
	ClaudeAPIKey  string      `yaml:"claudeApiKey" json:"claudeApiKey"`
	OllamaBaseURL string      `yaml:"ollamaBaseUrl" json:"ollamaBaseUrl"`
	MaxTokens     int         `yaml:"maxTokens" json:"maxTokens"`
}

// DefaultLLMPrompt is used when the configured prompt is empty; %s receives the transcript.
const DefaultLLMPrompt = "Please summarize the following transcription: \n\"\"\"\n%s\n\"\"\"\n"

// DefaultPreferences mirrors the first-run settings.
func DefaultPreferences() Preferences {
	return Preferences{
		SoundOnFinish:           true,
		FocusOnFinish:           true,
		AutoPasteOnFinish:       true,
		UseGPU:                  true,
		DiarizeThreshold:        0.5,
		MaxSpeakers:             5,
		ModelOptions:            ModelOptions{Lang: "auto", NThreads: 4, MaxTextCtx: 0},
		FFmpegOptions:           FFmpegOptions{NormalizeLoudness: true},
		GlobalShortcutModifiers: "CmdOrCtrl+Shift",
		GlobalShortcutKey:       "r",
		LLMConfig: LLMConfig{
			Platform:      LLMPlatformClaude,
			Prompt:        DefaultLLMPrompt,
			Model:         "claude-3-5-sonnet-latest",
			OllamaBaseURL: "http://localhost:11434",
			MaxTokens:     8192,
		},
	}
}
