package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config stores runtime configuration resolved from the environment.
type Config struct {
	Remote    RemoteConfig
	Audio     AudioConfig
	Engine    EngineConfig
	Paste     PasteConfig
	Files     FilesConfig
	Telemetry TelemetryConfig
}

type RemoteConfig struct {
	APIKey            string
	APIBaseURL        string
	ContactEmail      string
	TranscribeTimeout time.Duration
}

type AudioConfig struct {
	RecorderCommand string
	InputFormat     string
	SampleRate      int
	Channels        int
	RecordingsDir   string
}

type EngineConfig struct {
	URL       string
	ModelsDir string
}

type PasteConfig struct {
	PreDelay    time.Duration
	Settle      time.Duration
	SettleStep  time.Duration
	Backoff     time.Duration
	MaxAttempts int
}

type FilesConfig struct {
	Preferences string
	Templates   string
	History     string
	CrashMarker string
	Vocabulary  string
}

type TelemetryConfig struct {
	SentryDSN   string
	Environment string
	LogLevel    string
}

// Load resolves configuration from environment variables and sensible defaults.
func Load() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, errors.New("could not determine home directory")
	}
	configDir := filepath.Join(home, ".config", "scribe")

	cfg := Config{
		Remote: RemoteConfig{
			APIKey:            firstNonEmpty(os.Getenv("ANAMEDI_API_KEY"), os.Getenv("SCRIBE_API_KEY")),
			APIBaseURL:        strings.TrimRight(envOrDefault("SCRIBE_API_BASE", "https://app.anamedi.com"), "/"),
			ContactEmail:      strings.TrimSpace(os.Getenv("SCRIBE_CONTACT_EMAIL")),
			TranscribeTimeout: time.Duration(envOrDefaultInt("SCRIBE_TRANSCRIBE_TIMEOUT_SEC", 600)) * time.Second,
		},
		Audio: AudioConfig{
			RecorderCommand: envOrDefault("SCRIBE_FFMPEG_COMMAND", "ffmpeg"),
			InputFormat:     envOrDefault("SCRIBE_AUDIO_INPUT_FORMAT", "pulse"),
			SampleRate:      envOrDefaultInt("SCRIBE_SAMPLE_RATE", 16000),
			Channels:        envOrDefaultInt("SCRIBE_CHANNELS", 1),
			RecordingsDir:   envOrDefault("SCRIBE_RECORDINGS_DIR", os.TempDir()),
		},
		Engine: EngineConfig{
			URL:       envOrDefault("SCRIBE_ENGINE_URL", "ws://127.0.0.1:8765/transcribe"),
			ModelsDir: envOrDefault("SCRIBE_MODELS_DIR", filepath.Join(configDir, "models")),
		},
		Paste: PasteConfig{
			PreDelay:    envOrDefaultMillis("SCRIBE_PASTE_PRE_DELAY_MS", 2000),
			Settle:      envOrDefaultMillis("SCRIBE_PASTE_SETTLE_MS", 50),
			SettleStep:  envOrDefaultMillis("SCRIBE_PASTE_SETTLE_STEP_MS", 50),
			Backoff:     envOrDefaultMillis("SCRIBE_PASTE_BACKOFF_MS", 200),
			MaxAttempts: envOrDefaultInt("SCRIBE_PASTE_ATTEMPTS", 3),
		},
		Files: FilesConfig{
			Preferences: envOrDefault("SCRIBE_PREFERENCES_FILE", filepath.Join(configDir, "preferences.yaml")),
			Templates:   envOrDefault("SCRIBE_TEMPLATES_FILE", filepath.Join(configDir, "templates.yaml")),
			History:     envOrDefault("SCRIBE_HISTORY_DB", filepath.Join(configDir, "history.sqlite")),
			CrashMarker: envOrDefault("SCRIBE_CRASH_MARKER", filepath.Join(configDir, "running.lock")),
			Vocabulary:  envOrDefault("SCRIBE_VOCABULARY_FILE", filepath.Join(configDir, "vocabulary.rules")),
		},
		Telemetry: TelemetryConfig{
			SentryDSN:   strings.TrimSpace(os.Getenv("SENTRY_DSN")),
			Environment: envOrDefault("SCRIBE_ENVIRONMENT", "production"),
			LogLevel:    envOrDefault("SCRIBE_LOG_LEVEL", "info"),
		},
	}

	if cfg.Remote.TranscribeTimeout <= 0 {
		cfg.Remote.TranscribeTimeout = 600 * time.Second
	}
	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = 16000
	}
	if cfg.Audio.Channels <= 0 {
		cfg.Audio.Channels = 1
	}
	if cfg.Paste.MaxAttempts <= 0 {
		cfg.Paste.MaxAttempts = 3
	}

	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// envOrDefaultMillis reads a non-negative millisecond count.
func envOrDefaultMillis(key string, fallback int) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil && parsed >= 0 {
			return time.Duration(parsed) * time.Millisecond
		}
	}
	return time.Duration(fallback) * time.Millisecond
}
