package bootstrap

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"

	"scribe/internal/audio"
	"scribe/internal/config"
	"scribe/internal/desktop"
	"scribe/internal/domain"
	"scribe/internal/history"
	"scribe/internal/paste"
	"scribe/internal/ports"
	"scribe/internal/providers/anamedi"
	"scribe/internal/providers/llm"
	"scribe/internal/providers/localengine"
	"scribe/internal/telemetry"
	"scribe/internal/templates"
	"scribe/internal/usecase"
	"scribe/internal/vocabulary"
)

const appName = "Scribe"

// Options are the pieces supplied by the hosting shell. Nil fields fall
// back to the desktop adapters.
type Options struct {
	Events    ports.EventSink
	Window    ports.Window
	Notifier  ports.Notifier
	Clipboard ports.Clipboard
	LogOutput io.Writer
	// Overrides adjusts preferences for this process only. They are not
	// persisted.
	Overrides func(*domain.Preferences)
}

// Services is the assembled runtime graph.
type Services struct {
	Controller  *usecase.Controller
	Startup     usecase.Startup
	Config      config.Config
	Preferences *config.PreferenceFile
	Templates   *templates.Registry
	Logger      *slog.Logger
	// Keystroke is the paste key simulator; Warm it before the first paste.
	Keystroke *desktop.Keystroke

	closers []func() error
}

// Close releases resources held by the graph and marks a clean exit.
func (s Services) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	return errors.Join(errs...)
}

// Build wires all backend dependencies for the current runtime.
func Build(opts Options) (Services, error) {
	if opts.Events == nil {
		return Services{}, errors.New("event sink is required")
	}
	cfg, err := config.Load()
	if err != nil {
		return Services{}, err
	}

	out := opts.LogOutput
	if out == nil {
		out = os.Stderr
	}
	logger := telemetry.NewLogger(cfg.Telemetry.LogLevel, out)

	prefs, err := config.LoadPreferences(cfg.Files.Preferences)
	if err != nil {
		return Services{}, err
	}
	registry, err := templates.LoadFile(templates.Default(), cfg.Files.Templates)
	if err != nil {
		return Services{}, err
	}
	corrector, err := vocabulary.Load(cfg.Files.Vocabulary)
	if err != nil {
		return Services{}, err
	}
	if n := corrector.Len(); n > 0 {
		logger.Info("vocabulary corrections loaded", slog.Int("rules", n))
	}

	services := Services{
		Config:      cfg,
		Preferences: prefs,
		Templates:   registry,
		Logger:      logger,
	}

	var sessionHistory ports.History
	if store, err := history.Open(cfg.Files.History); err != nil {
		logger.Warn("session history disabled", slog.String("err", err.Error()))
	} else {
		sessionHistory = store
		services.closers = append(services.closers, store.Close)
	}

	var reporter ports.ErrorReporter
	if cfg.Telemetry.SentryDSN != "" {
		sentryReporter, err := telemetry.NewSentryReporter(telemetry.SentryConfig{
			DSN:         cfg.Telemetry.SentryDSN,
			Environment: cfg.Telemetry.Environment,
		})
		if err != nil {
			logger.Warn("sentry init failed", slog.String("err", err.Error()))
		} else {
			reporter = sentryReporter
			services.closers = append(services.closers, func() error {
				sentryReporter.Flush()
				return nil
			})
		}
	}

	var crash ports.CrashMarker
	marker, err := desktop.NewCrashMarker(cfg.Files.CrashMarker)
	if err != nil {
		logger.Warn("failed to check crash marker", slog.String("err", err.Error()))
	}
	if marker != nil {
		crash = marker
		if err := marker.Arm(); err != nil {
			logger.Warn("failed to write crash marker", slog.String("err", err.Error()))
		} else {
			services.closers = append(services.closers, marker.Disarm)
		}
	}

	notifier := opts.Notifier
	if notifier == nil {
		notifier = desktop.NewNotifier(appName, logger)
	}
	clipboard := opts.Clipboard
	if clipboard == nil {
		clipboard = desktop.NewClipboard()
	}

	keystroke := desktop.NewKeystroke()
	services.Keystroke = keystroke
	pipeline := paste.NewPipeline(clipboard, keystroke, notifier, paste.Config{
		PreDelay:    cfg.Paste.PreDelay,
		Settle:      cfg.Paste.Settle,
		SettleStep:  cfg.Paste.SettleStep,
		Backoff:     cfg.Paste.Backoff,
		MaxAttempts: cfg.Paste.MaxAttempts,
		Logger:      logger,
	})

	var source ports.PreferenceSource = prefs
	if opts.Overrides != nil {
		source = overlay{store: prefs, apply: opts.Overrides}
	}

	httpClient := &http.Client{}
	controller := usecase.NewController(usecase.Deps{
		Recorder: audio.NewRecorder(audio.Config{
			Command:     cfg.Audio.RecorderCommand,
			InputFormat: cfg.Audio.InputFormat,
			SampleRate:  cfg.Audio.SampleRate,
			Channels:    cfg.Audio.Channels,
			TempDir:     cfg.Audio.RecordingsDir,
			Logger:      logger,
		}),
		Remote: anamedi.NewClient(anamedi.Config{
			BaseURL:    cfg.Remote.APIBaseURL,
			HTTPClient: httpClient,
			Logger:     logger,
		}),
		Local: localengine.NewClient(localengine.Config{
			URL:    cfg.Engine.URL,
			Logger: logger,
		}),
		NewLLM: func(c domain.LLMConfig) (ports.LLM, error) {
			return llm.New(c, httpClient)
		},
		Templates:   registry,
		Paster:      pipeline,
		Clipboard:   clipboard,
		Notifier:    notifier,
		KeepAwake:   desktop.NewKeepAwake(logger),
		Sound:       desktop.NewSound(),
		Window:      opts.Window,
		Preferences: source,
		History:     sessionHistory,
		Corrector:   corrector,
		Reporter:    reporter,
		Events:      opts.Events,
		Logger:      logger,
	}, usecase.Config{
		APIBaseURL:        cfg.Remote.APIBaseURL,
		APIKey:            cfg.Remote.APIKey,
		ContactEmail:      cfg.Remote.ContactEmail,
		TranscribeTimeout: cfg.Remote.TranscribeTimeout,
	})

	services.Controller = controller
	services.Startup = usecase.Startup{
		Controller: controller,
		Store:      prefs,
		Crash:      crash,
		Models:     desktop.NewModelDir(cfg.Engine.ModelsDir),
		Notifier:   notifier,
		Events:     opts.Events,
		Logger:     logger,
	}
	return services, nil
}

type overlay struct {
	store ports.PreferenceSource
	apply func(*domain.Preferences)
}

func (o overlay) Preferences() domain.Preferences {
	p := o.store.Preferences()
	o.apply(&p)
	return p
}
