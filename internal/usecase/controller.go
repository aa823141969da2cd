package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"scribe/internal/domain"
	"scribe/internal/paste"
	"scribe/internal/ports"
	"scribe/internal/templates"
)

// Paster delivers summary text to the focused application.
type Paster interface {
	PasteWithPrompt(ctx context.Context, text string) paste.Result
}

// Config controls remote defaults and timeouts.
type Config struct {
	APIBaseURL        string
	APIKey            string
	ContactEmail      string
	TranscribeTimeout time.Duration
}

// Deps are the collaborators of the controller. Recorder, Remote, Local,
// Preferences and Events are required; the rest may be nil.
type Deps struct {
	Recorder    ports.Recorder
	Remote      ports.RemoteTranscriber
	Local       ports.LocalTranscriber
	NewLLM      func(domain.LLMConfig) (ports.LLM, error)
	Templates   *templates.Registry
	Paster      Paster
	Clipboard   ports.Clipboard
	Notifier    ports.Notifier
	KeepAwake   ports.KeepAwake
	Sound       ports.Sound
	Window      ports.Window
	Preferences ports.PreferenceSource
	History     ports.History
	Reporter    ports.ErrorReporter
	Corrector   ports.Corrector
	Events      ports.EventSink
	Logger      *slog.Logger
}

// Controller owns the UI-visible state and drives record, transcribe,
// summarize and paste.
type Controller struct {
	recorder  ports.Recorder
	remote    ports.RemoteTranscriber
	local     ports.LocalTranscriber
	templates *templates.Registry
	finalizer summaryFinalizer
	notifier  ports.Notifier
	keepAwake ports.KeepAwake
	sound     ports.Sound
	window    ports.Window
	prefs     ports.PreferenceSource
	history   ports.History
	reporter  ports.ErrorReporter
	corrector ports.Corrector
	events    ports.EventSink
	log       *slog.Logger
	cfg       Config

	llm *llmCache

	now   func() time.Time
	newID func() string

	mu          sync.Mutex
	view        domain.ViewState
	run         *transcription
	recording   *recordingSession
	lastDevices []domain.AudioDevice

	toggling   atomic.Bool
	background sync.WaitGroup
}

func NewController(deps Deps, cfg Config) *Controller {
	if cfg.TranscribeTimeout <= 0 {
		cfg.TranscribeTimeout = 10 * time.Minute
	}
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	if deps.Templates == nil {
		deps.Templates = templates.Default()
	}
	if deps.Notifier == nil {
		deps.Notifier = nopNotifier{}
	}
	if deps.KeepAwake == nil {
		deps.KeepAwake = nopKeepAwake{}
	}

	return &Controller{
		recorder:  deps.Recorder,
		remote:    deps.Remote,
		local:     deps.Local,
		templates: deps.Templates,
		finalizer: newSummaryFinalizer(deps.Paster, deps.Clipboard, log),
		notifier:  deps.Notifier,
		keepAwake: deps.KeepAwake,
		sound:     deps.Sound,
		window:    deps.Window,
		prefs:     deps.Preferences,
		history:   deps.History,
		reporter:  deps.Reporter,
		corrector: deps.Corrector,
		events:    deps.Events,
		log:       log,
		cfg:       cfg,
		llm:       newLLMCache(deps.NewLLM),
		now:       time.Now,
		newID:     uuid.NewString,
		view:      domain.ViewState{State: domain.SessionStateIdle},
	}
}

// State returns a copy of the current view state.
func (c *Controller) State() domain.ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view.Clone()
}

// Wait blocks until background transcriptions started by finished
// recordings have completed.
func (c *Controller) Wait() {
	c.background.Wait()
}

// Abort cancels the running transcription. Errors it causes are not shown.
func (c *Controller) Abort() {
	c.mu.Lock()
	run := c.run
	if run == nil {
		c.mu.Unlock()
		return
	}
	run.aborted = true
	c.view.Aborting = true
	c.emitLocked(domain.SessionReasonAborted)
	c.mu.Unlock()

	c.events.AbortRequested()
	run.cancel()
}

// HandleProgress applies an engine progress update. Values outside 0..100
// are ignored.
func (c *Controller) HandleProgress(percent int) {
	if percent < 0 || percent > 100 {
		return
	}
	c.mu.Lock()
	p := percent
	c.view.Progress = &p
	c.mu.Unlock()
	c.events.Progress(percent)
}

// HandleNewSegment appends a streamed segment to the transcript.
func (c *Controller) HandleNewSegment(segment domain.Segment) {
	segment.Text = c.correct(segment.Text)
	c.mu.Lock()
	c.view.Segments = append(c.view.Segments, segment)
	c.mu.Unlock()
	c.events.NewSegment(segment)
}

// OpenFiles makes paths the current file selection. A single file is ready
// to transcribe; several are returned for batch processing by the caller.
func (c *Controller) OpenFiles(paths []string) []domain.NamedPath {
	files := NamedPaths(paths)
	c.mu.Lock()
	c.view.Files = files
	if len(files) == 1 {
		c.view.CurrentRecording = files[0].Path
	}
	c.emitLocked(domain.SessionReasonReady)
	c.mu.Unlock()
	return files
}

// RecentSessions returns the latest completed sessions, newest first.
func (c *Controller) RecentSessions(ctx context.Context, limit int) ([]domain.SessionRecord, error) {
	if c.history == nil {
		return nil, nil
	}
	return c.history.Recent(ctx, limit)
}

func (c *Controller) emitLocked(reason domain.SessionStateReason) {
	c.events.StateChanged(c.view.Clone(), reason)
}

func (c *Controller) fail(code domain.ErrorCode, err error, tags map[string]string) {
	c.events.SessionError(code, err.Error())
	if c.reporter != nil {
		c.reporter.Capture(err, tags)
	}
}

func errorCodeFor(err error) domain.ErrorCode {
	var status interface{ HTTPStatus() int }
	if errors.As(err, &status) {
		return domain.ErrorCodeRemoteAPI
	}
	return domain.ErrorCodeTranscription
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

type nopNotifier struct{}

func (nopNotifier) Notify(domain.NoticeLevel, string) {}

type nopKeepAwake struct{}

func (nopKeepAwake) Acquire(string) (func(), error) { return func() {}, nil }

func (c *Controller) correct(text string) string {
	if c.corrector == nil {
		return text
	}
	return c.corrector.Correct(text)
}
