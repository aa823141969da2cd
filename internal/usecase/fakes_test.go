package usecase

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"scribe/internal/domain"
	"scribe/internal/paste"
	"scribe/internal/ports"
)

type fakeRecorder struct {
	mu        sync.Mutex
	requests  []ports.RecordRequest
	observer  ports.RecordObserver
	recording bool
	startErr  error
	stopCalls int
	devices   []domain.AudioDevice
}

func (f *fakeRecorder) Start(_ context.Context, req ports.RecordRequest, observer ports.RecordObserver) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.requests = append(f.requests, req)
	f.observer = observer
	f.recording = true
	return nil
}

func (f *fakeRecorder) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopCalls++
	f.recording = false
	return nil
}

func (f *fakeRecorder) IsRecording() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.recording
}

func (f *fakeRecorder) Devices(context.Context) ([]domain.AudioDevice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.AudioDevice(nil), f.devices...), nil
}

func (f *fakeRecorder) lastRequest() ports.RecordRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return ports.RecordRequest{}
	}
	return f.requests[len(f.requests)-1]
}

type statusError struct{ status int }

func (e statusError) Error() string   { return "remote failed" }
func (e statusError) HTTPStatus() int { return e.status }

type fakeRemote struct {
	mu       sync.Mutex
	requests []ports.RemoteRequest
	resp     domain.TranscriptionResponse
	err      error
	// block makes Transcribe wait for ctx cancellation after signalling started.
	block   bool
	started chan struct{}
}

func (f *fakeRemote) Transcribe(ctx context.Context, req ports.RemoteRequest) (domain.TranscriptionResponse, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	block := f.block
	f.mu.Unlock()

	if block {
		if f.started != nil {
			close(f.started)
		}
		<-ctx.Done()
		return domain.TranscriptionResponse{}, ctx.Err()
	}
	return f.resp, f.err
}

func (f *fakeRemote) snapshot() []ports.RemoteRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ports.RemoteRequest(nil), f.requests...)
}

type fakeLocal struct {
	mu       sync.Mutex
	requests []ports.LocalRequest
	progress []int
	streamed []domain.Segment
	segments []domain.Segment
	err      error
}

func (f *fakeLocal) TranscribeLocal(_ context.Context, req ports.LocalRequest, progress ports.LocalProgress) ([]domain.Segment, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	for _, p := range f.progress {
		progress.Progress(p)
	}
	for _, s := range f.streamed {
		progress.NewSegment(s)
	}
	return f.segments, f.err
}

type fakeLLM struct {
	mu      sync.Mutex
	prompts []string
	answer  string
	err     error
}

func (f *fakeLLM) Ask(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return f.answer, f.err
}

type fakePaster struct {
	mu    sync.Mutex
	texts []string
}

func (f *fakePaster) PasteWithPrompt(_ context.Context, text string) paste.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return paste.Result{Pasted: true, Attempts: 1}
}

func (f *fakePaster) snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

type fakeClipboard struct {
	mu    sync.Mutex
	texts []string
}

func (f *fakeClipboard) SetText(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeClipboard) snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

type fakeKeepAwake struct {
	mu       sync.Mutex
	acquired int
	released int
}

func (f *fakeKeepAwake) Acquire(string) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acquired++
	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.released++
		})
	}, nil
}

func (f *fakeKeepAwake) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.acquired, f.released
}

type fakeSound struct {
	mu    sync.Mutex
	plays int
}

func (f *fakeSound) PlayFinished() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.plays++
	return nil
}

func (f *fakeSound) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.plays
}

type fakeWindow struct {
	mu      sync.Mutex
	focused int
}

func (f *fakeWindow) Focus() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.focused++
}

func (f *fakeWindow) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.focused
}

type fakePrefs struct {
	mu      sync.Mutex
	prefs   domain.Preferences
	updates int
}

func (f *fakePrefs) Preferences() domain.Preferences {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.prefs
}

func (f *fakePrefs) Update(mutate func(*domain.Preferences)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	mutate(&f.prefs)
	f.updates++
	return nil
}

type fakeHistory struct {
	mu      sync.Mutex
	records []domain.SessionRecord
	err     error
}

func (f *fakeHistory) Save(_ context.Context, record domain.SessionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, record)
	return nil
}

func (f *fakeHistory) Recent(_ context.Context, limit int) ([]domain.SessionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if limit > len(f.records) {
		limit = len(f.records)
	}
	return append([]domain.SessionRecord(nil), f.records[:limit]...), nil
}

func (f *fakeHistory) snapshot() []domain.SessionRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.SessionRecord(nil), f.records...)
}

type fakeReporter struct {
	mu   sync.Mutex
	errs []error
}

func (f *fakeReporter) Capture(err error, _ map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs = append(f.errs, err)
}

func (f *fakeReporter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.errs)
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (f *fakeNotifier) Notify(_ domain.NoticeLevel, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, message)
}

func (f *fakeNotifier) snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.messages...)
}

type stateEvent struct {
	view   domain.ViewState
	reason domain.SessionStateReason
}

type errEvent struct {
	code   domain.ErrorCode
	detail string
}

type fakeEventSink struct {
	mu sync.Mutex

	states        []stateEvent
	segments      []domain.Segment
	progress      []int
	errors        []errEvent
	aborts        int
	stopRequests  int
	notifications []string
}

func (f *fakeEventSink) StateChanged(view domain.ViewState, reason domain.SessionStateReason) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states = append(f.states, stateEvent{view: view, reason: reason})
}

func (f *fakeEventSink) NewSegment(segment domain.Segment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.segments = append(f.segments, segment)
}

func (f *fakeEventSink) Progress(percent int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.progress = append(f.progress, percent)
}

func (f *fakeEventSink) SessionError(code domain.ErrorCode, detail string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors = append(f.errors, errEvent{code: code, detail: detail})
}

func (f *fakeEventSink) AbortRequested() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.aborts++
}

func (f *fakeEventSink) StopRecordRequested() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopRequests++
}

func (f *fakeEventSink) RecordingNotification(status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifications = append(f.notifications, status)
}

func (f *fakeEventSink) snapshotStates() []stateEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]stateEvent, len(f.states))
	copy(out, f.states)
	return out
}

func (f *fakeEventSink) snapshotErrors() []errEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]errEvent, len(f.errors))
	copy(out, f.errors)
	return out
}

func (f *fakeEventSink) snapshotSegments() []domain.Segment {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Segment(nil), f.segments...)
}

func (f *fakeEventSink) snapshotProgress() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.progress...)
}

type fakeCrashMarker struct {
	crashed      bool
	acknowledged int
}

func (f *fakeCrashMarker) Crashed() bool { return f.crashed }

func (f *fakeCrashMarker) Acknowledge() error {
	f.acknowledged++
	f.crashed = false
	return nil
}

type fakeModels struct {
	models   []string
	existing map[string]bool
}

func (f *fakeModels) Models() ([]string, error) {
	if f.models == nil {
		return nil, errors.New("models folder missing")
	}
	return f.models, nil
}

func (f *fakeModels) Exists(path string) bool { return f.existing[path] }

// harness bundles a controller with all of its fakes.
type harness struct {
	controller *Controller
	recorder   *fakeRecorder
	remote     *fakeRemote
	local      *fakeLocal
	llm        *fakeLLM
	llmBuilds  int
	paster     *fakePaster
	clipboard  *fakeClipboard
	keepAwake  *fakeKeepAwake
	sound      *fakeSound
	window     *fakeWindow
	prefs      *fakePrefs
	history    *fakeHistory
	reporter   *fakeReporter
	notifier   *fakeNotifier
	events     *fakeEventSink
}

func newHarness(prefs domain.Preferences) *harness {
	h := &harness{
		recorder:  &fakeRecorder{},
		remote:    &fakeRemote{},
		local:     &fakeLocal{},
		llm:       &fakeLLM{},
		paster:    &fakePaster{},
		clipboard: &fakeClipboard{},
		keepAwake: &fakeKeepAwake{},
		sound:     &fakeSound{},
		window:    &fakeWindow{},
		prefs:     &fakePrefs{prefs: prefs},
		history:   &fakeHistory{},
		reporter:  &fakeReporter{},
		notifier:  &fakeNotifier{},
		events:    &fakeEventSink{},
	}
	var buildMu sync.Mutex
	h.controller = NewController(Deps{
		Recorder: h.recorder,
		Remote:   h.remote,
		Local:    h.local,
		NewLLM: func(domain.LLMConfig) (ports.LLM, error) {
			buildMu.Lock()
			defer buildMu.Unlock()
			h.llmBuilds++
			return h.llm, nil
		},
		Paster:      h.paster,
		Clipboard:   h.clipboard,
		Notifier:    h.notifier,
		KeepAwake:   h.keepAwake,
		Sound:       h.sound,
		Window:      h.window,
		Preferences: h.prefs,
		History:     h.history,
		Reporter:    h.reporter,
		Events:      h.events,
	}, Config{APIBaseURL: "https://api.test", APIKey: "env-key", ContactEmail: "env@example.com"})

	ids := 0
	var idMu sync.Mutex
	h.controller.newID = func() string {
		idMu.Lock()
		defer idMu.Unlock()
		ids++
		return "id-" + strconv.Itoa(ids)
	}
	return h
}
