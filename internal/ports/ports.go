package ports

import (
	"context"

	"scribe/internal/domain"
	"scribe/internal/schema"
)

// RecordRequest describes a recording session to start.
type RecordRequest struct {
	SessionID        string
	Devices          []domain.AudioDevice
	StoreInDocuments bool
}

// RecordObserver receives recorder lifecycle events. The recorder is the only
// party that knows when encoding has been flushed, so RecordFinished is the
// authoritative end of a recording.
type RecordObserver interface {
	RecordStarted(sessionID string)
	RecordStopped(sessionID string)
	RecordFinished(sessionID string, file domain.NamedPath)
	RecordFailed(sessionID string, err error)
	RecordingNotification(status string)
}

// Recorder captures audio from devices into a file.
type Recorder interface {
	Start(ctx context.Context, req RecordRequest, observer RecordObserver) error
	Stop() error
	IsRecording() bool
	Devices(ctx context.Context) ([]domain.AudioDevice, error)
}

// RemoteRequest is one call to the remote transcription-and-structuring API.
type RemoteRequest struct {
	AudioPath    string
	Schema       *schema.Schema
	Instructions string
	ContactEmail string
	APIKey       string
	BaseURL      string
}

// RemoteTranscriber posts audio to the remote service.
type RemoteTranscriber interface {
	Transcribe(ctx context.Context, req RemoteRequest) (domain.TranscriptionResponse, error)
}

// LocalRequest is one call to the local speech engine.
type LocalRequest struct {
	AudioPath     string
	ModelPath     string
	ModelOptions  domain.ModelOptions
	Diarize       domain.DiarizeOptions
	FFmpegOptions domain.FFmpegOptions
	UseGPU        bool
}

// LocalProgress receives streamed engine output while a local run is active.
type LocalProgress interface {
	Progress(percent int)
	NewSegment(segment domain.Segment)
}

// LocalTranscriber runs the local speech engine. Cancelling ctx asks the
// engine to abort.
type LocalTranscriber interface {
	TranscribeLocal(ctx context.Context, req LocalRequest, progress LocalProgress) ([]domain.Segment, error)
}

// LLM answers a single prompt.
type LLM interface {
	Ask(ctx context.Context, prompt string) (string, error)
}

// Clipboard writes text into the system clipboard.
type Clipboard interface {
	SetText(ctx context.Context, text string) error
}

// PasteSimulator issues the OS-level paste keystroke.
type PasteSimulator interface {
	SimulatePaste(ctx context.Context) error
}

// Notifier shows transient messages to the user.
type Notifier interface {
	Notify(level domain.NoticeLevel, message string)
}

// KeepAwake prevents the OS from sleeping while a session runs.
type KeepAwake interface {
	Acquire(reason string) (release func(), err error)
}

// Sound plays the completion sound.
type Sound interface {
	PlayFinished() error
}

// Window brings the application window forward.
type Window interface {
	Focus()
}

// PreferenceSource returns the current persisted preferences.
type PreferenceSource interface {
	Preferences() domain.Preferences
}

// PreferenceStore is a PreferenceSource that can also persist changes.
type PreferenceStore interface {
	PreferenceSource
	Update(mutate func(*domain.Preferences)) error
}

// CrashMarker reports whether the previous run crashed in native code.
type CrashMarker interface {
	Crashed() bool
	Acknowledge() error
}

// ModelCatalog lists installed local transcription models.
type ModelCatalog interface {
	Models() ([]string, error)
	Exists(path string) bool
}

// History persists completed sessions.
type History interface {
	Save(ctx context.Context, record domain.SessionRecord) error
	Recent(ctx context.Context, limit int) ([]domain.SessionRecord, error)
}

// Corrector rewrites transcript text with vocabulary corrections.
type Corrector interface {
	Correct(text string) string
}

// ErrorReporter forwards fatal session errors to crash reporting.
type ErrorReporter interface {
	Capture(err error, tags map[string]string)
}

// EventSink emits backend state/events to the UI.
type EventSink interface {
	StateChanged(state domain.ViewState, reason domain.SessionStateReason)
	NewSegment(segment domain.Segment)
	Progress(percent int)
	SessionError(code domain.ErrorCode, detail string)
	AbortRequested()
	StopRecordRequested()
	RecordingNotification(status string)
}
