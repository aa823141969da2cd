package domain

import (
	"errors"
	"strings"
)

// SessionState models the record → transcribe → summarize lifecycle.
type SessionState string

const (
	SessionStateIdle         SessionState = "idle"
	SessionStateRecording    SessionState = "recording"
	SessionStateTranscribing SessionState = "transcribing"
	SessionStateSummarizing  SessionState = "summarizing"
	SessionStateError        SessionState = "error"
)

// SessionStateReason provides a structured reason for state transitions.
type SessionStateReason string

const (
	SessionReasonReady               SessionStateReason = "ready"
	SessionReasonRecordingStarted    SessionStateReason = "recording_started"
	SessionReasonRecordingStopped    SessionStateReason = "recording_stopped"
	SessionReasonTranscribing        SessionStateReason = "transcribing"
	SessionReasonSummarizing         SessionStateReason = "summarizing"
	SessionReasonTranscriptReady     SessionStateReason = "transcript_ready"
	SessionReasonSummaryReady        SessionStateReason = "summary_ready"
	SessionReasonAborted             SessionStateReason = "aborted"
	SessionReasonTranscriptionFailed SessionStateReason = "transcription_failed"
	SessionReasonRecordingFailed     SessionStateReason = "recording_failed"
)

// ErrorCode identifies non-fatal and fatal backend errors.
type ErrorCode string

const (
	ErrorCodeStartup       ErrorCode = "startup"
	ErrorCodeRecording     ErrorCode = "recording"
	ErrorCodeTranscription ErrorCode = "transcription"
	ErrorCodeRemoteAPI     ErrorCode = "remote_api"
	ErrorCodeSummary       ErrorCode = "summary"
	ErrorCodePaste         ErrorCode = "paste"
	ErrorCodeHistory       ErrorCode = "history"
)

// NoticeLevel classifies transient user notifications.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// ProcessingMode records which transcription path produced a session.
type ProcessingMode string

const (
	ProcessingRemote ProcessingMode = "remote"
	ProcessingLocal  ProcessingMode = "local"
)

var (
	ErrBusy               = errors.New("a transcription session is already running")
	ErrNotRecording       = errors.New("no active recording")
	ErrAlreadyRecording   = errors.New("recording already in progress")
	ErrPastePermission    = errors.New("input simulation permission denied")
	ErrMalformedTimestamp = errors.New("diarized segment timestamp must be a [start, stop] pair")
	ErrNoDefaultDevices   = errors.New("no default audio devices found")
)

// Segment is a timed span of transcript text.
type Segment struct {
	Start   float64 `json:"start"`
	Stop    float64 `json:"stop"`
	Text    string  `json:"text"`
	Speaker string  `json:"speaker,omitempty"`
}

// SpeakerSegment is one diarized entry returned by the remote service.
type SpeakerSegment struct {
	Speaker   string     `json:"speaker"`
	Text      string     `json:"text"`
	Timestamp [2]float64 `json:"timestamp"`
}

// TranscriptionResponse is the remote service's unified result. StructuredData
// is kept raw; its shape is whatever the requested schema produced.
type TranscriptionResponse struct {
	Transcript     string           `json:"transcript"`
	Diarized       []SpeakerSegment `json:"diarized"`
	StructuredData []byte           `json:"-"`
}

// AudioDevice is a capture source offered to the user.
type AudioDevice struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsDefault bool   `json:"isDefault"`
	IsInput   bool   `json:"isInput"`
}

// NamedPath pairs a file path with its display name.
type NamedPath struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// ViewState is the UI-visible orchestrator state pushed on every change.
type ViewState struct {
	State            SessionState `json:"state"`
	Recording        bool         `json:"recording"`
	Loading          bool         `json:"loading"`
	Aborting         bool         `json:"aborting"`
	Progress         *int         `json:"progress"`
	Segments         []Segment    `json:"segments"`
	SummarySegments  []Segment    `json:"summarySegments"`
	InputDevice      *AudioDevice `json:"inputDevice,omitempty"`
	OutputDevice     *AudioDevice `json:"outputDevice,omitempty"`
	Files            []NamedPath  `json:"files"`
	CurrentRecording string       `json:"currentRecording,omitempty"`
}

// Clone returns a deep copy safe to hand to other goroutines.
func (v ViewState) Clone() ViewState {
	out := v
	if v.Progress != nil {
		p := *v.Progress
		out.Progress = &p
	}
	if v.Segments != nil {
		out.Segments = append([]Segment(nil), v.Segments...)
	}
	if v.SummarySegments != nil {
		out.SummarySegments = append([]Segment(nil), v.SummarySegments...)
	}
	if v.Files != nil {
		out.Files = append([]NamedPath(nil), v.Files...)
	}
	if v.InputDevice != nil {
		d := *v.InputDevice
		out.InputDevice = &d
	}
	if v.OutputDevice != nil {
		d := *v.OutputDevice
		out.OutputDevice = &d
	}
	return out
}

// SessionRecord is a completed session as kept in history.
type SessionRecord struct {
	ID         string         `json:"id"`
	SourcePath string         `json:"sourcePath"`
	Mode       ProcessingMode `json:"mode"`
	TemplateID string         `json:"templateId,omitempty"`
	Transcript string         `json:"transcript"`
	Summary    string         `json:"summary,omitempty"`
	StartedAt  int64          `json:"startedAt"`
	FinishedAt int64          `json:"finishedAt"`
}

// TranscriptText joins segment text the way prompts and history expect it.
func TranscriptText(segments []Segment) string {
	var b strings.Builder
	for _, segment := range segments {
		if segment.Speaker != "" {
			b.WriteString(segment.Speaker)
			b.WriteString(": ")
		}
		b.WriteString(strings.TrimSpace(segment.Text))
		b.WriteByte('\n')
	}
	return strings.TrimSpace(b.String())
}
