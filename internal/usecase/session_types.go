package usecase

import (
	"time"

	"scribe/internal/domain"
)

// transcription is one Transcribe call. aborted and hasSummary are guarded
// by Controller.mu.
type transcription struct {
	id         string
	path       string
	mode       domain.ProcessingMode
	templateID string
	startedAt  time.Time
	cancel     func()

	aborted    bool
	hasSummary bool
	summary    string
	segments   []domain.Segment
}

// recordingSession tracks one recorder run so events for older runs can be
// told apart.
type recordingSession struct {
	id      string
	release func()
}

func (r *recordingSession) releaseOnce() {
	if r.release != nil {
		r.release()
		r.release = nil
	}
}
