package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"scribe/internal/domain"
	"scribe/internal/templates"
)

// cliEvents reports controller events on the terminal. Finished runs are
// signalled on done.
type cliEvents struct {
	log  *slog.Logger
	out  io.Writer
	done chan domain.SessionStateReason

	mu       sync.Mutex
	progress int
}

func newCLIEvents(log *slog.Logger, out io.Writer) *cliEvents {
	return &cliEvents{log: log, out: out, done: make(chan domain.SessionStateReason, 1)}
}

func (e *cliEvents) StateChanged(state domain.ViewState, reason domain.SessionStateReason) {
	e.log.Debug("state changed", slog.String("state", string(state.State)), slog.String("reason", string(reason)))
	if state.Loading || state.Recording || !terminal(reason) {
		return
	}
	select {
	case e.done <- reason:
	default:
	}
}

func (e *cliEvents) NewSegment(segment domain.Segment) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fmt.Fprintln(e.out, formatSegment(segment))
}

func (e *cliEvents) Progress(percent int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if percent/10 == e.progress/10 {
		return
	}
	e.progress = percent
	e.log.Info("transcribing", slog.Int("progress", percent))
}

func (e *cliEvents) SessionError(code domain.ErrorCode, detail string) {
	e.log.Error("session failed", slog.String("code", string(code)), slog.String("detail", detail))
}

func (e *cliEvents) AbortRequested() {
	e.log.Info("aborting")
}

func (e *cliEvents) StopRecordRequested() {
	e.log.Info("stopping recording")
}

func (e *cliEvents) RecordingNotification(status string) {
	e.log.Info("recording " + status)
}

// wait blocks until a run ends or d elapses.
func (e *cliEvents) wait(d time.Duration) (domain.SessionStateReason, bool) {
	select {
	case reason := <-e.done:
		return reason, true
	case <-time.After(d):
		return "", false
	}
}

func terminal(reason domain.SessionStateReason) bool {
	switch reason {
	case domain.SessionReasonTranscriptReady,
		domain.SessionReasonSummaryReady,
		domain.SessionReasonTranscriptionFailed,
		domain.SessionReasonAborted,
		domain.SessionReasonRecordingFailed:
		return true
	}
	return false
}

// formatTimestamp renders seconds as mm:ss.s, or h:mm:ss.s past an hour.
func formatTimestamp(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	tenths := int64(math.Round(seconds * 10))
	h := tenths / 36000
	m := tenths / 600 % 60
	s := float64(tenths%600) / 10
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%04.1f", h, m, s)
	}
	return fmt.Sprintf("%02d:%04.1f", m, s)
}

func formatSegment(s domain.Segment) string {
	line := fmt.Sprintf("[%s - %s]", formatTimestamp(s.Start), formatTimestamp(s.Stop))
	if s.Speaker != "" {
		line += " " + s.Speaker + ":"
	}
	return line + " " + strings.TrimSpace(s.Text)
}

type result struct {
	Path     string           `json:"path"`
	Segments []domain.Segment `json:"segments"`
	Summary  string           `json:"summary,omitempty"`
}

func resultFrom(path string, view domain.ViewState) result {
	r := result{Path: path, Segments: view.Segments}
	if len(view.SummarySegments) > 0 {
		r.Summary = view.SummarySegments[0].Text
	}
	return r
}

func writeResult(w io.Writer, r result, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}

	fmt.Fprintf(w, "== %s\n", r.Path)
	for _, s := range r.Segments {
		fmt.Fprintln(w, formatSegment(s))
	}
	if r.Summary != "" {
		fmt.Fprintf(w, "\nSummary:\n%s\n", r.Summary)
	}
	_, err := fmt.Fprintln(w)
	return err
}

func writeTemplates(w io.Writer, list []templates.Template) {
	for _, t := range list {
		fmt.Fprintf(w, "%-26s %s\n", t.ID, t.Name)
	}
}

func writeHistory(w io.Writer, records []domain.SessionRecord, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}
	for _, r := range records {
		finished := time.UnixMilli(r.FinishedAt).Format(time.DateTime)
		fmt.Fprintf(w, "%s  %-6s %s\n", finished, r.Mode, r.SourcePath)
		if r.Summary != "" {
			fmt.Fprintf(w, "    %s\n", firstLine(r.Summary))
		}
	}
	return nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
