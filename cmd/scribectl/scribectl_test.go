package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"scribe/internal/domain"
)

func TestParseOptions(t *testing.T) {
	t.Parallel()

	opts, err := parseOptions([]string{"-local", "-template", "soap-en", "-no-paste", "a.wav", "b.mp3"}, io.Discard)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if !opts.local || opts.template != "soap-en" || !opts.noPaste {
		t.Fatalf("unexpected options: %+v", opts)
	}
	if len(opts.files) != 2 || opts.files[1] != "b.mp3" {
		t.Fatalf("unexpected files: %v", opts.files)
	}
}

func TestParseOptionsRejectsConflicts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
	}{
		{name: "local and remote", args: []string{"-local", "-remote", "a.wav"}},
		{name: "paste and no-paste", args: []string{"-paste", "-no-paste", "a.wav"}},
		{name: "negative history", args: []string{"-history", "-1"}},
		{name: "record with files", args: []string{"-record", "a.wav"}},
		{name: "nothing to do", args: nil},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := parseOptions(tt.args, io.Discard); err == nil {
				t.Fatalf("expected error for %v", tt.args)
			}
		})
	}
}

func TestParseOptionsHelp(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	_, err := parseOptions([]string{"-h"}, &out)
	if !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("expected flag.ErrHelp, got %v", err)
	}
	if !strings.Contains(out.String(), "Usage: scribectl") || !strings.Contains(out.String(), "-template") {
		t.Fatalf("usage not printed: %q", out.String())
	}
}

func TestOverrides(t *testing.T) {
	t.Parallel()

	if (options{files: []string{"a.wav"}}).overrides() != nil {
		t.Fatalf("no flags should mean no overrides")
	}

	prefs := domain.DefaultPreferences()
	prefs.UseLocalProcessing = true
	prefs.AutoPasteOnFinish = false
	options{remote: true, paste: true, template: " soap-fr "}.overrides()(&prefs)
	if prefs.UseLocalProcessing || !prefs.AutoPasteOnFinish || prefs.SummaryTemplate != "soap-fr" {
		t.Fatalf("overrides not applied: %+v", prefs)
	}
}

func TestFormatTimestamp(t *testing.T) {
	t.Parallel()

	tests := map[float64]string{
		0:      "00:00.0",
		1.24:   "00:01.2",
		61.5:   "01:01.5",
		3725.0: "1:02:05.0",
		-3:     "00:00.0",
	}
	for in, want := range tests {
		if got := formatTimestamp(in); got != want {
			t.Fatalf("formatTimestamp(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatSegment(t *testing.T) {
	t.Parallel()

	got := formatSegment(domain.Segment{Start: 1, Stop: 2.5, Speaker: "A", Text: " hello "})
	if got != "[00:01.0 - 00:02.5] A: hello" {
		t.Fatalf("unexpected line: %q", got)
	}
	got = formatSegment(domain.Segment{Start: 0, Stop: 1, Text: "x"})
	if got != "[00:00.0 - 00:01.0] x" {
		t.Fatalf("unexpected line: %q", got)
	}
}

func TestWriteResult(t *testing.T) {
	t.Parallel()

	view := domain.ViewState{
		Segments:        []domain.Segment{{Start: 0, Stop: 1, Text: "hello"}},
		SummarySegments: []domain.Segment{{Text: "S: fine"}},
	}
	r := resultFrom("a.wav", view)

	var text bytes.Buffer
	if err := writeResult(&text, r, false); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if !strings.Contains(text.String(), "== a.wav\n[00:00.0 - 00:01.0] hello\n") || !strings.Contains(text.String(), "Summary:\nS: fine\n") {
		t.Fatalf("unexpected text output: %q", text.String())
	}

	var raw bytes.Buffer
	if err := writeResult(&raw, r, true); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	var decoded result
	if err := json.Unmarshal(raw.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if decoded.Summary != "S: fine" || len(decoded.Segments) != 1 {
		t.Fatalf("unexpected json result: %+v", decoded)
	}
}

func TestWriteHistory(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	records := []domain.SessionRecord{{
		Mode:       domain.ProcessingRemote,
		SourcePath: "/tmp/a.wav",
		Summary:    "first line\nsecond line",
		FinishedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local).UnixMilli(),
	}}
	if err := writeHistory(&out, records, false); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	want := "2024-05-01 10:00:00  remote /tmp/a.wav\n    first line\n"
	if out.String() != want {
		t.Fatalf("unexpected history output:\n%q\nwant\n%q", out.String(), want)
	}
}

func TestCLIEventsSignalsTerminalStates(t *testing.T) {
	t.Parallel()

	events := newCLIEvents(slog.New(slog.NewTextHandler(io.Discard, nil)), io.Discard)

	events.StateChanged(domain.ViewState{Loading: true}, domain.SessionReasonTranscriptReady)
	events.StateChanged(domain.ViewState{}, domain.SessionReasonRecordingStopped)
	if _, ok := events.wait(10 * time.Millisecond); ok {
		t.Fatalf("non-terminal states must not signal")
	}

	events.StateChanged(domain.ViewState{}, domain.SessionReasonSummaryReady)
	events.StateChanged(domain.ViewState{}, domain.SessionReasonAborted)
	reason, ok := events.wait(time.Second)
	if !ok || reason != domain.SessionReasonSummaryReady {
		t.Fatalf("expected summary_ready, got %q %v", reason, ok)
	}
}

func TestCLIEventsPrintsSegments(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	events := newCLIEvents(slog.New(slog.NewTextHandler(io.Discard, nil)), &out)
	events.NewSegment(domain.Segment{Start: 2, Stop: 3, Text: "live"})
	if out.String() != "[00:02.0 - 00:03.0] live\n" {
		t.Fatalf("unexpected output: %q", out.String())
	}
}
