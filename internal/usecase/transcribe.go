package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"scribe/internal/domain"
	"scribe/internal/ports"
	"scribe/internal/summary"
)

var errNoLLM = errors.New("no llm client factory configured")

// Transcribe runs one transcription of path through the remote service or
// the local engine, depending on preferences. It returns ErrBusy while
// another transcription or a recording is running. Errors of aborted runs
// are swallowed.
func (c *Controller) Transcribe(ctx context.Context, path string) (err error) {
	if strings.TrimSpace(path) == "" {
		return errors.New("no audio file selected")
	}
	prefs := c.prefs.Preferences()

	runCtx, cancel := context.WithTimeout(ctx, c.cfg.TranscribeTimeout)
	run := &transcription{
		id:        c.newID(),
		path:      path,
		mode:      domain.ProcessingRemote,
		startedAt: c.now(),
		cancel:    cancel,
	}
	if prefs.UseLocalProcessing {
		run.mode = domain.ProcessingLocal
	}

	c.mu.Lock()
	if c.run != nil || c.view.Loading || c.recording != nil {
		c.mu.Unlock()
		cancel()
		return domain.ErrBusy
	}
	c.run = run
	c.view.Segments = nil
	c.view.SummarySegments = nil
	c.view.Loading = true
	c.view.Aborting = false
	c.view.Progress = nil
	c.view.CurrentRecording = path
	c.view.State = domain.SessionStateTranscribing
	c.emitLocked(domain.SessionReasonTranscribing)
	c.mu.Unlock()

	release, kaErr := c.keepAwake.Acquire("transcribing")
	if kaErr != nil {
		c.log.Warn("failed to keep the system awake", slog.String("err", kaErr.Error()))
		release = func() {}
	}

	defer func() {
		cancel()
		release()
		if c.finish(run, err) {
			err = nil
		}
	}()

	if run.mode == domain.ProcessingLocal {
		return c.transcribeLocal(runCtx, run, prefs)
	}
	return c.transcribeRemote(runCtx, run, prefs)
}

func (c *Controller) transcribeRemote(ctx context.Context, run *transcription, prefs domain.Preferences) error {
	tpl := c.templates.Resolve(prefs.SummaryTemplate)
	run.templateID = tpl.ID

	resp, err := c.remote.Transcribe(ctx, ports.RemoteRequest{
		AudioPath:    run.path,
		Schema:       tpl.Schema,
		Instructions: tpl.Instructions,
		ContactEmail: firstNonEmpty(prefs.ContactEmail, c.cfg.ContactEmail),
		APIKey:       firstNonEmpty(prefs.AnamediAPIKey, c.cfg.APIKey),
		BaseURL:      c.cfg.APIBaseURL,
	})
	if err != nil {
		return err
	}

	c.setSegments(run, segmentsFromResponse(resp))
	c.reportTiming(run)

	if text, ok := summary.Extract(resp.StructuredData); ok {
		c.deliverSummary(ctx, run, text, prefs.AutoPasteOnFinish)
	}
	return nil
}

func (c *Controller) transcribeLocal(ctx context.Context, run *transcription, prefs domain.Preferences) error {
	segments, err := c.local.TranscribeLocal(ctx, ports.LocalRequest{
		AudioPath:    run.path,
		ModelPath:    prefs.ModelPath,
		ModelOptions: prefs.ModelOptions,
		Diarize: domain.DiarizeOptions{
			Threshold:   prefs.DiarizeThreshold,
			MaxSpeakers: prefs.MaxSpeakers,
			Enabled:     prefs.RecognizeSpeakers,
		},
		FFmpegOptions: prefs.FFmpegOptions,
		UseGPU:        prefs.UseGPU,
	}, runProgress{c: c, run: run})
	if err != nil {
		return err
	}

	c.setSegments(run, segments)
	c.reportTiming(run)

	if prefs.LLMConfig.Enabled {
		c.summarizeLocal(ctx, run, prefs)
	}
	return nil
}

// summarizeLocal asks the configured LLM for a summary. Failures are logged
// only; the transcript stays as it is.
func (c *Controller) summarizeLocal(ctx context.Context, run *transcription, prefs domain.Preferences) {
	c.mu.Lock()
	if run.aborted {
		c.mu.Unlock()
		return
	}
	c.view.State = domain.SessionStateSummarizing
	c.emitLocked(domain.SessionReasonSummarizing)
	segments := run.segments
	c.mu.Unlock()

	client, err := c.llm.Client(prefs.LLMConfig)
	if err != nil {
		c.log.Error("failed to create llm client", slog.String("err", err.Error()))
		return
	}

	answer, err := client.Ask(ctx, buildPrompt(prefs.LLMConfig.Prompt, domain.TranscriptText(segments)))
	if err != nil {
		c.log.Error("failed to summarize transcript", slog.String("err", err.Error()))
		return
	}
	if strings.TrimSpace(answer) == "" {
		return
	}
	c.deliverSummary(ctx, run, answer, prefs.AutoPasteOnFinish)
}

func (c *Controller) setSegments(run *transcription, segments []domain.Segment) {
	for i := range segments {
		segments[i].Text = c.correct(segments[i].Text)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	run.segments = segments
	if c.run != run {
		return
	}
	c.view.Segments = append([]domain.Segment(nil), segments...)
	c.emitLocked(domain.SessionReasonTranscriptReady)
}

func (c *Controller) deliverSummary(ctx context.Context, run *transcription, text string, autoPaste bool) {
	text = c.correct(text)
	if strings.TrimSpace(text) == "" {
		return
	}

	c.mu.Lock()
	if run.aborted || c.run != run {
		c.mu.Unlock()
		return
	}
	run.hasSummary = true
	run.summary = text
	c.view.SummarySegments = []domain.Segment{summarySegment(run.segments, text)}
	c.emitLocked(domain.SessionReasonSummaryReady)
	c.mu.Unlock()

	c.finalizer.Deliver(ctx, text, autoPaste)
}

func (c *Controller) reportTiming(run *transcription) {
	total := int(math.Round(c.now().Sub(run.startedAt).Seconds()))
	c.log.Info("transcription finished",
		slog.String("mode", string(run.mode)),
		slog.Int("seconds", total))
	c.notifier.Notify(domain.NoticeSuccess, fmt.Sprintf("Transcription took %d seconds", total))
}

// finish is the terminal step of every Transcribe call. It reports whether
// runErr should be swallowed because the run was aborted.
func (c *Controller) finish(run *transcription, runErr error) (aborted bool) {
	c.mu.Lock()
	aborted = run.aborted
	hasSummary := run.hasSummary
	if c.run == run {
		c.run = nil
	}
	c.view.Loading = false
	c.view.Aborting = false
	c.view.Progress = nil

	var reason domain.SessionStateReason
	switch {
	case aborted:
		c.view.State = domain.SessionStateIdle
		reason = domain.SessionReasonAborted
	case runErr != nil:
		c.view.State = domain.SessionStateError
		reason = domain.SessionReasonTranscriptionFailed
	case hasSummary:
		c.view.State = domain.SessionStateIdle
		reason = domain.SessionReasonSummaryReady
	default:
		c.view.State = domain.SessionStateIdle
		reason = domain.SessionReasonTranscriptReady
	}
	c.emitLocked(reason)
	c.mu.Unlock()

	if aborted {
		c.log.Info("transcription aborted", slog.String("session", run.id))
		return true
	}

	if runErr != nil {
		c.log.Error("transcription failed",
			slog.String("session", run.id),
			slog.String("mode", string(run.mode)),
			slog.String("err", runErr.Error()))
		c.fail(errorCodeFor(runErr), runErr, map[string]string{"mode": string(run.mode)})
	} else {
		c.saveHistory(run)
	}

	prefs := c.prefs.Preferences()
	if prefs.SoundOnFinish && c.sound != nil {
		if err := c.sound.PlayFinished(); err != nil {
			c.log.Debug("failed to play completion sound", slog.String("err", err.Error()))
		}
	}
	if prefs.FocusOnFinish && !hasSummary && c.window != nil {
		c.window.Focus()
	}
	return false
}

func (c *Controller) saveHistory(run *transcription) {
	if c.history == nil {
		return
	}
	record := domain.SessionRecord{
		ID:         run.id,
		SourcePath: run.path,
		Mode:       run.mode,
		TemplateID: run.templateID,
		Transcript: domain.TranscriptText(run.segments),
		Summary:    run.summary,
		StartedAt:  run.startedAt.UnixMilli(),
		FinishedAt: c.now().UnixMilli(),
	}
	// The run context is already cancelled here.
	if err := c.history.Save(context.Background(), record); err != nil {
		c.log.Warn("failed to save session history", slog.String("err", err.Error()))
	}
}

// runProgress routes local engine output to the controller while run is the
// active transcription.
type runProgress struct {
	c   *Controller
	run *transcription
}

func (p runProgress) Progress(percent int) {
	if !p.c.isCurrent(p.run) {
		return
	}
	p.c.HandleProgress(percent)
}

func (p runProgress) NewSegment(segment domain.Segment) {
	if !p.c.isCurrent(p.run) {
		return
	}
	p.c.HandleNewSegment(segment)
}

func (c *Controller) isCurrent(run *transcription) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.run == run
}
