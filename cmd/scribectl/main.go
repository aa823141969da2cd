// Command scribectl transcribes audio files from the terminal using the
// same backend as the desktop app.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"scribe/internal/bootstrap"
	"scribe/internal/domain"
)

func main() {
	opts, err := parseOptions(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, opts)
	stop()
	if err != nil {
		slog.Error("scribectl failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	events := newCLIEvents(slog.Default(), os.Stderr)
	services, err := bootstrap.Build(bootstrap.Options{
		Events:    events,
		LogOutput: os.Stderr,
		Overrides: opts.overrides(),
	})
	if err != nil {
		return err
	}
	defer services.Close()

	slog.SetDefault(services.Logger)
	events.log = services.Logger
	controller := services.Controller

	switch {
	case opts.templates:
		writeTemplates(os.Stdout, services.Templates.List())
		return nil
	case opts.history > 0:
		records, err := controller.RecentSessions(ctx, opts.history)
		if err != nil {
			return err
		}
		return writeHistory(os.Stdout, records, opts.asJSON)
	case opts.record:
		if opts.paste {
			go warmPaste(services)
		}
		return record(ctx, services, events, opts)
	case opts.paste:
		go warmPaste(services)
	}

	go func() {
		<-ctx.Done()
		controller.Abort()
	}()

	var failed int
	for _, path := range opts.files {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := controller.Transcribe(ctx, path); err != nil {
			services.Logger.Error("failed to transcribe file",
				slog.String("path", path),
				slog.String("err", err.Error()))
			failed++
			continue
		}
		if err := writeResult(os.Stdout, resultFrom(path, controller.State()), opts.asJSON); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(opts.files))
	}
	return nil
}

func record(ctx context.Context, services bootstrap.Services, events *cliEvents, opts options) error {
	controller := services.Controller
	if err := controller.ToggleRecord(ctx); err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, "Recording. Press Enter to stop.")

	enter := make(chan struct{})
	go func() {
		_, _ = bufio.NewReader(os.Stdin).ReadString('\n')
		close(enter)
	}()
	select {
	case <-enter:
	case <-ctx.Done():
	}

	if err := controller.StopRecord(); err != nil && !errors.Is(err, domain.ErrNotRecording) {
		return err
	}

	// The recorder reports the finished file asynchronously and the
	// transcription starts from there.
	reason, ok := events.wait(services.Config.Remote.TranscribeTimeout + time.Minute)
	controller.Wait()
	if !ok {
		return errors.New("timed out waiting for the transcription")
	}

	state := controller.State()
	switch reason {
	case domain.SessionReasonRecordingFailed, domain.SessionReasonTranscriptionFailed:
		return fmt.Errorf("session ended with %s", reason)
	case domain.SessionReasonAborted:
		return ctx.Err()
	}
	return writeResult(os.Stdout, resultFrom(state.CurrentRecording, state), opts.asJSON)
}

func warmPaste(services bootstrap.Services) {
	if err := services.Keystroke.Warm(); err != nil {
		services.Logger.Warn("paste keystrokes unavailable", slog.String("err", err.Error()))
	}
}
