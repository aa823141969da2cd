// Package paste delivers text to whatever window has keyboard focus by writing
// it to the clipboard and simulating the paste shortcut.
package paste

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"scribe/internal/domain"
	"scribe/internal/ports"
)

const (
	MessagePasted           = "Summary pasted into the active window."
	MessageClickTarget      = "Click into the window where the summary should go."
	MessagePermissionDenied = "Pasting is blocked: allow this app to control your computer in the accessibility settings. The summary is on the clipboard, paste it manually."
	MessageFailed           = "Could not paste automatically. The summary is on the clipboard, paste it manually."
)

// Config holds the pipeline timings.
type Config struct {
	// PreDelay is how long PasteWithPrompt waits after showing the prompt.
	PreDelay time.Duration
	// Settle is waited before the first paste; SettleStep is added per attempt.
	Settle     time.Duration
	SettleStep time.Duration
	// Backoff doubles after every failed attempt.
	Backoff     time.Duration
	MaxAttempts int
	Logger      *slog.Logger
}

// DefaultConfig returns the desktop defaults.
func DefaultConfig() Config {
	return Config{
		PreDelay:    2 * time.Second,
		Settle:      50 * time.Millisecond,
		SettleStep:  50 * time.Millisecond,
		Backoff:     200 * time.Millisecond,
		MaxAttempts: 3,
	}
}

// Result reports how a delivery ended. Err is the last failure, if any.
type Result struct {
	Pasted           bool
	PermissionDenied bool
	Attempts         int
	Err              error
}

// Pipeline pastes text with bounded retries. It never returns errors; the
// outcome is reported through the notifier and the returned Result.
type Pipeline struct {
	clipboard ports.Clipboard
	simulator ports.PasteSimulator
	notifier  ports.Notifier
	cfg       Config
	log       *slog.Logger
	sleep     func(ctx context.Context, d time.Duration) error
}

func NewPipeline(clipboard ports.Clipboard, simulator ports.PasteSimulator, notifier ports.Notifier, cfg Config) *Pipeline {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		clipboard: clipboard,
		simulator: simulator,
		notifier:  notifier,
		cfg:       cfg,
		log:       log,
		sleep:     sleepContext,
	}
}

// PasteWithPrompt asks the user to focus the destination, waits PreDelay and
// then pastes.
func (p *Pipeline) PasteWithPrompt(ctx context.Context, text string) Result {
	p.notifier.Notify(domain.NoticeInfo, MessageClickTarget)
	if p.cfg.PreDelay > 0 {
		if err := p.sleep(ctx, p.cfg.PreDelay); err != nil {
			return Result{Err: err}
		}
	}
	return p.Paste(ctx, text)
}

// Paste writes text to the clipboard and simulates a paste, retrying
// transient failures.
func (p *Pipeline) Paste(ctx context.Context, text string) Result {
	var result Result
	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		result.Attempts = attempt
		err := p.attempt(ctx, text, attempt)
		if err == nil {
			result.Pasted = true
			result.Err = nil
			p.notifier.Notify(domain.NoticeSuccess, MessagePasted)
			return result
		}
		result.Err = err

		if errors.Is(err, domain.ErrPastePermission) {
			result.PermissionDenied = true
			p.log.Warn("paste simulation not permitted", slog.String("err", err.Error()))
			p.notifier.Notify(domain.NoticeWarning, MessagePermissionDenied)
			return result
		}
		if ctx.Err() != nil {
			break
		}

		p.log.Warn("paste attempt failed",
			slog.Int("attempt", attempt),
			slog.Int("maxAttempts", p.cfg.MaxAttempts),
			slog.String("err", err.Error()))

		if attempt < p.cfg.MaxAttempts {
			if err := p.sleep(ctx, p.backoff(attempt)); err != nil {
				break
			}
		}
	}

	p.notifier.Notify(domain.NoticeError, MessageFailed)
	return result
}

func (p *Pipeline) attempt(ctx context.Context, text string, attempt int) error {
	if err := p.clipboard.SetText(ctx, text); err != nil {
		return err
	}
	if err := p.sleep(ctx, p.settle(attempt)); err != nil {
		return err
	}
	return p.simulator.SimulatePaste(ctx)
}

func (p *Pipeline) settle(attempt int) time.Duration {
	return p.cfg.Settle + time.Duration(attempt-1)*p.cfg.SettleStep
}

func (p *Pipeline) backoff(attempt int) time.Duration {
	return p.cfg.Backoff << (attempt - 1)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
