package telemetry

import (
	"errors"
	"time"

	"github.com/getsentry/sentry-go"
)

const flushTimeout = 2 * time.Second

// SentryConfig configures crash reporting.
type SentryConfig struct {
	DSN         string
	Environment string
	Release     string
	// BeforeSend may inspect or drop events.
	BeforeSend func(*sentry.Event, *sentry.EventHint) *sentry.Event
}

// SentryReporter forwards session errors to Sentry.
type SentryReporter struct {
	hub *sentry.Hub
}

// NewSentryReporter returns a reporter with its own hub, so reporting does
// not depend on the global Sentry client.
func NewSentryReporter(cfg SentryConfig) (*SentryReporter, error) {
	if cfg.DSN == "" {
		return nil, errors.New("sentry dsn is empty")
	}
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
		Release:     cfg.Release,
		BeforeSend:  cfg.BeforeSend,
	})
	if err != nil {
		return nil, err
	}
	return &SentryReporter{hub: sentry.NewHub(client, sentry.NewScope())}, nil
}

func (r *SentryReporter) Capture(err error, tags map[string]string) {
	if err == nil {
		return
	}
	r.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		r.hub.CaptureException(err)
	})
}

// Flush waits for queued events.
func (r *SentryReporter) Flush() bool {
	return r.hub.Flush(flushTimeout)
}
