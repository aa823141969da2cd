package usecase

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"scribe/internal/domain"
	"scribe/internal/ports"
)

// summaryFinalizer hands a produced summary to the user: auto-paste when
// enabled, otherwise a plain clipboard copy.
type summaryFinalizer struct {
	paster    Paster
	clipboard ports.Clipboard
	log       *slog.Logger
}

func newSummaryFinalizer(paster Paster, clipboard ports.Clipboard, log *slog.Logger) summaryFinalizer {
	return summaryFinalizer{paster: paster, clipboard: clipboard, log: log}
}

func (f summaryFinalizer) Deliver(ctx context.Context, text string, autoPaste bool) {
	if autoPaste && f.paster != nil {
		result := f.paster.PasteWithPrompt(ctx, text)
		f.log.Debug("summary paste finished",
			slog.Bool("pasted", result.Pasted),
			slog.Bool("permissionDenied", result.PermissionDenied),
			slog.Int("attempts", result.Attempts))
		return
	}
	if f.clipboard == nil {
		return
	}
	if err := f.clipboard.SetText(ctx, text); err != nil {
		f.log.Warn("failed to copy summary", slog.String("err", err.Error()))
	}
}

// llmCache keeps one client per distinct configuration.
type llmCache struct {
	factory func(domain.LLMConfig) (ports.LLM, error)

	mu     sync.Mutex
	cfg    domain.LLMConfig
	client ports.LLM
}

func newLLMCache(factory func(domain.LLMConfig) (ports.LLM, error)) *llmCache {
	return &llmCache{factory: factory}
}

func (l *llmCache) Client(cfg domain.LLMConfig) (ports.LLM, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.client != nil && l.cfg == cfg {
		return l.client, nil
	}
	if l.factory == nil {
		return nil, errNoLLM
	}
	client, err := l.factory(cfg)
	if err != nil {
		return nil, err
	}
	l.cfg = cfg
	l.client = client
	return client, nil
}

// buildPrompt substitutes transcript into the first %s of template. An empty
// template falls back to domain.DefaultLLMPrompt.
func buildPrompt(template, transcript string) string {
	if strings.TrimSpace(template) == "" {
		template = domain.DefaultLLMPrompt
	}
	return strings.Replace(template, "%s", transcript, 1)
}
