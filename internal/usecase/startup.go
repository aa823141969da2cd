package usecase

import (
	"context"
	"log/slog"

	"scribe/internal/domain"
	"scribe/internal/ports"
)

const crashedRecentlyMessage = "The app crashed during the last run. GPU acceleration was turned off; you can enable it again in the settings."

// Startup runs the first-launch checks: crash recovery, model discovery and
// device selection. Failures are reported and do not stop the app.
type Startup struct {
	Controller *Controller
	Store      ports.PreferenceStore
	Crash      ports.CrashMarker
	Models     ports.ModelCatalog
	Notifier   ports.Notifier
	Events     ports.EventSink
	Logger     *slog.Logger
}

func (s Startup) Run(ctx context.Context) {
	log := s.Logger
	if log == nil {
		log = slog.Default()
	}

	if s.Crash != nil && s.Crash.Crashed() {
		if err := s.Store.Update(func(p *domain.Preferences) { p.UseGPU = false }); err != nil {
			log.Error("failed to disable gpu after crash", slog.String("err", err.Error()))
		}
		if s.Notifier != nil {
			s.Notifier.Notify(domain.NoticeWarning, crashedRecentlyMessage)
		}
		if err := s.Crash.Acknowledge(); err != nil {
			log.Warn("failed to acknowledge crash marker", slog.String("err", err.Error()))
		}
	}

	if s.Models != nil {
		if err := s.ensureModel(); err != nil {
			log.Warn("model discovery failed", slog.String("err", err.Error()))
		}
	}

	if s.Controller != nil {
		if _, err := s.Controller.LoadDevices(ctx); err != nil {
			log.Warn("failed to load audio devices", slog.String("err", err.Error()))
			if s.Events != nil {
				s.Events.SessionError(domain.ErrorCodeStartup, "failed to load audio devices")
			}
		}
	}
}

// ensureModel selects the first installed model when the configured one is
// unset or gone.
func (s Startup) ensureModel() error {
	current := s.Store.Preferences().ModelPath
	if current != "" && s.Models.Exists(current) {
		return nil
	}
	models, err := s.Models.Models()
	if err != nil {
		return err
	}
	if len(models) == 0 {
		return nil
	}
	return s.Store.Update(func(p *domain.Preferences) { p.ModelPath = models[0] })
}
