package desktop

import (
	"log/slog"

	"github.com/gen2brain/beeep"

	"scribe/internal/domain"
)

// Notifier raises desktop notifications.
type Notifier struct {
	title  string
	notify func(title, message, icon string) error
	log    *slog.Logger
}

func NewNotifier(title string, log *slog.Logger) *Notifier {
	if log == nil {
		log = slog.Default()
	}
	return &Notifier{
		title: title,
		notify: func(title, message, icon string) error {
			return beeep.Notify(title, message, icon)
		},
		log: log,
	}
}

func (n *Notifier) Notify(level domain.NoticeLevel, message string) {
	if err := n.notify(n.title, message, ""); err != nil {
		n.log.Debug("failed to show notification",
			slog.String("level", string(level)),
			slog.String("err", err.Error()))
	}
}

// Sound plays the completion beep.
type Sound struct {
	beep func(freq float64, duration int) error
}

func NewSound() *Sound {
	return &Sound{beep: beeep.Beep}
}

func (s *Sound) PlayFinished() error {
	return s.beep(beeep.DefaultFreq, beeep.DefaultDuration)
}
