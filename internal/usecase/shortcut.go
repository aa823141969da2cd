package usecase

import (
	"strings"
	"sync"

	"scribe/internal/domain"
)

// ShortcutBinder registers the global recording shortcut. Registration is
// repeated only when the modifier or key preference changes.
type ShortcutBinder struct {
	register func(modifiers, key string) error

	mu        sync.Mutex
	bound     bool
	modifiers string
	key       string
}

func NewShortcutBinder(register func(modifiers, key string) error) *ShortcutBinder {
	return &ShortcutBinder{register: register}
}

// Apply binds the shortcut from prefs. It reports whether a registration
// happened.
func (b *ShortcutBinder) Apply(prefs domain.Preferences) (bool, error) {
	modifiers := strings.TrimSpace(prefs.GlobalShortcutModifiers)
	key := strings.TrimSpace(prefs.GlobalShortcutKey)
	if key == "" {
		return false, nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bound && b.modifiers == modifiers && b.key == key {
		return false, nil
	}
	if err := b.register(modifiers, key); err != nil {
		return false, err
	}
	b.bound = true
	b.modifiers = modifiers
	b.key = key
	return true, nil
}
