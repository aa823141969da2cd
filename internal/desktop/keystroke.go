package desktop

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/micmonay/keybd_event"

	"scribe/internal/domain"
)

// linuxWarmup is how long a fresh uinput device needs before the
// compositor accepts its key events.
const linuxWarmup = 2 * time.Second

// Keystroke simulates the platform paste shortcut. The virtual keyboard is
// opened on first use (or by Warm) and keys are held back until it is ready.
type Keystroke struct {
	goos   string
	warmup time.Duration
	open   func() error
	press  func(super bool) error
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error

	mu      sync.Mutex
	opened  bool
	readyAt time.Time
}

func NewKeystroke() *Keystroke {
	k := &Keystroke{goos: runtime.GOOS, now: time.Now, sleep: sleepContext}
	if k.goos == "linux" {
		k.warmup = linuxWarmup
	}

	var bonding keybd_event.KeyBonding
	k.open = func() error {
		kb, err := keybd_event.NewKeyBonding()
		if err != nil {
			return err
		}
		bonding = kb
		return nil
	}
	k.press = func(super bool) error {
		bonding.Clear()
		bonding.SetKeys(keybd_event.VK_V)
		bonding.HasSuper(super)
		bonding.HasCTRL(!super)
		return bonding.Launching()
	}
	return k
}

// Warm opens the virtual keyboard ahead of the first paste so its warm-up
// overlaps with other work.
func (k *Keystroke) Warm() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if err := k.openLocked(); err != nil {
		return classifyPasteError(err)
	}
	return nil
}

func (k *Keystroke) openLocked() error {
	if k.opened {
		return nil
	}
	if err := k.open(); err != nil {
		return err
	}
	k.opened = true
	k.readyAt = k.now().Add(k.warmup)
	return nil
}

// SimulatePaste presses Cmd+V on macOS and Ctrl+V elsewhere. Errors caused
// by missing input permissions wrap domain.ErrPastePermission.
func (k *Keystroke) SimulatePaste(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	if err := k.openLocked(); err != nil {
		return classifyPasteError(err)
	}
	if wait := k.readyAt.Sub(k.now()); wait > 0 {
		if err := k.sleep(ctx, wait); err != nil {
			return err
		}
	}
	if err := k.press(k.goos == "darwin"); err != nil {
		return classifyPasteError(err)
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func classifyPasteError(err error) error {
	if errors.Is(err, fs.ErrPermission) || isPermissionMessage(err.Error()) {
		return fmt.Errorf("%w: %v", domain.ErrPastePermission, err)
	}
	return fmt.Errorf("failed to simulate paste: %w", err)
}

func isPermissionMessage(msg string) bool {
	msg = strings.ToLower(msg)
	for _, hint := range []string{"permission denied", "not permitted", "accessibility", "/dev/uinput"} {
		if strings.Contains(msg, hint) {
			return true
		}
	}
	return false
}
