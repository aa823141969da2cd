package desktop

import (
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"sync"
)

// KeepAwake holds an OS sleep inhibitor while at least one session runs.
// The inhibitor is a child process that lives until the last release.
type KeepAwake struct {
	command func(reason string) *exec.Cmd
	log     *slog.Logger

	mu     sync.Mutex
	holds  int
	active *exec.Cmd
}

func NewKeepAwake(log *slog.Logger) *KeepAwake {
	if log == nil {
		log = slog.Default()
	}
	return &KeepAwake{command: inhibitCommand(runtime.GOOS), log: log}
}

func inhibitCommand(goos string) func(reason string) *exec.Cmd {
	switch goos {
	case "darwin":
		return func(string) *exec.Cmd { return exec.Command("caffeinate", "-i") }
	case "linux":
		return func(reason string) *exec.Cmd {
			return exec.Command("systemd-inhibit",
				"--what=idle:sleep",
				"--who=scribe",
				"--why="+reason,
				"--mode=block",
				"sleep", "infinity")
		}
	default:
		return nil
	}
}

// Acquire takes a hold. The returned release is idempotent.
func (k *KeepAwake) Acquire(reason string) (func(), error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.holds == 0 && k.command != nil {
		cmd := k.command(reason)
		if err := cmd.Start(); err != nil {
			return func() {}, fmt.Errorf("failed to start sleep inhibitor: %w", err)
		}
		k.active = cmd
		k.log.Debug("sleep inhibitor started", slog.String("reason", reason))
	}
	k.holds++

	var once sync.Once
	return func() { once.Do(k.release) }, nil
}

func (k *KeepAwake) release() {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.holds == 0 {
		return
	}
	k.holds--
	if k.holds > 0 || k.active == nil {
		return
	}
	cmd := k.active
	k.active = nil
	if err := cmd.Process.Kill(); err != nil {
		k.log.Debug("failed to stop sleep inhibitor", slog.String("err", err.Error()))
	}
	go func() { _ = cmd.Wait() }()
}

// Held reports whether the inhibitor is running.
func (k *KeepAwake) Held() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.active != nil
}
