package desktop

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// CrashMarker detects unclean shutdowns. Arm writes the marker for the
// current run and Disarm removes it on a clean exit, so a marker found at
// startup means the previous run crashed.
type CrashMarker struct {
	path string

	mu      sync.Mutex
	crashed bool
}

// NewCrashMarker checks for a marker left by the previous run and moves it
// aside to <path>.last.
func NewCrashMarker(path string) (*CrashMarker, error) {
	m := &CrashMarker{path: path}
	if _, err := os.Stat(path); err != nil {
		return m, nil
	}
	m.crashed = true
	if err := os.Rename(path, path+".last"); err != nil {
		return m, fmt.Errorf("failed to rename crash marker: %w", err)
	}
	return m, nil
}

func (m *CrashMarker) Crashed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.crashed
}

func (m *CrashMarker) Acknowledge() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.crashed = false
	return nil
}

func (m *CrashMarker) Arm() error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return err
	}
	stamp := strconv.FormatInt(time.Now().Unix(), 10)
	return os.WriteFile(m.path, []byte(stamp), 0o600)
}

func (m *CrashMarker) Disarm() error {
	if err := os.Remove(m.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
