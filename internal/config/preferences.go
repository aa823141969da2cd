package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"scribe/internal/domain"
	"scribe/internal/ports"
)

// PreferenceFile keeps user preferences in a YAML file. Keys missing from
// the file keep their defaults.
type PreferenceFile struct {
	path string

	mu    sync.RWMutex
	prefs domain.Preferences
}

var _ ports.PreferenceStore = (*PreferenceFile)(nil)

// LoadPreferences reads path. A missing file yields the defaults.
func LoadPreferences(path string) (*PreferenceFile, error) {
	f := &PreferenceFile{path: path, prefs: domain.DefaultPreferences()}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return f, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read preferences: %w", err)
	}
	if err := yaml.Unmarshal(data, &f.prefs); err != nil {
		return nil, fmt.Errorf("parse preferences %s: %w", path, err)
	}
	return f, nil
}

func (f *PreferenceFile) Preferences() domain.Preferences {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.prefs
}

// Update applies mutate to a copy and persists it. The stored preferences
// only change when the write succeeds.
func (f *PreferenceFile) Update(mutate func(*domain.Preferences)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	next := f.prefs
	mutate(&next)
	if err := f.save(next); err != nil {
		return err
	}
	f.prefs = next
	return nil
}

// Replace persists prefs as a whole.
func (f *PreferenceFile) Replace(prefs domain.Preferences) error {
	return f.Update(func(p *domain.Preferences) { *p = prefs })
}

func (f *PreferenceFile) save(prefs domain.Preferences) error {
	data, err := yaml.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create preferences dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".preferences-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp preferences: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write preferences: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace preferences: %w", err)
	}
	return nil
}
