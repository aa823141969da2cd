package desktop

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const modelExt = ".bin"

// ModelDir lists local transcription models stored as *.bin files.
type ModelDir struct {
	dir string
}

func NewModelDir(dir string) *ModelDir {
	return &ModelDir{dir: dir}
}

func (m *ModelDir) Models() ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, err
	}
	var models []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), modelExt) {
			continue
		}
		models = append(models, filepath.Join(m.dir, e.Name()))
	}
	sort.Strings(models)
	return models, nil
}

func (m *ModelDir) Exists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
