package telemetry

import (
	"io"
	"log/slog"
	"path/filepath"
	"strings"
)

// NewLogger builds a text logger with short source locations.
func NewLogger(level string, w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		AddSource:   true,
		Level:       ParseLevel(level),
		ReplaceAttr: replaceAttr,
	}))
}

// ParseLevel maps debug, info, warn and error to slog levels. Anything else
// is info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func replaceAttr(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.SourceKey {
		return a
	}
	source, ok := a.Value.Any().(*slog.Source)
	if !ok || source.File == "" {
		return a
	}
	source.File = filepath.Base(filepath.Dir(source.File)) + "/" + filepath.Base(source.File)
	return a
}
