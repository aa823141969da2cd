package audio

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"scribe/internal/domain"
)

const monitorSuffix = ".monitor"

// Devices lists capture sources reported by `ffmpeg -sources`. Monitor
// sources capture system output and are reported as non-input devices.
func (r *Recorder) Devices(ctx context.Context) ([]domain.AudioDevice, error) {
	cmd := exec.CommandContext(ctx, r.capture.command, "-hide_banner", "-sources", r.capture.inputFormat)
	out, err := cmd.Output()
	devices := parseSources(string(out))
	if err != nil && len(devices) == 0 {
		return nil, fmt.Errorf("failed to list audio sources: %w", err)
	}
	return devices, nil
}

// parseSources reads "id [description]" lines. A leading asterisk marks the
// default source. When no monitor is marked as default the first one is
// used.
func parseSources(output string) []domain.AudioDevice {
	var devices []domain.AudioDevice
	defaultMonitor := false

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasSuffix(line, ":") {
			continue
		}

		isDefault := false
		if rest, ok := strings.CutPrefix(line, "*"); ok {
			isDefault = true
			line = strings.TrimSpace(rest)
		}

		id, name := line, ""
		if open := strings.Index(line, "["); open > 0 && strings.HasSuffix(line, "]") {
			id = strings.TrimSpace(line[:open])
			name = strings.TrimSpace(line[open+1 : len(line)-1])
		}
		if id == "" || strings.ContainsAny(id, " \t") {
			continue
		}
		if name == "" {
			name = id
		}

		input := !strings.HasSuffix(id, monitorSuffix)
		if !input && isDefault {
			defaultMonitor = true
		}
		devices = append(devices, domain.AudioDevice{ID: id, Name: name, IsDefault: isDefault, IsInput: input})
	}

	if !defaultMonitor {
		for i := range devices {
			if !devices[i].IsInput {
				devices[i].IsDefault = true
				break
			}
		}
	}
	return devices
}
