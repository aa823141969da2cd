package audio

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"scribe/internal/domain"
)

const sourcesOutput = `Auto-detected sources for pulse:
* alsa_input.pci-0000_00_1f.3.analog-stereo [Built-in Audio Analog Stereo]
  alsa_output.pci-0000_00_1f.3.analog-stereo.monitor [Monitor of Built-in Audio Analog Stereo]
  bluez_input.headset [Headset]
`

func TestParseSources(t *testing.T) {
	t.Parallel()

	got := parseSources(sourcesOutput)
	want := []domain.AudioDevice{
		{ID: "alsa_input.pci-0000_00_1f.3.analog-stereo", Name: "Built-in Audio Analog Stereo", IsDefault: true, IsInput: true},
		{ID: "alsa_output.pci-0000_00_1f.3.analog-stereo.monitor", Name: "Monitor of Built-in Audio Analog Stereo", IsDefault: true, IsInput: false},
		{ID: "bluez_input.headset", Name: "Headset", IsDefault: false, IsInput: true},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d devices, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("device %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestParseSourcesKeepsMarkedMonitor(t *testing.T) {
	t.Parallel()

	got := parseSources("a.monitor [A]\n* b.monitor [B]\nplain\n")
	if len(got) != 3 {
		t.Fatalf("unexpected devices: %+v", got)
	}
	if got[0].IsDefault || !got[1].IsDefault {
		t.Fatalf("marked monitor should be the only default: %+v", got)
	}
	if got[2].ID != "plain" || got[2].Name != "plain" || !got[2].IsInput {
		t.Fatalf("bare id not parsed: %+v", got[2])
	}
}

func TestRecorderDevicesRunsFFmpeg(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "ffmpeg.sh", "#!/usr/bin/env bash\ncat <<'OUT'\n"+sourcesOutput+"OUT\n")
	recorder := NewRecorder(Config{Command: script, TempDir: t.TempDir()})

	devices, err := recorder.Devices(context.Background())
	if err != nil {
		t.Fatalf("devices failed: %v", err)
	}
	if len(devices) != 3 || !devices[0].IsDefault {
		t.Fatalf("unexpected devices: %+v", devices)
	}
}

func TestRecorderDevicesReportsFailure(t *testing.T) {
	t.Parallel()

	recorder := NewRecorder(Config{Command: writeScript(t, "ffmpeg.sh", "#!/usr/bin/env bash\nexit 1\n"), TempDir: t.TempDir()})
	if _, err := recorder.Devices(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestMoveFile(t *testing.T) {
	t.Parallel()

	src := filepath.Join(t.TempDir(), "rec.wav")
	if err := os.WriteFile(src, []byte("data"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	dir := filepath.Join(t.TempDir(), "docs")

	dst, err := moveFile(src, dir)
	if err != nil {
		t.Fatalf("move failed: %v", err)
	}
	if dst != filepath.Join(dir, "rec.wav") {
		t.Fatalf("unexpected destination %q", dst)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatalf("source should be gone: %v", err)
	}
	data, err := os.ReadFile(dst)
	if err != nil || string(data) != "data" {
		t.Fatalf("unexpected content %q %v", data, err)
	}
}

func TestCopyFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "a")
	dst := filepath.Join(dir, "b")
	if err := os.WriteFile(src, []byte("pcm"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := copyFile(src, dst); err != nil {
		t.Fatalf("copy failed: %v", err)
	}
	if data, _ := os.ReadFile(dst); string(data) != "pcm" {
		t.Fatalf("unexpected copy %q", data)
	}
}
