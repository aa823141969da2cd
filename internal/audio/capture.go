package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"scribe/internal/domain"
)

const (
	startupGrace = 250 * time.Millisecond
	stopGrace    = 1200 * time.Millisecond
)

// ffmpegCapture streams PCM audio from one or more sources using ffmpeg.
// Several sources are mixed down into a single stream.
type ffmpegCapture struct {
	command     string
	inputFormat string
	sampleRate  int
	channels    int
}

func (c *ffmpegCapture) args(devices []domain.AudioDevice) []string {
	args := []string{"-nostdin", "-hide_banner", "-loglevel", "warning"}
	for _, d := range devices {
		args = append(args, "-f", c.inputFormat, "-i", d.ID)
	}
	if len(devices) > 1 {
		args = append(args, "-filter_complex",
			"amix=inputs="+strconv.Itoa(len(devices))+":duration=longest")
	}
	return append(args,
		"-ac", strconv.Itoa(c.channels),
		"-ar", strconv.Itoa(c.sampleRate),
		"-f", "s16le",
		"-",
	)
}

func (c *ffmpegCapture) start(ctx context.Context, devices []domain.AudioDevice) (*captureSession, error) {
	cmd := exec.CommandContext(ctx, c.command, c.args(devices)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	// Wait only returns once everything ffmpeg wrote has been consumed
	// through the pipe, so no trailing audio is lost on stop.
	pr, pw := io.Pipe()
	cmd.Stdout = pw

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	waitErr := make(chan error, 1)
	go func() {
		err := cmd.Wait()
		_ = pw.Close()
		waitErr <- err
		close(waitErr)
	}()

	select {
	case err := <-waitErr:
		if err != nil {
			return nil, fmt.Errorf("ffmpeg exited before capture started: %w: %s", err, trimOutput(stderr.String()))
		}
		return nil, errors.New("ffmpeg exited before capture started")
	case <-time.After(startupGrace):
	}

	return &captureSession{
		stdout:  pr,
		stderr:  &stderr,
		process: cmd.Process,
		waitErr: waitErr,
	}, nil
}

type captureSession struct {
	stdout *io.PipeReader
	stderr *bytes.Buffer

	process *os.Process
	waitErr <-chan error

	stopOnce sync.Once
	stopErr  error
}

func (s *captureSession) Read(p []byte) (int, error) {
	return s.stdout.Read(p)
}

// abort unblocks ffmpeg when the reader gives up early.
func (s *captureSession) abort(err error) {
	_ = s.stdout.CloseWithError(err)
}

// Stop interrupts ffmpeg so it flushes, and kills it if it does not exit in
// time. It is safe to call more than once.
func (s *captureSession) Stop() error {
	s.stopOnce.Do(func() {
		if s.process != nil {
			_ = s.process.Signal(os.Interrupt)
		}

		select {
		case err, ok := <-s.waitErr:
			if ok {
				s.stopErr = normalizeStopErr(err)
			}
		case <-time.After(stopGrace):
			if s.process != nil {
				_ = s.process.Kill()
			}
			err, ok := <-s.waitErr
			if ok {
				s.stopErr = normalizeStopErr(err)
			}
		}

		if s.stopErr != nil && s.stderr != nil && s.stderr.Len() > 0 {
			s.stopErr = fmt.Errorf("%w: %s", s.stopErr, trimOutput(s.stderr.String()))
		}
	})

	return s.stopErr
}

// normalizeStopErr drops exit statuses; ffmpeg exits non-zero when
// interrupted.
func normalizeStopErr(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}

func trimOutput(input string) string {
	if input == "" {
		return input
	}
	return string(bytes.TrimSpace([]byte(input)))
}
