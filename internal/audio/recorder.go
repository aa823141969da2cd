package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/google/uuid"

	"scribe/internal/domain"
	"scribe/internal/ports"
)

// Notification statuses reported to the observer.
const (
	NotificationStarted = "started"
	NotificationStopped = "stopped"
)

var errNoAudio = errors.New("recording produced no audio")

// Config controls the ffmpeg recorder.
type Config struct {
	// Command is the ffmpeg binary. Defaults to "ffmpeg".
	Command string
	// InputFormat is the ffmpeg capture format. Defaults to "pulse".
	InputFormat string
	SampleRate  int
	Channels    int
	// TempDir holds recordings until they finish. Defaults to os.TempDir().
	TempDir string
	// DocumentsDir receives recordings stored in documents. Defaults to
	// ~/Documents.
	DocumentsDir string
	Logger       *slog.Logger
}

// Recorder captures audio from the selected devices into WAV files.
type Recorder struct {
	capture      ffmpegCapture
	tempDir      string
	documentsDir string
	log          *slog.Logger

	mu     sync.Mutex
	active *recording
}

type recording struct {
	sessionID        string
	session          *captureSession
	file             *os.File
	storeInDocuments bool
}

var _ ports.Recorder = (*Recorder)(nil)

func NewRecorder(cfg Config) *Recorder {
	if cfg.Command == "" {
		cfg.Command = "ffmpeg"
	}
	if cfg.InputFormat == "" {
		cfg.InputFormat = "pulse"
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	if cfg.DocumentsDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.DocumentsDir = filepath.Join(home, "Documents")
		}
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Recorder{
		capture: ffmpegCapture{
			command:     cfg.Command,
			inputFormat: cfg.InputFormat,
			sampleRate:  cfg.SampleRate,
			channels:    cfg.Channels,
		},
		tempDir:      cfg.TempDir,
		documentsDir: cfg.DocumentsDir,
		log:          log.With(slog.String("component", "recorder")),
	}
}

// Start begins recording req.Devices. Lifecycle events for the session are
// reported to observer from a background goroutine.
func (r *Recorder) Start(ctx context.Context, req ports.RecordRequest, observer ports.RecordObserver) error {
	if len(req.Devices) == 0 {
		return errors.New("no audio devices selected")
	}

	r.mu.Lock()
	if r.active != nil {
		r.mu.Unlock()
		return domain.ErrAlreadyRecording
	}

	path := filepath.Join(r.tempDir, "recording-"+uuid.NewString()+".wav")
	file, err := os.Create(path)
	if err != nil {
		r.mu.Unlock()
		return fmt.Errorf("failed to create recording file: %w", err)
	}

	session, err := r.capture.start(ctx, req.Devices)
	if err != nil {
		r.mu.Unlock()
		_ = file.Close()
		_ = os.Remove(path)
		return err
	}

	rec := &recording{
		sessionID:        req.SessionID,
		session:          session,
		file:             file,
		storeInDocuments: req.StoreInDocuments,
	}
	r.active = rec
	r.mu.Unlock()

	r.log.Info("recording started",
		slog.String("session", req.SessionID),
		slog.Int("devices", len(req.Devices)),
		slog.String("path", path))

	observer.RecordStarted(rec.sessionID)
	observer.RecordingNotification(NotificationStarted)
	go r.pump(rec, observer)
	return nil
}

// Stop ends the active recording. The observer receives RecordFinished once
// the file is complete.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	rec := r.active
	r.mu.Unlock()
	if rec == nil {
		return domain.ErrNotRecording
	}
	return rec.session.Stop()
}

func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active != nil
}

// pump encodes the PCM stream until ffmpeg exits, then reports the result.
func (r *Recorder) pump(rec *recording, observer ports.RecordObserver) {
	path := rec.file.Name()
	samples, encodeErr := r.encode(rec)
	stopErr := rec.session.Stop()
	closeErr := rec.file.Close()

	r.mu.Lock()
	if r.active == rec {
		r.active = nil
	}
	r.mu.Unlock()

	observer.RecordStopped(rec.sessionID)
	observer.RecordingNotification(NotificationStopped)

	err := errors.Join(encodeErr, stopErr, closeErr)
	if err == nil && samples == 0 {
		err = errNoAudio
	}
	if err != nil {
		_ = os.Remove(path)
		r.log.Error("recording failed", slog.String("session", rec.sessionID), slog.String("err", err.Error()))
		observer.RecordFailed(rec.sessionID, err)
		return
	}

	if rec.storeInDocuments && r.documentsDir != "" {
		moved, err := moveFile(path, r.documentsDir)
		if err != nil {
			r.log.Warn("failed to store recording in documents", slog.String("err", err.Error()))
		} else {
			path = moved
		}
	}

	r.log.Info("recording finished",
		slog.String("session", rec.sessionID),
		slog.Int("samples", samples),
		slog.String("path", path))
	observer.RecordFinished(rec.sessionID, domain.NamedPath{Name: filepath.Base(path), Path: path})
}

// encode converts little-endian 16-bit PCM into a WAV file.
func (r *Recorder) encode(rec *recording) (int, error) {
	format := &goaudio.Format{NumChannels: r.capture.channels, SampleRate: r.capture.sampleRate}
	enc := wav.NewEncoder(rec.file, format.SampleRate, 16, format.NumChannels, 1)

	buf := make([]byte, 32*1024)
	var carry []byte
	samples := 0
	for {
		n, readErr := rec.session.Read(buf)
		if n > 0 {
			data := append(carry, buf[:n]...)
			whole := len(data) &^ 1
			if whole > 0 {
				ints := make([]int, whole/2)
				for i := range ints {
					ints[i] = int(int16(binary.LittleEndian.Uint16(data[2*i:])))
				}
				if err := enc.Write(&goaudio.IntBuffer{Format: format, Data: ints, SourceBitDepth: 16}); err != nil {
					rec.session.abort(err)
					return samples, fmt.Errorf("failed to encode audio: %w", err)
				}
				samples += len(ints)
			}
			carry = append(carry[:0], data[whole:]...)
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return samples, fmt.Errorf("failed to read audio: %w", readErr)
		}
	}

	if samples == 0 {
		return 0, nil
	}
	if err := enc.Close(); err != nil {
		return samples, fmt.Errorf("failed to finalize wav: %w", err)
	}
	return samples, nil
}
