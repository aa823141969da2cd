package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"scribe/internal/domain"
	"scribe/internal/ports"
)

// Recording notification statuses.
const (
	RecordingStarted = "started"
	RecordingStopped = "stopped"
)

// StartRecord starts recording from the selected devices. Recording state is
// set optimistically; the recorder's events correct it.
func (c *Controller) StartRecord(ctx context.Context) error {
	prefs := c.prefs.Preferences()

	c.mu.Lock()
	if c.recording != nil {
		c.mu.Unlock()
		return domain.ErrAlreadyRecording
	}
	if c.run != nil {
		c.mu.Unlock()
		return domain.ErrBusy
	}

	devices := selectedDevices(c.view)
	session := &recordingSession{id: c.newID()}
	c.recording = session
	c.lastDevices = devices
	c.view.Segments = nil
	c.view.SummarySegments = nil
	c.view.Recording = true
	c.view.State = domain.SessionStateRecording
	c.emitLocked(domain.SessionReasonRecordingStarted)
	c.mu.Unlock()

	release, err := c.keepAwake.Acquire("recording")
	if err != nil {
		c.log.Warn("failed to keep the system awake", slog.String("err", err.Error()))
	} else {
		c.mu.Lock()
		session.release = release
		c.mu.Unlock()
	}

	err = c.recorder.Start(ctx, ports.RecordRequest{
		SessionID:        session.id,
		Devices:          devices,
		StoreInDocuments: prefs.StoreRecordInDocuments,
	}, c)
	if err != nil {
		c.endRecording(session.id, domain.SessionStateError, domain.SessionReasonRecordingFailed)
		c.fail(domain.ErrorCodeRecording, err, map[string]string{"stage": "record"})
		return err
	}
	return nil
}

// StopRecord asks the recorder to stop. The recording ends when the
// recorder reports the finished file.
func (c *Controller) StopRecord() error {
	c.mu.Lock()
	active := c.recording != nil
	c.mu.Unlock()
	if !active {
		return domain.ErrNotRecording
	}

	c.events.StopRecordRequested()
	return c.recorder.Stop()
}

// ToggleRecord starts or stops recording. Presses that arrive while a
// toggle is still being handled are dropped. Without a device selection the
// last used devices, or else the system defaults, are recorded.
func (c *Controller) ToggleRecord(ctx context.Context) error {
	if !c.toggling.CompareAndSwap(false, true) {
		return nil
	}
	defer c.toggling.Store(false)

	c.mu.Lock()
	active := c.recording != nil
	hasSelection := len(selectedDevices(c.view)) > 0
	last := append([]domain.AudioDevice(nil), c.lastDevices...)
	c.mu.Unlock()

	if active {
		return c.StopRecord()
	}

	if !hasSelection {
		if len(last) == 0 {
			input, output, err := c.defaultDevices(ctx)
			if err != nil {
				return err
			}
			c.SetDevices(input, output)
		} else {
			c.selectDevices(last)
		}
	}
	return c.StartRecord(ctx)
}

// LoadDevices lists capture devices and selects the defaults.
func (c *Controller) LoadDevices(ctx context.Context) ([]domain.AudioDevice, error) {
	devices, err := c.recorder.Devices(ctx)
	if err != nil {
		return nil, err
	}
	input, output := pickDefaults(devices)

	c.mu.Lock()
	if input != nil {
		c.view.InputDevice = input
	}
	if output != nil {
		c.view.OutputDevice = output
	}
	c.emitLocked(domain.SessionReasonReady)
	c.mu.Unlock()
	return devices, nil
}

// SetDevices selects the input and output devices for the next recording.
// Either may be nil.
func (c *Controller) SetDevices(input, output *domain.AudioDevice) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view.InputDevice = copyDevice(input)
	c.view.OutputDevice = copyDevice(output)
	c.emitLocked(domain.SessionReasonReady)
}

func (c *Controller) selectDevices(devices []domain.AudioDevice) {
	var input, output *domain.AudioDevice
	for i := range devices {
		if devices[i].IsInput && input == nil {
			input = &devices[i]
		} else if !devices[i].IsInput && output == nil {
			output = &devices[i]
		}
	}
	c.SetDevices(input, output)
}

func (c *Controller) defaultDevices(ctx context.Context) (*domain.AudioDevice, *domain.AudioDevice, error) {
	devices, err := c.recorder.Devices(ctx)
	if err != nil {
		return nil, nil, err
	}
	input, output := pickDefaults(devices)
	if input == nil && output == nil {
		return nil, nil, domain.ErrNoDefaultDevices
	}
	return input, output, nil
}

// RecordStarted confirms that the recorder is capturing.
func (c *Controller) RecordStarted(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.isRecordingLocked(sessionID) {
		return
	}
	c.view.Recording = true
	c.view.State = domain.SessionStateRecording
	c.emitLocked(domain.SessionReasonRecordingStarted)
}

// RecordStopped reports that capture stopped. The file may still be
// flushing, so the session stays open until RecordFinished.
func (c *Controller) RecordStopped(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.isRecordingLocked(sessionID) {
		return
	}
	c.view.Recording = false
	c.emitLocked(domain.SessionReasonRecordingStopped)
}

// RecordFinished ends the recording and transcribes the file in the
// background.
func (c *Controller) RecordFinished(sessionID string, file domain.NamedPath) {
	if !c.endRecording(sessionID, domain.SessionStateIdle, domain.SessionReasonRecordingStopped) {
		return
	}

	c.mu.Lock()
	c.view.Files = []domain.NamedPath{file}
	c.view.CurrentRecording = file.Path
	c.mu.Unlock()

	c.background.Add(1)
	go func() {
		defer c.background.Done()
		err := c.Transcribe(context.Background(), file.Path)
		switch {
		case errors.Is(err, domain.ErrBusy):
			// Transcribe reports its own failures; a rejected start is not.
			c.fail(domain.ErrorCodeTranscription,
				fmt.Errorf("recording %s was not transcribed: %w", file.Name, err),
				map[string]string{"stage": "record"})
		case err != nil:
			c.log.Debug("transcription of recording ended with error",
				slog.String("path", file.Path),
				slog.String("err", err.Error()))
		}
	}()
}

// RecordFailed ends the recording with an error.
func (c *Controller) RecordFailed(sessionID string, err error) {
	if !c.endRecording(sessionID, domain.SessionStateError, domain.SessionReasonRecordingFailed) {
		return
	}
	c.fail(domain.ErrorCodeRecording, err, map[string]string{"stage": "record"})
}

// RecordingNotification forwards the recorder's started/stopped notice.
func (c *Controller) RecordingNotification(status string) {
	c.events.RecordingNotification(status)
	switch status {
	case RecordingStarted:
		c.notifier.Notify(domain.NoticeInfo, "Recording started")
	case RecordingStopped:
		c.notifier.Notify(domain.NoticeInfo, "Recording stopped")
	}
}

// endRecording closes the recording session if sessionID is current.
func (c *Controller) endRecording(sessionID string, state domain.SessionState, reason domain.SessionStateReason) bool {
	c.mu.Lock()
	if !c.isRecordingLocked(sessionID) {
		c.mu.Unlock()
		c.log.Debug("dropping event for stale recording", slog.String("session", sessionID))
		return false
	}
	session := c.recording
	c.recording = nil
	c.view.Recording = false
	c.view.State = state
	c.emitLocked(reason)
	session.releaseOnce()
	c.mu.Unlock()
	return true
}

func (c *Controller) isRecordingLocked(sessionID string) bool {
	return c.recording != nil && c.recording.id == sessionID
}

func selectedDevices(view domain.ViewState) []domain.AudioDevice {
	var devices []domain.AudioDevice
	if view.InputDevice != nil {
		devices = append(devices, *view.InputDevice)
	}
	if view.OutputDevice != nil {
		devices = append(devices, *view.OutputDevice)
	}
	return devices
}

func pickDefaults(devices []domain.AudioDevice) (input, output *domain.AudioDevice) {
	for i := range devices {
		d := devices[i]
		if !d.IsDefault {
			continue
		}
		if d.IsInput && input == nil {
			input = &d
		} else if !d.IsInput && output == nil {
			output = &d
		}
	}
	return input, output
}

func copyDevice(d *domain.AudioDevice) *domain.AudioDevice {
	if d == nil {
		return nil
	}
	out := *d
	return &out
}
