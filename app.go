package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/wailsapp/wails/v2/pkg/menu"
	"github.com/wailsapp/wails/v2/pkg/menu/keys"
	"github.com/wailsapp/wails/v2/pkg/runtime"

	"scribe/internal/bootstrap"
	"scribe/internal/desktop"
	"scribe/internal/domain"
	"scribe/internal/ports"
	"scribe/internal/templates"
	"scribe/internal/usecase"
)

const (
	eventState        = "scribe:state"
	eventError        = "scribe:error"
	eventNotice       = "scribe:notice"
	eventAborting     = "scribe:aborting"
	eventStopping     = "scribe:stopping"
	eventProgress     = "transcribe_progress"
	eventSegment      = "new_segment"
	eventRecordNotice = "show_recording_notification"

	// Sent by the frontend.
	eventStopRecord = "stop_record"
	eventAbort      = "abort_transcribe"
)

var audioFilters = []runtime.FileFilter{
	{DisplayName: "Audio", Pattern: "*.wav;*.mp3;*.m4a;*.ogg;*.flac;*.webm;*.mp4"},
}

// TemplateInfo is a summary template offered in the settings.
type TemplateInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// App is the Wails application root.
type App struct {
	ctx context.Context

	services   bootstrap.Services
	controller *usecase.Controller
	shortcut   *usecase.ShortcutBinder
	desktop    ports.Notifier
	log        *slog.Logger
	bootErr    error
}

func NewApp() *App {
	return &App{log: slog.Default()}
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	services, err := bootstrap.Build(bootstrap.Options{
		Events:    a,
		Window:    a,
		Notifier:  a,
		Clipboard: &wailsClipboard{app: a},
	})
	if err != nil {
		a.bootErr = err
		a.SessionError(domain.ErrorCodeStartup, err.Error())
		return
	}

	a.services = services
	a.controller = services.Controller
	a.log = services.Logger
	a.desktop = desktop.NewNotifier("Scribe", services.Logger)
	a.shortcut = usecase.NewShortcutBinder(a.registerShortcut)

	runtime.EventsOn(ctx, eventStopRecord, func(...interface{}) {
		if err := a.controller.StopRecord(); err != nil && !errors.Is(err, domain.ErrNotRecording) {
			a.log.Warn("failed to stop recording", slog.String("err", err.Error()))
		}
	})
	runtime.EventsOn(ctx, eventAbort, func(...interface{}) {
		a.controller.Abort()
	})
	runtime.OnFileDrop(ctx, func(_, _ int, paths []string) {
		a.controller.OpenFiles(paths)
	})

	prefs := services.Preferences.Preferences()
	a.applyShortcut(prefs)
	if prefs.AutoPasteOnFinish {
		go a.warmPaste()
	}
	go services.Startup.Run(ctx)
}

func (a *App) warmPaste() {
	if err := a.services.Keystroke.Warm(); err != nil {
		a.log.Warn("paste keystrokes unavailable", slog.String("err", err.Error()))
	}
}

func (a *App) shutdown(context.Context) {
	if a.controller != nil {
		a.controller.Abort()
	}
	if err := a.services.Close(); err != nil {
		a.log.Warn("shutdown cleanup failed", slog.String("err", err.Error()))
	}
}

// GetState returns the current view state.
func (a *App) GetState() domain.ViewState {
	if a.controller == nil {
		if a.bootErr != nil {
			return domain.ViewState{State: domain.SessionStateError}
		}
		return domain.ViewState{State: domain.SessionStateIdle}
	}
	return a.controller.State()
}

// ListDevices lists capture devices and selects the defaults.
func (a *App) ListDevices() ([]domain.AudioDevice, error) {
	if err := a.requireReady(); err != nil {
		return nil, err
	}
	return a.controller.LoadDevices(a.ctx)
}

// SetDevices selects the devices for the next recording.
func (a *App) SetDevices(input, output *domain.AudioDevice) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	a.controller.SetDevices(input, output)
	return nil
}

func (a *App) StartRecord() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.controller.StartRecord(a.ctx)
}

func (a *App) StopRecord() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.controller.StopRecord()
}

func (a *App) ToggleRecord() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.controller.ToggleRecord(a.ctx)
}

// Transcribe processes path and blocks until the session ends.
func (a *App) Transcribe(path string) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.controller.Transcribe(a.ctx, path)
}

func (a *App) Abort() {
	if a.controller != nil {
		a.controller.Abort()
	}
}

// OpenFiles asks the user for audio files and selects them.
func (a *App) OpenFiles() ([]domain.NamedPath, error) {
	if err := a.requireReady(); err != nil {
		return nil, err
	}
	paths, err := runtime.OpenMultipleFilesDialog(a.ctx, runtime.OpenDialogOptions{
		Title:   "Select audio files",
		Filters: audioFilters,
	})
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, nil
	}
	return a.controller.OpenFiles(paths), nil
}

func (a *App) GetPreferences() (domain.Preferences, error) {
	if err := a.requireReady(); err != nil {
		return domain.Preferences{}, err
	}
	return a.services.Preferences.Preferences(), nil
}

// SavePreferences persists prefs and re-binds the shortcut if it changed.
func (a *App) SavePreferences(prefs domain.Preferences) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	if err := a.services.Preferences.Replace(prefs); err != nil {
		return err
	}
	a.applyShortcut(prefs)
	return nil
}

func (a *App) ListTemplates() []TemplateInfo {
	if a.bootErr != nil || a.services.Templates == nil {
		return nil
	}
	return templateInfos(a.services.Templates.List())
}

func (a *App) RecentSessions(limit int) ([]domain.SessionRecord, error) {
	if err := a.requireReady(); err != nil {
		return nil, err
	}
	return a.controller.RecentSessions(a.ctx, limit)
}

// GetRuntimeInfo returns non-sensitive config for the UI.
func (a *App) GetRuntimeInfo() map[string]string {
	if a.bootErr != nil {
		return map[string]string{"error": a.bootErr.Error()}
	}

	cfg := a.services.Config
	return map[string]string{
		"apiBase":          cfg.Remote.APIBaseURL,
		"hasApiKey":        fmt.Sprint(cfg.Remote.APIKey != ""),
		"engineUrl":        cfg.Engine.URL,
		"modelsDir":        cfg.Engine.ModelsDir,
		"audioInputFormat": cfg.Audio.InputFormat,
		"preferencesFile":  cfg.Files.Preferences,
	}
}

func (a *App) requireReady() error {
	if a.bootErr != nil {
		return a.bootErr
	}
	if a.controller == nil {
		return fmt.Errorf("application is not initialized")
	}
	return nil
}

func (a *App) applyShortcut(prefs domain.Preferences) {
	if a.shortcut == nil {
		return
	}
	if _, err := a.shortcut.Apply(prefs); err != nil {
		a.log.Warn("failed to register recording shortcut", slog.String("err", err.Error()))
		a.SessionError(domain.ErrorCodeStartup, err.Error())
	}
}

// registerShortcut installs the recording toggle as an application menu
// accelerator.
func (a *App) registerShortcut(modifiers, key string) error {
	accelerator, err := keys.Parse(shortcutString(modifiers, key))
	if err != nil {
		return fmt.Errorf("invalid shortcut %q: %w", shortcutString(modifiers, key), err)
	}

	appMenu := menu.NewMenu()
	recording := appMenu.AddSubmenu("Recording")
	recording.AddText("Toggle recording", accelerator, func(*menu.CallbackData) {
		if err := a.controller.ToggleRecord(a.ctx); err != nil {
			a.SessionError(domain.ErrorCodeRecording, err.Error())
		}
	})
	recording.AddText("Abort transcription", nil, func(*menu.CallbackData) {
		a.controller.Abort()
	})

	runtime.MenuSetApplicationMenu(a.ctx, appMenu)
	runtime.MenuUpdateApplicationMenu(a.ctx)
	return nil
}

func shortcutString(modifiers, key string) string {
	modifiers = strings.Trim(strings.TrimSpace(modifiers), "+")
	if modifiers == "" {
		return key
	}
	return modifiers + "+" + key
}

// StateChanged emits the full view state to the frontend.
func (a *App) StateChanged(view domain.ViewState, reason domain.SessionStateReason) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventState, map[string]any{
		"state":   view,
		"reason":  string(reason),
		"message": sessionReasonMessage(reason),
	})
}

func (a *App) NewSegment(segment domain.Segment) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventSegment, segment)
}

func (a *App) Progress(percent int) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventProgress, percent)
}

// SessionError emits backend errors to the UI.
func (a *App) SessionError(code domain.ErrorCode, detail string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventError, map[string]string{
		"code":    string(code),
		"message": errorMessage(code, detail),
		"detail":  detail,
	})
}

func (a *App) AbortRequested() {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventAborting)
}

func (a *App) StopRecordRequested() {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventStopping)
}

// RecordingNotification forwards recorder notices to the UI and the desktop.
func (a *App) RecordingNotification(status string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventRecordNotice, map[string]string{"status": status})
	if a.desktop != nil {
		a.desktop.Notify(domain.NoticeInfo, recordingNoticeMessage(status))
	}
}

// Notify shows a toast in the UI. Warnings and errors also raise a desktop
// notification, since the window may be in the background while pasting.
func (a *App) Notify(level domain.NoticeLevel, message string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventNotice, map[string]string{
		"level":   string(level),
		"message": message,
	})
	if a.desktop != nil && (level == domain.NoticeWarning || level == domain.NoticeError) {
		a.desktop.Notify(level, message)
	}
}

// Focus brings the window forward.
func (a *App) Focus() {
	if a.ctx == nil {
		return
	}
	runtime.WindowUnminimise(a.ctx)
	runtime.WindowShow(a.ctx)
}

func templateInfos(list []templates.Template) []TemplateInfo {
	out := make([]TemplateInfo, 0, len(list))
	for _, t := range list {
		out = append(out, TemplateInfo{ID: t.ID, Name: t.Name})
	}
	return out
}

func sessionReasonMessage(reason domain.SessionStateReason) string {
	switch reason {
	case domain.SessionReasonReady:
		return "Ready"
	case domain.SessionReasonRecordingStarted:
		return "Recording started"
	case domain.SessionReasonRecordingStopped:
		return "Recording stopped"
	case domain.SessionReasonTranscribing:
		return "Transcribing..."
	case domain.SessionReasonSummarizing:
		return "Summarizing..."
	case domain.SessionReasonTranscriptReady:
		return "Transcript ready"
	case domain.SessionReasonSummaryReady:
		return "Summary ready"
	case domain.SessionReasonAborted:
		return "Transcription aborted"
	case domain.SessionReasonTranscriptionFailed:
		return "Transcription failed"
	case domain.SessionReasonRecordingFailed:
		return "Recording failed"
	default:
		return ""
	}
}

func errorMessage(code domain.ErrorCode, detail string) string {
	switch code {
	case domain.ErrorCodeStartup:
		return "Startup failed"
	case domain.ErrorCodeRecording:
		return "Recording error"
	case domain.ErrorCodeTranscription:
		return "Transcription error"
	case domain.ErrorCodeRemoteAPI:
		return "Transcription service error"
	case domain.ErrorCodeSummary:
		return "Summary failed"
	case domain.ErrorCodePaste:
		return "Paste failed"
	case domain.ErrorCodeHistory:
		return "History unavailable"
	default:
		if detail == "" {
			return "Unknown error"
		}
		return detail
	}
}

func recordingNoticeMessage(status string) string {
	switch status {
	case usecase.RecordingStarted:
		return "Recording started"
	case usecase.RecordingStopped:
		return "Recording stopped"
	default:
		return "Recording " + status
	}
}

// wailsClipboard writes through the Wails runtime. Callers may pass
// contexts that do not carry the runtime, so the app context is used.
type wailsClipboard struct {
	app *App
}

func (c *wailsClipboard) SetText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.app.ctx == nil {
		return errors.New("application is not initialized")
	}
	return runtime.ClipboardSetText(c.app.ctx, text)
}
