// Package localengine talks to the on-device speech engine over a websocket.
// The engine streams progress and segments while it works and finishes with
// a result or an error message.
package localengine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"scribe/internal/domain"
	"scribe/internal/ports"
)

const (
	DefaultURL   = "ws://127.0.0.1:8765/transcribe"
	writeTimeout = 5 * time.Second
)

// Config controls the engine endpoint.
type Config struct {
	URL    string
	Dialer *websocket.Dialer
	Logger *slog.Logger
}

// Client implements ports.LocalTranscriber.
type Client struct {
	cfg Config
	log *slog.Logger
}

func NewClient(cfg Config) *Client {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Dialer == nil {
		cfg.Dialer = websocket.DefaultDialer
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Client{cfg: cfg, log: log.With(slog.String("provider", "localengine"))}
}

type modelSpec struct {
	Path    string              `json:"path"`
	Options domain.ModelOptions `json:"options"`
}

type transcribeRequest struct {
	Type    string                `json:"type"`
	Path    string                `json:"path"`
	Model   modelSpec             `json:"model"`
	Diarize domain.DiarizeOptions `json:"diarize"`
	FFmpeg  domain.FFmpegOptions  `json:"ffmpeg"`
	UseGPU  bool                  `json:"useGpu"`
}

type engineMessage struct {
	Type     string           `json:"type"`
	Progress *int             `json:"progress,omitempty"`
	Segment  *domain.Segment  `json:"segment,omitempty"`
	Segments []domain.Segment `json:"segments,omitempty"`
	Message  string           `json:"message,omitempty"`
}

func (c *Client) TranscribeLocal(ctx context.Context, req ports.LocalRequest, progress ports.LocalProgress) ([]domain.Segment, error) {
	if strings.TrimSpace(req.ModelPath) == "" {
		return nil, errors.New("no transcription model is configured")
	}
	if strings.TrimSpace(req.AudioPath) == "" {
		return nil, errors.New("audio path is empty")
	}

	engineURL, err := buildEngineURL(c.cfg.URL)
	if err != nil {
		return nil, err
	}

	conn, _, err := c.cfg.Dialer.DialContext(ctx, engineURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to local engine: %w", err)
	}

	s := &engineSession{conn: conn, done: make(chan struct{}), log: c.log}
	defer s.Close()

	if err := s.writeJSON(transcribeRequest{
		Type:    "transcribe",
		Path:    req.AudioPath,
		Model:   modelSpec{Path: req.ModelPath, Options: req.ModelOptions},
		Diarize: req.Diarize,
		FFmpeg:  req.FFmpegOptions,
		UseGPU:  req.UseGPU,
	}); err != nil {
		return nil, fmt.Errorf("failed to send transcribe request: %w", err)
	}

	go s.abortOnCancel(ctx)

	return s.readResult(ctx, progress)
}

type engineSession struct {
	conn *websocket.Conn
	log  *slog.Logger

	writeMu   sync.Mutex
	done      chan struct{}
	closeOnce sync.Once
}

func (s *engineSession) writeJSON(v any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.conn.WriteJSON(v)
}

// abortOnCancel forwards ctx cancellation to the engine and unblocks the
// reader.
func (s *engineSession) abortOnCancel(ctx context.Context) {
	select {
	case <-ctx.Done():
		if err := s.writeJSON(engineMessage{Type: "abort"}); err != nil {
			s.log.Debug("failed to send abort", slog.String("err", err.Error()))
		}
		_ = s.conn.Close()
	case <-s.done:
	}
}

func (s *engineSession) readResult(ctx context.Context, progress ports.LocalProgress) ([]domain.Segment, error) {
	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("failed to read engine event: %w", err)
		}

		var msg engineMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.log.Debug("ignoring malformed engine event", slog.String("err", err.Error()))
			continue
		}

		switch msg.Type {
		case "progress":
			if msg.Progress != nil && progress != nil {
				progress.Progress(*msg.Progress)
			}
		case "segment":
			if msg.Segment != nil && progress != nil {
				progress.NewSegment(*msg.Segment)
			}
		case "result":
			if msg.Segments == nil {
				return []domain.Segment{}, nil
			}
			return msg.Segments, nil
		case "error":
			message := strings.TrimSpace(msg.Message)
			if message == "" {
				message = "local engine returned an unknown error"
			}
			return nil, errors.New(message)
		}
	}
}

func (s *engineSession) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.writeMu.Lock()
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		s.writeMu.Unlock()
		_ = s.conn.Close()
	})
}

func buildEngineURL(raw string) (string, error) {
	base := strings.TrimSpace(raw)
	if strings.HasPrefix(base, "https://") {
		base = "wss://" + strings.TrimPrefix(base, "https://")
	} else if strings.HasPrefix(base, "http://") {
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}

	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid local engine URL: %w", err)
	}
	if parsed.Scheme != "ws" && parsed.Scheme != "wss" {
		return "", fmt.Errorf("invalid local engine URL %q: scheme must be ws or wss", raw)
	}
	return parsed.String(), nil
}
