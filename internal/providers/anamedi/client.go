// Package anamedi is the client for the remote transcription-and-structuring
// API.
package anamedi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"strings"

	"scribe/internal/domain"
	"scribe/internal/ports"
	"scribe/internal/schema"
)

const (
	DefaultBaseURL = "https://app.anamedi.com"
	transcribePath = "/api/transcribe-custom-structure"
	audioFileName  = "audio.wav"
	bodyPreviewMax = 2000
)

// RemoteError is returned for non-2xx responses. BodyPreview is diagnostic
// only and is not part of Error().
type RemoteError struct {
	Status      int
	StatusText  string
	BodyPreview string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("Anamedi API error %d: %s", e.Status, e.StatusText)
}

// HTTPStatus lets callers classify the failure without importing this package.
func (e *RemoteError) HTTPStatus() int {
	return e.Status
}

// Config controls client defaults. Per-request values win over these.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client implements ports.RemoteTranscriber. It never retries.
type Client struct {
	cfg Config
	log *slog.Logger
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Client{cfg: cfg, log: log.With(slog.String("provider", "anamedi"))}
}

func (c *Client) Transcribe(ctx context.Context, req ports.RemoteRequest) (domain.TranscriptionResponse, error) {
	audio, err := os.ReadFile(req.AudioPath)
	if err != nil {
		return domain.TranscriptionResponse{}, fmt.Errorf("failed to read audio file: %w", err)
	}

	schemaJSON, err := schema.Marshal(req.Schema)
	if err != nil {
		return domain.TranscriptionResponse{}, err
	}

	body, contentType, err := buildForm(audio, schemaJSON, req.Instructions, req.ContactEmail)
	if err != nil {
		return domain.TranscriptionResponse{}, err
	}

	baseURL := strings.TrimRight(firstNonEmpty(req.BaseURL, c.cfg.BaseURL), "/")
	url := baseURL + transcribePath

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return domain.TranscriptionResponse{}, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")
	if req.APIKey != "" {
		httpReq.Header.Set("x-api-key", req.APIKey)
	}

	c.log.Info("sending transcription request",
		slog.String("url", url),
		slog.String("audioPath", req.AudioPath),
		slog.Int("audioSize", len(audio)),
		slog.Bool("hasInstructions", req.Instructions != ""),
		slog.Bool("hasContactEmail", req.ContactEmail != ""),
		slog.Bool("hasApiKey", req.APIKey != ""),
		slog.String("schema", schemaJSON))

	resp, err := c.cfg.HTTPClient.Do(httpReq)
	if err != nil {
		c.log.Error("transcription request failed", slog.String("url", url), slog.String("err", err.Error()))
		return domain.TranscriptionResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, bodyPreviewMax))
		remoteErr := &RemoteError{
			Status:      resp.StatusCode,
			StatusText:  statusText(resp),
			BodyPreview: string(raw),
		}
		c.log.Error("transcription request rejected",
			slog.String("url", url),
			slog.Int("status", remoteErr.Status),
			slog.String("statusText", remoteErr.StatusText),
			slog.String("bodyPreview", remoteErr.BodyPreview))
		return domain.TranscriptionResponse{}, remoteErr
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.TranscriptionResponse{}, fmt.Errorf("failed to read response: %w", err)
	}
	out, err := decodeResponse(raw)
	if err != nil {
		return domain.TranscriptionResponse{}, err
	}

	c.log.Info("received transcription response",
		slog.Int("status", resp.StatusCode),
		slog.Bool("hasTranscript", out.Transcript != ""),
		slog.Int("diarizedCount", len(out.Diarized)),
		slog.Bool("hasStructuredData", isObjectOrArray(out.StructuredData)))
	return out, nil
}

func buildForm(audio []byte, schemaJSON, instructions, contactEmail string) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", audioFileName)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build form: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, "", fmt.Errorf("failed to build form: %w", err)
	}

	fields := []struct{ name, value string }{
		{"schema", schemaJSON},
		{"instructions", instructions},
		{"contactEmail", contactEmail},
	}
	for _, field := range fields {
		if field.value == "" {
			continue
		}
		if err := w.WriteField(field.name, field.value); err != nil {
			return nil, "", fmt.Errorf("failed to build form: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to build form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

// decodeResponse tolerates absent or wrongly typed top-level fields. A
// diarized entry must still carry a [start, stop] number pair.
func decodeResponse(raw []byte) (domain.TranscriptionResponse, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return domain.TranscriptionResponse{}, fmt.Errorf("failed to decode response: %w", err)
	}

	var out domain.TranscriptionResponse
	_ = json.Unmarshal(fields["transcript"], &out.Transcript)

	var entries []map[string]json.RawMessage
	if err := json.Unmarshal(fields["diarized"], &entries); err == nil {
		out.Diarized = make([]domain.SpeakerSegment, 0, len(entries))
		for index, entry := range entries {
			var segment domain.SpeakerSegment
			_ = json.Unmarshal(entry["speaker"], &segment.Speaker)
			_ = json.Unmarshal(entry["text"], &segment.Text)
			var timestamp []*float64
			if err := json.Unmarshal(entry["timestamp"], &timestamp); err != nil ||
				len(timestamp) != 2 || timestamp[0] == nil || timestamp[1] == nil {
				return domain.TranscriptionResponse{}, fmt.Errorf("diarized entry %d: %w", index, domain.ErrMalformedTimestamp)
			}
			segment.Timestamp = [2]float64{*timestamp[0], *timestamp[1]}
			out.Diarized = append(out.Diarized, segment)
		}
	}

	if data, ok := fields["structuredData"]; ok && !bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		out.StructuredData = append([]byte(nil), data...)
	}
	return out, nil
}

func statusText(resp *http.Response) string {
	// resp.Status is "404 Not Found"; keep only the reason phrase.
	if _, text, ok := strings.Cut(resp.Status, " "); ok && text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}

func isObjectOrArray(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
