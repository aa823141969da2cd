package anamedi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"scribe/internal/domain"
	"scribe/internal/ports"
	"scribe/internal/schema"
)

type capturedRequest struct {
	path         string
	apiKey       string
	hasAPIKey    bool
	fileName     string
	fileBody     string
	schema       string
	instructions []string
	contactEmail []string
}

func newCaptureServer(t *testing.T, status int, body string) (*httptest.Server, *capturedRequest) {
	t.Helper()

	captured := &capturedRequest{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.path = r.URL.Path
		_, captured.hasAPIKey = r.Header["X-Api-Key"]
		captured.apiKey = r.Header.Get("x-api-key")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		file, header, err := r.FormFile("file")
		if err == nil {
			captured.fileName = header.Filename
			data, _ := io.ReadAll(file)
			captured.fileBody = string(data)
			_ = file.Close()
		}
		captured.schema = r.FormValue("schema")
		captured.instructions = r.MultipartForm.Value["instructions"]
		captured.contactEmail = r.MultipartForm.Value["contactEmail"]

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(server.Close)
	return server, captured
}

func writeAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "recording.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFFdata"), 0o600))
	return path
}

func testSchema() *schema.Schema {
	return schema.Object(schema.P("summary", schema.String().WithDefault(""))).WithRequired("summary")
}

func TestTranscribeSendsMultipartForm(t *testing.T) {
	t.Parallel()

	server, captured := newCaptureServer(t, http.StatusOK, `{
		"transcript": "hello world",
		"diarized": [
			{"speaker": "A", "text": "hello", "timestamp": [0, 1.5]},
			{"speaker": "B", "text": "world", "timestamp": [1.5, 3]}
		],
		"structuredData": {"summary": "greeting"}
	}`)

	client := NewClient(Config{})
	resp, err := client.Transcribe(context.Background(), ports.RemoteRequest{
		AudioPath:    writeAudio(t),
		Schema:       testSchema(),
		Instructions: "be brief",
		ContactEmail: "doc@example.com",
		APIKey:       "secret",
		BaseURL:      server.URL + "/",
	})
	require.NoError(t, err)

	require.Equal(t, "/api/transcribe-custom-structure", captured.path)
	require.Equal(t, "secret", captured.apiKey)
	require.Equal(t, "audio.wav", captured.fileName)
	require.Equal(t, "RIFFdata", captured.fileBody)
	require.JSONEq(t, `{"type":"object","properties":{"summary":{"type":"string","default":""}},"required":["summary"]}`, captured.schema)
	require.Equal(t, []string{"be brief"}, captured.instructions)
	require.Equal(t, []string{"doc@example.com"}, captured.contactEmail)

	require.Equal(t, "hello world", resp.Transcript)
	require.Equal(t, []domain.SpeakerSegment{
		{Speaker: "A", Text: "hello", Timestamp: [2]float64{0, 1.5}},
		{Speaker: "B", Text: "world", Timestamp: [2]float64{1.5, 3}},
	}, resp.Diarized)
	require.JSONEq(t, `{"summary":"greeting"}`, string(resp.StructuredData))
}

func TestTranscribeOmitsOptionalParts(t *testing.T) {
	t.Parallel()

	server, captured := newCaptureServer(t, http.StatusOK, `{"transcript":"x"}`)

	client := NewClient(Config{BaseURL: server.URL})
	resp, err := client.Transcribe(context.Background(), ports.RemoteRequest{
		AudioPath: writeAudio(t),
		Schema:    testSchema(),
	})
	require.NoError(t, err)

	require.False(t, captured.hasAPIKey)
	require.Empty(t, captured.instructions)
	require.Empty(t, captured.contactEmail)
	require.Empty(t, resp.Diarized)
	require.Nil(t, resp.StructuredData)
}

func TestTranscribeRemoteError(t *testing.T) {
	t.Parallel()

	server, _ := newCaptureServer(t, http.StatusUnauthorized, strings.Repeat("x", 5000))

	client := NewClient(Config{BaseURL: server.URL})
	_, err := client.Transcribe(context.Background(), ports.RemoteRequest{AudioPath: writeAudio(t), Schema: testSchema()})

	var remoteErr *RemoteError
	require.True(t, errors.As(err, &remoteErr))
	require.Equal(t, http.StatusUnauthorized, remoteErr.Status)
	require.Equal(t, "Unauthorized", remoteErr.StatusText)
	require.Len(t, remoteErr.BodyPreview, bodyPreviewMax)
	require.Equal(t, "Anamedi API error 401: Unauthorized", err.Error())
}

func TestTranscribeToleratesWrongTypes(t *testing.T) {
	t.Parallel()

	server, _ := newCaptureServer(t, http.StatusOK, `{"transcript": 12, "diarized": "nope", "structuredData": null}`)

	client := NewClient(Config{BaseURL: server.URL})
	resp, err := client.Transcribe(context.Background(), ports.RemoteRequest{AudioPath: writeAudio(t), Schema: testSchema()})
	require.NoError(t, err)
	require.Empty(t, resp.Transcript)
	require.Empty(t, resp.Diarized)
	require.Nil(t, resp.StructuredData)
}

func TestTranscribeRejectsMalformedTimestamps(t *testing.T) {
	t.Parallel()

	for _, ts := range []string{`[1]`, `[1, null]`, `"0-1"`, `[1, 2, 3]`} {
		server, _ := newCaptureServer(t, http.StatusOK, `{"transcript":"x","diarized":[{"speaker":"A","text":"x","timestamp":`+ts+`}]}`)
		client := NewClient(Config{BaseURL: server.URL})
		_, err := client.Transcribe(context.Background(), ports.RemoteRequest{AudioPath: writeAudio(t), Schema: testSchema()})
		require.ErrorIs(t, err, domain.ErrMalformedTimestamp, ts)
	}
}

func TestTranscribeMissingFile(t *testing.T) {
	t.Parallel()

	client := NewClient(Config{BaseURL: "http://127.0.0.1:1"})
	_, err := client.Transcribe(context.Background(), ports.RemoteRequest{
		AudioPath: filepath.Join(t.TempDir(), "missing.wav"),
		Schema:    testSchema(),
	})
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestTranscribeHonoursCancellation(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		server.Close()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(Config{BaseURL: server.URL})
	_, err := client.Transcribe(ctx, ports.RemoteRequest{AudioPath: writeAudio(t), Schema: testSchema()})
	require.ErrorIs(t, err, context.Canceled)
}
