package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"scribe/internal/domain"
)

func TestNewSelectsPlatform(t *testing.T) {
	t.Parallel()

	client, err := New(domain.LLMConfig{Platform: domain.LLMPlatformOllama}, nil)
	require.NoError(t, err)
	require.IsType(t, &OllamaClient{}, client)

	client, err = New(domain.LLMConfig{Platform: domain.LLMPlatformClaude}, nil)
	require.NoError(t, err)
	require.IsType(t, &ClaudeClient{}, client)

	_, err = New(domain.LLMConfig{Platform: "gemini"}, nil)
	require.Error(t, err)
}

func TestClaudeAsk(t *testing.T) {
	t.Parallel()

	var got claudeRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "key", r.Header.Get("x-api-key"))
		require.Equal(t, claudeAPIVersion, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"Short "},{"type":"tool_use"},{"type":"text","text":"summary"}]}`))
	}))
	defer server.Close()

	client := NewClaudeClient(ClaudeConfig{APIKey: "key", BaseURL: server.URL})
	answer, err := client.Ask(context.Background(), "prompt text")
	require.NoError(t, err)
	require.Equal(t, "Short summary", answer)
	require.Equal(t, "claude-3-5-sonnet-latest", got.Model)
	require.Equal(t, 8192, got.MaxTokens)
	require.Equal(t, []claudeMessage{{Role: "user", Content: "prompt text"}}, got.Messages)
}

func TestClaudeAskRequiresKey(t *testing.T) {
	t.Parallel()

	_, err := NewClaudeClient(ClaudeConfig{}).Ask(context.Background(), "x")
	require.Error(t, err)
}

func TestClaudeAskHTTPError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewClaudeClient(ClaudeConfig{APIKey: "key", BaseURL: server.URL}).Ask(context.Background(), "x")
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "503"))
}

func TestOllamaAsk(t *testing.T) {
	t.Parallel()

	var got ollamaRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"response":"local summary","done":true}`))
	}))
	defer server.Close()

	answer, err := NewOllamaClient(OllamaConfig{BaseURL: server.URL + "/", Model: "mistral"}).Ask(context.Background(), "p")
	require.NoError(t, err)
	require.Equal(t, "local summary", answer)
	require.Equal(t, ollamaRequest{Model: "mistral", Prompt: "p", Stream: false}, got)
}

func TestOllamaAskReportsError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"model not found"}`))
	}))
	defer server.Close()

	_, err := NewOllamaClient(OllamaConfig{BaseURL: server.URL}).Ask(context.Background(), "p")
	require.ErrorContains(t, err, "model not found")
}
