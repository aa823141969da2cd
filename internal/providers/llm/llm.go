// Package llm implements the optional summarization step of the local path.
package llm

import (
	"fmt"
	"net/http"

	"scribe/internal/domain"
	"scribe/internal/ports"
)

// New returns the client for cfg.Platform.
func New(cfg domain.LLMConfig, httpClient *http.Client) (ports.LLM, error) {
	switch cfg.Platform {
	case domain.LLMPlatformClaude, "":
		return NewClaudeClient(ClaudeConfig{
			APIKey:     cfg.ClaudeAPIKey,
			Model:      cfg.Model,
			MaxTokens:  cfg.MaxTokens,
			HTTPClient: httpClient,
		}), nil
	case domain.LLMPlatformOllama:
		return NewOllamaClient(OllamaConfig{
			BaseURL:    cfg.OllamaBaseURL,
			Model:      cfg.Model,
			HTTPClient: httpClient,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported llm platform %q", cfg.Platform)
	}
}
