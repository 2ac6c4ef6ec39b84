// Package llm wraps the OpenRouter completion API. It is the only component
// whose failures are allowed to reach the end user, so it maps transport
// errors onto a small user-actionable taxonomy.
package llm

import (
	"errors"

	"recall/internal/assembler"
)

// User-visible failure kinds. Everything else stays internal and is
// absorbed by a degraded fallback.
var (
	ErrInvalidCredential = errors.New("invalid API credential")
	ErrQuotaExceeded     = errors.New("API quota exceeded")
	ErrContextTooLarge   = errors.New("message too long for model context")
)

// ChatRequest is one completion call. APIKey is the caller's credential;
// requests never share a server-wide key implicitly.
type ChatRequest struct {
	APIKey    string
	Model     string
	Messages  []assembler.Message
	MaxTokens int
}

// ModelInfo describes one model from the OpenRouter catalog.
type ModelInfo struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ContextLength int    `json:"context_length"`
	Pricing       struct {
		Prompt     string `json:"prompt"`
		Completion string `json:"completion"`
	} `json:"pricing"`
}

// Free reports whether the model bills nothing for prompt and completion.
func (m ModelInfo) Free() bool {
	return m.Pricing.Prompt == "0" && m.Pricing.Completion == "0"
}
