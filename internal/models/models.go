// Package models holds the static capability table for completion models.
// It parameterizes the context-assembly budget and caps the response-token
// request sent to the completion call.
package models

// Context window sizes in thousands of tokens, keyed by OpenRouter model id.
var windows = map[string]int{
	"anthropic/claude-3-opus":           200,
	"anthropic/claude-3-sonnet":         200,
	"anthropic/claude-3-haiku":          200,
	"anthropic/claude-3.5-sonnet":       200,
	"openai/gpt-4o":                     128,
	"openai/gpt-4o-mini":                128,
	"openai/gpt-4-turbo":                128,
	"openai/gpt-3.5-turbo":              16,
	"google/gemini-pro":                 32,
	"google/gemini-pro-1.5":             2000,
	"google/gemini-flash-1.5":           1000,
	"meta-llama/llama-3-8b-instruct":    8,
	"meta-llama/llama-3-70b-instruct":   8,
	"meta-llama/llama-3.1-70b-instruct": 128,
	"mistralai/mistral-7b-instruct":     32,
	"mistralai/mixtral-8x7b-instruct":   32,
	"deepseek/deepseek-chat":            64,
	"deepseek/deepseek-r1":              64,
	"qwen/qwen-2.5-72b-instruct":        32,
}

// DefaultWindow is the conservative assumption for unknown models,
// in thousands of tokens.
const DefaultWindow = 8

// responseTokenCap bounds the max_tokens request regardless of window size.
const responseTokenCap = 1000

// ContextWindow returns the model's context window in thousands of tokens.
func ContextWindow(model string) int {
	if w, ok := windows[model]; ok {
		return w
	}
	return DefaultWindow
}

// ContextWindowChars approximates the window in characters (tokens x 4).
func ContextWindowChars(model string) int {
	return ContextWindow(model) * 1000 * 4
}

// MaxResponseTokens returns the response budget for the completion request:
// a quarter of the window, capped at a fixed ceiling.
func MaxResponseTokens(model string) int {
	quarter := ContextWindow(model) * 1000 / 4
	if quarter < responseTokenCap {
		return quarter
	}
	return responseTokenCap
}
