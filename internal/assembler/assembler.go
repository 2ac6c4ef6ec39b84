// Package assembler builds the final message list for a completion call from
// the recency window, semantically similar past exchanges and the current
// query, then trims it to the model's context budget.
package assembler

import (
	"fmt"
	"strings"
)

// Message is a model-agnostic chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Hit is a similarity-search result considered for context injection.
type Hit struct {
	Score       float32
	UserMessage string
	AIResponse  string
}

// Config tunes assembly. Zero values pick the defaults.
type Config struct {
	// SimilarityThreshold excludes hits at or below this score entirely.
	SimilarityThreshold float32
	// BudgetFraction is the share of the context window, in characters,
	// available to prior turns plus the reserved messages.
	BudgetFraction float64
	// SystemPrompt always leads the assembled list when non-empty.
	SystemPrompt string
}

type Assembler struct {
	threshold float32
	fraction  float64
	system    string
}

func New(cfg Config) *Assembler {
	if cfg.SimilarityThreshold == 0 {
		cfg.SimilarityThreshold = 0.7
	}
	if cfg.BudgetFraction == 0 {
		cfg.BudgetFraction = 0.7
	}
	return &Assembler{
		threshold: cfg.SimilarityThreshold,
		fraction:  cfg.BudgetFraction,
		system:    cfg.SystemPrompt,
	}
}

const hitSummaryLimit = 200

// Assemble merges context sources into an ordered message list:
// system prompt, similarity summary (when any hit clears the threshold),
// recency turns, and the current query last. Assistant turns are sanitized
// and the whole list is trimmed to fit windowChars * BudgetFraction.
func (a *Assembler) Assemble(query string, recency []Message, hits []Hit, windowChars int) []Message {
	messages := make([]Message, 0, len(recency)+3)

	if a.system != "" {
		messages = append(messages, Message{Role: "system", Content: a.system})
	}

	if summary := a.summarizeHits(hits); summary != "" {
		messages = append(messages, Message{Role: "system", Content: summary})
	}

	for _, m := range recency {
		if m.Role == "assistant" {
			m.Content = SanitizeAssistant(m.Content)
		}
		messages = append(messages, m)
	}

	messages = append(messages, Message{Role: "user", Content: query})

	budget := int(a.fraction * float64(windowChars))
	return trim(messages, budget)
}

// summarizeHits folds above-threshold hits into one system message.
// Below-threshold hits are discarded entirely.
func (a *Assembler) summarizeHits(hits []Hit) string {
	var lines []string
	for _, h := range hits {
		if h.Score <= a.threshold {
			continue
		}
		answer := h.AIResponse
		if r := []rune(answer); len(r) > hitSummaryLimit {
			answer = string(r[:hitSummaryLimit])
		}
		lines = append(lines, fmt.Sprintf("Previous context: User asked %q and got %q", h.UserMessage, answer+"..."))
	}
	if len(lines) == 0 {
		return ""
	}
	return "Relevant conversation history:\n" + strings.Join(lines, "\n")
}

// trim keeps the leading system messages and the final user query, then
// includes prior turns newest-first while the cumulative character count
// stays within budget. A turn is never partially included. The returned
// list is in chronological order.
//
// The reserved messages are always sent even when they alone exceed the
// budget; an oversized query is the caller's error to surface.
func trim(messages []Message, budget int) []Message {
	if len(messages) == 0 {
		return messages
	}

	lead := 0
	for lead < len(messages)-1 && messages[lead].Role == "system" {
		lead++
	}
	last := len(messages) - 1

	total := 0
	for _, m := range messages[:lead] {
		total += len(m.Content)
	}
	total += len(messages[last].Content)

	// Walk backward over the middle, collecting turns that fit.
	var keptIdx []int
	for i := last - 1; i >= lead; i-- {
		n := len(messages[i].Content)
		if total+n > budget {
			break
		}
		total += n
		keptIdx = append(keptIdx, i)
	}

	out := make([]Message, 0, lead+len(keptIdx)+1)
	out = append(out, messages[:lead]...)
	for i := len(keptIdx) - 1; i >= 0; i-- {
		out = append(out, messages[keptIdx[i]])
	}
	out = append(out, messages[last])
	return out
}
