package assembler

import (
	"strings"
	"testing"
)

func turns(n, size int) []Message {
	msgs := make([]Message, n)
	for i := range msgs {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		msgs[i] = Message{Role: role, Content: strings.Repeat(string(rune('a'+i%26)), size)}
	}
	return msgs
}

func TestAssembleThresholdFilter(t *testing.T) {
	a := New(Config{})

	below := []Hit{{Score: 0.65, UserMessage: "old question", AIResponse: "old answer"}}
	msgs := a.Assemble("current question", nil, below, 32000)
	for _, m := range msgs {
		if strings.Contains(m.Content, "Previous context") {
			t.Error("hit with score 0.65 must be excluded entirely")
		}
	}

	above := []Hit{{Score: 0.71, UserMessage: "old question", AIResponse: "old answer"}}
	msgs = a.Assemble("current question", nil, above, 32000)
	if msgs[0].Role != "system" || !strings.Contains(msgs[0].Content, `User asked "old question"`) {
		t.Fatalf("expected similarity summary system message first, got %+v", msgs[0])
	}
}

func TestAssembleMixedHitScores(t *testing.T) {
	a := New(Config{})
	hits := []Hit{
		{Score: 0.9, UserMessage: "kept", AIResponse: "yes"},
		{Score: 0.5, UserMessage: "dropped", AIResponse: "no"},
	}
	msgs := a.Assemble("q", nil, hits, 32000)

	summary := msgs[0].Content
	if !strings.Contains(summary, "kept") {
		t.Error("above-threshold hit missing from summary")
	}
	if strings.Contains(summary, "dropped") {
		t.Error("below-threshold hit leaked into summary")
	}
}

func TestAssembleQueryLastAndChronological(t *testing.T) {
	a := New(Config{SystemPrompt: "be helpful"})
	recency := []Message{
		{Role: "user", Content: "first question here"},
		{Role: "assistant", Content: "first answer, long enough"},
		{Role: "user", Content: "second question here"},
		{Role: "assistant", Content: "second answer, long enough"},
	}

	msgs := a.Assemble("third question", recency, nil, 32000)

	if msgs[0].Role != "system" || msgs[0].Content != "be helpful" {
		t.Fatal("system prompt must lead the list")
	}
	last := msgs[len(msgs)-1]
	if last.Role != "user" || last.Content != "third question" {
		t.Fatal("current query must be the final message")
	}
	if msgs[1].Content != "first question here" || msgs[4].Content != "second answer, long enough" {
		t.Error("recency turns must stay in chronological order")
	}
}

func TestAssembleNoEmptyAssistantTurns(t *testing.T) {
	a := New(Config{})
	recency := []Message{
		{Role: "user", Content: "tell me a secret"},
		{Role: "assistant", Content: "<think>internal reasoning only</think>"},
	}

	msgs := a.Assemble("next", recency, nil, 32000)
	for _, m := range msgs {
		if m.Role == "assistant" && m.Content != Placeholder {
			t.Fatalf("assistant turn should be placeholder, got %q", m.Content)
		}
		if m.Content == "" {
			t.Fatal("no message may have empty content")
		}
	}
}

func TestTrimBudgetAndMonotonicity(t *testing.T) {
	a := New(Config{})
	recency := turns(8, 100)
	query := "q"

	prevKept := -1
	for _, window := range []int{500, 1000, 2000, 10000} {
		msgs := a.Assemble(query, recency, nil, window)

		kept := len(msgs) - 1 // minus the query
		if kept < prevKept {
			t.Fatalf("window %d kept %d turns, fewer than smaller window's %d", window, kept, prevKept)
		}
		prevKept = kept

		budget := int(0.7 * float64(window))
		total := 0
		for _, m := range msgs {
			total += len(m.Content)
		}
		if total > budget {
			t.Fatalf("window %d: total %d chars exceeds budget %d", window, total, budget)
		}
	}
}

func TestTrimDropsOldestFirst(t *testing.T) {
	a := New(Config{})
	recency := turns(8, 100)

	// Budget for three 100-char turns plus the 1-char query.
	msgs := a.Assemble("q", recency, nil, 500)
	if len(msgs) != 4 {
		t.Fatalf("expected 3 turns + query, got %d messages", len(msgs))
	}
	// The survivors are the newest three turns, still oldest-first.
	if msgs[0].Content != recency[5].Content || msgs[2].Content != recency[7].Content {
		t.Error("trimming must keep the most recent turns in chronological order")
	}
}

func TestTrimNeverDropsSystemOrQuery(t *testing.T) {
	a := New(Config{SystemPrompt: strings.Repeat("s", 50)})
	msgs := a.Assemble(strings.Repeat("q", 20), turns(4, 100), nil, 10)

	if len(msgs) != 2 {
		t.Fatalf("expected only system + query, got %d messages", len(msgs))
	}
	if msgs[0].Role != "system" || msgs[1].Role != "user" {
		t.Fatal("system and query must survive even over budget")
	}
}

func TestSummaryTruncatesLongAnswers(t *testing.T) {
	a := New(Config{})
	long := strings.Repeat("x", 500)
	msgs := a.Assemble("q", nil, []Hit{{Score: 0.9, UserMessage: "u", AIResponse: long}}, 32000)

	if strings.Contains(msgs[0].Content, strings.Repeat("x", 201)) {
		t.Error("hit answer should be truncated to 200 characters in the summary")
	}
	if !strings.Contains(msgs[0].Content, "...") {
		t.Error("truncated answer should end with ellipsis")
	}
}
