package assembler

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Placeholder replaces assistant turns that sanitize to nothing. The
// completion API rejects empty assistant messages.
const Placeholder = "I understand."

var (
	thinkBlock      = regexp.MustCompile(`(?s)<think>.*?</think>`)
	excessBlankRuns = regexp.MustCompile(`\n{3,}`)
	// A newline followed by a capital letter marks where leading filler
	// ends and the actual answer starts.
	newlineThenUpper = regexp.MustCompile(`\n[A-Z]`)
)

// Reasoning models leak preambles like "Okay, the user wants..." into their
// visible output; these prefixes identify such turns.
var fillerPrefixes = []string{
	"Okay, the user",
	"Let me",
	"I need to",
	"First, I",
	"Looking back",
	"Since",
	"The user",
}

// SanitizeAssistant strips reasoning markup and leading filler from an
// assistant turn, collapses runs of blank lines, and substitutes the
// placeholder when the remainder is empty or near-empty.
func SanitizeAssistant(content string) string {
	s := thinkBlock.ReplaceAllString(content, "")
	s = strings.ReplaceAll(s, "</think>", "")
	s = stripLeadingFiller(s)
	s = excessBlankRuns.ReplaceAllString(s, "\n\n")
	s = strings.TrimSpace(s)

	if utf8.RuneCountInString(s) < 10 {
		return Placeholder
	}
	return s
}

// stripLeadingFiller removes a filler preamble: everything from a known
// prefix up to the first blank line or newline-then-capital boundary.
func stripLeadingFiller(s string) string {
	for _, prefix := range fillerPrefixes {
		if !strings.HasPrefix(s, prefix) {
			continue
		}
		if i := strings.Index(s, "\n\n"); i >= 0 {
			return s[i:]
		}
		if loc := newlineThenUpper.FindStringIndex(s); loc != nil {
			return s[loc[0]:]
		}
		return ""
	}
	return s
}
