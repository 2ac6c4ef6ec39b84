package assembler

import (
	"strings"
	"unicode/utf8"
)

// SplitMessage chunks a long response for transports that cap message
// length, preferring sentence, then line, then word boundaries when one
// falls late enough in the chunk.
func SplitMessage(message string, maxLength int) []string {
	if maxLength <= 0 {
		maxLength = 2000
	}

	var chunks []string
	remaining := []rune(strings.TrimSpace(message))

	for len(remaining) > 0 {
		end := len(remaining)
		if end > maxLength {
			end = maxLength
		}
		chunk := remaining[:end]

		if end < len(remaining) {
			lastSentence := lastIndexRunes(chunk, ". ")
			lastNewline := lastIndexRunes(chunk, "\n")
			lastSpace := lastIndexRunes(chunk, " ")

			switch {
			case lastSentence > -1 && float64(lastSentence) > float64(maxLength)*0.6:
				chunk = remaining[:lastSentence+2]
			case lastNewline > -1 && float64(lastNewline) > float64(maxLength)*0.5:
				chunk = remaining[:lastNewline+1]
			case lastSpace > -1 && float64(lastSpace) > float64(maxLength)*0.5:
				chunk = remaining[:lastSpace+1]
			}
		}

		if out := strings.TrimSpace(string(chunk)); out != "" {
			chunks = append(chunks, out)
		}
		remaining = []rune(strings.TrimSpace(string(remaining[len(chunk):])))
	}
	return chunks
}

// lastIndexRunes returns the rune index of the last occurrence of sep, or -1.
func lastIndexRunes(r []rune, sep string) int {
	s := string(r)
	byteIdx := strings.LastIndex(s, sep)
	if byteIdx < 0 {
		return -1
	}
	return utf8.RuneCountInString(s[:byteIdx])
}
