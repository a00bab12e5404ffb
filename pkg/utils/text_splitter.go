package utils

import (
	"strings"
	"unicode/utf8"
)

// SplitChunks splits text into pieces no longer than maxLen runes so a
// long message can be sent across several transport messages.
//
// Paragraphs (separated by a blank line) are accumulated greedily: the
// current chunk grows while the next paragraph still fits, then flushes.
// A single paragraph longer than maxLen is hard-wrapped at the limit
// without discarding any whitespace, so concatenating the returned
// chunks (with the paragraph separators re-inserted between whole
// paragraphs) reproduces the original text exactly.
func SplitChunks(text string, maxLen int) []string {
	if maxLen <= 0 || utf8.RuneCountInString(text) <= maxLen {
		return []string{text}
	}

	paragraphs := strings.Split(text, "\n\n")
	var chunks []string
	current := ""

	for _, p := range paragraphs {
		candidate := p
		if current != "" {
			candidate = current + "\n\n" + p
		}
		if utf8.RuneCountInString(candidate) <= maxLen {
			current = candidate
			continue
		}

		if current != "" {
			chunks = append(chunks, current)
		}

		if utf8.RuneCountInString(p) > maxLen {
			wrapped := hardWrap(p, maxLen)
			chunks = append(chunks, wrapped[:len(wrapped)-1]...)
			current = wrapped[len(wrapped)-1]
		} else {
			current = p
		}
	}

	if current != "" {
		chunks = append(chunks, current)
	}

	return chunks
}

// hardWrap slices s into maxLen-rune pieces. Nothing is trimmed; the
// pieces concatenate back to s.
func hardWrap(s string, maxLen int) []string {
	runes := []rune(s)
	var pieces []string
	for start := 0; start < len(runes); start += maxLen {
		end := start + maxLen
		if end > len(runes) {
			end = len(runes)
		}
		pieces = append(pieces, string(runes[start:end]))
	}
	return pieces
}
