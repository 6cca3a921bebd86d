package util

import (
	"fmt"
	"unicode/utf8"
)

// DefaultLogMaxLen is the default number of characters of post content kept in log lines.
const DefaultLogMaxLen = 80

// TruncateLog shortens s to at most maxLen runes for logging, never
// splitting a multi-byte character.
func TruncateLog(s string, maxLen int) string {
	if maxLen < 0 {
		maxLen = 0
	}
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	cut := 0
	for i := range s {
		if maxLen == 0 {
			cut = i
			break
		}
		maxLen--
	}
	return s[:cut] + fmt.Sprintf("... [truncated, %d bytes total]", len(s))
}

// TruncateContent applies DefaultLogMaxLen.
func TruncateContent(s string) string {
	return TruncateLog(s, DefaultLogMaxLen)
}
