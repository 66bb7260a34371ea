package article

import (
	"strings"
	"unicode/utf8"
)

const (
	summaryLen    = 100
	summarySuffix = "..."
)

// Summarize derives a summary from content: content itself when it has at
// most 100 characters, otherwise its first 100 characters followed by
// "...". Characters are Unicode code points, never bytes.
func Summarize(content string) string {
	if utf8.RuneCountInString(content) <= summaryLen {
		return content
	}
	runes := []rune(content)
	return string(runes[:summaryLen]) + summarySuffix
}

// summaryFor keeps a supplied summary unless it is blank.
func summaryFor(summary, content string) string {
	if strings.TrimSpace(summary) == "" {
		return Summarize(content)
	}
	return summary
}
