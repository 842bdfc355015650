package util

import (
	"strings"
	"unicode/utf8"
)

// StripCodeFences removes a ```lang ... ``` wrapper that LLMs like to add around answers.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i != -1 && !strings.ContainsAny(s[:i], " \t") {
		s = s[i+1:] // language tag: json, markdown, md ...
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// Truncate cuts s to at most n bytes on a rune boundary, appending "…" when cut.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "…"
}
