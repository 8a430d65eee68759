package util

import (
	"strings"
	"unicode/utf8"
)

// TruncateRunes cuts s to at most limit runes
func TruncateRunes(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}

// CollapseSpace trims s and folds runs of whitespace into single spaces
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
