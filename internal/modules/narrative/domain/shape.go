package domain

import (
	"regexp"
	"strings"

	"scrollkitty/internal/platform/duration"
)

// Wildcard replaces every variable token in a shape.
const Wildcard = "•"

var (
	clockPattern  = regexp.MustCompile(`(?i)\b\d{1,2}:\d{2}(\s?[ap]m)?\b`)
	numberPattern = regexp.MustCompile(`\b\d+\b`)
	spacePattern  = regexp.MustCompile(`\s+`)
)

// TemplateShape is t's text with every placeholder replaced by Wildcard.
func TemplateShape(t Template) string {
	return normalizeShape(placeholderPattern.ReplaceAllString(t.Text, Wildcard))
}

// TextShape is rendered text with clock times, durations and numbers replaced by
// Wildcard. A rendered template has the same shape as its template.
func TextShape(text string) string {
	s := clockPattern.ReplaceAllString(text, Wildcard)
	s = duration.Pattern.ReplaceAllString(s, Wildcard)
	s = numberPattern.ReplaceAllString(s, Wildcard)
	return normalizeShape(s)
}

func normalizeShape(s string) string {
	return strings.ToLower(strings.TrimSpace(spacePattern.ReplaceAllString(s, " ")))
}
