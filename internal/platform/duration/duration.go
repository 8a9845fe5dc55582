// Package duration renders usage durations as short natural-language strings.
package duration

import (
	"math"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

const (
	keyMinutes = "%d minutes"
	keyHours   = "%d hours"
)

var printer = newPrinter()

// Pattern matches every phrase FormatMinutes and Long can produce.
var Pattern = regexp.MustCompile(`\b\d+h \d+m\b|\b\d+h\b|\b\d+m\b|\b\d+ hours? \d+ minutes?\b|\b\d+ hours?\b|\b\d+ minutes?\b`)

func newPrinter() *message.Printer {
	b := catalog.NewBuilder()
	if err := b.Set(language.English, keyMinutes, plural.Selectf(1, "%d", "=1", "%d minute", plural.Other, "%d minutes")); err != nil {
		panic(err)
	}
	if err := b.Set(language.English, keyHours, plural.Selectf(1, "%d", "=1", "%d hour", plural.Other, "%d hours")); err != nil {
		panic(err)
	}
	return message.NewPrinter(language.English, message.Catalog(b))
}

// FormatMinutes renders whole minutes: "5 minutes", "1 minute", "1h", "1h 30m".
// Negative input formats as zero.
func FormatMinutes(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	h, m := minutes/60, minutes%60
	switch {
	case h == 0:
		return printer.Sprintf(keyMinutes, m)
	case m == 0:
		return printer.Sprintf("%dh", h)
	default:
		return printer.Sprintf("%dh %dm", h, m)
	}
}

// FormatSeconds rounds to the nearest minute before formatting.
func FormatSeconds(seconds int64) string {
	return FormatMinutes(roundMinutes(float64(seconds) / 60))
}

// FormatHours rounds fractional hours to the nearest minute before formatting.
func FormatHours(hours float64) string {
	return FormatMinutes(roundMinutes(hours * 60))
}

// Format renders a time.Duration rounded to the nearest minute.
func Format(d time.Duration) string {
	return FormatMinutes(roundMinutes(d.Minutes()))
}

// Long spells out both units with independent pluralization: "1 hour 1 minute", "2 hours".
func Long(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	h, m := minutes/60, minutes%60
	parts := make([]string, 0, 2)
	if h > 0 {
		parts = append(parts, printer.Sprintf(keyHours, h))
	}
	if m > 0 || h == 0 {
		parts = append(parts, printer.Sprintf(keyMinutes, m))
	}
	return strings.Join(parts, " ")
}

func roundMinutes(v float64) int {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return int(math.Round(v))
}
