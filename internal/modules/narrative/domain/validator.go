package domain

import (
	"fmt"
	"regexp"
	"strings"

	apperrors "scrollkitty/internal/platform/errors"
)

type ViolationKind string

const (
	ViolationSentenceCount      ViolationKind = "sentence_count"
	ViolationAdvicePhrase       ViolationKind = "advice_phrase"
	ViolationLimitContradiction ViolationKind = "limit_contradiction"
	ViolationInventedTime       ViolationKind = "invented_time"
	ViolationInternalVocabulary ViolationKind = "internal_vocabulary"
)

// RequiredSentences is the exact sentence count of generated text.
const RequiredSentences = 2

type Violation struct {
	Kind   ViolationKind
	Detail string
}

func (v Violation) String() string {
	return string(v.Kind) + ": " + v.Detail
}

// ValidationError wraps apperrors.ErrValidationFailed.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.String())
	}
	return fmt.Sprintf("%s: %s", apperrors.ErrValidationFailed, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return apperrors.ErrValidationFailed
}

var (
	sentenceEnd = regexp.MustCompile(`[.!?]+(\s+|$)`)

	advicePhrases = phrasePattern(
		"you should", "you could try", "try to", "consider", "make sure", "don't forget",
		"do not forget", "remember to", "it's important to", "it is important to", "why not",
		"have you tried", "maybe you", "i recommend", "i suggest",
	)
	internalVocabulary = phrasePattern(
		"hp", "health points", "band", "trigger", "ledger", "aggregate", "deduction",
		"cooldown", "shield", "template", "validator",
	)

	withinLimitPattern = regexp.MustCompile(`(?i)\b(within|under|below|inside) (your |the |today's )?(daily )?limit\b`)
	pastLimitPattern   = regexp.MustCompile(`(?i)\b(over|past|beyond|exceeded|above|blew through|went over) (your |the |today's )?(daily )?limit\b|\bwent over by\b`)
)

func phrasePattern(phrases ...string) *regexp.Regexp {
	quoted := make([]string, 0, len(phrases))
	for _, p := range phrases {
		quoted = append(quoted, regexp.QuoteMeta(p))
	}
	return regexp.MustCompile(`(?i)\b(` + strings.Join(quoted, "|") + `)\b`)
}

// CountSentences counts terminal-punctuated runs; trailing text without
// punctuation counts as one more.
func CountSentences(text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	ends := sentenceEnd.FindAllStringIndex(text, -1)
	count := len(ends)
	if count == 0 || ends[count-1][1] < len(text) {
		count++
	}
	return count
}

// Validate checks generated text against the content contract for c. It
// returns every violation found; nil means the text is acceptable.
func Validate(text string, c DailyContext) []Violation {
	var out []Violation
	if n := CountSentences(text); n != RequiredSentences {
		out = append(out, Violation{Kind: ViolationSentenceCount, Detail: fmt.Sprintf("got %d sentences", n)})
	}
	for _, m := range advicePhrases.FindAllString(text, -1) {
		out = append(out, Violation{Kind: ViolationAdvicePhrase, Detail: strings.ToLower(m)})
	}
	out = append(out, limitContradictions(text, c.LimitStatus)...)
	out = append(out, inventedTimes(text, c.ClockTimes())...)
	if c.Trigger.Terminal() {
		for _, m := range internalVocabulary.FindAllString(text, -1) {
			out = append(out, Violation{Kind: ViolationInternalVocabulary, Detail: strings.ToLower(m)})
		}
	}
	return out
}

// Check is Validate as an error.
func Check(text string, c DailyContext) error {
	if v := Validate(text, c); len(v) > 0 {
		return &ValidationError{Violations: v}
	}
	return nil
}

func limitContradictions(text string, status LimitStatus) []Violation {
	var out []Violation
	if status != LimitWithin {
		for _, m := range withinLimitPattern.FindAllString(text, -1) {
			out = append(out, Violation{Kind: ViolationLimitContradiction, Detail: fmt.Sprintf("%q while limit status is %s", m, status)})
		}
	}
	if status != LimitPast {
		for _, m := range pastLimitPattern.FindAllString(text, -1) {
			out = append(out, Violation{Kind: ViolationLimitContradiction, Detail: fmt.Sprintf("%q while limit status is %s", m, status)})
		}
	}
	return out
}

func inventedTimes(text string, allowed []string) []Violation {
	known := make(map[string]struct{}, len(allowed))
	for _, t := range allowed {
		known[canonicalClock(t)] = struct{}{}
	}
	var out []Violation
	for _, m := range clockPattern.FindAllString(text, -1) {
		if _, ok := known[canonicalClock(m)]; !ok {
			out = append(out, Violation{Kind: ViolationInventedTime, Detail: m})
		}
	}
	return out
}

func canonicalClock(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}
