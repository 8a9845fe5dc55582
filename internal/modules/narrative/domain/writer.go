package domain

import "scrollkitty/internal/platform/duration"

// WriteRequest is what a free-form writer gets to work from. Durations are
// spelled out; clock times are the only ones the text may mention.
type WriteRequest struct {
	Trigger       string   `json:"trigger"`
	Band          string   `json:"band"`
	Health        int      `json:"health"`
	DayPart       string   `json:"dayPart"`
	LimitStatus   string   `json:"limitStatus"`
	Used          string   `json:"used"`
	Limit         string   `json:"limit,omitempty"`
	OverBy        string   `json:"overBy,omitempty"`
	UnderBy       string   `json:"underBy,omitempty"`
	Grants        int      `json:"grants"`
	ClockTimes    []string `json:"clockTimes,omitempty"`
	FirstUse      string   `json:"firstUse,omitempty"`
	LastUse       string   `json:"lastUse,omitempty"`
	TerminalTime  string   `json:"terminalTime,omitempty"`
	Avoid         []string `json:"avoid,omitempty"`
	VariationSeed uint64   `json:"variationSeed"`
	Attempt       int      `json:"attempt"`
}

// NewWriteRequest describes c for a writer; avoid lists recent texts not to echo.
func NewWriteRequest(c DailyContext, avoid []string, attempt int) WriteRequest {
	r := WriteRequest{
		Trigger:       string(c.Trigger),
		Band:          string(c.Band),
		Health:        c.Health,
		DayPart:       string(c.DayPart),
		LimitStatus:   string(c.LimitStatus),
		Used:          duration.Long(c.UsedMinutes),
		Grants:        c.Grants,
		ClockTimes:    c.ClockTimes(),
		FirstUse:      c.FirstUseTime,
		LastUse:       c.LastUseTime,
		TerminalTime:  c.TerminalTime,
		Avoid:         avoid,
		VariationSeed: c.VariationSeed,
		Attempt:       attempt,
	}
	if c.LimitMinutes > 0 {
		r.Limit = duration.Long(c.LimitMinutes)
	}
	switch c.LimitStatus {
	case LimitPast:
		r.OverBy = duration.Long(c.UsedMinutes - c.LimitMinutes)
	case LimitWithin:
		r.UnderBy = duration.Long(c.LimitMinutes - c.UsedMinutes)
	}
	return r
}

type WriterInfo struct {
	Name    string
	Version string
}
