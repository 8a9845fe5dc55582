package domain

import (
	"fmt"
	"hash/fnv"
	"time"

	"scrollkitty/internal/platform/duration"
	"scrollkitty/internal/platform/healthband"
)

type LimitStatus string

const (
	LimitNone   LimitStatus = "none"
	LimitWithin LimitStatus = "within"
	LimitPast   LimitStatus = "past"
)

type DayPart string

const (
	Morning   DayPart = "morning"
	Afternoon DayPart = "afternoon"
	Evening   DayPart = "evening"
	Night     DayPart = "night"
)

// ClockLayout is the only format clock times reach text in.
const ClockLayout = "3:04 PM"

// Usage is today's session counters as the context builder reads them.
type Usage struct {
	Cumulative time.Duration
	FirstUse   *time.Time
	LastUse    *time.Time
	Grants     int
}

// DailyContext carries preformatted values for one narrative. Clock and duration
// fields are empty when not applicable.
type DailyContext struct {
	Trigger       Trigger
	FirstUseTime  string
	LastUseTime   string
	TerminalTime  string
	Cumulative    string
	DailyLimit    string
	Band          healthband.Band
	Health        int
	LimitStatus   LimitStatus
	OverBy        string
	UnderBy       string
	DayPart       DayPart
	Grants        int
	UsedMinutes   int
	LimitMinutes  int
	VariationSeed uint64
}

func DayPartAt(t time.Time) DayPart {
	switch h := t.Hour(); {
	case h >= 5 && h <= 11:
		return Morning
	case h >= 12 && h <= 16:
		return Afternoon
	case h >= 17 && h <= 20:
		return Evening
	default:
		return Night
	}
}

// BuildContext is deterministic in its inputs. A zero limit means no limit is set.
func BuildContext(trigger Trigger, usage Usage, now time.Time, limit time.Duration, health int, terminalAt *time.Time) DailyContext {
	used := minutes(usage.Cumulative)
	limitMinutes := minutes(limit)

	c := DailyContext{
		Trigger:      trigger,
		FirstUseTime: clockTime(usage.FirstUse, now.Location()),
		LastUseTime:  clockTime(usage.LastUse, now.Location()),
		TerminalTime: clockTime(terminalAt, now.Location()),
		Cumulative:   duration.FormatMinutes(used),
		Band:         healthband.Classify(health),
		Health:       clampHealth(health),
		DayPart:      DayPartAt(now),
		Grants:       usage.Grants,
		UsedMinutes:  used,
		LimitMinutes: limitMinutes,
		LimitStatus:  LimitNone,
	}
	if limitMinutes > 0 {
		c.DailyLimit = duration.FormatMinutes(limitMinutes)
		if used > limitMinutes {
			c.LimitStatus = LimitPast
			c.OverBy = duration.FormatMinutes(used - limitMinutes)
		} else {
			c.LimitStatus = LimitWithin
			c.UnderBy = duration.FormatMinutes(limitMinutes - used)
		}
	}
	c.VariationSeed = c.seed()
	return c
}

// ClockTimes lists the clock times text about this context may mention.
func (c DailyContext) ClockTimes() []string {
	out := make([]string, 0, 3)
	for _, t := range []string{c.FirstUseTime, c.LastUseTime, c.TerminalTime} {
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

func (c DailyContext) seed() uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%s|%s|%s|%s|%s|%d|%s|%s|%s|%s|%d",
		c.Trigger, c.FirstUseTime, c.LastUseTime, c.TerminalTime, c.Cumulative, c.DailyLimit,
		c.Band, c.Health, c.LimitStatus, c.OverBy, c.UnderBy, c.DayPart, c.Grants)
	return h.Sum64()
}

func clockTime(t *time.Time, loc *time.Location) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.In(loc).Format(ClockLayout)
}

func minutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(d.Round(time.Minute) / time.Minute)
}

func clampHealth(h int) int {
	switch {
	case h < 0:
		return 0
	case h > 100:
		return 100
	default:
		return h
	}
}
