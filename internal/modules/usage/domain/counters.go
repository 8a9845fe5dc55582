package domain

import (
	"fmt"
	"time"
)

// SessionCounters accumulates granted usage for one local day.
type SessionCounters struct {
	Day               string
	CumulativeSeconds int64
	FirstGrantAt      *time.Time
	LastGrantAt       *time.Time
	GrantCount        int
}

func NewSessionCounters(day string) SessionCounters {
	return SessionCounters{Day: day}
}

func (c SessionCounters) Validate() error {
	if c.CumulativeSeconds < 0 {
		return fmt.Errorf("cumulative seconds must be >= 0")
	}
	if c.GrantCount < 0 {
		return fmt.Errorf("grant count must be >= 0")
	}
	if c.FirstGrantAt != nil && c.LastGrantAt != nil && c.LastGrantAt.Before(*c.FirstGrantAt) {
		return fmt.Errorf("last grant precedes first grant")
	}
	return nil
}

// Rollover returns zeroed counters when day differs from the counted day.
func (c SessionCounters) Rollover(day string) (SessionCounters, bool) {
	if c.Day == day {
		return c, false
	}
	return NewSessionCounters(day), true
}

// Record adds one grant. Negative durations count as zero.
func (c *SessionCounters) Record(d time.Duration, at time.Time) {
	if d > 0 {
		c.CumulativeSeconds += int64(d / time.Second)
	}
	stamp := at
	if c.FirstGrantAt == nil {
		first := stamp
		c.FirstGrantAt = &first
	}
	c.LastGrantAt = &stamp
	c.GrantCount++
}

func (c SessionCounters) Cumulative() time.Duration {
	return time.Duration(c.CumulativeSeconds) * time.Second
}
