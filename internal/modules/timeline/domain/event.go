package domain

import (
	"fmt"
	"time"
)

type EventType string

const (
	EventUsageGranted       EventType = "usage_granted"
	EventNarrativeGenerated EventType = "narrative_generated"
)

const (
	DefaultCapacity = 100
	// DedupWindow is how close in time two matching events must be to count as one.
	DedupWindow = 3 * time.Second
)

func (t EventType) Validate() error {
	switch t {
	case EventUsageGranted, EventNarrativeGenerated:
		return nil
	default:
		return fmt.Errorf("unsupported event type %q", string(t))
	}
}

// Event is immutable once recorded.
type Event struct {
	ID            string
	Timestamp     time.Time
	SourceAppName string
	HealthBefore  int
	HealthAfter   int
	Type          EventType
	Message       string
	Emoji         string
	Trigger       string
}

func (e Event) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("event id is required")
	}
	if e.Timestamp.IsZero() {
		return fmt.Errorf("event timestamp is required")
	}
	return e.Type.Validate()
}

// SameOccurrence reports whether two events describe the same happening: same type,
// same health transition, timestamps less than DedupWindow apart.
func SameOccurrence(a, b Event) bool {
	gap := a.Timestamp.Sub(b.Timestamp)
	if gap < 0 {
		gap = -gap
	}
	return a.Type == b.Type &&
		a.HealthBefore == b.HealthBefore &&
		a.HealthAfter == b.HealthAfter &&
		gap < DedupWindow
}

// IsDuplicate reports whether candidate repeats an already recorded event.
func IsDuplicate(existing []Event, candidate Event) bool {
	for _, e := range existing {
		if SameOccurrence(e, candidate) {
			return true
		}
	}
	return false
}

// Log is the bounded in-memory form of the event log, oldest first.
type Log struct {
	Capacity int
	Events   []Event
}

func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{Capacity: capacity}
}

// Append drops duplicates, then appends and evicts the oldest events beyond Capacity.
func (l *Log) Append(e Event) (bool, []Event) {
	if IsDuplicate(l.Events, e) {
		return false, nil
	}
	l.Events = append(l.Events, e)
	over := len(l.Events) - l.Capacity
	if over <= 0 {
		return true, nil
	}
	evicted := append([]Event(nil), l.Events[:over]...)
	l.Events = append([]Event(nil), l.Events[over:]...)
	return true, evicted
}
