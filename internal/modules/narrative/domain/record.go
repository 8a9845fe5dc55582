package domain

import "time"

// NarrativeRecord is the timeline entry for a delivered narrative.
type NarrativeRecord struct {
	At           time.Time
	Trigger      Trigger
	HealthBefore int
	HealthAfter  int
	Message      string
	Emoji        string
}
