package dto

import "time"

type AppendInput struct {
	Timestamp     time.Time
	SourceAppName string
	HealthBefore  int
	HealthAfter   int
	Type          string
	Message       string
	Emoji         string
	Trigger       string
}

type AppendOutput struct {
	Appended bool
	Event    EventOutput
}

type EventOutput struct {
	ID            string    `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	SourceAppName string    `json:"sourceAppName,omitempty"`
	HealthBefore  int       `json:"healthBefore"`
	HealthAfter   int       `json:"healthAfter"`
	Type          string    `json:"type"`
	Message       string    `json:"message,omitempty"`
	Emoji         string    `json:"emoji,omitempty"`
	Trigger       string    `json:"trigger,omitempty"`
}

type ListInput struct {
	Limit int
	Since time.Time
}
