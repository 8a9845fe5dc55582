package domain

import (
	"time"

	"scrollkitty/internal/platform/healthband"
)

const (
	HistoryRetention     = 50
	DefaultHistoryWindow = 5
)

// HistoryEntry is one delivered narrative.
type HistoryEntry struct {
	Timestamp    time.Time
	Trigger      Trigger
	Band         healthband.Band
	RenderedText string
	Emoji        string
}

// RecentShapes returns the shapes of history texts.
func RecentShapes(history []HistoryEntry) map[string]struct{} {
	out := make(map[string]struct{}, len(history))
	for _, h := range history {
		out[TextShape(h.RenderedText)] = struct{}{}
	}
	return out
}
