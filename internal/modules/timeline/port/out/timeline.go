package out

import (
	"context"

	"scrollkitty/internal/modules/timeline/domain"
)

type EventStore interface {
	// Recent returns up to limit newest events, oldest first.
	Recent(ctx context.Context, limit int) ([]domain.Event, error)
	// Append inserts e unless it repeats a stored event, then trims the log to
	// capacity, all in one write transaction. It reports whether e was kept.
	Append(ctx context.Context, e domain.Event, capacity int) (bool, error)
	Latest(ctx context.Context, eventType domain.EventType) (domain.Event, bool, error)
}
