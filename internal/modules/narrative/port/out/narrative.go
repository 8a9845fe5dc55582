package out

import (
	"context"
	"time"

	"scrollkitty/internal/modules/narrative/domain"
)

// FlagStore owns trigger suppression flags.
type FlagStore interface {
	Load(ctx context.Context, scopes []string) (domain.FlagSet, error)
	// Claim sets the flag and reports whether this caller set it.
	Claim(ctx context.Context, scope string, trigger domain.Trigger, at time.Time) (bool, error)
}

type HistoryStore interface {
	Append(ctx context.Context, entry domain.HistoryEntry, retain int) error
	// Recent returns up to limit newest entries for triggers, newest first.
	Recent(ctx context.Context, triggers []domain.Trigger, limit int) ([]domain.HistoryEntry, error)
}

type HealthPort interface {
	EnsureDay(ctx context.Context) error
	Aggregate(ctx context.Context) (int, error)
}

type UsagePort interface {
	Today(ctx context.Context) (domain.Usage, error)
}

type TimelinePort interface {
	LatestGrant(ctx context.Context) (*domain.GrantSnapshot, error)
	// RecordNarrative returns the event id, or "" when the log dropped it as a duplicate.
	RecordNarrative(ctx context.Context, record domain.NarrativeRecord) (string, error)
}

// Writer produces free-form narrative text out of process.
type Writer interface {
	Info(ctx context.Context) (domain.WriterInfo, error)
	Write(ctx context.Context, request domain.WriteRequest) (string, error)
}
