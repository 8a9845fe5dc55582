package out

import (
	"context"

	"scrollkitty/internal/modules/usage/domain"
)

type CounterStore interface {
	Load(ctx context.Context) (domain.SessionCounters, error)
	Save(ctx context.Context, counters domain.SessionCounters) error
	// Update holds the store's write lock for the whole of fn.
	Update(ctx context.Context, fn func(CounterTx) error) error
}

// CounterTx is the counters row as seen from inside Update.
type CounterTx interface {
	Load(ctx context.Context) (domain.SessionCounters, error)
	Save(ctx context.Context, counters domain.SessionCounters) error
}

type HealthPort interface {
	EnsureDay(ctx context.Context) error
	Deduct(ctx context.Context, appID string, amount float64) (domain.HealthChange, error)
	ResetAll(ctx context.Context) error
}

type TimelinePort interface {
	RecordGrant(ctx context.Context, record domain.GrantRecord) (string, error)
}
