package out

import (
	"context"

	"scrollkitty/internal/modules/health/domain"
)

// LedgerStore persists the whole ledger. Load wraps apperrors.ErrCorruptState
// when stored rows cannot be trusted.
type LedgerStore interface {
	Load(ctx context.Context) (domain.Ledger, error)
	// Update holds the store's write lock for the whole of fn. Nothing fn
	// saves is visible to other handles until fn returns nil.
	Update(ctx context.Context, fn func(LedgerTx) error) error
}

// LedgerTx is the ledger as seen from inside Update.
type LedgerTx interface {
	Load(ctx context.Context) (domain.Ledger, error)
	Save(ctx context.Context, ledger domain.Ledger, aggregate int) error
}

type AggregateCache interface {
	Get() (int, bool)
	Set(aggregate int)
}
