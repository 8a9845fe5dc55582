package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"scrollkitty/internal/modules/health/domain"
	healthout "scrollkitty/internal/modules/health/port/out"
	"scrollkitty/internal/platform/clock"
	apperrors "scrollkitty/internal/platform/errors"
	"scrollkitty/internal/platform/logging"
	"scrollkitty/internal/platform/tx"
)

// LedgerService owns every mutation of the health ledger. Each operation is one
// load-modify-save under the store's write lock.
type LedgerService struct {
	clock  clock.Clock
	store  healthout.LedgerStore
	cache  healthout.AggregateCache
	serial tx.Manager
	logger *zap.Logger
}

// Deduction reports a deduction's effect on aggregate health.
type Deduction struct {
	Applied bool
	Before  int
	After   int
}

func NewLedgerService(clk clock.Clock, store healthout.LedgerStore, cache healthout.AggregateCache, logger *zap.Logger) *LedgerService {
	return &LedgerService{clock: clk, store: store, cache: cache, serial: tx.NewSerialManager(), logger: logging.OrNop(logger)}
}

func (s *LedgerService) Initialize(ctx context.Context, appIDs []string) (domain.Ledger, bool, error) {
	var out domain.Ledger
	var changed bool
	err := s.mutate(ctx, func(l *domain.Ledger) bool {
		changed = l.Initialize(appIDs)
		if changed && l.ResetDay == "" {
			l.ResetDay = clock.DayKey(s.clock.Now())
		}
		out = l.Clone()
		return changed
	})
	return out, changed, err
}

// Deduct never fails for an unknown app; it reports Applied=false instead.
func (s *LedgerService) Deduct(ctx context.Context, appID string, amount float64) (Deduction, error) {
	var result Deduction
	err := s.mutate(ctx, func(l *domain.Ledger) bool {
		result.Before = l.Aggregate()
		if err := l.Deduct(appID, amount, s.clock.Now()); err != nil {
			if errors.Is(err, apperrors.ErrUnknownApp) {
				s.logger.Debug("ignoring deduction for untracked app", zap.String("app_id", appID), zap.Float64("amount", amount))
			}
			result.After = result.Before
			return false
		}
		result.Applied = true
		result.After = l.Aggregate()
		return true
	})
	return result, err
}

func (s *LedgerService) ResetAll(ctx context.Context) error {
	return s.mutate(ctx, func(l *domain.Ledger) bool {
		l.ResetAll()
		l.ResetDay = clock.DayKey(s.clock.Now())
		return true
	})
}

// EnsureDay resets the ledger when the stored reset day is not today.
func (s *LedgerService) EnsureDay(ctx context.Context) (bool, error) {
	today := clock.DayKey(s.clock.Now())
	reset := false
	err := s.mutate(ctx, func(l *domain.Ledger) bool {
		if l.ResetDay == today {
			return false
		}
		l.ResetAll()
		l.ResetDay = today
		reset = true
		return true
	})
	if reset {
		s.logger.Info("day boundary reset", zap.String("day", today))
	}
	return reset, err
}

func (s *LedgerService) Snapshot(ctx context.Context) (domain.Ledger, error) {
	var out domain.Ledger
	err := s.serial.Within(ctx, func(ctx context.Context) error {
		l, err := s.load(ctx, s.store)
		if err != nil {
			return err
		}
		out = l
		s.cache.Set(l.Aggregate())
		return nil
	})
	return out, err
}

// CachedAggregate serves UI reads from the in-process cache, loading on a miss.
func (s *LedgerService) CachedAggregate(ctx context.Context) (int, error) {
	if v, ok := s.cache.Get(); ok {
		return v, nil
	}
	l, err := s.Snapshot(ctx)
	if err != nil {
		return 0, err
	}
	return l.Aggregate(), nil
}

func (s *LedgerService) mutate(ctx context.Context, fn func(*domain.Ledger) bool) error {
	return s.serial.Within(ctx, func(ctx context.Context) error {
		var aggregate int
		err := s.store.Update(ctx, func(tx healthout.LedgerTx) error {
			l, err := s.load(ctx, tx)
			if err != nil {
				return err
			}
			changed := fn(&l)
			aggregate = l.Aggregate()
			if !changed {
				return nil
			}
			return tx.Save(ctx, l, aggregate)
		})
		if err != nil {
			return err
		}
		s.cache.Set(aggregate)
		return nil
	})
}

type ledgerReader interface {
	Load(ctx context.Context) (domain.Ledger, error)
}

// load substitutes an empty (full-health) ledger for corrupt state.
func (s *LedgerService) load(ctx context.Context, from ledgerReader) (domain.Ledger, error) {
	l, err := from.Load(ctx)
	if err != nil {
		if errors.Is(err, apperrors.ErrCorruptState) {
			s.logger.Warn("ledger unreadable, starting from full health", zap.Error(err))
			return domain.NewLedger(), nil
		}
		return domain.Ledger{}, err
	}
	if l.Records == nil {
		l.Records = map[string]domain.AppHealthRecord{}
	}
	return l, nil
}
