package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"scrollkitty/internal/modules/usage/domain"
	usageout "scrollkitty/internal/modules/usage/port/out"
	"scrollkitty/internal/platform/clock"
	apperrors "scrollkitty/internal/platform/errors"
	"scrollkitty/internal/platform/logging"
	"scrollkitty/internal/platform/tx"
)

// UsageService is the intake for usage grants: it deducts health, keeps the
// day's session counters and records the grant on the timeline.
type UsageService struct {
	clock    clock.Clock
	counters usageout.CounterStore
	health   usageout.HealthPort
	timeline usageout.TimelinePort
	serial   tx.Manager
	logger   *zap.Logger
}

type GrantResult struct {
	Change  domain.HealthChange
	EventID string
}

func NewUsageService(clk clock.Clock, counters usageout.CounterStore, health usageout.HealthPort, timeline usageout.TimelinePort, logger *zap.Logger) *UsageService {
	return &UsageService{
		clock:    clk,
		counters: counters,
		health:   health,
		timeline: timeline,
		serial:   tx.NewSerialManager(),
		logger:   logging.OrNop(logger),
	}
}

func (s *UsageService) Grant(ctx context.Context, appID, appName string, amount float64, d time.Duration) (GrantResult, error) {
	appID = strings.TrimSpace(appID)
	if appID == "" {
		return GrantResult{}, fmt.Errorf("%w: app id is required", apperrors.ErrInvalidInput)
	}
	if strings.TrimSpace(appName) == "" {
		appName = appID
	}

	var result GrantResult
	err := s.serial.Within(ctx, func(ctx context.Context) error {
		if err := s.health.EnsureDay(ctx); err != nil {
			return fmt.Errorf("ensure day: %w", err)
		}
		change, err := s.health.Deduct(ctx, appID, amount)
		if err != nil {
			return fmt.Errorf("deduct health: %w", err)
		}
		result.Change = change
		if !change.Applied {
			return nil
		}

		now := s.clock.Now()
		err = s.counters.Update(ctx, func(tx usageout.CounterTx) error {
			counters, err := s.current(ctx, tx, now)
			if err != nil {
				return err
			}
			counters.Record(d, now)
			return tx.Save(ctx, counters)
		})
		if err != nil {
			return err
		}

		eventID, err := s.timeline.RecordGrant(ctx, domain.GrantRecord{
			At:           now,
			AppName:      appName,
			HealthBefore: change.Before,
			HealthAfter:  change.After,
		})
		if err != nil {
			return fmt.Errorf("record grant: %w", err)
		}
		result.EventID = eventID
		return nil
	})
	if err != nil {
		return GrantResult{}, err
	}
	s.logger.Debug("usage granted",
		zap.String("app_id", appID),
		zap.Bool("applied", result.Change.Applied),
		zap.Int("before", result.Change.Before),
		zap.Int("after", result.Change.After))
	return result, nil
}

// Counters returns today's counters, zeroed when the stored ones belong to another day.
func (s *UsageService) Counters(ctx context.Context) (domain.SessionCounters, error) {
	var out domain.SessionCounters
	err := s.serial.Within(ctx, func(ctx context.Context) error {
		c, err := s.current(ctx, s.counters, s.clock.Now())
		out = c
		return err
	})
	return out, err
}

// Reset refills health and zeroes today's counters.
func (s *UsageService) Reset(ctx context.Context) error {
	return s.serial.Within(ctx, func(ctx context.Context) error {
		if err := s.health.ResetAll(ctx); err != nil {
			return fmt.Errorf("reset health: %w", err)
		}
		return s.counters.Save(ctx, domain.NewSessionCounters(clock.DayKey(s.clock.Now())))
	})
}

type counterReader interface {
	Load(ctx context.Context) (domain.SessionCounters, error)
}

func (s *UsageService) current(ctx context.Context, from counterReader, now time.Time) (domain.SessionCounters, error) {
	today := clock.DayKey(now)
	c, err := from.Load(ctx)
	if err != nil {
		if !errors.Is(err, apperrors.ErrCorruptState) {
			return domain.SessionCounters{}, err
		}
		s.logger.Warn("session counters unreadable, starting from zero", zap.Error(err))
		c = domain.NewSessionCounters(today)
	}
	previous := c.Day
	c, rolled := c.Rollover(today)
	if rolled && previous != "" {
		s.logger.Debug("session counters rolled over", zap.String("from", previous), zap.String("to", today))
	}
	return c, nil
}
