package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"scrollkitty/internal/modules/timeline/domain"
	timelineout "scrollkitty/internal/modules/timeline/port/out"
	"scrollkitty/internal/platform/clock"
	apperrors "scrollkitty/internal/platform/errors"
	"scrollkitty/internal/platform/id"
	"scrollkitty/internal/platform/logging"
	"scrollkitty/internal/platform/tx"
)

type EventService struct {
	clock    clock.Clock
	ids      id.Generator
	store    timelineout.EventStore
	capacity int
	serial   tx.Manager
	logger   *zap.Logger
}

func NewEventService(clk clock.Clock, ids id.Generator, store timelineout.EventStore, capacity int, logger *zap.Logger) *EventService {
	if capacity <= 0 {
		capacity = domain.DefaultCapacity
	}
	return &EventService{
		clock:    clk,
		ids:      ids,
		store:    store,
		capacity: capacity,
		serial:   tx.NewSerialManager(),
		logger:   logging.OrNop(logger),
	}
}

// Append records e unless it duplicates a recorded event. ID and Timestamp are
// filled in when empty.
func (s *EventService) Append(ctx context.Context, e domain.Event) (domain.Event, bool, error) {
	if e.ID == "" {
		e.ID = s.ids.New()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = s.clock.Now()
	}
	if err := e.Validate(); err != nil {
		return domain.Event{}, false, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}

	appended := false
	err := s.serial.Within(ctx, func(ctx context.Context) error {
		ok, err := s.store.Append(ctx, e, s.capacity)
		if err != nil {
			return fmt.Errorf("append event: %w", err)
		}
		appended = ok
		return nil
	})
	if err != nil {
		return domain.Event{}, false, err
	}
	if !appended {
		s.logger.Debug("dropping duplicate event",
			zap.String("type", string(e.Type)),
			zap.Int("before", e.HealthBefore),
			zap.Int("after", e.HealthAfter))
	}
	return e, appended, nil
}

// List returns up to limit newest events at or after since, oldest first.
func (s *EventService) List(ctx context.Context, limit int, since time.Time) ([]domain.Event, error) {
	if limit <= 0 || limit > s.capacity {
		limit = s.capacity
	}
	events, err := s.store.Recent(ctx, limit)
	if err != nil {
		if errors.Is(err, apperrors.ErrCorruptState) {
			s.logger.Warn("event log unreadable, presenting empty log", zap.Error(err))
			return nil, nil
		}
		return nil, err
	}
	if since.IsZero() {
		return events, nil
	}
	out := events[:0]
	for _, e := range events {
		if !e.Timestamp.Before(since) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *EventService) Latest(ctx context.Context, eventType domain.EventType) (domain.Event, bool, error) {
	if err := eventType.Validate(); err != nil {
		return domain.Event{}, false, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	e, ok, err := s.store.Latest(ctx, eventType)
	if err != nil {
		if errors.Is(err, apperrors.ErrCorruptState) {
			s.logger.Warn("latest event unreadable", zap.Error(err))
			return domain.Event{}, false, nil
		}
		return domain.Event{}, false, err
	}
	return e, ok, nil
}
