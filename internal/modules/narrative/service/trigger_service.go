package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"scrollkitty/internal/modules/narrative/domain"
	narrativeout "scrollkitty/internal/modules/narrative/port/out"
	"scrollkitty/internal/platform/clock"
	apperrors "scrollkitty/internal/platform/errors"
	"scrollkitty/internal/platform/logging"
	"scrollkitty/internal/platform/tx"
)

// MaxClaimRounds bounds how often a lost flag claim re-runs the decision.
const MaxClaimRounds = 3

type Settings struct {
	DailyLimit     time.Duration
	Nightly        domain.NightlySchedule
	HistoryWindow  int
	WriterAttempts int
}

// Outcome reports what one evaluation did. Fired is false when no trigger applied.
type Outcome struct {
	Fired    bool
	Trigger  domain.Trigger
	Band     string
	Health   int
	Text     string
	Emoji    string
	Source   string
	EventID  string
	Attempts int
}

type TriggerService struct {
	clock    clock.Clock
	flags    narrativeout.FlagStore
	history  narrativeout.HistoryStore
	health   narrativeout.HealthPort
	usage    narrativeout.UsagePort
	timeline narrativeout.TimelinePort
	messages *MessageService
	serial   tx.Manager
	logger   *zap.Logger

	mu       sync.RWMutex
	settings Settings
}

func NewTriggerService(
	clk clock.Clock,
	flags narrativeout.FlagStore,
	history narrativeout.HistoryStore,
	health narrativeout.HealthPort,
	usage narrativeout.UsagePort,
	timeline narrativeout.TimelinePort,
	messages *MessageService,
	settings Settings,
	logger *zap.Logger,
) *TriggerService {
	return &TriggerService{
		clock:    clk,
		flags:    flags,
		history:  history,
		health:   health,
		usage:    usage,
		timeline: timeline,
		messages: messages,
		serial:   tx.NewSerialManager(),
		logger:   logging.OrNop(logger),
		settings: settings,
	}
}

func (s *TriggerService) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// UpdateSettings applies new settings from the next evaluation on.
func (s *TriggerService) UpdateSettings(settings Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
}

// Evaluate fires at most one trigger. The decision and the flag claim happen in
// one serialized section; a claim lost to another process re-runs the decision.
func (s *TriggerService) Evaluate(ctx context.Context, reason domain.Reason) (Outcome, error) {
	settings := s.Settings()
	var out Outcome
	err := s.serial.Within(ctx, func(ctx context.Context) error {
		for round := 1; round <= MaxClaimRounds; round++ {
			o, err := s.evaluateOnce(ctx, settings)
			if errors.Is(err, apperrors.ErrWriterConflict) {
				s.logger.Debug("trigger claim lost, re-evaluating", zap.Int("round", round), zap.Error(err))
				continue
			}
			out = o
			return err
		}
		return fmt.Errorf("evaluate after %d rounds: %w", MaxClaimRounds, apperrors.ErrWriterConflict)
	})
	if err != nil {
		return Outcome{}, err
	}
	if out.Fired {
		s.logger.Info("narrative delivered",
			zap.String("reason", string(reason)),
			zap.String("trigger", string(out.Trigger)),
			zap.String("band", out.Band),
			zap.Int("health", out.Health),
			zap.String("source", out.Source))
	}
	return out, nil
}

func (s *TriggerService) evaluateOnce(ctx context.Context, settings Settings) (Outcome, error) {
	if err := s.health.EnsureDay(ctx); err != nil {
		return Outcome{}, fmt.Errorf("ensure day: %w", err)
	}
	now := s.clock.Now()
	health, err := s.health.Aggregate(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("read health: %w", err)
	}
	grant, err := s.timeline.LatestGrant(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("read latest grant: %w", err)
	}
	flags, err := s.loadFlags(ctx, domain.Scopes(now, grant))
	if err != nil {
		return Outcome{}, err
	}

	decision, ok := domain.Decide(domain.DecisionInput{
		Now:         now,
		Health:      health,
		Nightly:     settings.Nightly,
		LatestGrant: grant,
		Flags:       flags,
	})
	if !ok {
		return Outcome{Health: health}, nil
	}

	won, err := s.flags.Claim(ctx, decision.Scope, decision.Trigger, now)
	if err != nil {
		return Outcome{}, err
	}
	if !won {
		return Outcome{}, fmt.Errorf("%w: %s/%s already claimed", apperrors.ErrWriterConflict, decision.Scope, decision.Trigger)
	}

	usage, err := s.usage.Today(ctx)
	if err != nil {
		if !errors.Is(err, apperrors.ErrCorruptState) {
			return Outcome{}, fmt.Errorf("read usage: %w", err)
		}
		s.logger.Warn("usage unreadable, narrating without it", zap.Error(err))
		usage = domain.Usage{}
	}
	c := domain.BuildContext(decision.Trigger, usage, now, settings.DailyLimit, health, terminalAt(decision, flags, now))

	out := Outcome{Fired: true, Trigger: decision.Trigger, Band: string(c.Band), Health: health}
	msg, err := s.messages.Compose(ctx, c, ComposeOptions{HistoryWindow: settings.HistoryWindow, WriterAttempts: settings.WriterAttempts})
	if err != nil {
		if ctx.Err() != nil {
			return Outcome{}, ctx.Err()
		}
		s.logger.Error("no narrative composed, skipping delivery",
			zap.String("trigger", string(decision.Trigger)),
			zap.String("band", string(c.Band)),
			zap.Error(err))
		return out, nil
	}
	out.Text, out.Emoji, out.Source, out.Attempts = msg.Text, msg.Emoji, msg.Source, msg.Attempts

	before, after := health, health
	if grant != nil && (decision.Trigger == domain.TriggerHealthBandDrop || decision.Trigger == domain.TriggerTerminal) {
		before, after = grant.HealthBefore, grant.HealthAfter
	}
	eventID, err := s.timeline.RecordNarrative(ctx, domain.NarrativeRecord{
		At:           now,
		Trigger:      decision.Trigger,
		HealthBefore: before,
		HealthAfter:  after,
		Message:      msg.Text,
		Emoji:        msg.Emoji,
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("record narrative: %w", err)
	}
	out.EventID = eventID

	if err := s.history.Append(ctx, domain.HistoryEntry{
		Timestamp:    now,
		Trigger:      decision.Trigger,
		Band:         c.Band,
		RenderedText: msg.Text,
		Emoji:        msg.Emoji,
	}, domain.HistoryRetention); err != nil {
		return Outcome{}, fmt.Errorf("record history: %w", err)
	}
	return out, nil
}

// Flags returns the flags visible to a decision made now.
func (s *TriggerService) Flags(ctx context.Context) (domain.FlagSet, error) {
	now := s.clock.Now()
	grant, err := s.timeline.LatestGrant(ctx)
	if err != nil {
		return nil, err
	}
	return s.loadFlags(ctx, domain.Scopes(now, grant))
}

// Intercept reports the interception choices for current health.
func (s *TriggerService) Intercept(ctx context.Context) (domain.Interception, error) {
	if err := s.health.EnsureDay(ctx); err != nil {
		return domain.Interception{}, fmt.Errorf("ensure day: %w", err)
	}
	health, err := s.health.Aggregate(ctx)
	if err != nil {
		return domain.Interception{}, fmt.Errorf("read health: %w", err)
	}
	return s.messages.Intercept(health), nil
}

// CheckWriter asks the writer for its identity and one sample, and validates it.
func (s *TriggerService) CheckWriter(ctx context.Context) (domain.WriterInfo, string, []domain.Violation, error) {
	writer := s.messages.Writer()
	if writer == nil {
		return domain.WriterInfo{}, "", nil, apperrors.ErrWriterNotEnabled
	}
	info, err := writer.Info(ctx)
	if err != nil {
		return domain.WriterInfo{}, "", nil, err
	}
	now := s.clock.Now()
	settings := s.Settings()
	sample := domain.BuildContext(domain.TriggerDailyWelcome, domain.Usage{Cumulative: 25 * time.Minute, FirstUse: &now, LastUse: &now, Grants: 2}, now, settings.DailyLimit, 85, nil)
	text, err := writer.Write(ctx, domain.NewWriteRequest(sample, nil, 1))
	if err != nil {
		return info, "", nil, err
	}
	return info, text, domain.Validate(text, sample), nil
}

func (s *TriggerService) loadFlags(ctx context.Context, scopes []string) (domain.FlagSet, error) {
	flags, err := s.flags.Load(ctx, scopes)
	if err != nil {
		return nil, fmt.Errorf("load trigger flags: %w", err)
	}
	return flags, nil
}

func terminalAt(d domain.Decision, flags domain.FlagSet, now time.Time) *time.Time {
	if d.Trigger == domain.TriggerTerminal {
		return &now
	}
	if at, ok := flags.Fired(clock.DayKey(now), domain.TriggerTerminal); ok {
		return &at
	}
	return nil
}
