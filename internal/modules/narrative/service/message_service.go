package service

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"

	"go.uber.org/zap"

	"scrollkitty/internal/modules/narrative/domain"
	narrativeout "scrollkitty/internal/modules/narrative/port/out"
	apperrors "scrollkitty/internal/platform/errors"
	"scrollkitty/internal/platform/logging"
)

const (
	SourceTemplate = "template"
	SourceWriter   = "writer"
)

// Message is composed narrative text ready for delivery.
type Message struct {
	Text       string
	Emoji      string
	TemplateID string
	Source     string
	Attempts   int
}

// ComposeOptions are the per-call knobs read from settings.
type ComposeOptions struct {
	HistoryWindow  int
	WriterAttempts int
}

// MessageService turns a context into text: through the writer when one is
// configured and its output validates, otherwise from the template catalog.
type MessageService struct {
	catalog domain.Catalog
	history narrativeout.HistoryStore
	writer  narrativeout.Writer
	rnd     domain.RandomSource
	logger  *zap.Logger
}

// NewMessageService accepts a nil writer and a nil random source.
func NewMessageService(catalog domain.Catalog, history narrativeout.HistoryStore, writer narrativeout.Writer, rnd domain.RandomSource, logger *zap.Logger) *MessageService {
	if rnd == nil {
		rnd = processRand{}
	}
	return &MessageService{
		catalog: catalog,
		history: history,
		writer:  writer,
		rnd:     &lockedRand{src: rnd},
		logger:  logging.OrNop(logger),
	}
}

func (s *MessageService) Compose(ctx context.Context, c domain.DailyContext, opts ComposeOptions) (Message, error) {
	history := s.recent(ctx, c.Trigger, opts.HistoryWindow)

	pool := s.catalog.Pool(domain.PoolKey{Trigger: c.Trigger, Band: c.Band})
	fallback, err := domain.Select(pool, history, c, s.rnd)
	if err != nil {
		return Message{}, err
	}
	msg := Message{Text: fallback.Text, Emoji: fallback.Template.Emoji, TemplateID: fallback.Template.ID, Source: SourceTemplate}
	if s.writer == nil {
		return msg, nil
	}

	attempts := opts.WriterAttempts
	if attempts <= 0 {
		attempts = 1
	}
	avoid := make([]string, 0, len(history))
	for _, h := range history {
		avoid = append(avoid, h.RenderedText)
	}
	for attempt := 1; attempt <= attempts; attempt++ {
		text, err := s.writer.Write(ctx, domain.NewWriteRequest(c, avoid, attempt))
		if err != nil {
			if errors.Is(err, apperrors.ErrWriterNotEnabled) {
				break
			}
			if ctx.Err() != nil {
				return Message{}, ctx.Err()
			}
			s.logger.Warn("writer failed", zap.Int("attempt", attempt), zap.Error(err))
			continue
		}
		if err := domain.Check(text, c); err != nil {
			s.logger.Debug("writer output rejected",
				zap.Int("attempt", attempt),
				zap.String("trigger", string(c.Trigger)),
				zap.Error(err))
			continue
		}
		return Message{Text: text, Emoji: msg.Emoji, Source: SourceWriter, Attempts: attempt}, nil
	}
	s.logger.Info("writer exhausted, using template",
		zap.String("trigger", string(c.Trigger)),
		zap.String("template", msg.TemplateID))
	msg.Attempts = attempts
	return msg, nil
}

// Intercept picks the interception strings for health.
func (s *MessageService) Intercept(health int) domain.Interception {
	return domain.Intercept(s.catalog, health, s.rnd)
}

// Writer reports the configured writer, or nil.
func (s *MessageService) Writer() narrativeout.Writer {
	return s.writer
}

func (s *MessageService) recent(ctx context.Context, trigger domain.Trigger, window int) []domain.HistoryEntry {
	if window <= 0 {
		window = domain.DefaultHistoryWindow
	}
	history, err := s.history.Recent(ctx, domain.FamilyTriggers(trigger.Family()), window)
	if err != nil {
		s.logger.Warn("message history unreadable, selecting without it", zap.Error(err))
		return nil
	}
	return history
}

type processRand struct{}

func (processRand) IntN(n int) int { return rand.IntN(n) }

type lockedRand struct {
	mu  sync.Mutex
	src domain.RandomSource
}

func (r *lockedRand) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.src.IntN(n)
}
