package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"scrollkitty/internal/modules/narrative/domain"
	"scrollkitty/internal/platform/healthband"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type firstPick struct{}

func (firstPick) IntN(int) int { return 0 }

type memoryFlags struct {
	mu      sync.Mutex
	set     domain.FlagSet
	steal   int
	loadErr error
	claims  int
	// contested claims always lose without recording anything.
	contested bool
}

func newMemoryFlags() *memoryFlags {
	return &memoryFlags{set: domain.FlagSet{}}
}

func (m *memoryFlags) Load(_ context.Context, scopes []string) (domain.FlagSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	out := domain.FlagSet{}
	for _, scope := range scopes {
		for k, v := range m.set {
			if k.Scope == scope {
				out[k] = v
			}
		}
	}
	return out, nil
}

// Claim loses the next steal claims as if another process got there first.
func (m *memoryFlags) Claim(_ context.Context, scope string, trigger domain.Trigger, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.claims++
	if m.contested {
		return false, nil
	}
	key := domain.FlagKey{Scope: scope, Trigger: trigger}
	if _, ok := m.set[key]; ok {
		return false, nil
	}
	m.set[key] = at
	if m.steal > 0 {
		m.steal--
		return false, nil
	}
	return true, nil
}

type memoryHistory struct {
	mu      sync.Mutex
	entries []domain.HistoryEntry
}

func (m *memoryHistory) Append(_ context.Context, e domain.HistoryEntry, retain int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	if len(m.entries) > retain {
		m.entries = m.entries[len(m.entries)-retain:]
	}
	return nil
}

func (m *memoryHistory) Recent(_ context.Context, triggers []domain.Trigger, limit int) ([]domain.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.HistoryEntry
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		for _, t := range triggers {
			if m.entries[i].Trigger == t {
				out = append(out, m.entries[i])
				break
			}
		}
	}
	return out, nil
}

type staticHealth struct{ value int }

func (staticHealth) EnsureDay(context.Context) error          { return nil }
func (h staticHealth) Aggregate(context.Context) (int, error) { return h.value, nil }

type staticUsage struct {
	usage domain.Usage
	err   error
}

func (u staticUsage) Today(context.Context) (domain.Usage, error) { return u.usage, u.err }

type memoryTimeline struct {
	mu      sync.Mutex
	grant   *domain.GrantSnapshot
	records []domain.NarrativeRecord
}

func (m *memoryTimeline) LatestGrant(context.Context) (*domain.GrantSnapshot, error) {
	return m.grant, nil
}

func (m *memoryTimeline) RecordNarrative(_ context.Context, r domain.NarrativeRecord) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, r)
	return fmt.Sprintf("narrative-%d", len(m.records)), nil
}

type scriptedWriter struct {
	mu      sync.Mutex
	replies []string
	calls   []domain.WriteRequest
	err     error
}

func (w *scriptedWriter) Info(context.Context) (domain.WriterInfo, error) {
	return domain.WriterInfo{Name: "scripted", Version: "1.0.0"}, nil
}

func (w *scriptedWriter) Write(_ context.Context, r domain.WriteRequest) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls = append(w.calls, r)
	if w.err != nil {
		return "", w.err
	}
	if len(w.replies) == 0 {
		return "", errors.New("no reply scripted")
	}
	reply := w.replies[0]
	w.replies = w.replies[1:]
	return reply, nil
}

func testCatalog() domain.Catalog {
	c := domain.NewCatalog()
	for _, key := range domain.RequiredPools() {
		c.Pools[key] = []domain.Template{{
			ID:    fmt.Sprintf("%s-%s-plain", key.Trigger, key.Band),
			Text:  "{used} so far today. I'm here with you.",
			Emoji: "🐱",
		}}
	}
	for _, b := range healthband.All {
		c.Redirect[b] = []string{"Maybe a walk instead?"}
		c.Pain[b] = []string{"That one stings."}
	}
	return c
}
