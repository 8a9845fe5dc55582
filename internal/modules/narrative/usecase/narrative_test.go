package usecase_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	healthout "scrollkitty/internal/modules/health/adapter/out"
	healthdto "scrollkitty/internal/modules/health/dto"
	healthin "scrollkitty/internal/modules/health/port/in"
	healthservice "scrollkitty/internal/modules/health/service"
	healthusecase "scrollkitty/internal/modules/health/usecase"
	narrativeout "scrollkitty/internal/modules/narrative/adapter/out"
	"scrollkitty/internal/modules/narrative/domain"
	"scrollkitty/internal/modules/narrative/dto"
	narrativein "scrollkitty/internal/modules/narrative/port/in"
	"scrollkitty/internal/modules/narrative/service"
	"scrollkitty/internal/modules/narrative/usecase"
	timelineout "scrollkitty/internal/modules/timeline/adapter/out"
	timelinein "scrollkitty/internal/modules/timeline/port/in"
	timelineservice "scrollkitty/internal/modules/timeline/service"
	timelineusecase "scrollkitty/internal/modules/timeline/usecase"
	usageout "scrollkitty/internal/modules/usage/adapter/out"
	usagedto "scrollkitty/internal/modules/usage/dto"
	usagein "scrollkitty/internal/modules/usage/port/in"
	usageservice "scrollkitty/internal/modules/usage/service"
	usageusecase "scrollkitty/internal/modules/usage/usecase"
	"scrollkitty/internal/platform/id"
	"scrollkitty/internal/platform/sqlitedb"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t
}

type harness struct {
	db       *sql.DB
	clock    *fakeClock
	health   healthin.Usecase
	usage    usagein.Usecase
	timeline timelinein.Usecase
	catalog  domain.Catalog
}

var defaultSettings = dto.SettingsInput{
	DailyLimitMinutes:    60,
	NightlyHour:          22,
	NightlyMinute:        0,
	NightlyWindowMinutes: 30,
	HistoryWindow:        5,
	WriterAttempts:       3,
}

func newHarness(t *testing.T, clk *fakeClock, apps ...string) harness {
	t.Helper()
	ctx := context.Background()
	db, err := sqlitedb.Open(ctx, filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	ledgerStore, err := healthout.NewSQLiteLedgerStore(ctx, db, time.UTC)
	if err != nil {
		t.Fatalf("ledger store: %v", err)
	}
	health := healthusecase.NewInteractor(healthservice.NewLedgerService(clk, ledgerStore, healthout.NewMemoryAggregateCache(time.Minute), zap.NewNop()))
	if _, err := health.Initialize(ctx, healthdto.InitializeInput{AppIDs: apps}); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	eventStore, err := timelineout.NewSQLiteEventStore(ctx, db, time.UTC)
	if err != nil {
		t.Fatalf("event store: %v", err)
	}
	timeline := timelineusecase.NewInteractor(timelineservice.NewEventService(clk, id.UUID{}, eventStore, 100, zap.NewNop()))

	counterStore, err := usageout.NewSQLiteCounterStore(ctx, db, time.UTC)
	if err != nil {
		t.Fatalf("counter store: %v", err)
	}
	usage := usageusecase.NewInteractor(usageservice.NewUsageService(clk, counterStore, usageout.NewHealthAdapter(health), usageout.NewTimelineAdapter(timeline), zap.NewNop()))

	catalog, err := narrativeout.LoadEmbeddedCatalog()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return harness{db: db, clock: clk, health: health, usage: usage, timeline: timeline, catalog: catalog}
}

// narrator builds a narrative stack over the shared state. Two narrators on
// one database behave like two processes.
func (h harness) narrator(t *testing.T, settings service.Settings) narrativein.Usecase {
	t.Helper()
	ctx := context.Background()
	flags, err := narrativeout.NewSQLiteFlagStore(ctx, h.db, time.UTC)
	if err != nil {
		t.Fatalf("flag store: %v", err)
	}
	history, err := narrativeout.NewSQLiteHistoryStore(ctx, h.db, time.UTC)
	if err != nil {
		t.Fatalf("history store: %v", err)
	}
	messages := service.NewMessageService(h.catalog, history, nil, nil, zap.NewNop())
	svc := service.NewTriggerService(
		h.clock,
		flags,
		history,
		narrativeout.NewHealthAdapter(h.health),
		narrativeout.NewUsageAdapter(h.usage),
		narrativeout.NewTimelineAdapter(h.timeline),
		messages,
		settings,
		zap.NewNop(),
	)
	return usecase.NewInteractor(svc)
}

func evaluate(t *testing.T, n narrativein.Usecase) dto.EvaluateOutput {
	t.Helper()
	out, err := n.Evaluate(context.Background(), dto.EvaluateInput{Reason: "foreground"})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	return out
}

func grant(t *testing.T, h harness, app string, amount float64, minutes int) usagedto.GrantOutput {
	t.Helper()
	out, err := h.usage.Grant(context.Background(), usagedto.GrantInput{AppID: app, Amount: amount, Minutes: minutes})
	if err != nil {
		t.Fatalf("grant: %v", err)
	}
	return out
}

func TestWelcomeOnceThenDailyWelcome(t *testing.T) {
	t.Parallel()
	day1 := time.Date(2026, 9, 14, 9, 0, 0, 0, time.UTC)
	clk := &fakeClock{now: day1}
	h := newHarness(t, clk, "instagram")
	n := h.narrator(t, usecase.SettingsFrom(defaultSettings))

	first := evaluate(t, n)
	if !first.Fired || first.Trigger != string(domain.TriggerWelcomeOnce) || first.Message == "" || first.EventID == "" {
		t.Fatalf("expected welcome_once, got %+v", first)
	}
	if again := evaluate(t, n); again.Fired {
		t.Fatalf("nothing should fire twice, got %+v", again)
	}

	clk.Set(day1.Add(24 * time.Hour))
	next := evaluate(t, n)
	if next.Trigger != string(domain.TriggerDailyWelcome) {
		t.Fatalf("expected daily_welcome, got %+v", next)
	}
	if again := evaluate(t, n); again.Fired {
		t.Fatalf("daily welcome fired twice: %+v", again)
	}
}

func TestBandDropNarratedOncePerGrant(t *testing.T) {
	t.Parallel()
	clk := &fakeClock{now: time.Date(2026, 9, 14, 9, 0, 0, 0, time.UTC)}
	h := newHarness(t, clk, "tiktok")
	n := h.narrator(t, usecase.SettingsFrom(defaultSettings))
	evaluate(t, n)

	clk.Set(clk.Now().Add(time.Hour))
	g := grant(t, h, "tiktok", 25, 20)
	if g.Band != "worn" {
		t.Fatalf("unexpected grant %+v", g)
	}
	drop := evaluate(t, n)
	if drop.Trigger != string(domain.TriggerHealthBandDrop) || drop.Band != "worn" || drop.Health != 75 {
		t.Fatalf("expected band drop, got %+v", drop)
	}
	if again := evaluate(t, n); again.Fired {
		t.Fatalf("band drop narrated twice: %+v", again)
	}

	clk.Set(clk.Now().Add(time.Hour))
	grant(t, h, "tiktok", 5, 5)
	if same := evaluate(t, n); same.Fired {
		t.Fatalf("grant within one band must stay silent: %+v", same)
	}
}

func TestNightlyPastLimitNeverClaimsWithin(t *testing.T) {
	t.Parallel()
	start := time.Date(2026, 9, 14, 8, 0, 0, 0, time.UTC)
	clk := &fakeClock{now: start}
	h := newHarness(t, clk, "tiktok")
	n := h.narrator(t, usecase.SettingsFrom(defaultSettings))

	for i := 0; i < 5; i++ {
		clk.Set(start.Add(time.Duration(i) * time.Hour))
		grant(t, h, "tiktok", 5, 20)
	}
	clk.Set(time.Date(2026, 9, 14, 21, 50, 0, 0, time.UTC))
	out := evaluate(t, n)
	if out.Trigger != string(domain.TriggerNightly) || out.Band != "worn" {
		t.Fatalf("expected worn nightly, got %+v", out)
	}
	lower := strings.ToLower(out.Message)
	for _, banned := range []string{"under your limit", "within your limit"} {
		if strings.Contains(lower, banned) {
			t.Fatalf("past-limit nightly says %q: %q", banned, out.Message)
		}
	}
	latest, ok, err := h.timeline.Latest(context.Background(), "narrative_generated")
	if err != nil || !ok {
		t.Fatalf("latest narrative: %v %v", ok, err)
	}
	if latest.Trigger != string(domain.TriggerNightly) || latest.Message != out.Message {
		t.Fatalf("unexpected latest narrative %+v", latest)
	}

	// The last grant crossed into worn, so that is narrated next; nightly is done.
	if next := evaluate(t, n); next.Trigger != string(domain.TriggerHealthBandDrop) {
		t.Fatalf("expected band drop after nightly, got %+v", next)
	}
	if again := evaluate(t, n); again.Fired && again.Trigger == string(domain.TriggerNightly) {
		t.Fatalf("nightly fired twice")
	}
}

func TestConcurrentEvaluationsFireTerminalOnce(t *testing.T) {
	t.Parallel()
	clk := &fakeClock{now: time.Date(2026, 9, 14, 15, 0, 0, 0, time.UTC)}
	h := newHarness(t, clk, "tiktok")
	narrators := []narrativein.Usecase{
		h.narrator(t, usecase.SettingsFrom(defaultSettings)),
		h.narrator(t, usecase.SettingsFrom(defaultSettings)),
	}
	if g := grant(t, h, "tiktok", 100, 90); g.HealthAfter != 0 {
		t.Fatalf("expected empty health, got %+v", g)
	}

	var (
		mu     sync.Mutex
		counts = map[string]int{}
	)
	var g errgroup.Group
	for i := 0; i < 1000; i++ {
		n := narrators[i%len(narrators)]
		g.Go(func() error {
			out, err := n.Evaluate(context.Background(), dto.EvaluateInput{Reason: "periodic"})
			if err != nil {
				return err
			}
			if out.Fired {
				mu.Lock()
				counts[out.Trigger]++
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if counts[string(domain.TriggerTerminal)] != 1 {
		t.Fatalf("terminal fired %d times", counts[string(domain.TriggerTerminal)])
	}
	if counts[string(domain.TriggerWelcomeOnce)] != 1 {
		t.Fatalf("welcome fired %d times", counts[string(domain.TriggerWelcomeOnce)])
	}
	if len(counts) != 2 {
		t.Fatalf("unexpected triggers %v", counts)
	}
}

func TestInterceptFollowsHealth(t *testing.T) {
	t.Parallel()
	clk := &fakeClock{now: time.Date(2026, 9, 14, 12, 0, 0, 0, time.UTC)}
	h := newHarness(t, clk, "tiktok")
	n := h.narrator(t, usecase.SettingsFrom(defaultSettings))

	full, err := n.Intercept(context.Background())
	if err != nil {
		t.Fatalf("intercept: %v", err)
	}
	if full.Band != "healthy" || len(full.AllowedMinutes) == 0 || full.Redirect == "" || full.PainAcknowledge == "" {
		t.Fatalf("unexpected interception %+v", full)
	}
	if len(full.AllowedLabels) != len(full.AllowedMinutes) {
		t.Fatalf("labels do not match minutes: %+v", full)
	}

	grant(t, h, "tiktok", 100, 60)
	dead, err := n.Intercept(context.Background())
	if err != nil {
		t.Fatalf("intercept: %v", err)
	}
	if dead.Band != "dead" || len(dead.AllowedMinutes) != 0 {
		t.Fatalf("dead health must allow nothing, got %+v", dead)
	}
}

func TestEvaluateRejectsUnknownReason(t *testing.T) {
	t.Parallel()
	clk := &fakeClock{now: time.Date(2026, 9, 14, 12, 0, 0, 0, time.UTC)}
	h := newHarness(t, clk, "tiktok")
	n := h.narrator(t, usecase.SettingsFrom(defaultSettings))
	if _, err := n.Evaluate(context.Background(), dto.EvaluateInput{Reason: "boredom"}); err == nil {
		t.Fatalf("expected invalid reason error")
	}
	flags, err := n.Flags(context.Background())
	if err != nil || len(flags) != 0 {
		t.Fatalf("expected no flags, got %v %v", flags, err)
	}
}
