package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	healthinadapter "scrollkitty/internal/modules/health/adapter/in"
	healthoutadapter "scrollkitty/internal/modules/health/adapter/out"
	healthdto "scrollkitty/internal/modules/health/dto"
	healthservice "scrollkitty/internal/modules/health/service"
	healthusecase "scrollkitty/internal/modules/health/usecase"
	narrativeinadapter "scrollkitty/internal/modules/narrative/adapter/in"
	narrativeoutadapter "scrollkitty/internal/modules/narrative/adapter/out"
	narrativedto "scrollkitty/internal/modules/narrative/dto"
	narrativeout "scrollkitty/internal/modules/narrative/port/out"
	narrativeservice "scrollkitty/internal/modules/narrative/service"
	narrativeusecase "scrollkitty/internal/modules/narrative/usecase"
	timelineinadapter "scrollkitty/internal/modules/timeline/adapter/in"
	timelineoutadapter "scrollkitty/internal/modules/timeline/adapter/out"
	timelineservice "scrollkitty/internal/modules/timeline/service"
	timelineusecase "scrollkitty/internal/modules/timeline/usecase"
	usageinadapter "scrollkitty/internal/modules/usage/adapter/in"
	usageoutadapter "scrollkitty/internal/modules/usage/adapter/out"
	usageservice "scrollkitty/internal/modules/usage/service"
	usageusecase "scrollkitty/internal/modules/usage/usecase"
	"scrollkitty/internal/platform/clock"
	"scrollkitty/internal/platform/config"
	"scrollkitty/internal/platform/id"
	"scrollkitty/internal/platform/logging"
	"scrollkitty/internal/platform/sqlitedb"
	uiapp "scrollkitty/internal/ui/app"
)

const aggregateCacheTTL = 30 * time.Second

type App struct {
	Config       config.Config
	HealthCLI    healthinadapter.CLIHandler
	UsageCLI     usageinadapter.CLIHandler
	TimelineCLI  timelineinadapter.CLIHandler
	NarrativeCLI narrativeinadapter.CLIHandler

	logger *zap.Logger
	db     *sql.DB
}

func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	logger = logging.OrNop(logger)
	loc, err := cfg.Settings.Location()
	if err != nil {
		return nil, err
	}
	clk := clock.SystemClock{Location: loc}

	db, err := sqlitedb.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}
	app, err := wire(ctx, cfg, db, clk, loc, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return app, nil
}

func wire(ctx context.Context, cfg config.Config, db *sql.DB, clk clock.Clock, loc *time.Location, logger *zap.Logger) (*App, error) {
	ledgerStore, err := healthoutadapter.NewSQLiteLedgerStore(ctx, db, loc)
	if err != nil {
		return nil, fmt.Errorf("new ledger store: %w", err)
	}
	healthUC := healthusecase.NewInteractor(healthservice.NewLedgerService(
		clk, ledgerStore, healthoutadapter.NewMemoryAggregateCache(aggregateCacheTTL), logger.Named("health"),
	))

	eventStore, err := timelineoutadapter.NewSQLiteEventStore(ctx, db, loc)
	if err != nil {
		return nil, fmt.Errorf("new event store: %w", err)
	}
	timelineUC := timelineusecase.NewInteractor(timelineservice.NewEventService(
		clk, id.UUID{}, eventStore, cfg.Settings.EventLogCapacity, logger.Named("timeline"),
	))

	counterStore, err := usageoutadapter.NewSQLiteCounterStore(ctx, db, loc)
	if err != nil {
		return nil, fmt.Errorf("new counter store: %w", err)
	}
	usageUC := usageusecase.NewInteractor(usageservice.NewUsageService(
		clk,
		counterStore,
		usageoutadapter.NewHealthAdapter(healthUC),
		usageoutadapter.NewTimelineAdapter(timelineUC),
		logger.Named("usage"),
	))

	flagStore, err := narrativeoutadapter.NewSQLiteFlagStore(ctx, db, loc)
	if err != nil {
		return nil, fmt.Errorf("new flag store: %w", err)
	}
	historyStore, err := narrativeoutadapter.NewSQLiteHistoryStore(ctx, db, loc)
	if err != nil {
		return nil, fmt.Errorf("new history store: %w", err)
	}
	catalog, err := narrativeoutadapter.LoadEmbeddedCatalog()
	if err != nil {
		return nil, fmt.Errorf("load template catalog: %w", err)
	}
	var writer narrativeout.Writer
	if cfg.Settings.WriterPlugin != "" {
		writer = narrativeoutadapter.NewPluginWriter(cfg.Settings.WriterPlugin, os.Stderr)
	}
	settings, err := NarrativeSettings(cfg.Settings)
	if err != nil {
		return nil, err
	}
	narrativeLogger := logger.Named("narrative")
	narrativeUC := narrativeusecase.NewInteractor(narrativeservice.NewTriggerService(
		clk,
		flagStore,
		historyStore,
		narrativeoutadapter.NewHealthAdapter(healthUC),
		narrativeoutadapter.NewUsageAdapter(usageUC),
		narrativeoutadapter.NewTimelineAdapter(timelineUC),
		narrativeservice.NewMessageService(catalog, historyStore, writer, nil, narrativeLogger),
		narrativeusecase.SettingsFrom(settings),
		narrativeLogger,
	))

	app := &App{
		Config:       cfg,
		HealthCLI:    healthinadapter.NewCLIHandler(healthUC),
		UsageCLI:     usageinadapter.NewCLIHandler(usageUC),
		TimelineCLI:  timelineinadapter.NewCLIHandler(timelineUC),
		NarrativeCLI: narrativeinadapter.NewCLIHandler(narrativeUC),
		logger:       logger,
		db:           db,
	}
	if err := app.syncTrackedApps(ctx, cfg.Settings); err != nil {
		return nil, err
	}
	return app, nil
}

func (a *App) Close() error {
	return a.db.Close()
}

// NarrativeSettings maps configuration onto narrative settings.
func NarrativeSettings(s config.Settings) (narrativedto.SettingsInput, error) {
	hour, minute, err := s.NightlyClock()
	if err != nil {
		return narrativedto.SettingsInput{}, err
	}
	return narrativedto.SettingsInput{
		DailyLimitMinutes:    s.DailyLimitMinutes,
		NightlyHour:          hour,
		NightlyMinute:        minute,
		NightlyWindowMinutes: s.NightlyWindowMinutes,
		HistoryWindow:        s.HistoryWindow,
		WriterAttempts:       s.WriterAttempts,
	}, nil
}

// syncTrackedApps re-initializes the ledger when the configured app set is
// non-empty. The ledger ignores a set it already tracks.
func (a *App) syncTrackedApps(ctx context.Context, s config.Settings) error {
	if len(s.TrackedApps) == 0 {
		return nil
	}
	out, err := a.HealthCLI.Initialize(ctx, s.TrackedApps)
	if err != nil {
		return fmt.Errorf("initialize tracked apps: %w", err)
	}
	if out.Changed {
		a.logger.Info("tracked apps updated", zap.Int("apps", out.AppCount), zap.Int("aggregate", out.Aggregate))
	}
	return nil
}

// Reload re-reads settings and applies tracked apps and narrative settings.
func (a *App) Reload(ctx context.Context) error {
	cfg, err := config.Load(a.Config.DataDir)
	if err != nil {
		return err
	}
	settings, err := NarrativeSettings(cfg.Settings)
	if err != nil {
		return err
	}
	if err := a.syncTrackedApps(ctx, cfg.Settings); err != nil {
		return err
	}
	a.NarrativeCLI.UpdateSettings(settings)
	a.Config = cfg
	return nil
}

// Status is the combined snapshot shown by the status command and the TUI.
type Status struct {
	Health   healthdto.StatusOutput
	Counters CountersView
	Flags    []narrativedto.FlagOutput
}

type CountersView struct {
	Day        string
	Used       time.Duration
	GrantCount int
}

func (a *App) Status(ctx context.Context) (Status, error) {
	health, err := a.HealthCLI.Status(ctx)
	if err != nil {
		return Status{}, err
	}
	counters, err := a.UsageCLI.Counters(ctx)
	if err != nil {
		return Status{}, err
	}
	flags, err := a.NarrativeCLI.Flags(ctx)
	if err != nil {
		return Status{}, err
	}
	return Status{
		Health: health,
		Counters: CountersView{
			Day:        counters.Day,
			Used:       time.Duration(counters.CumulativeSeconds) * time.Second,
			GrantCount: counters.GrantCount,
		},
		Flags: flags,
	}, nil
}

func RunTUI(app *App) error {
	model := uiapp.NewModel(app.HealthCLI, app.UsageCLI, app.TimelineCLI, app.NarrativeCLI)
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err := program.Run()
	return err
}
