package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"scrollkitty/internal/platform/config"
)

// Watch runs the resident loop until ctx is done: a day rollover shortly after
// local midnight, a periodic evaluation, and a reload on every settings edit.
// Fired narratives are printed to out.
func (a *App) Watch(ctx context.Context, out io.Writer) error {
	loc, err := a.Config.Settings.Location()
	if err != nil {
		return err
	}
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(loc))
	if err != nil {
		return fmt.Errorf("new scheduler: %w", err)
	}

	if _, err := scheduler.NewJob(
		gocron.CronJob("0 0 * * *", false),
		gocron.NewTask(func() { a.rollover(ctx) }),
		gocron.WithName("day-rollover"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		return fmt.Errorf("schedule rollover: %w", err)
	}
	if _, err := scheduler.NewJob(
		gocron.DurationJob(a.Config.Settings.CheckInterval),
		gocron.NewTask(func() { a.evaluate(ctx, out, "periodic") }),
		gocron.WithName("evaluate"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		return fmt.Errorf("schedule evaluation: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(a.Config.FilePath), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	a.evaluate(ctx, out, "foreground")
	scheduler.Start()
	defer func() {
		if err := scheduler.Shutdown(); err != nil {
			a.logger.Warn("scheduler shutdown", zap.Error(err))
		}
	}()

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return config.Watch(groupCtx, a.Config.FilePath, func() {
			if err := a.Reload(groupCtx); err != nil {
				a.logger.Warn("settings reload failed", zap.Error(err))
				return
			}
			a.logger.Info("settings reloaded", zap.Strings("tracked_apps", a.Config.Settings.TrackedApps))
		})
	})
	return group.Wait()
}

func (a *App) rollover(ctx context.Context) {
	reset, err := a.HealthCLI.EnsureDay(ctx)
	if err != nil {
		a.logger.Error("day rollover failed", zap.Error(err))
		return
	}
	if reset {
		a.logger.Info("health refilled for the new day")
	}
}

func (a *App) evaluate(ctx context.Context, out io.Writer, reason string) {
	result, err := a.NarrativeCLI.Evaluate(ctx, reason)
	if err != nil {
		a.logger.Error("evaluation failed", zap.String("reason", reason), zap.Error(err))
		return
	}
	if result.Fired && result.Message != "" {
		_, _ = fmt.Fprintf(out, "%s %s\n", result.Emoji, result.Message)
	}
}
