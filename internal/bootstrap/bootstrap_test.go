package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"scrollkitty/internal/platform/config"
)

func newApp(t *testing.T, apps ...string) *App {
	t.Helper()
	ctx := context.Background()
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)
	settings := cfg.Settings
	settings.TrackedApps = apps
	settings.DailyLimitMinutes = 60
	require.NoError(t, cfg.SaveSettings(settings))
	cfg, err = config.Load(cfg.DataDir)
	require.NoError(t, err)

	app, err := New(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func TestNewTracksConfiguredApps(t *testing.T) {
	app := newApp(t, "tiktok", "youtube")

	status, err := app.Status(context.Background())
	require.NoError(t, err)
	require.Equal(t, 100, status.Health.Aggregate)
	require.Equal(t, "healthy", status.Health.Band)
	require.Len(t, status.Health.Apps, 2)
	require.Zero(t, status.Counters.GrantCount)
	require.Empty(t, status.Flags)
}

func TestGrantThenEvaluateFillsStatus(t *testing.T) {
	ctx := context.Background()
	app := newApp(t, "tiktok", "youtube")

	granted, err := app.UsageCLI.Grant(ctx, "tiktok", "TikTok", 25, 10)
	require.NoError(t, err)
	require.True(t, granted.Applied)
	require.Equal(t, 75, granted.HealthAfter)

	result, err := app.NarrativeCLI.Evaluate(ctx, "grant")
	require.NoError(t, err)
	require.True(t, result.Fired)
	require.NotEmpty(t, result.Message)

	status, err := app.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, 75, status.Health.Aggregate)
	require.Equal(t, 1, status.Counters.GrantCount)
	require.Equal(t, 10*time.Minute, status.Counters.Used)
	require.NotEmpty(t, status.Flags)
}

func TestReloadAppliesEditedApps(t *testing.T) {
	ctx := context.Background()
	app := newApp(t, "tiktok")

	_, err := app.UsageCLI.Grant(ctx, "tiktok", "TikTok", 50, 20)
	require.NoError(t, err)

	settings := app.Config.Settings
	settings.TrackedApps = []string{"tiktok", "reddit"}
	require.NoError(t, app.Config.SaveSettings(settings))
	require.NoError(t, app.Reload(ctx))
	require.Equal(t, []string{"tiktok", "reddit"}, app.Config.Settings.TrackedApps)

	status, err := app.Status(ctx)
	require.NoError(t, err)
	require.Len(t, status.Health.Apps, 2)
	require.Equal(t, 50, status.Health.Aggregate)
}

func TestNarrativeSettingsRejectsBadNightlyTime(t *testing.T) {
	settings := config.Defaults()
	settings.NightlyAt = "late"
	_, err := NarrativeSettings(settings)
	require.Error(t, err)
}
