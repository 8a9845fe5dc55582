package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"scrollkitty/internal/bootstrap"
	"scrollkitty/internal/platform/config"
	"scrollkitty/internal/platform/duration"
	apperrors "scrollkitty/internal/platform/errors"
	"scrollkitty/internal/platform/logging"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		_, _ = fmt.Fprintln(os.Stderr, "load .env:", err)
	}
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootFlags struct {
	dataDir string
	verbose bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "scrollkitty",
		Short:         "A cat whose health is your scrolling budget",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.dataDir, "data", "", "data directory (default: home directory)")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(newInitCmd(flags))
	root.AddCommand(newGrantCmd(flags))
	root.AddCommand(newEvaluateCmd(flags))
	root.AddCommand(newStatusCmd(flags))
	root.AddCommand(newTimelineCmd(flags))
	root.AddCommand(newInterceptCmd(flags))
	root.AddCommand(newResetCmd(flags))
	root.AddCommand(newWatchCmd(flags))
	root.AddCommand(newTUICmd(flags))
	root.AddCommand(newWriterCmd(flags))
	return root
}

func (f *rootFlags) config() (config.Config, error) {
	dataDir := f.dataDir
	if strings.TrimSpace(dataDir) == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return config.Config{}, fmt.Errorf("resolve home directory: %w", err)
		}
		dataDir = home
	}
	return config.Load(dataDir)
}

func (f *rootFlags) loadApp(ctx context.Context) (*bootstrap.App, *zap.Logger, error) {
	cfg, err := f.config()
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(f.verbose)
	if err != nil {
		return nil, nil, err
	}
	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, err
	}
	return app, logger, nil
}

// withApp runs fn against a freshly wired app and releases it afterwards.
func (f *rootFlags) withApp(ctx context.Context, fn func(*bootstrap.App) error) error {
	app, logger, err := f.loadApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = app.Close()
		_ = logger.Sync()
	}()
	return fn(app)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newInitCmd(flags *rootFlags) *cobra.Command {
	var apps []string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Set the tracked apps and (re)initialize health",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.config()
			if err != nil {
				return err
			}
			settings := cfg.Settings
			settings.TrackedApps = apps
			if err := cfg.SaveSettings(settings); err != nil {
				return err
			}
			return flags.withApp(cmd.Context(), func(app *bootstrap.App) error {
				status, err := app.HealthCLI.Status(cmd.Context())
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "tracking %d apps, health %d (%s)\n", len(status.Apps), status.Aggregate, status.Band)
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&apps, "apps", nil, "tracked app ids")
	_ = cmd.MarkFlagRequired("apps")
	return cmd
}

func newGrantCmd(flags *rootFlags) *cobra.Command {
	var appID, appName string
	var hp float64
	var minutes int
	cmd := &cobra.Command{
		Use:   "grant",
		Short: "Record granted usage and let the kitty react",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return flags.withApp(ctx, func(app *bootstrap.App) error {
				out, err := app.UsageCLI.Grant(ctx, appID, appName, hp, minutes)
				if err != nil {
					return err
				}
				if !out.Applied {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s is not tracked, health stays %d\n", appID, out.HealthAfter)
					return nil
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %d -> %d (%s)\n", appID, out.HealthBefore, out.HealthAfter, out.Band)
				narrative, err := app.NarrativeCLI.Evaluate(ctx, "grant")
				if err != nil {
					return err
				}
				if narrative.Fired && narrative.Message != "" {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", narrative.Emoji, narrative.Message)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&appID, "app", "", "app id")
	cmd.Flags().StringVar(&appName, "name", "", "display name (defaults to the app id)")
	cmd.Flags().Float64Var(&hp, "hp", 0, "health cost")
	cmd.Flags().IntVar(&minutes, "minutes", 0, "granted minutes")
	_ = cmd.MarkFlagRequired("app")
	_ = cmd.MarkFlagRequired("hp")
	return cmd
}

func newEvaluateCmd(flags *rootFlags) *cobra.Command {
	var reason string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Fire at most one narrative trigger",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return flags.withApp(ctx, func(app *bootstrap.App) error {
				out, err := app.NarrativeCLI.Evaluate(ctx, reason)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), out)
				}
				if !out.Fired {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "nothing to say (health %d)\n", out.Health)
					return nil
				}
				if out.Message == "" {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s fired without a message\n", out.Trigger)
					return nil
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s %s\n", out.Trigger, out.Emoji, out.Message)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "request", "foreground|periodic|request|grant")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newStatusCmd(flags *rootFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show health, today's usage and fired triggers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return flags.withApp(ctx, func(app *bootstrap.App) error {
				status, err := app.Status(ctx)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), status)
				}
				w := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(w, "health %d (%s)\n", status.Health.Aggregate, status.Health.Band)
				for _, a := range status.Health.Apps {
					_, _ = fmt.Fprintf(w, "  %-20s %5.1f / %.0f\n", a.AppID, a.CurrentHP, a.MaxHP)
				}
				_, _ = fmt.Fprintf(w, "today %s: %s over %d grants\n", status.Counters.Day, duration.Format(status.Counters.Used), status.Counters.GrantCount)
				for _, f := range status.Flags {
					_, _ = fmt.Fprintf(w, "  fired %-20s %-12s %s\n", f.Trigger, f.Scope, f.FiredAt)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newTimelineCmd(flags *rootFlags) *cobra.Command {
	var limit int
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "List timeline events, oldest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return flags.withApp(ctx, func(app *bootstrap.App) error {
				events, err := app.TimelineCLI.List(ctx, limit)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), events)
				}
				if len(events) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no events")
					return nil
				}
				for _, e := range events {
					line := fmt.Sprintf("%s  %3d -> %3d  ", e.Timestamp.Format("Jan 2 15:04"), e.HealthBefore, e.HealthAfter)
					if e.Message != "" {
						line += e.Emoji + " " + e.Message
					} else {
						line += e.SourceAppName
					}
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), line)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "max events")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newInterceptCmd(flags *rootFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "intercept",
		Short: "Show what the interception screen would offer",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return flags.withApp(ctx, func(app *bootstrap.App) error {
				out, err := app.NarrativeCLI.Intercept(ctx)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), out)
				}
				w := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(w, "health %d (%s)\n", out.Health, out.Band)
				_, _ = fmt.Fprintln(w, out.PainAcknowledge)
				_, _ = fmt.Fprintln(w, out.Redirect)
				if len(out.AllowedLabels) == 0 {
					_, _ = fmt.Fprintln(w, "no time left today")
					return nil
				}
				_, _ = fmt.Fprintf(w, "allowed: %s\n", strings.Join(out.AllowedLabels, ", "))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newResetCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Refill health and clear today's usage",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return flags.withApp(ctx, func(app *bootstrap.App) error {
				if err := app.UsageCLI.Reset(ctx); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "health refilled")
				return nil
			})
		},
	}
}

func newWatchCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run the resident daemon: midnight rollover, periodic checks, settings reload",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return flags.withApp(ctx, func(app *bootstrap.App) error {
				return app.Watch(ctx, cmd.OutOrStdout())
			})
		},
	}
}

func newTUICmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the scrollkitty terminal UI",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return flags.withApp(cmd.Context(), bootstrap.RunTUI)
		},
	}
}

func newWriterCmd(flags *rootFlags) *cobra.Command {
	writer := &cobra.Command{Use: "writer", Short: "Writer plugin commands"}
	writer.AddCommand(&cobra.Command{
		Use:   "doctor",
		Short: "Start the configured writer and validate one sample",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return flags.withApp(ctx, func(app *bootstrap.App) error {
				out, err := app.NarrativeCLI.CheckWriter(ctx)
				if errors.Is(err, apperrors.ErrWriterNotEnabled) {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no writer plugin configured; templates only")
					return nil
				}
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(w, "%s %s\n", out.Name, out.Version)
				_, _ = fmt.Fprintf(w, "sample: %s\n", out.Sample)
				if len(out.Violations) == 0 {
					_, _ = fmt.Fprintln(w, "sample passes validation")
					return nil
				}
				for _, v := range out.Violations {
					_, _ = fmt.Fprintf(w, "  violation: %s\n", v)
				}
				return fmt.Errorf("writer sample rejected with %d violations", len(out.Violations))
			})
		},
	})
	return writer
}
