package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestNewDerivesPaths(t *testing.T) {
	t.Parallel()
	cfg, err := New("/tmp/kitty")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if cfg.DBPath != filepath.Join("/tmp/kitty", ".scrollkitty", "state.db") {
		t.Fatalf("unexpected db path %s", cfg.DBPath)
	}
	if _, err := New(" "); err == nil {
		t.Fatalf("expected error for empty data path")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(Defaults(), cfg.Settings, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("settings mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveThenLoadNormalizesApps(t *testing.T) {
	dir := t.TempDir()
	cfg, err := New(dir)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	settings := Defaults()
	settings.TrackedApps = []string{" tiktok ", "instagram", "tiktok", ""}
	settings.DailyLimitMinutes = 60
	if err := cfg.SaveSettings(settings); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff([]string{"tiktok", "instagram"}, loaded.Settings.TrackedApps); diff != "" {
		t.Fatalf("apps mismatch (-want +got):\n%s", diff)
	}
	if loaded.Settings.DailyLimit() != time.Hour {
		t.Fatalf("expected 1h limit, got %s", loaded.Settings.DailyLimit())
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".scrollkitty", "config.yaml")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("daily_limit_minutes: 30\nnightly_at: \"21:30\"\ncheck_interval: 30s\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("SCROLLKITTY_DAILY_LIMIT_MINUTES", "45")
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Settings.DailyLimitMinutes != 45 {
		t.Fatalf("expected env override 45, got %d", cfg.Settings.DailyLimitMinutes)
	}
	h, m, err := cfg.Settings.NightlyClock()
	if err != nil || h != 21 || m != 30 {
		t.Fatalf("expected 21:30, got %d:%d err=%v", h, m, err)
	}
	if cfg.Settings.CheckInterval != 30*time.Second {
		t.Fatalf("expected 30s check interval, got %s", cfg.Settings.CheckInterval)
	}
}

func TestValidateRejectsBadNightlyTime(t *testing.T) {
	t.Parallel()
	s := Defaults()
	s.NightlyAt = "late"
	if err := s.Validate(); err == nil {
		t.Fatalf("expected invalid nightly_at")
	}
	s = Defaults()
	s.Timezone = "Mars/Olympus"
	if err := s.Validate(); err == nil {
		t.Fatalf("expected invalid timezone")
	}
}
