package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	dirName  = ".scrollkitty"
	fileName = "config.yaml"
)

type Config struct {
	DataDir  string
	DBPath   string
	FilePath string
	Settings Settings
}

// Settings are the user-editable knobs. The file is written by the settings
// collaborator; SCROLLKITTY_* environment variables override it.
type Settings struct {
	TrackedApps          []string      `yaml:"tracked_apps" env:"SCROLLKITTY_TRACKED_APPS" envSeparator:","`
	DailyLimitMinutes    int           `yaml:"daily_limit_minutes" env:"SCROLLKITTY_DAILY_LIMIT_MINUTES"`
	Timezone             string        `yaml:"timezone" env:"SCROLLKITTY_TIMEZONE"`
	NightlyAt            string        `yaml:"nightly_at" env:"SCROLLKITTY_NIGHTLY_AT"`
	NightlyWindowMinutes int           `yaml:"nightly_window_minutes" env:"SCROLLKITTY_NIGHTLY_WINDOW_MINUTES"`
	EventLogCapacity     int           `yaml:"event_log_capacity" env:"SCROLLKITTY_EVENT_LOG_CAPACITY"`
	HistoryWindow        int           `yaml:"history_window" env:"SCROLLKITTY_HISTORY_WINDOW"`
	WriterPlugin         string        `yaml:"writer_plugin" env:"SCROLLKITTY_WRITER_PLUGIN"`
	WriterAttempts       int           `yaml:"writer_attempts" env:"SCROLLKITTY_WRITER_ATTEMPTS"`
	CheckInterval        time.Duration `yaml:"check_interval" env:"SCROLLKITTY_CHECK_INTERVAL"`
}

func Defaults() Settings {
	return Settings{
		NightlyAt:            "22:00",
		NightlyWindowMinutes: 10,
		EventLogCapacity:     100,
		HistoryWindow:        5,
		WriterAttempts:       3,
		CheckInterval:        time.Minute,
	}
}

func New(dataDir string) (Config, error) {
	if strings.TrimSpace(dataDir) == "" {
		return Config{}, fmt.Errorf("data path is required")
	}
	root := filepath.Join(dataDir, dirName)
	return Config{
		DataDir:  dataDir,
		DBPath:   filepath.Join(root, "state.db"),
		FilePath: filepath.Join(root, fileName),
		Settings: Defaults(),
	}, nil
}

// Load builds a Config from defaults, the settings file (if present) and the environment.
func Load(dataDir string) (Config, error) {
	cfg, err := New(dataDir)
	if err != nil {
		return Config{}, err
	}
	settings, err := ReadSettings(cfg.FilePath)
	if err != nil {
		return Config{}, err
	}
	if err := env.Parse(&settings); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	settings.normalize()
	if err := settings.Validate(); err != nil {
		return Config{}, err
	}
	cfg.Settings = settings
	return cfg, nil
}

// ReadSettings decodes the settings file over Defaults. A missing file yields Defaults.
func ReadSettings(path string) (Settings, error) {
	settings := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}
	if err := yaml.Unmarshal(raw, &settings); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	return settings, nil
}

func (c Config) SaveSettings(settings Settings) error {
	settings.normalize()
	if err := settings.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(c.FilePath), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	raw, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.WriteFile(c.FilePath, raw, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

func (s *Settings) normalize() {
	seen := map[string]struct{}{}
	apps := make([]string, 0, len(s.TrackedApps))
	for _, app := range s.TrackedApps {
		app = strings.TrimSpace(app)
		if app == "" {
			continue
		}
		if _, ok := seen[app]; ok {
			continue
		}
		seen[app] = struct{}{}
		apps = append(apps, app)
	}
	s.TrackedApps = apps
	d := Defaults()
	if s.NightlyAt == "" {
		s.NightlyAt = d.NightlyAt
	}
	if s.NightlyWindowMinutes <= 0 {
		s.NightlyWindowMinutes = d.NightlyWindowMinutes
	}
	if s.EventLogCapacity <= 0 {
		s.EventLogCapacity = d.EventLogCapacity
	}
	if s.HistoryWindow <= 0 {
		s.HistoryWindow = d.HistoryWindow
	}
	if s.WriterAttempts <= 0 {
		s.WriterAttempts = d.WriterAttempts
	}
	if s.CheckInterval <= 0 {
		s.CheckInterval = d.CheckInterval
	}
	if s.DailyLimitMinutes < 0 {
		s.DailyLimitMinutes = 0
	}
}

func (s Settings) Validate() error {
	if _, _, err := s.NightlyClock(); err != nil {
		return err
	}
	if _, err := s.Location(); err != nil {
		return err
	}
	return nil
}

// NightlyClock parses NightlyAt ("HH:MM", 24h).
func (s Settings) NightlyClock() (int, int, error) {
	parsed, err := time.Parse("15:04", strings.TrimSpace(s.NightlyAt))
	if err != nil {
		return 0, 0, fmt.Errorf("nightly_at must be HH:MM: %w", err)
	}
	return parsed.Hour(), parsed.Minute(), nil
}

// Location resolves Timezone; empty means the process local zone.
func (s Settings) Location() (*time.Location, error) {
	if strings.TrimSpace(s.Timezone) == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %s: %w", s.Timezone, err)
	}
	return loc, nil
}

// DailyLimit returns the configured limit, or zero when unset.
func (s Settings) DailyLimit() time.Duration {
	return time.Duration(s.DailyLimitMinutes) * time.Minute
}
