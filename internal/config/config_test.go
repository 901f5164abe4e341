package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/evcraddock/campbook/internal/unit"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFromDefaults(t *testing.T) {
	path := writeConfig(t, "dev_mode: true\n")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if !cfg.DevMode {
		t.Error("DevMode = false, want true")
	}
	if cfg.Listen != "127.0.0.1:8080" {
		t.Errorf("Listen = %q", cfg.Listen)
	}
	if cfg.Feed.Transport != "sqlite" || cfg.Feed.PollInterval != 2*time.Second {
		t.Errorf("Feed = %+v", cfg.Feed)
	}
	if cfg.Maintenance.ChangeRetention != 720*time.Hour {
		t.Errorf("ChangeRetention = %s", cfg.Maintenance.ChangeRetention)
	}
	if cfg.Cache.Backend != "memory" || cfg.Cache.TTL != 10*time.Minute {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if strings.HasPrefix(cfg.Database, "~") {
		t.Errorf("Database not expanded: %q", cfg.Database)
	}

	n := 0
	for _, s := range cfg.UnitSpecs() {
		units, err := s.Units()
		if err != nil {
			t.Fatalf("default inventory: %v", err)
		}
		n += len(units)
	}
	if n != 52 {
		t.Errorf("default inventory has %d units, want 52", n)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
database: /tmp/camp.db
timezone: UTC
inventory:
  - {id: C1, capacity: 4}
  - {prefix: P, count: 3, capacity: 6, category: campsite}
feed:
  transport: redis
  poll_interval: 250ms
  backoff_initial: 1s
  backoff_max: 1m
maintenance:
  resync_cron: "*/15 * * * *"
  change_retention: 48h
cache:
  backend: none
redis:
  addr: redis:6379
  db: 2
`)

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Database != "/tmp/camp.db" {
		t.Errorf("Database = %q", cfg.Database)
	}
	if cfg.Feed.Transport != "redis" || cfg.Feed.PollInterval != 250*time.Millisecond {
		t.Errorf("Feed = %+v", cfg.Feed)
	}
	if cfg.Feed.BackoffMax != time.Minute {
		t.Errorf("BackoffMax = %s", cfg.Feed.BackoffMax)
	}
	if cfg.Maintenance.ResyncCron != "*/15 * * * *" || cfg.Maintenance.PruneCron != "30 4 * * *" {
		t.Errorf("Maintenance = %+v", cfg.Maintenance)
	}
	if cfg.Maintenance.ChangeRetention != 48*time.Hour {
		t.Errorf("ChangeRetention = %s", cfg.Maintenance.ChangeRetention)
	}
	if cfg.Redis.Addr != "redis:6379" || cfg.Redis.DB != 2 {
		t.Errorf("Redis = %+v", cfg.Redis)
	}
	if !cfg.UsesRedis() {
		t.Error("UsesRedis = false with redis transport")
	}

	specs := cfg.UnitSpecs()
	if len(specs) != 2 {
		t.Fatalf("got %d specs, want 2", len(specs))
	}
	if specs[1].Category != unit.Campsite || specs[1].Count != 3 {
		t.Errorf("spec[1] = %+v", specs[1])
	}
}

func TestLoadFromInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad transport", "feed: {transport: kafka}\n", "feed.transport"},
		{"bad cache", "cache: {backend: disk}\n", "cache.backend"},
		{"bad duration", "feed: {poll_interval: soon}\n", "parse config file"},
		{"bad timezone", "timezone: Mars/Olympus\n", "timezone"},
		{"backoff order", "feed: {backoff_initial: 1m, backoff_max: 1s}\n", "backoff_max"},
		{"bad inventory", "inventory:\n  - {id: X1, capacity: 2}\n", "inventory[0]"},
		{"id and prefix", "inventory:\n  - {id: C1, prefix: C, count: 2, capacity: 2}\n", "inventory[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromMissing(t *testing.T) {
	_, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("err = %v, want fs.ErrNotExist", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Feed.Channel != "campbook:changes" {
		t.Errorf("Channel = %q", cfg.Feed.Channel)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CAMPBOOK_DB", "/var/lib/campbook/camp.db")
	t.Setenv("CAMPBOOK_LISTEN", ":9090")
	t.Setenv("CAMPBOOK_TIMEZONE", "Europe/Madrid")

	cfg, err := LoadFrom(writeConfig(t, "database: /tmp/other.db\nlisten: 127.0.0.1:1\n"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Database != "/var/lib/campbook/camp.db" {
		t.Errorf("Database = %q", cfg.Database)
	}
	if cfg.Listen != ":9090" {
		t.Errorf("Listen = %q", cfg.Listen)
	}
	if cfg.Timezone != "Europe/Madrid" {
		t.Errorf("Timezone = %q", cfg.Timezone)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir")
	}
	if got := expandPath("~/x/y.db"); got != filepath.Join(home, "x", "y.db") {
		t.Errorf("expandPath = %q", got)
	}
	if got := expandPath("/abs/y.db"); got != "/abs/y.db" {
		t.Errorf("expandPath = %q", got)
	}
}
