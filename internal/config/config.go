// Package config provides configuration loading for the campbook server.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata" // zone lookups work on hosts without a zoneinfo database

	"gopkg.in/yaml.v3"

	"github.com/evcraddock/campbook/internal/unit"
)

// Config is the root configuration structure.
type Config struct {
	Database    string            `yaml:"database"`
	Timezone    string            `yaml:"timezone"`
	Listen      string            `yaml:"listen"`
	DevMode     bool              `yaml:"dev_mode"`
	Inventory   []InventoryItem   `yaml:"inventory"`
	Feed        FeedConfig        `yaml:"feed"`
	Maintenance MaintenanceConfig `yaml:"maintenance"`
	Cache       CacheConfig       `yaml:"cache"`
	Redis       RedisConfig       `yaml:"redis"`
}

// InventoryItem is either one unit (ID) or a numbered run (Prefix + Count).
type InventoryItem struct {
	ID       string `yaml:"id,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
	Count    int    `yaml:"count,omitempty"`
	Capacity int    `yaml:"capacity"`
	Category string `yaml:"category,omitempty"` // "cabin" or "campsite"; inferred from the id prefix when empty
}

// FeedConfig configures how the server follows reservation changes.
type FeedConfig struct {
	Transport      string        `yaml:"transport"` // "sqlite" or "redis"
	PollInterval   time.Duration `yaml:"poll_interval"`
	BatchSize      int           `yaml:"batch_size"`
	BackoffInitial time.Duration `yaml:"backoff_initial"`
	BackoffMax     time.Duration `yaml:"backoff_max"`
	Channel        string        `yaml:"channel"`
	Relay          bool          `yaml:"relay"` // publish the local change log to Redis
}

// MaintenanceConfig schedules periodic jobs (cron syntax).
type MaintenanceConfig struct {
	ResyncCron      string        `yaml:"resync_cron"`
	PruneCron       string        `yaml:"prune_cron"`
	ChangeRetention time.Duration `yaml:"change_retention"`
}

// CacheConfig configures the projection cache.
type CacheConfig struct {
	Backend string        `yaml:"backend"` // "memory", "redis" or "none"
	TTL     time.Duration `yaml:"ttl"`
}

// RedisConfig configures the Redis connection used by the redis cache and
// feed.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// DefaultPath returns ~/.config/campbook/config.yaml.
func DefaultPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get config dir: %w", err)
	}
	return filepath.Join(configDir, "campbook", "config.yaml"), nil
}

// Load reads configuration from the default location. A missing file
// yields the defaults.
func Load() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	cfg, err := LoadFrom(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	cfg.applyEnv()
	return &cfg
}

// LoadFrom reads configuration from a specific path.
func LoadFrom(path string) (*Config, error) {
	path = expandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// applyDefaults sets default values for unspecified config options.
func (c *Config) applyDefaults() {
	if c.Database == "" {
		c.Database = "~/.campbook/camp.db"
	}
	if c.Timezone == "" {
		c.Timezone = "America/Argentina/Buenos_Aires"
	}
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.Inventory == nil {
		c.Inventory = []InventoryItem{
			{Prefix: "C", Count: 7, Capacity: 4},
			{Prefix: "P", Count: 45, Capacity: 6},
		}
	}
	if c.Feed.Transport == "" {
		c.Feed.Transport = "sqlite"
	}
	if c.Feed.PollInterval == 0 {
		c.Feed.PollInterval = 2 * time.Second
	}
	if c.Feed.BatchSize == 0 {
		c.Feed.BatchSize = 500
	}
	if c.Feed.BackoffInitial == 0 {
		c.Feed.BackoffInitial = 500 * time.Millisecond
	}
	if c.Feed.BackoffMax == 0 {
		c.Feed.BackoffMax = 30 * time.Second
	}
	if c.Feed.Channel == "" {
		c.Feed.Channel = "campbook:changes"
	}
	if c.Maintenance.ResyncCron == "" {
		c.Maintenance.ResyncCron = "0 4 * * *"
	}
	if c.Maintenance.PruneCron == "" {
		c.Maintenance.PruneCron = "30 4 * * *"
	}
	if c.Maintenance.ChangeRetention == 0 {
		c.Maintenance.ChangeRetention = 30 * 24 * time.Hour
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 10 * time.Minute
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "campbook:"
	}
	c.Database = expandPath(c.Database)
}

// applyEnv lets the environment override file settings.
func (c *Config) applyEnv() {
	if v := os.Getenv("CAMPBOOK_DB"); v != "" {
		c.Database = expandPath(v)
	}
	if v := os.Getenv("CAMPBOOK_LISTEN"); v != "" {
		c.Listen = v
	}
	if v := os.Getenv("CAMPBOOK_TIMEZONE"); v != "" {
		c.Timezone = v
	}
}

// Validate checks option values that have a fixed set of choices.
func (c *Config) Validate() error {
	switch c.Feed.Transport {
	case "sqlite", "redis":
	default:
		return fmt.Errorf("feed.transport must be sqlite or redis, got %q", c.Feed.Transport)
	}
	switch c.Cache.Backend {
	case "memory", "redis", "none":
	default:
		return fmt.Errorf("cache.backend must be memory, redis or none, got %q", c.Cache.Backend)
	}
	if c.Feed.BackoffMax < c.Feed.BackoffInitial {
		return fmt.Errorf("feed.backoff_max %s is below feed.backoff_initial %s", c.Feed.BackoffMax, c.Feed.BackoffInitial)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("timezone: %w", err)
	}
	for i, item := range c.Inventory {
		if _, err := item.Spec().Units(); err != nil {
			return fmt.Errorf("inventory[%d]: %w", i, err)
		}
	}
	return nil
}

// UsesRedis reports whether any component needs a Redis connection.
func (c *Config) UsesRedis() bool {
	return c.Feed.Transport == "redis" || c.Feed.Relay || c.Cache.Backend == "redis"
}

// Spec converts the item to a unit spec.
func (i InventoryItem) Spec() unit.Spec {
	return unit.Spec{
		ID:       i.ID,
		Prefix:   i.Prefix,
		Count:    i.Count,
		Capacity: i.Capacity,
		Category: unit.Category(i.Category),
	}
}

// UnitSpecs returns the inventory as unit specs.
func (c *Config) UnitSpecs() []unit.Spec {
	specs := make([]unit.Spec, len(c.Inventory))
	for i, item := range c.Inventory {
		specs[i] = item.Spec()
	}
	return specs
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
