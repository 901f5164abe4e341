package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	"golang.org/x/sync/errgroup"

	"github.com/evcraddock/campbook/internal/availability"
	"github.com/evcraddock/campbook/internal/calday"
	"github.com/evcraddock/campbook/internal/changefeed"
	"github.com/evcraddock/campbook/internal/config"
	"github.com/evcraddock/campbook/internal/db"
	"github.com/evcraddock/campbook/internal/guest"
	"github.com/evcraddock/campbook/internal/index"
	"github.com/evcraddock/campbook/internal/planner"
	"github.com/evcraddock/campbook/internal/reservation"
	"github.com/evcraddock/campbook/internal/unit"
	"github.com/evcraddock/campbook/internal/web"
)

// app is a fully wired server process.
type app struct {
	cfg         *config.Config
	db          *sql.DB
	rdb         *redis.Client
	svc         *availability.Service
	notifier    *changefeed.Notifier
	maintenance *changefeed.Maintenance
	relay       *changefeed.Relay
	server      *web.Server
}

// newApp opens the store, seeds the inventory and wires every component.
// Nothing runs until Run.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	clock, err := calday.NewSystemClock(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", cfg.Timezone, err)
	}

	database, err := db.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, db: database}

	units := unit.NewRepository(database)
	n, err := units.Seed(ctx, cfg.UnitSpecs())
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("seeding inventory: %w", err)
	}
	slog.Info("inventory loaded", "units", n)

	if cfg.UsesRedis() {
		a.rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var cache planner.Cache
	switch cfg.Cache.Backend {
	case "memory":
		cache = planner.NewMemoryCache(cfg.Cache.TTL)
	case "redis":
		cache = planner.NewRedisCache(a.rdb, cfg.Redis.Prefix, cfg.Cache.TTL)
	}

	idx := index.New()
	a.svc = availability.NewService(
		units,
		reservation.NewRepository(database),
		guest.NewRepository(database),
		idx,
		planner.New(idx, cache),
	)

	changes := changefeed.NewSQLiteFeed(database, cfg.Feed.PollInterval, cfg.Feed.BatchSize)
	var feed changefeed.Feed = changes
	if cfg.Feed.Transport == "redis" {
		feed = changefeed.NewRedisFeed(a.rdb, cfg.Feed.Channel, changes)
	}
	if cfg.Feed.Relay {
		a.relay = changefeed.NewRelay(changes, changes, a.rdb, cfg.Feed.Channel)
	}

	a.notifier = changefeed.NewNotifier(feed, changes, a.svc, idx, changefeed.Backoff{
		Initial: cfg.Feed.BackoffInitial,
		Max:     cfg.Feed.BackoffMax,
	})
	a.notifier.Subscribe(func(units []string) {
		if units == nil {
			slog.Debug("availability reloaded")
			return
		}
		slog.Debug("availability changed", "units", units)
	})

	a.maintenance, err = changefeed.NewMaintenance(changefeed.MaintenanceConfig{
		ResyncSchedule: cfg.Maintenance.ResyncCron,
		PruneSchedule:  cfg.Maintenance.PruneCron,
		Retention:      cfg.Maintenance.ChangeRetention,
	}, a.notifier, changes)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.server = web.NewServer(a.svc, clock, web.WithResync(a.notifier.RequestResync))
	return a, nil
}

// Run serves until ctx is cancelled or a component fails.
func (a *app) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return a.notifier.Run(ctx) })
	if a.relay != nil {
		g.Go(func() error { return a.runRelay(ctx) })
	}
	g.Go(func() error { return a.server.ListenAndServe(ctx, a.cfg.Listen) })

	a.maintenance.Start()
	defer a.maintenance.Stop()

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// runRelay keeps the change relay running, restarting it after Redis
// errors.
func (a *app) runRelay(ctx context.Context) error {
	backoff := changefeed.Backoff{Initial: a.cfg.Feed.BackoffInitial, Max: a.cfg.Feed.BackoffMax}
	var delay time.Duration
	for {
		err := a.relay.Run(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		delay = backoff.Next(delay)
		slog.Warn("change relay stopped, restarting", "error", err, "retry_in", delay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

// Close releases the database and Redis connections.
func (a *app) Close() {
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			warn("closing redis: %v", err)
		}
	}
	if err := a.db.Close(); err != nil {
		warn("closing database: %v", err)
	}
}
