package changefeed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Pruner deletes old change log entries.
type Pruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// MaintenanceConfig holds the cron schedules. An empty schedule disables
// that job.
type MaintenanceConfig struct {
	ResyncSchedule string
	PruneSchedule  string
	Retention      time.Duration
}

// Maintenance runs the periodic jobs: a full resync that bounds how long
// any missed change can go unnoticed, and pruning of the change log.
type Maintenance struct {
	cron *cron.Cron
	now  func() time.Time
}

// NewMaintenance schedules the jobs. Pass a nil pruner to skip pruning,
// e.g. when the change log belongs to another process.
func NewMaintenance(cfg MaintenanceConfig, notifier *Notifier, pruner Pruner) (*Maintenance, error) {
	m := &Maintenance{cron: cron.New(), now: time.Now}

	if cfg.ResyncSchedule != "" {
		if _, err := m.cron.AddFunc(cfg.ResyncSchedule, notifier.RequestResync); err != nil {
			return nil, fmt.Errorf("scheduling resync %q: %w", cfg.ResyncSchedule, err)
		}
	}

	if cfg.PruneSchedule != "" && pruner != nil {
		if cfg.Retention <= 0 {
			return nil, fmt.Errorf("change log retention must be positive, got %s", cfg.Retention)
		}
		job := func() { m.prune(pruner, cfg.Retention) }
		if _, err := m.cron.AddFunc(cfg.PruneSchedule, job); err != nil {
			return nil, fmt.Errorf("scheduling prune %q: %w", cfg.PruneSchedule, err)
		}
	}

	return m, nil
}

func (m *Maintenance) prune(p Pruner, retention time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := m.now().Add(-retention)
	n, err := p.Prune(ctx, cutoff)
	if err != nil {
		slog.Error("pruning change log", "error", err)
		return
	}
	slog.Info("pruned change log", "deleted", n, "cutoff", cutoff.Format(time.RFC3339))
}

// Jobs returns the number of scheduled jobs.
func (m *Maintenance) Jobs() int {
	return len(m.cron.Entries())
}

// Start runs the scheduler in the background.
func (m *Maintenance) Start() {
	m.cron.Start()
}

// Stop stops the scheduler and waits for running jobs.
func (m *Maintenance) Stop() {
	<-m.cron.Stop().Done()
}
