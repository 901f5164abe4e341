package changefeed

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/evcraddock/campbook/internal/index"
)

type recordingPruner struct {
	mu     sync.Mutex
	cutoff time.Time
}

func (p *recordingPruner) Prune(_ context.Context, cutoff time.Time) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cutoff = cutoff
	return 4, nil
}

func TestNewMaintenance(t *testing.T) {
	n := NewNotifier(&scriptedFeed{}, &fixedHead{}, &recordingTarget{}, index.New(), fastBackoff)

	tests := []struct {
		name     string
		cfg      MaintenanceConfig
		pruner   Pruner
		wantJobs int
		wantErr  bool
	}{
		{"both", MaintenanceConfig{ResyncSchedule: "0 4 * * *", PruneSchedule: "30 4 * * *", Retention: time.Hour}, &recordingPruner{}, 2, false},
		{"resync only", MaintenanceConfig{ResyncSchedule: "@every 1h"}, nil, 1, false},
		{"prune without pruner", MaintenanceConfig{PruneSchedule: "30 4 * * *", Retention: time.Hour}, nil, 0, false},
		{"disabled", MaintenanceConfig{}, &recordingPruner{}, 0, false},
		{"bad schedule", MaintenanceConfig{ResyncSchedule: "every morning"}, nil, 0, true},
		{"no retention", MaintenanceConfig{PruneSchedule: "30 4 * * *"}, &recordingPruner{}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMaintenance(tt.cfg, n, tt.pruner)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if m.Jobs() != tt.wantJobs {
				t.Errorf("jobs = %d, want %d", m.Jobs(), tt.wantJobs)
			}
		})
	}
}

func TestMaintenancePruneCutoff(t *testing.T) {
	n := NewNotifier(&scriptedFeed{}, &fixedHead{}, &recordingTarget{}, index.New(), fastBackoff)
	p := &recordingPruner{}
	m, err := NewMaintenance(MaintenanceConfig{PruneSchedule: "@daily", Retention: 48 * time.Hour}, n, p)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	now := time.Date(2024, 5, 10, 4, 30, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	m.prune(p, 48*time.Hour)

	if want := now.Add(-48 * time.Hour); !p.cutoff.Equal(want) {
		t.Errorf("cutoff = %s, want %s", p.cutoff, want)
	}
}

func TestMaintenanceStartStop(t *testing.T) {
	n := NewNotifier(&scriptedFeed{}, &fixedHead{}, &recordingTarget{}, index.New(), fastBackoff)
	m, err := NewMaintenance(MaintenanceConfig{ResyncSchedule: "@hourly"}, n, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	m.Start()
	m.Stop()
}
