package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const sweepBatchSize = 128

// MaintenanceFacade exposes the sweeps the scheduler runs.
type MaintenanceFacade interface {
	ExpireStaleDrafts(ctx context.Context, cutoff time.Time, limit int) (int, error)
	PurgeOrphanPayments(ctx context.Context, cutoff time.Time) (int64, error)
}

// Maintenance runs the periodic housekeeping sweeps: cancelling stale drafts
// so their slots return to the pool, and purging PENDING payments that never
// reached the provider.
type Maintenance struct {
	facade    MaintenanceFacade
	draftTTL  time.Duration
	orphanTTL time.Duration
	logger    *slog.Logger
	cron      *cron.Cron
}

// NewMaintenance constructs the scheduler with the given cron spec.
func NewMaintenance(facade MaintenanceFacade, spec string, draftTTL, orphanTTL time.Duration, logger *slog.Logger) (*Maintenance, error) {
	m := &Maintenance{
		facade:    facade,
		draftTTL:  draftTTL,
		orphanTTL: orphanTTL,
		logger:    logger,
		cron:      cron.New(),
	}
	if _, err := m.cron.AddFunc(spec, m.sweep); err != nil {
		return nil, fmt.Errorf("maintenance schedule %q: %w", spec, err)
	}
	return m, nil
}

// Start launches the scheduler.
func (m *Maintenance) Start() {
	m.cron.Start()
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (m *Maintenance) Stop() {
	<-m.cron.Stop().Done()
}

func (m *Maintenance) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	m.RunOnce(ctx)
}

// RunOnce executes a single maintenance sweep. Failures are logged, never
// fatal; each next tick retries.
func (m *Maintenance) RunOnce(ctx context.Context) {
	now := time.Now()

	expired, err := m.facade.ExpireStaleDrafts(ctx, now.Add(-m.draftTTL), sweepBatchSize)
	if err != nil {
		m.logger.Error("stale draft sweep failed", slog.String("error", err.Error()))
	} else if expired > 0 {
		m.logger.Info("stale drafts cancelled", slog.Int("count", expired))
	}

	purged, err := m.facade.PurgeOrphanPayments(ctx, now.Add(-m.orphanTTL))
	if err != nil {
		m.logger.Error("orphan payment sweep failed", slog.String("error", err.Error()))
	} else if purged > 0 {
		m.logger.Info("orphan payments purged", slog.Int64("count", purged))
	}
}
