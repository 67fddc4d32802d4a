package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/simaogato/herdledger-backend/internal/domain"
)

// SnapshotGenerator archives the ledger at a point in time.
type SnapshotGenerator interface {
	Generate(ctx context.Context, at time.Time) (*domain.LedgerSnapshot, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron      *cron.Cron
	schedule  string
	generator SnapshotGenerator
	timeout   time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

// NewScheduler creates a new scheduler instance.
// schedule is a standard 5-field cron expression.
func NewScheduler(schedule string, generator SnapshotGenerator, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scheduler{
		cron:      cron.New(),
		schedule:  schedule,
		generator: generator,
		timeout:   2 * time.Minute,
		now:       time.Now,
		logger:    logger,
	}
}

// Start registers the snapshot job and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler", zap.String("schedule", s.schedule))

	if _, err := s.cron.AddFunc(s.schedule, s.takeSnapshot); err != nil {
		return fmt.Errorf("failed to schedule ledger snapshot: %w", err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) takeSnapshot() {
	s.logger.Info("taking ledger snapshot")
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	snap, err := s.generator.Generate(ctx, s.now())
	if err != nil {
		s.logger.Error("failed to take ledger snapshot", zap.Error(err))
		return
	}

	s.logger.Info("ledger snapshot taken",
		zap.String("snapshot_id", snap.ID.String()),
		zap.Int("warnings", snap.WarningCount))
}
