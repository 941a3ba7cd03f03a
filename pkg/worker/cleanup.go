package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/beauty-api/internal/repository"
	"github.com/jwalitptl/beauty-api/pkg/logger"
)

// CleanupWorker deletes delivered outbox events once they are older than
// the retention window.
type CleanupWorker struct {
	repo      repository.OutboxRepository
	retention time.Duration
	interval  time.Duration
	logger    *logger.Logger
	now       func() time.Time
}

func NewCleanupWorker(repo repository.OutboxRepository, retention, interval time.Duration, logger *logger.Logger) *CleanupWorker {
	return &CleanupWorker{
		repo:      repo,
		retention: retention,
		interval:  interval,
		logger:    logger,
		now:       time.Now,
	}
}

func (w *CleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil {
				w.logger.Error(err, "Outbox cleanup failed")
			}
		}
	}
}

func (w *CleanupWorker) RunOnce(ctx context.Context) (int64, error) {
	cutoff := w.now().Add(-w.retention)

	rows, err := w.repo.DeleteProcessedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up outbox events: %w", err)
	}
	if rows > 0 {
		w.logger.ZL.Info().Int64("deleted", rows).Time("cutoff", cutoff).Msg("Cleaned up outbox events")
	}
	return rows, nil
}
