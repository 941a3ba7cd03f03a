package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/beauty-api/pkg/metrics"
)

// Expirer is implemented by the VIP service
type Expirer interface {
	ExpireDue(ctx context.Context) (int64, error)
}

// VIPExpiryWorker moves lapsed VIP subscriptions to EXPIRED so the users'
// VIP flag drops without waiting for their next request.
type VIPExpiryWorker struct {
	svc      Expirer
	interval time.Duration
	metrics  *metrics.Metrics
}

func NewVIPExpiryWorker(svc Expirer, interval time.Duration, m *metrics.Metrics) *VIPExpiryWorker {
	return &VIPExpiryWorker{
		svc:      svc,
		interval: interval,
		metrics:  m,
	}
}

func (w *VIPExpiryWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.RunOnce(ctx); err != nil {
				log.Error().Err(err).Msg("VIP expiry run failed")
			}
		}
	}
}

func (w *VIPExpiryWorker) RunOnce(ctx context.Context) error {
	n, err := w.svc.ExpireDue(ctx)
	if err != nil {
		return fmt.Errorf("failed to expire VIP subscriptions: %w", err)
	}
	if n > 0 {
		w.metrics.VIPExpired.Add(float64(n))
		log.Info().Int64("expired", n).Msg("Expired VIP subscriptions")
	}
	return nil
}
