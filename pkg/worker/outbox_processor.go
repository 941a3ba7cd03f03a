package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jwalitptl/beauty-api/internal/model"
	"github.com/jwalitptl/beauty-api/internal/repository"
	"github.com/jwalitptl/beauty-api/pkg/logger"
	"github.com/jwalitptl/beauty-api/pkg/messaging"
	"github.com/jwalitptl/beauty-api/pkg/metrics"
)

const maxRetryDelay = time.Hour

type OutboxProcessorConfig struct {
	Channel      string
	BatchSize    int
	PollInterval time.Duration
	// RetryAttempts is the number of failed deliveries after which an
	// event is marked FAILED
	RetryAttempts int
	// RetryDelay is the first backoff step, doubled on every failure
	RetryDelay time.Duration
}

// OutboxProcessor publishes committed outbox events to the broker. Every
// event is delivered at least once; consumers dedupe on the message id.
type OutboxProcessor struct {
	repo    repository.OutboxRepository
	broker  messaging.Broker
	config  OutboxProcessorConfig
	logger  *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewOutboxProcessor(
	repo repository.OutboxRepository,
	broker messaging.Broker,
	config OutboxProcessorConfig,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) (*OutboxProcessor, error) {
	if config.Channel == "" {
		return nil, fmt.Errorf("outbox channel must be set")
	}
	if config.BatchSize <= 0 {
		return nil, fmt.Errorf("BatchSize must be greater than 0")
	}
	if config.PollInterval <= 0 {
		return nil, fmt.Errorf("PollInterval must be greater than 0")
	}
	if config.RetryAttempts <= 0 {
		return nil, fmt.Errorf("RetryAttempts must be greater than 0")
	}
	if config.RetryDelay <= 0 {
		return nil, fmt.Errorf("RetryDelay must be greater than 0")
	}

	return &OutboxProcessor{
		repo:    repo,
		broker:  broker,
		config:  config,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}, nil
}

func (p *OutboxProcessor) Start(ctx context.Context) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	p.logger.Info("Starting outbox processor")

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Shutting down outbox processor")
			return
		case <-ticker.C:
			if _, err := p.ProcessBatch(ctx); err != nil {
				p.logger.Error(err, "Failed to process events")
			}
		}
	}
}

// ProcessBatch publishes one batch of due events and returns how many were
// delivered. A failed event does not stop the rest of the batch.
func (p *OutboxProcessor) ProcessBatch(ctx context.Context) (int, error) {
	timer := prometheus.NewTimer(p.metrics.OutboxProcessingLatency)
	defer timer.ObserveDuration()

	events, err := p.repo.GetPendingEvents(ctx, p.config.BatchSize, p.now())
	if err != nil {
		return 0, fmt.Errorf("failed to get pending events: %w", err)
	}
	p.metrics.OutboxQueueSize.Set(float64(len(events)))

	delivered := 0
	for _, event := range events {
		if ctx.Err() != nil {
			return delivered, ctx.Err()
		}
		if err := p.processEvent(ctx, event); err != nil {
			p.logger.ZL.Warn().Err(err).
				Str("event_id", event.ID.String()).
				Str("event_type", event.EventType).
				Int("retry_count", event.RetryCount).
				Msg("Failed to publish event")
			continue
		}
		delivered++
	}
	return delivered, nil
}

func (p *OutboxProcessor) processEvent(ctx context.Context, event *model.OutboxEvent) error {
	msg := &messaging.Message{
		ID:            event.ID,
		Type:          event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       json.RawMessage(event.Payload),
		OccurredAt:    event.CreatedAt,
	}

	if err := p.broker.Publish(ctx, p.config.Channel, msg); err != nil {
		p.fail(ctx, event, err)
		return err
	}

	if err := p.repo.MarkProcessed(ctx, event.ID, p.now()); err != nil {
		p.logger.Error(err, "Failed to update event status")
		return err
	}

	p.metrics.OutboxEventsProcessed.Inc()
	if strings.HasPrefix(event.EventType, "appointment.") {
		p.metrics.AppointmentTransitions.WithLabelValues(event.EventType).Inc()
	}
	return nil
}

// fail schedules the next attempt, or gives up once RetryAttempts is reached
func (p *OutboxProcessor) fail(ctx context.Context, event *model.OutboxEvent, cause error) {
	retries := event.RetryCount + 1
	var next *time.Time
	if retries < p.config.RetryAttempts {
		at := p.now().Add(p.backoff(retries))
		next = &at
		p.metrics.OutboxRetries.WithLabelValues(event.EventType).Inc()
	} else {
		p.metrics.OutboxEventsFailed.Inc()
		p.logger.ZL.Error().Err(cause).
			Str("event_id", event.ID.String()).
			Str("event_type", event.EventType).
			Msg("Giving up on event")
	}

	if err := p.repo.MarkFailed(ctx, event.ID, cause.Error(), retries, next); err != nil {
		p.logger.Error(err, "Failed to update event status")
	}
}

// backoff doubles RetryDelay per failed attempt, capped at an hour
func (p *OutboxProcessor) backoff(retries int) time.Duration {
	d := p.config.RetryDelay
	for i := 1; i < retries; i++ {
		d *= 2
		if d >= maxRetryDelay {
			return maxRetryDelay
		}
	}
	return d
}
