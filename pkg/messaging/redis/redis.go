package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/beauty-api/pkg/circuitbreaker"
	"github.com/jwalitptl/beauty-api/pkg/messaging"
	"github.com/jwalitptl/beauty-api/pkg/metrics"
)

// client is the part of *redis.Client the broker uses
type client interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Close() error
}

type RedisBroker struct {
	client  client
	cb      *circuitbreaker.CircuitBreaker
	metrics *metrics.Metrics
}

type Config struct {
	URL          string
	MaxRetries   int
	RetryBackoff time.Duration
	PoolSize     int
	MinIdleConns int
}

// NewRedisBroker connects to Redis and fails fast when it is unreachable
func NewRedisBroker(ctx context.Context, config Config, m *metrics.Metrics) (*RedisBroker, error) {
	opts, err := redis.ParseURL(config.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.MaxRetries = config.MaxRetries
	if config.RetryBackoff > 0 {
		opts.MinRetryBackoff = config.RetryBackoff
	}
	if config.PoolSize > 0 {
		opts.PoolSize = config.PoolSize
	}
	opts.MinIdleConns = config.MinIdleConns

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return newBroker(rdb, m), nil
}

func newBroker(c client, m *metrics.Metrics) *RedisBroker {
	return &RedisBroker{
		client:  c,
		cb:      circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultSettings("redis-broker")),
		metrics: m,
	}
}

// Publish sends msg as JSON. A message nobody is subscribed to still counts
// as delivered.
func (b *RedisBroker) Publish(ctx context.Context, channel string, msg *messaging.Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	start := time.Now()
	err = b.cb.Execute(func() error {
		return b.client.Publish(ctx, channel, payload).Err()
	})
	b.observe("publish", start, err)
	if err != nil {
		log.Ctx(ctx).Debug().Err(err).Str("channel", channel).Str("type", msg.Type).Msg("Publish failed")
		return fmt.Errorf("publish %s: %w", msg.Type, err)
	}
	return nil
}

func (b *RedisBroker) observe(op string, start time.Time, err error) {
	if b.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	b.metrics.RedisOperations.WithLabelValues(op, status).Inc()
	b.metrics.RedisLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (b *RedisBroker) Close() error {
	return b.client.Close()
}
