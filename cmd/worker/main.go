package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/beauty-api/internal/config"
	"github.com/jwalitptl/beauty-api/internal/handler/health"
	promHandler "github.com/jwalitptl/beauty-api/internal/handler/prometheus"
	"github.com/jwalitptl/beauty-api/internal/middleware"
	"github.com/jwalitptl/beauty-api/internal/repository/postgres"
	vipService "github.com/jwalitptl/beauty-api/internal/service/vip"
	internalWorker "github.com/jwalitptl/beauty-api/internal/worker"
	"github.com/jwalitptl/beauty-api/pkg/logger"
	"github.com/jwalitptl/beauty-api/pkg/messaging/redis"
	"github.com/jwalitptl/beauty-api/pkg/metrics"
	"github.com/jwalitptl/beauty-api/pkg/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	l := logger.New(cfg.Log).WithFields(map[string]interface{}{"component": "worker"})
	l.SetGlobal()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.NewDB(ctx, cfg.Database.URL, postgres.PoolConfig{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	m := metrics.New("beauty_worker", registry)

	broker, err := redis.NewRedisBroker(ctx, redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, m)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer broker.Close()

	base := postgres.NewBaseRepository(db)
	outboxRepo := postgres.NewOutboxRepository(base)

	processor, err := worker.NewOutboxProcessor(outboxRepo, broker, worker.OutboxProcessorConfig{
		Channel:       cfg.Redis.Channel,
		BatchSize:     cfg.Outbox.BatchSize,
		PollInterval:  cfg.Outbox.PollInterval,
		RetryAttempts: cfg.Outbox.RetryAttempts,
		RetryDelay:    cfg.Outbox.RetryDelay,
	}, l, m)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid outbox configuration")
	}

	cleanup := worker.NewCleanupWorker(outboxRepo, cfg.Outbox.Retention, time.Hour, l)

	vipSvc := vipService.NewService(postgres.NewVIPRepository(base), postgres.NewClinicRepository(base))
	expiry := internalWorker.NewVIPExpiryWorker(vipSvc, cfg.Outbox.ExpiryInterval, m)

	var wg sync.WaitGroup
	for _, start := range []func(context.Context){processor.Start, cleanup.Start} {
		wg.Add(1)
		go func(run func(context.Context)) {
			defer wg.Done()
			run(ctx)
		}(start)
	}
	if cfg.Features.VIP {
		wg.Add(1)
		go func() {
			defer wg.Done()
			expiry.Start(ctx)
		}()
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Outbox.HealthPort),
		Handler: healthEngine(db, registry),
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("health server failed")
		}
	}()

	log.Info().
		Int("health_port", cfg.Outbox.HealthPort).
		Str("channel", cfg.Redis.Channel).
		Msg("worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down worker...")

	cancel()
	wg.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker exited properly")
}

// healthEngine serves liveness, readiness and metrics for the worker
func healthEngine(db health.Pinger, registry *prometheus.Registry) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(middleware.Recovery(), middleware.ErrorHandler())

	root := engine.Group("")
	health.NewHandler(db).RegisterRoutes(root, nil)
	promHandler.New(registry).RegisterRoutes(root, nil)
	return engine
}
