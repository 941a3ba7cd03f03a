package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/beauty-api/internal/config"
	appointmentHandler "github.com/jwalitptl/beauty-api/internal/handler/appointment"
	authHandler "github.com/jwalitptl/beauty-api/internal/handler/auth"
	clinicHandler "github.com/jwalitptl/beauty-api/internal/handler/clinic"
	consentHandler "github.com/jwalitptl/beauty-api/internal/handler/consent"
	dashboardHandler "github.com/jwalitptl/beauty-api/internal/handler/dashboard"
	"github.com/jwalitptl/beauty-api/internal/handler/health"
	pointsHandler "github.com/jwalitptl/beauty-api/internal/handler/points"
	professionalHandler "github.com/jwalitptl/beauty-api/internal/handler/professional"
	promHandler "github.com/jwalitptl/beauty-api/internal/handler/prometheus"
	treatmentHandler "github.com/jwalitptl/beauty-api/internal/handler/treatment"
	userHandler "github.com/jwalitptl/beauty-api/internal/handler/user"
	vipHandler "github.com/jwalitptl/beauty-api/internal/handler/vip"
	wellnessHandler "github.com/jwalitptl/beauty-api/internal/handler/wellness"
	"github.com/jwalitptl/beauty-api/internal/middleware"
	"github.com/jwalitptl/beauty-api/internal/repository/postgres"
	"github.com/jwalitptl/beauty-api/internal/router"
	appointmentService "github.com/jwalitptl/beauty-api/internal/service/appointment"
	authService "github.com/jwalitptl/beauty-api/internal/service/auth"
	clinicService "github.com/jwalitptl/beauty-api/internal/service/clinic"
	consentService "github.com/jwalitptl/beauty-api/internal/service/consent"
	dashboardService "github.com/jwalitptl/beauty-api/internal/service/dashboard"
	pointsService "github.com/jwalitptl/beauty-api/internal/service/points"
	professionalService "github.com/jwalitptl/beauty-api/internal/service/professional"
	treatmentService "github.com/jwalitptl/beauty-api/internal/service/treatment"
	userService "github.com/jwalitptl/beauty-api/internal/service/user"
	vipService "github.com/jwalitptl/beauty-api/internal/service/vip"
	wellnessService "github.com/jwalitptl/beauty-api/internal/service/wellness"
	"github.com/jwalitptl/beauty-api/pkg/auth"
	"github.com/jwalitptl/beauty-api/pkg/logger"
	"github.com/jwalitptl/beauty-api/pkg/metrics"
	"github.com/jwalitptl/beauty-api/pkg/security"
	"github.com/jwalitptl/beauty-api/pkg/validator"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger.New(cfg.Log).SetGlobal()

	if err := validator.RegisterWithGin(); err != nil {
		log.Fatal().Err(err).Msg("failed to register validators")
	}

	// Initialize database
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := postgres.NewDB(ctx, cfg.Database.URL, postgres.PoolConfig{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Initialize repositories
	base := postgres.NewBaseRepository(db)
	clinicRepo := postgres.NewClinicRepository(base)
	userRepo := postgres.NewUserRepository(base)
	professionalRepo := postgres.NewProfessionalRepository(base)
	treatmentRepo := postgres.NewTreatmentRepository(base)
	consentRepo := postgres.NewConsentRepository(base)
	appointmentRepo := postgres.NewAppointmentRepository(base)
	vipRepo := postgres.NewVIPRepository(base)
	wellnessRepo := postgres.NewWellnessRepository(base)

	issuer, err := auth.NewTokenIssuer(cfg.JWT.Auth())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create token issuer")
	}
	hasher := security.NewBcryptHasher(authService.BcryptCost)

	// Initialize services
	authSvc := authService.NewService(userRepo, professionalRepo, clinicRepo, issuer, hasher)
	clinicSvc := clinicService.NewService(clinicRepo, hasher)
	treatmentSvc := treatmentService.NewService(treatmentRepo, clinicRepo, consentRepo)
	professionalSvc := professionalService.NewService(professionalRepo, clinicRepo, hasher)
	userSvc := userService.NewService(userRepo, clinicRepo, vipRepo)
	consentSvc := consentService.NewService(consentRepo, treatmentRepo)
	appointmentSvc := appointmentService.NewService(appointmentRepo, clinicRepo, professionalRepo, treatmentRepo, userRepo, consentRepo, vipRepo)
	dashboardSvc := dashboardService.NewService(userRepo, clinicRepo, appointmentRepo, treatmentRepo, vipRepo, wellnessRepo)
	vipSvc := vipService.NewService(vipRepo, clinicRepo)
	pointsSvc := pointsService.NewService(userRepo, appointmentRepo, vipRepo)
	wellnessSvc := wellnessService.NewService(wellnessRepo)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New("beauty_api", registry)

	// Setup router
	r := router.NewRouter(
		middleware.NewAuthMiddleware(issuer, authSvc),
		router.Handlers{
			Health:       health.NewHandler(db),
			Metrics:      promHandler.New(registry),
			Auth:         authHandler.NewHandler(authSvc),
			Clinic:       clinicHandler.NewHandler(clinicSvc),
			Treatment:    treatmentHandler.NewHandler(treatmentSvc),
			Professional: professionalHandler.NewHandler(professionalSvc),
			User:         userHandler.NewHandler(userSvc),
			Appointment:  appointmentHandler.NewHandler(appointmentSvc),
			Dashboard:    dashboardHandler.NewHandler(dashboardSvc),
			Consent:      consentHandler.NewHandler(consentSvc),
			VIP:          vipHandler.NewHandler(vipSvc),
			Points:       pointsHandler.NewHandler(pointsSvc),
			Wellness:     wellnessHandler.NewHandler(wellnessSvc),
		},
		m,
		routerConfig(cfg),
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}

func routerConfig(cfg *config.Config) router.RouterConfig {
	cors := middleware.DefaultCORSConfig()
	if len(cfg.CORS.AllowedOrigins) > 0 {
		cors.AllowOrigins = cfg.CORS.AllowedOrigins
	}
	if len(cfg.CORS.AllowedMethods) > 0 {
		cors.AllowMethods = cfg.CORS.AllowedMethods
	}
	if len(cfg.CORS.AllowedHeaders) > 0 {
		cors.AllowHeaders = cfg.CORS.AllowedHeaders
	}

	return router.RouterConfig{
		Mode:             cfg.Server.Mode,
		RequestTimeout:   cfg.Server.RequestTimeout,
		RateLimitEnabled: cfg.RateLimit.Enabled,
		RateLimit: middleware.RateLimiterConfig{
			Rate:  rate.Limit(cfg.RateLimit.RequestsPerSecond),
			Burst: cfg.RateLimit.Burst,
		},
		CORS:     cors,
		Security: middleware.DefaultSecurityConfig(),
		Features: cfg.Features,
	}
}
