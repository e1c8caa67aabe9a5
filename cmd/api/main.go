package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"github.com/islandechoes/health-api/internal/config"
	"github.com/islandechoes/health-api/internal/email"
	"github.com/islandechoes/health-api/internal/handler"
	admissionHandler "github.com/islandechoes/health-api/internal/handler/admission"
	appointmentHandler "github.com/islandechoes/health-api/internal/handler/appointment"
	authHandler "github.com/islandechoes/health-api/internal/handler/auth"
	careplanHandler "github.com/islandechoes/health-api/internal/handler/careplan"
	clinicalHandler "github.com/islandechoes/health-api/internal/handler/clinical"
	dashboardHandler "github.com/islandechoes/health-api/internal/handler/dashboard"
	notificationHandler "github.com/islandechoes/health-api/internal/handler/notification"
	profileHandler "github.com/islandechoes/health-api/internal/handler/profile"
	sponsorshipHandler "github.com/islandechoes/health-api/internal/handler/sponsorship"
	"github.com/islandechoes/health-api/internal/middleware"
	"github.com/islandechoes/health-api/internal/repository/postgres"
	"github.com/islandechoes/health-api/internal/router"
	admissionService "github.com/islandechoes/health-api/internal/service/admission"
	appointmentService "github.com/islandechoes/health-api/internal/service/appointment"
	authService "github.com/islandechoes/health-api/internal/service/auth"
	careplanService "github.com/islandechoes/health-api/internal/service/careplan"
	clinicalService "github.com/islandechoes/health-api/internal/service/clinical"
	dashboardService "github.com/islandechoes/health-api/internal/service/dashboard"
	notificationService "github.com/islandechoes/health-api/internal/service/notification"
	profileService "github.com/islandechoes/health-api/internal/service/profile"
	sponsorshipService "github.com/islandechoes/health-api/internal/service/sponsorship"
	"github.com/islandechoes/health-api/internal/storage"
	"github.com/islandechoes/health-api/pkg/auth"
	"github.com/islandechoes/health-api/pkg/logger"
	"github.com/islandechoes/health-api/pkg/metrics"
	"github.com/islandechoes/health-api/pkg/security"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)
	appMetrics := metrics.NewMetrics("health_api")

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	uploader, err := storage.NewS3Uploader(context.Background(), cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize object storage")
	}

	// Repositories
	profileRepo := postgres.NewProfileRepository(db)
	tokenRepo := postgres.NewTokenRepository(db)
	carePlanRepo := postgres.NewCarePlanRepository(db)
	sponsorshipRepo := postgres.NewSponsorshipRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	clinicalRepo := postgres.NewClinicalRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)
	admissionRepo := postgres.NewAdmissionRepository(db)

	// Shared infrastructure
	jwtSvc := auth.NewJWTService(cfg.ToJWTConfig())
	hasher := security.NewBcryptHasher(bcrypt.DefaultCost)
	emailSvc := email.NewService(cfg.SMTP)

	// Services
	notifSvc := notificationService.NewService(notificationRepo, appLogger, appMetrics)
	careplanSvc := careplanService.NewService(carePlanRepo)
	authSvc := authService.NewService(profileRepo, tokenRepo, sponsorshipRepo, jwtSvc, hasher, emailSvc, cfg.Portal.BaseURL, appLogger)
	profileSvc := profileService.NewService(profileRepo, uploader)
	sponsorshipSvc := sponsorshipService.NewService(sponsorshipRepo, profileRepo, careplanSvc, notifSvc, appLogger, appMetrics)
	appointmentSvc := appointmentService.NewService(appointmentRepo, sponsorshipRepo, clinicalRepo, profileRepo, notifSvc, appLogger, appMetrics)
	clinicalSvc := clinicalService.NewService(clinicalRepo, appointmentRepo, profileRepo)
	admissionSvc := admissionService.NewService(admissionRepo, profileRepo, hasher, emailSvc, uploader, cfg.Portal.BaseURL, appLogger)
	dashboardSvc := dashboardService.NewService(profileRepo, appointmentRepo, sponsorshipRepo, clinicalRepo, sponsorshipSvc, careplanSvc, notifSvc)

	// HTTP layer
	authMiddleware := middleware.NewAuthMiddleware(jwtSvc, profileRepo)
	handlers := router.Handlers{
		Base:         handler.NewHandler(db),
		Auth:         authHandler.NewHandler(authSvc, cfg.Portal.BaseURL),
		Profile:      profileHandler.NewHandler(profileSvc),
		CarePlan:     careplanHandler.NewHandler(careplanSvc),
		Sponsorship:  sponsorshipHandler.NewHandler(sponsorshipSvc, dashboardSvc),
		Appointment:  appointmentHandler.NewHandler(appointmentSvc),
		Clinical:     clinicalHandler.NewHandler(clinicalSvc),
		Notification: notificationHandler.NewHandler(notifSvc),
		Admission:    admissionHandler.NewHandler(admissionSvc),
		Dashboard:    dashboardHandler.NewHandler(dashboardSvc),
	}

	r := router.NewRouter(authMiddleware, handlers, router.Config{
		RateLimit:     rate.Limit(cfg.RateLimit.RequestsPerSecond),
		RateBurst:     cfg.RateLimit.Burst,
		Timeout:       time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		CORSConfig:    middleware.DefaultCORSConfig(),
		MetricsPrefix: "health_api_http",
	})
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced server shutdown")
	}
}
