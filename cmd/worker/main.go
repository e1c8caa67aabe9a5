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

	"github.com/islandechoes/health-api/internal/config"
	"github.com/islandechoes/health-api/internal/repository/postgres"
	"github.com/islandechoes/health-api/pkg/logger"
	"github.com/islandechoes/health-api/pkg/messaging/redis"
	"github.com/islandechoes/health-api/pkg/metrics"
	"github.com/islandechoes/health-api/pkg/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	env, err := config.LoadWorkerEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load worker environment")
	}

	appLogger := logger.NewLogger(nil)
	appMetrics := metrics.NewMetrics("health_worker")

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	broker, err := redis.NewRedisBroker(cfg.ToBrokerConfig())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer broker.Close()

	outboxRepo := postgres.NewOutboxRepository(db)
	tokenRepo := postgres.NewTokenRepository(db)

	processor := worker.NewOutboxProcessor(outboxRepo, broker, worker.OutboxProcessorConfig{
		BatchSize:     env.BatchSize,
		PollInterval:  env.PollInterval,
		RetryAttempts: env.RetryAttempts,
		RetryDelay:    env.RetryDelay,
	}, appLogger, appMetrics)

	retentionDays := cfg.Outbox.RetentionDays
	if retentionDays <= 0 {
		retentionDays = 7
	}
	outboxCleanup := worker.NewOutboxCleanupWorker(outboxRepo, retentionDays, time.Hour, appLogger)
	tokenCleanup := worker.NewTokenCleanupWorker(tokenRepo, time.Hour, appLogger)

	setupHealthCheck(env.HealthPort)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("shutting down worker")
		cancel()
	}()

	go outboxCleanup.Start(ctx)
	go tokenCleanup.Start(ctx)
	processor.Start(ctx)
}

func setupHealthCheck(port int) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	go func() {
		if err := http.ListenAndServe(fmt.Sprintf(":%d", port), mux); err != nil {
			log.Error().Err(err).Msg("health check server failed")
		}
	}()
}
