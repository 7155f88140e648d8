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

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/cypherlabdev/odds-pipeline-service/internal/app"
	"github.com/cypherlabdev/odds-pipeline-service/internal/config"
	httpHandler "github.com/cypherlabdev/odds-pipeline-service/internal/handler/http"
	"github.com/cypherlabdev/odds-pipeline-service/internal/messaging"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg(".env file not found, relying on environment variables")
	}

	// Load configuration
	cfg, err := config.LoadConfig(os.Getenv("ODDS_PIPELINE_CONFIG"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Setup logger
	logger := setupLogger(cfg.Logging)
	logger.Info().Msg("starting odds-pipeline-service")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipeline, err := app.New(ctx, cfg, prometheus.DefaultRegisterer, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize pipeline")
	}
	defer pipeline.Close()

	ready := map[string]httpHandler.Pinger{
		"storage": pipeline.Repo,
		"redis":   pipeline.Cache,
	}
	router := httpHandler.NewRouter(httpHandler.RouterConfig{
		Cron:        httpHandler.NewCronHandler(pipeline.Runner, cfg.Auth.CronSecret, logger),
		Analysis:    httpHandler.NewAnalysisHandler(pipeline.Analysis, pipeline.Location, logger),
		Ready:       ready,
		CORSOrigins: cfg.Server.CORSOrigins,
	})
	logger.Info().Msg("API routes registered")

	if cfg.Auth.CronSecret == "" {
		logger.Warn().Msg("auth.cron_secret is empty; the collection trigger rejects every request")
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Int("port", cfg.Server.Port).Msg("starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})

	if cfg.Kafka.Enabled {
		consumer := messaging.NewKafkaConsumer(messaging.KafkaConsumerConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.TriggerTopic,
			GroupID: cfg.Kafka.GroupID,
		}, pipeline.Runner, logger)
		defer consumer.Close()

		g.Go(func() error {
			return consumer.Start(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down gracefully...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("HTTP server shutdown failed: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server stopped with error")
	}

	logger.Info().Msg("shutdown complete")
}

// setupLogger configures the logger based on config
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	// Set log level
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Set format
	if cfg.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	return log.Logger.With().Str("service", "odds-pipeline").Logger()
}
