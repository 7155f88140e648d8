// Command collect runs one gated collection pass, or regenerates a day's
// featured picks, and prints the outcome as JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/cypherlabdev/odds-pipeline-service/internal/app"
	"github.com/cypherlabdev/odds-pipeline-service/internal/config"
	"github.com/cypherlabdev/odds-pipeline-service/internal/ledger"
	"github.com/cypherlabdev/odds-pipeline-service/internal/models"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

// run returns the process exit code: 0 on success, 1 on failure and 2 when
// another run holds the day's lock. Deferred closes run before exit.
func run(args []string, stdout io.Writer) int {
	flags := pflag.NewFlagSet("collect", pflag.ContinueOnError)
	configPath := flags.StringP("config", "c", os.Getenv("ODDS_PIPELINE_CONFIG"), "config file path")
	featuredDay := flags.String("featured", "", "only regenerate featured picks for this day (YYYY-MM-DD)")
	storage := flags.String("storage", "", "override storage.driver (postgres, memory)")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg(".env file not found, relying on environment variables")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Error().Err(err).Msg("failed to load config")
		return 1
	}
	if *storage != "" {
		cfg.Storage.Driver = *storage
		if err := cfg.Validate(); err != nil {
			log.Error().Err(err).Msg("invalid storage override")
			return 1
		}
	}

	logger := setupLogger(cfg.Logging)

	if *featuredDay != "" {
		if _, err := time.Parse(models.DayLayout, *featuredDay); err != nil {
			logger.Error().Err(err).Msg("invalid --featured day")
			return 1
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipeline, err := app.New(ctx, cfg, prometheus.NewRegistry(), logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to initialize pipeline")
		return 1
	}
	defer pipeline.Close()

	if *featuredDay != "" {
		picks, err := pipeline.Featured.Generate(ctx, *featuredDay)
		if err != nil {
			logger.Error().Err(err).Msg("featured pick generation failed")
			return 1
		}
		printJSON(stdout, map[string]interface{}{"date": *featuredDay, "count": len(picks), "picks": picks})
		return 0
	}

	outcome, err := pipeline.Runner.Run(ctx)
	switch {
	case errors.Is(err, ledger.ErrRunInProgress):
		logger.Warn().Msg("another run is in progress")
		return 2
	case err != nil && outcome == nil:
		logger.Error().Err(err).Msg("run could not start")
		return 1
	}

	printJSON(stdout, outcome)
	if err != nil {
		logger.Error().Err(err).Msg("run failed")
		return 1
	}
	return 0
}

func printJSON(w io.Writer, v interface{}) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode output")
	}
}

// setupLogger writes to stderr so stdout carries only the JSON outcome
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Logger = log.Output(os.Stderr)
	if cfg.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	return log.Logger.With().Str("service", "odds-pipeline-collect").Logger()
}
