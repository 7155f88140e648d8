// Package orchestrator sequences the per-sport collectors and the featured
// pick step of one run.
package orchestrator

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"

	"github.com/cypherlabdev/odds-pipeline-service/internal/collector"
	"github.com/cypherlabdev/odds-pipeline-service/internal/metrics"
	"github.com/cypherlabdev/odds-pipeline-service/internal/models"
)

// SportCollector runs one sport's collection pass
type SportCollector interface {
	Collect(ctx context.Context, opts collector.Options) (*models.CollectDetails, error)
}

// FeaturedGenerator regenerates a day's featured picks
type FeaturedGenerator interface {
	Generate(ctx context.Context, day string) ([]models.FeaturedPick, error)
}

// Config lists the sports of a run in order, with their collection options
type Config struct {
	Sports  []models.Sport
	Options map[models.Sport]collector.Options
	Timeout time.Duration
}

// Orchestrator runs every configured sport, then the featured step
type Orchestrator struct {
	collector SportCollector
	featured  FeaturedGenerator
	metrics   *metrics.Metrics
	config    Config
	logger    zerolog.Logger
}

// NewOrchestrator creates a new orchestrator. featured may be nil to skip pick generation.
func NewOrchestrator(c SportCollector, featured FeaturedGenerator, m *metrics.Metrics, config Config, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		collector: c,
		featured:  featured,
		metrics:   m,
		config:    config,
		logger:    logger.With().Str("component", "orchestrator").Logger(),
	}
}

type sportOutcome struct {
	details *models.CollectDetails
	err     error
}

// Run collects each sport in turn. A sport's error or panic lands in that
// sport's slot and the next sport still runs. Sports still running or not yet
// started when the timeout expires are recorded as abandoned. Featured pick
// generation is best effort and only fills FeaturedError. An error is returned
// only when ctx itself was canceled.
func (o *Orchestrator) Run(ctx context.Context, day string) (*models.RunResults, error) {
	results := models.NewRunResults()
	total := o.metrics.StartTimer("total", "")
	defer total.Stop(results)

	runCtx := ctx
	if o.config.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, o.config.Timeout)
		defer cancel()
	}

	for _, sport := range o.config.Sports {
		if runCtx.Err() != nil {
			o.abandon(results, sport, runCtx.Err())
			continue
		}

		timer := o.metrics.StartTimer("collect", sport)
		outcome, finished := o.collectSport(runCtx, sport)
		timer.Stop(results)

		if !finished {
			o.abandon(results, sport, runCtx.Err())
			continue
		}

		details := outcome.details
		if details == nil {
			details = &models.CollectDetails{Sport: sport, Errors: []string{}}
		}
		if outcome.err != nil {
			details.Errors = append(details.Errors, outcome.err.Error())
			results.Errors = append(results.Errors, fmt.Sprintf("%s: %v", sport, outcome.err))
			o.logger.Error().
				Err(outcome.err).
				Str("sport", string(sport)).
				Msg("sport collection failed")
		}
		results.Sports[sport] = details
	}

	switch {
	case o.featured == nil:
	case runCtx.Err() != nil:
		results.FeaturedError = fmt.Sprintf("skipped: %v", runCtx.Err())
	default:
		timer := o.metrics.StartTimer("featured", "")
		count, err := o.generateFeatured(runCtx, day)
		timer.Stop(results)

		results.FeaturedCount = count
		if err != nil {
			results.FeaturedError = err.Error()
			o.logger.Warn().Err(err).Str("day", day).Msg("featured pick generation failed")
		}
	}

	if err := ctx.Err(); err != nil {
		return results, fmt.Errorf("run canceled: %w", err)
	}

	return results, nil
}

// collectSport runs the collector under ctx. finished is false when ctx
// expired before the collector returned.
func (o *Orchestrator) collectSport(ctx context.Context, sport models.Sport) (sportOutcome, bool) {
	opts, ok := o.config.Options[sport]
	if !ok {
		opts = collector.Options{}
	}
	opts.Sport = sport

	done := make(chan sportOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				o.logger.Error().
					Interface("panic", r).
					Str("sport", string(sport)).
					Bytes("stack", debug.Stack()).
					Msg("collector panicked")
				done <- sportOutcome{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		details, err := o.collector.Collect(ctx, opts)
		done <- sportOutcome{details: details, err: err}
	}()

	select {
	case outcome := <-done:
		return outcome, true
	case <-ctx.Done():
		return sportOutcome{}, false
	}
}

func (o *Orchestrator) abandon(results *models.RunResults, sport models.Sport, cause error) {
	msg := fmt.Sprintf("abandoned: %v", cause)
	results.Sports[sport] = &models.CollectDetails{Sport: sport, Errors: []string{msg}}
	results.Errors = append(results.Errors, fmt.Sprintf("%s: %s", sport, msg))

	o.logger.Warn().
		Str("sport", string(sport)).
		Err(cause).
		Msg("sport abandoned")
}

func (o *Orchestrator) generateFeatured(ctx context.Context, day string) (count int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	picks, err := o.featured.Generate(ctx, day)
	if err != nil {
		return 0, err
	}
	return len(picks), nil
}
