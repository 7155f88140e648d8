// Package ledger gates runs per day and records each run's lifecycle.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cypherlabdev/odds-pipeline-service/internal/metrics"
	"github.com/cypherlabdev/odds-pipeline-service/internal/models"
	"github.com/cypherlabdev/odds-pipeline-service/internal/service"
)

// ErrRunInProgress is returned when another run holds the day's lock
var ErrRunInProgress = errors.New("another run is in progress")

// Pipeline is the work a run executes
type Pipeline interface {
	Run(ctx context.Context, day string) (*models.RunResults, error)
}

// Config holds gating settings
type Config struct {
	MaxRunsPerDay int
	Location      *time.Location
	// LockTTL also bounds how long a run may stay running before the next
	// trigger marks it failed.
	LockTTL time.Duration
	// PersistRetries is how many times the terminal run update is retried
	PersistRetries int
}

// Outcome is what a trigger reports back
type Outcome struct {
	Skipped            bool               `json:"skipped"`
	CompletedRunsToday int                `json:"completed_runs_today"`
	Message            string             `json:"message,omitempty"`
	Run                *models.CronRun    `json:"run,omitempty"`
	Results            *models.RunResults `json:"results,omitempty"`
}

// Runner wraps a pipeline run with the per-day gate and the run record
type Runner struct {
	repo      service.Repository
	locker    service.RunLocker
	pipeline  Pipeline
	publisher service.EventPublisher
	metrics   *metrics.Metrics
	config    Config
	now       func() time.Time
	// retryStart is the first wait between terminal update attempts
	retryStart time.Duration
	logger     zerolog.Logger
}

// NewRunner creates a new run ledger
func NewRunner(
	repo service.Repository,
	locker service.RunLocker,
	pipeline Pipeline,
	publisher service.EventPublisher,
	m *metrics.Metrics,
	config Config,
	logger zerolog.Logger,
) *Runner {
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.MaxRunsPerDay <= 0 {
		config.MaxRunsPerDay = 2
	}
	if config.LockTTL <= 0 {
		config.LockTTL = 30 * time.Minute
	}
	if config.PersistRetries <= 0 {
		config.PersistRetries = 5
	}
	if publisher == nil {
		publisher = service.NopPublisher{}
	}

	return &Runner{
		repo:       repo,
		locker:     locker,
		pipeline:   pipeline,
		publisher:  publisher,
		metrics:    m,
		config:     config,
		now:        time.Now,
		retryStart: 200 * time.Millisecond,
		logger:     logger.With().Str("component", "run_ledger").Logger(),
	}
}

// Today is the current calendar day in the ledger timezone
func (r *Runner) Today() string {
	return r.now().In(r.config.Location).Format(models.DayLayout)
}

// Run executes one gated run. When the day already has MaxRunsPerDay
// completed runs it returns a skipped outcome without recording anything.
// Otherwise it records a running run, executes the pipeline and moves the
// record to completed or failed exactly once, including when the pipeline
// panics. A failed run is returned with a non-nil error and its outcome, as is
// a run whose terminal state could not be stored.
func (r *Runner) Run(ctx context.Context) (*Outcome, error) {
	day := r.Today()
	lockKey := "run:" + day

	token, ok, err := r.locker.AcquireLock(ctx, lockKey, r.config.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire run lock: %w", err)
	}
	if !ok {
		return nil, ErrRunInProgress
	}
	defer func() {
		if err := r.locker.ReleaseLock(context.WithoutCancel(ctx), lockKey, token); err != nil {
			r.logger.Warn().Err(err).Str("day", day).Msg("failed to release run lock")
		}
	}()

	r.sweepStaleRuns(ctx)

	completed, err := r.repo.CountCompletedRuns(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("failed to read run history: %w", err)
	}
	if completed >= r.config.MaxRunsPerDay {
		r.logger.Info().
			Str("day", day).
			Int("completed_runs", completed).
			Msg("daily run limit reached, skipping")
		return &Outcome{
			Skipped:            true,
			CompletedRunsToday: completed,
			Message:            fmt.Sprintf("Already ran %d times today", completed),
		}, nil
	}

	run := &models.CronRun{
		ID:        uuid.New(),
		Day:       day,
		Status:    models.RunRunning,
		StartedAt: r.now().UTC(),
	}
	if err := r.repo.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to record run start: %w", err)
	}

	r.logger.Info().
		Str("run_id", run.ID.String()).
		Str("day", day).
		Msg("run started")

	results, runErr := r.execute(ctx, day)
	persistErr := r.finish(ctx, run, results, runErr)

	outcome := &Outcome{
		CompletedRunsToday: completed,
		Run:                run,
		Results:            results,
	}
	switch {
	case runErr != nil:
		return outcome, runErr
	case persistErr != nil:
		return outcome, fmt.Errorf("failed to record run outcome: %w", persistErr)
	}
	outcome.CompletedRunsToday++
	return outcome, nil
}

// sweepStaleRuns fails runs left running longer than the lock TTL, such as
// after a crash. It runs under the day's lock, so no live run is that old.
func (r *Runner) sweepStaleRuns(ctx context.Context) {
	cutoff := r.now().UTC().Add(-r.config.LockTTL)
	swept, err := r.repo.FailStaleRuns(ctx, cutoff, "abandoned: run exceeded lock ttl without finishing")
	if err != nil {
		r.logger.Warn().Err(err).Msg("failed to sweep stale runs")
		return
	}
	if swept > 0 {
		r.logger.Warn().
			Int("runs", swept).
			Time("started_before", cutoff).
			Msg("marked stale runs failed")
	}
}

// execute runs the pipeline, turning a panic into an error
func (r *Runner) execute(ctx context.Context, day string) (results *models.RunResults, err error) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error().
				Interface("panic", p).
				Bytes("stack", debug.Stack()).
				Msg("pipeline panicked")
			err = fmt.Errorf("panic: %v", p)
		}
	}()

	return r.pipeline.Run(ctx, day)
}

// finish performs the single terminal transition of run. The update is
// retried; an error means the record may still read running.
func (r *Runner) finish(ctx context.Context, run *models.CronRun, results *models.RunResults, runErr error) error {
	completedAt := r.now().UTC()
	run.CompletedAt = &completedAt
	run.Results = results

	if runErr != nil {
		run.Status = models.RunFailed
		run.Error = runErr.Error()
	} else {
		run.Status = models.RunCompleted
	}

	// the terminal state must land even when the trigger's context is gone
	persistCtx := context.WithoutCancel(ctx)
	persistErr := r.persist(persistCtx, run)
	if persistErr != nil {
		r.logger.Error().
			Err(persistErr).
			Str("run_id", run.ID.String()).
			Str("status", string(run.Status)).
			Msg("failed to record run outcome")
	}
	r.metrics.Run(run.Status)

	event := &models.PipelineEvent{
		Type:      models.EventRunFinished,
		Day:       run.Day,
		Run:       run,
		Timestamp: completedAt,
	}
	if err := r.publisher.Publish(persistCtx, event); err != nil {
		r.logger.Warn().Err(err).Str("run_id", run.ID.String()).Msg("failed to publish run event")
	}

	log := r.logger.Info()
	if runErr != nil {
		log = r.logger.Error().Err(runErr)
	}
	log.Str("run_id", run.ID.String()).
		Str("status", string(run.Status)).
		Dur("duration", completedAt.Sub(run.StartedAt)).
		Msg("run finished")

	return persistErr
}

func (r *Runner) persist(ctx context.Context, run *models.CronRun) error {
	strategy := backoff.NewExponentialBackOff()
	strategy.InitialInterval = r.retryStart
	policy := backoff.WithMaxRetries(strategy, uint64(r.config.PersistRetries))

	return backoff.RetryNotify(func() error {
		return r.repo.UpdateRun(ctx, run)
	}, policy, func(err error, wait time.Duration) {
		r.logger.Warn().
			Err(err).
			Str("run_id", run.ID.String()).
			Dur("retry_in", wait).
			Msg("retrying run outcome update")
	})
}
