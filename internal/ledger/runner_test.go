package ledger

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/cypherlabdev/odds-pipeline-service/internal/cache"
	"github.com/cypherlabdev/odds-pipeline-service/internal/metrics"
	"github.com/cypherlabdev/odds-pipeline-service/internal/mocks"
	"github.com/cypherlabdev/odds-pipeline-service/internal/models"
	"github.com/cypherlabdev/odds-pipeline-service/internal/repository"
)

var fixedNow = time.Date(2026, 10, 19, 15, 0, 0, 0, time.UTC)

type pipelineFunc func(ctx context.Context, day string) (*models.RunResults, error)

func (f pipelineFunc) Run(ctx context.Context, day string) (*models.RunResults, error) {
	return f(ctx, day)
}

func okPipeline(ctx context.Context, day string) (*models.RunResults, error) {
	results := models.NewRunResults()
	results.Sports[models.SportNFL] = &models.CollectDetails{Sport: models.SportNFL, Games: 2}
	return results, nil
}

type testRunnerSetup struct {
	runner  *Runner
	repo    *repository.MemoryRepository
	metrics *metrics.Metrics
	ctx     context.Context
}

func setupTestRunner(t *testing.T, pipeline Pipeline, config Config) *testRunnerSetup {
	t.Helper()

	repo := repository.NewMemoryRepository()
	m := metrics.New(prometheus.NewRegistry())
	runner := NewRunner(repo, cache.NewMemoryLocker(), pipeline, nil, m, config, zerolog.Nop())
	runner.now = func() time.Time { return fixedNow }
	runner.retryStart = time.Millisecond

	return &testRunnerSetup{
		runner:  runner,
		repo:    repo,
		metrics: m,
		ctx:     context.Background(),
	}
}

func TestRunner_Today(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	setup := setupTestRunner(t, pipelineFunc(okPipeline), Config{Location: ny})
	// 02:00 UTC is still the previous evening in New York
	setup.runner.now = func() time.Time { return time.Date(2026, 10, 20, 2, 0, 0, 0, time.UTC) }

	assert.Equal(t, "2026-10-19", setup.runner.Today())
}

func TestRunner_Completed(t *testing.T) {
	var gotDay string
	setup := setupTestRunner(t, pipelineFunc(func(ctx context.Context, day string) (*models.RunResults, error) {
		gotDay = day
		return okPipeline(ctx, day)
	}), Config{MaxRunsPerDay: 2})

	outcome, err := setup.runner.Run(setup.ctx)
	require.NoError(t, err)

	assert.Equal(t, "2026-10-19", gotDay)
	assert.False(t, outcome.Skipped)
	assert.Equal(t, 1, outcome.CompletedRunsToday)
	require.NotNil(t, outcome.Results)
	assert.Equal(t, 2, outcome.Results.Sports[models.SportNFL].Games)

	runs := setup.repo.Runs()
	require.Len(t, runs, 1)
	assert.Equal(t, models.RunCompleted, runs[0].Status)
	assert.NotNil(t, runs[0].CompletedAt)
	assert.NotNil(t, runs[0].Results)
	assert.Empty(t, runs[0].Error)

	assert.Equal(t, float64(1), testutil.ToFloat64(setup.metrics.Runs.WithLabelValues(string(models.RunCompleted))))
}

func TestRunner_DailyGate(t *testing.T) {
	var calls int32
	setup := setupTestRunner(t, pipelineFunc(func(ctx context.Context, day string) (*models.RunResults, error) {
		atomic.AddInt32(&calls, 1)
		return okPipeline(ctx, day)
	}), Config{MaxRunsPerDay: 2})

	for i := 0; i < 2; i++ {
		outcome, err := setup.runner.Run(setup.ctx)
		require.NoError(t, err)
		assert.False(t, outcome.Skipped)
	}

	outcome, err := setup.runner.Run(setup.ctx)
	require.NoError(t, err)
	assert.True(t, outcome.Skipped)
	assert.Equal(t, 2, outcome.CompletedRunsToday)
	assert.Equal(t, "Already ran 2 times today", outcome.Message)

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Len(t, setup.repo.Runs(), 2)

	// a new day opens the gate again
	setup.runner.now = func() time.Time { return fixedNow.Add(24 * time.Hour) }
	outcome, err = setup.runner.Run(setup.ctx)
	require.NoError(t, err)
	assert.False(t, outcome.Skipped)
	assert.Equal(t, 1, outcome.CompletedRunsToday)
}

func TestRunner_FailedRunsDoNotCount(t *testing.T) {
	fail := true
	setup := setupTestRunner(t, pipelineFunc(func(ctx context.Context, day string) (*models.RunResults, error) {
		if fail {
			return models.NewRunResults(), errors.New("run canceled: context canceled")
		}
		return okPipeline(ctx, day)
	}), Config{MaxRunsPerDay: 1})

	outcome, err := setup.runner.Run(setup.ctx)
	require.Error(t, err)
	require.NotNil(t, outcome)
	assert.Equal(t, models.RunFailed, outcome.Run.Status)
	assert.Equal(t, 0, outcome.CompletedRunsToday)

	fail = false
	outcome, err = setup.runner.Run(setup.ctx)
	require.NoError(t, err)
	assert.False(t, outcome.Skipped)

	runs := setup.repo.Runs()
	require.Len(t, runs, 2)
	statuses := []models.RunStatus{runs[0].Status, runs[1].Status}
	assert.ElementsMatch(t, []models.RunStatus{models.RunFailed, models.RunCompleted}, statuses)
}

func TestRunner_PanicMarksFailed(t *testing.T) {
	setup := setupTestRunner(t, pipelineFunc(func(ctx context.Context, day string) (*models.RunResults, error) {
		panic("index out of range")
	}), Config{})

	outcome, err := setup.runner.Run(setup.ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index out of range")

	runs := setup.repo.Runs()
	require.Len(t, runs, 1)
	assert.Equal(t, models.RunFailed, runs[0].Status)
	assert.Contains(t, runs[0].Error, "panic: index out of range")
	assert.Equal(t, models.RunFailed, outcome.Run.Status)

	// the lock was released
	_, err = setup.runner.Run(setup.ctx)
	assert.NotErrorIs(t, err, ErrRunInProgress)
}

func TestRunner_TerminalStateSurvivesCanceledTrigger(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	setup := setupTestRunner(t, pipelineFunc(func(ctx context.Context, day string) (*models.RunResults, error) {
		cancel()
		return models.NewRunResults(), ctx.Err()
	}), Config{})

	_, err := setup.runner.Run(ctx)
	require.Error(t, err)

	runs := setup.repo.Runs()
	require.Len(t, runs, 1)
	assert.Equal(t, models.RunFailed, runs[0].Status)
}

func TestRunner_ConcurrentTriggersRespectGate(t *testing.T) {
	var calls int32
	setup := setupTestRunner(t, pipelineFunc(func(ctx context.Context, day string) (*models.RunResults, error) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(10 * time.Millisecond)
		return okPipeline(ctx, day)
	}), Config{MaxRunsPerDay: 1})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = setup.runner.Run(setup.ctx)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Len(t, setup.repo.Runs(), 1)
}

func TestRunner_LockHeld(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockRepository(ctrl)
	locker := mocks.NewMockRunLocker(ctrl)

	locker.EXPECT().AcquireLock(gomock.Any(), "run:2026-10-19", 30*time.Minute).Return("", false, nil)

	runner := NewRunner(repo, locker, pipelineFunc(okPipeline), nil, nil, Config{}, zerolog.Nop())
	runner.now = func() time.Time { return fixedNow }

	outcome, err := runner.Run(context.Background())
	assert.ErrorIs(t, err, ErrRunInProgress)
	assert.Nil(t, outcome)
}

func TestRunner_LockError(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockRepository(ctrl)
	locker := mocks.NewMockRunLocker(ctrl)

	locker.EXPECT().AcquireLock(gomock.Any(), gomock.Any(), gomock.Any()).Return("", false, errors.New("connection refused"))

	runner := NewRunner(repo, locker, pipelineFunc(okPipeline), nil, nil, Config{}, zerolog.Nop())

	_, err := runner.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestRunner_CreateRunFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockRepository(ctrl)
	locker := mocks.NewMockRunLocker(ctrl)

	gomock.InOrder(
		locker.EXPECT().AcquireLock(gomock.Any(), "run:2026-10-19", gomock.Any()).Return("tok", true, nil),
		repo.EXPECT().FailStaleRuns(gomock.Any(), fixedNow.Add(-30*time.Minute), gomock.Any()).Return(0, nil),
		repo.EXPECT().CountCompletedRuns(gomock.Any(), "2026-10-19").Return(0, nil),
		repo.EXPECT().CreateRun(gomock.Any(), gomock.Any()).Return(errors.New("disk full")),
		locker.EXPECT().ReleaseLock(gomock.Any(), "run:2026-10-19", "tok").Return(nil),
	)

	var called bool
	runner := NewRunner(repo, locker, pipelineFunc(func(ctx context.Context, day string) (*models.RunResults, error) {
		called = true
		return nil, nil
	}), nil, nil, Config{}, zerolog.Nop())
	runner.now = func() time.Time { return fixedNow }

	_, err := runner.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.False(t, called)
}

func TestRunner_PublishesRunFinished(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockRepository(ctrl)
	locker := mocks.NewMockRunLocker(ctrl)
	publisher := mocks.NewMockEventPublisher(ctrl)

	var created, updated *models.CronRun
	locker.EXPECT().AcquireLock(gomock.Any(), gomock.Any(), gomock.Any()).Return("tok", true, nil)
	repo.EXPECT().FailStaleRuns(gomock.Any(), gomock.Any(), gomock.Any()).Return(0, errors.New("statement timeout"))
	repo.EXPECT().CountCompletedRuns(gomock.Any(), "2026-10-19").Return(1, nil)
	repo.EXPECT().CreateRun(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, run *models.CronRun) error {
		copied := *run
		created = &copied
		return nil
	})
	repo.EXPECT().UpdateRun(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, run *models.CronRun) error {
		updated = run
		return nil
	}).Times(1)
	publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, event *models.PipelineEvent) error {
		assert.Equal(t, models.EventRunFinished, event.Type)
		assert.Equal(t, "2026-10-19", event.Day)
		assert.Equal(t, models.RunCompleted, event.Run.Status)
		return errors.New("broker unavailable")
	})
	locker.EXPECT().ReleaseLock(gomock.Any(), gomock.Any(), "tok").Return(nil)

	runner := NewRunner(repo, locker, pipelineFunc(okPipeline), publisher, nil, Config{MaxRunsPerDay: 2}, zerolog.Nop())
	runner.now = func() time.Time { return fixedNow }

	outcome, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, outcome.CompletedRunsToday)

	require.NotNil(t, created)
	assert.Equal(t, models.RunRunning, created.Status)
	assert.Nil(t, created.CompletedAt)
	require.NotNil(t, updated)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, models.RunCompleted, updated.Status)
}

// flakyUpdateRepository fails UpdateRun for its first failures attempts
type flakyUpdateRepository struct {
	*repository.MemoryRepository
	mu       sync.Mutex
	failures int
	attempts int
}

func (r *flakyUpdateRepository) UpdateRun(ctx context.Context, run *models.CronRun) error {
	r.mu.Lock()
	r.attempts++
	fail := r.attempts <= r.failures
	r.mu.Unlock()

	if fail {
		return errors.New("connection reset by peer")
	}
	return r.MemoryRepository.UpdateRun(ctx, run)
}

func newFlakyRunner(repo *flakyUpdateRepository, config Config) *Runner {
	runner := NewRunner(repo, cache.NewMemoryLocker(), pipelineFunc(okPipeline), nil, nil, config, zerolog.Nop())
	runner.now = func() time.Time { return fixedNow }
	runner.retryStart = time.Millisecond
	return runner
}

func TestRunner_RetriesTerminalUpdate(t *testing.T) {
	repo := &flakyUpdateRepository{MemoryRepository: repository.NewMemoryRepository(), failures: 1}
	runner := newFlakyRunner(repo, Config{MaxRunsPerDay: 2})

	outcome, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.RunCompleted, outcome.Run.Status)
	assert.Equal(t, 1, outcome.CompletedRunsToday)
	assert.Equal(t, 2, repo.attempts)

	runs := repo.Runs()
	require.Len(t, runs, 1)
	assert.Equal(t, models.RunCompleted, runs[0].Status)
}

func TestRunner_TerminalUpdateExhausted(t *testing.T) {
	repo := &flakyUpdateRepository{MemoryRepository: repository.NewMemoryRepository(), failures: 100}
	runner := newFlakyRunner(repo, Config{MaxRunsPerDay: 1, PersistRetries: 2})

	outcome, err := runner.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to record run outcome")
	require.NotNil(t, outcome)
	assert.Equal(t, 0, outcome.CompletedRunsToday)
	assert.Equal(t, 3, repo.attempts)

	runs := repo.Runs()
	require.Len(t, runs, 1)
	assert.Equal(t, models.RunRunning, runs[0].Status)
}

func TestRunner_SweepsStaleRuns(t *testing.T) {
	setup := setupTestRunner(t, pipelineFunc(okPipeline), Config{MaxRunsPerDay: 1})

	stale := &models.CronRun{
		ID:        uuid.New(),
		Day:       "2026-10-19",
		Status:    models.RunRunning,
		StartedAt: fixedNow.Add(-2 * time.Hour),
	}
	recent := &models.CronRun{
		ID:        uuid.New(),
		Day:       "2026-10-19",
		Status:    models.RunRunning,
		StartedAt: fixedNow.Add(-5 * time.Minute),
	}
	require.NoError(t, setup.repo.CreateRun(setup.ctx, stale))
	require.NoError(t, setup.repo.CreateRun(setup.ctx, recent))

	outcome, err := setup.runner.Run(setup.ctx)
	require.NoError(t, err)
	assert.False(t, outcome.Skipped)

	statuses := make(map[uuid.UUID]models.RunStatus)
	for _, run := range setup.repo.Runs() {
		statuses[run.ID] = run.Status
		if run.ID == stale.ID {
			assert.Contains(t, run.Error, "abandoned")
			assert.NotNil(t, run.CompletedAt)
		}
	}
	assert.Equal(t, models.RunFailed, statuses[stale.ID])
	assert.Equal(t, models.RunRunning, statuses[recent.ID])
	assert.Equal(t, models.RunCompleted, statuses[outcome.Run.ID])
}
