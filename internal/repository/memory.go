package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cypherlabdev/odds-pipeline-service/internal/models"
	"github.com/cypherlabdev/odds-pipeline-service/internal/service"
	"github.com/cypherlabdev/odds-pipeline-service/pkg/idempotency"
)

var _ service.Repository = (*MemoryRepository)(nil)

// MemoryRepository keeps everything in process. Rows are keyed by the same
// idempotency keys the Postgres unique constraints use, and an upsert keeps
// the row's original position so reads stay in insertion order.
type MemoryRepository struct {
	mu sync.RWMutex

	games map[string]*models.Game

	quotes     map[string]*models.OddsQuote
	quoteOrder []string

	props     map[string]*models.PlayerProp
	propOrder []string

	runs map[uuid.UUID]*models.CronRun

	now func() time.Time
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		games:  make(map[string]*models.Game),
		quotes: make(map[string]*models.OddsQuote),
		props:  make(map[string]*models.PlayerProp),
		runs:   make(map[uuid.UUID]*models.CronRun),
		now:    time.Now,
	}
}

// UpsertGame inserts or updates a game by its external id
func (r *MemoryRepository) UpsertGame(ctx context.Context, game *models.Game) (*models.Game, error) {
	if game == nil || game.ID == "" {
		return nil, fmt.Errorf("game external id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	key := idempotency.GameKey(game.ID)

	stored := *game
	stored.UpdatedAt = now
	if existing, ok := r.games[key]; ok {
		stored.CreatedAt = existing.CreatedAt
	} else {
		stored.CreatedAt = now
	}
	r.games[key] = &stored

	out := stored
	return &out, nil
}

// UpsertOddsQuote inserts or replaces the quote stored under conflictKey
func (r *MemoryRepository) UpsertOddsQuote(ctx context.Context, quote *models.OddsQuote, conflictKey string) error {
	if quote == nil || conflictKey == "" {
		return fmt.Errorf("quote and conflict key are required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.quotes[conflictKey]; !ok {
		r.quoteOrder = append(r.quoteOrder, conflictKey)
	}
	stored := *quote
	r.quotes[conflictKey] = &stored

	return nil
}

// UpsertPlayerProp inserts or replaces the prop stored under conflictKey
func (r *MemoryRepository) UpsertPlayerProp(ctx context.Context, prop *models.PlayerProp, conflictKey string) error {
	if prop == nil || conflictKey == "" {
		return fmt.Errorf("prop and conflict key are required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.props[conflictKey]; !ok {
		r.propOrder = append(r.propOrder, conflictKey)
	}
	stored := *prop
	r.props[conflictKey] = &stored

	return nil
}

// GetGame returns the game with the given external id
func (r *MemoryRepository) GetGame(ctx context.Context, gameID string) (*models.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	game, ok := r.games[idempotency.GameKey(gameID)]
	if !ok {
		return nil, fmt.Errorf("game %s: %w", gameID, service.ErrNotFound)
	}
	out := *game
	return &out, nil
}

// ListGames returns games commencing in [from, to) ordered by commence time
func (r *MemoryRepository) ListGames(ctx context.Context, from, to time.Time) ([]*models.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	games := make([]*models.Game, 0)
	for _, game := range r.games {
		if game.CommenceTime.Before(from) || !game.CommenceTime.Before(to) {
			continue
		}
		out := *game
		games = append(games, &out)
	}

	sortGames(games)
	return games, nil
}

// ListOddsQuotes returns quotes for gameIDs in insertion order. No ids means all quotes.
func (r *MemoryRepository) ListOddsQuotes(ctx context.Context, gameIDs []string) ([]*models.OddsQuote, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := toSet(gameIDs)
	quotes := make([]*models.OddsQuote, 0)
	for _, key := range r.quoteOrder {
		q := r.quotes[key]
		if len(wanted) > 0 && !wanted[q.GameID] {
			continue
		}
		out := *q
		quotes = append(quotes, &out)
	}

	return quotes, nil
}

// ListPlayerProps returns props matching filter in insertion order
func (r *MemoryRepository) ListPlayerProps(ctx context.Context, filter models.PropFilter) ([]*models.PlayerProp, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := toSet(filter.GameIDs)
	props := make([]*models.PlayerProp, 0)
	for _, key := range r.propOrder {
		p := r.props[key]
		if len(wanted) > 0 && !wanted[p.GameID] {
			continue
		}
		if filter.PlayerName != "" && !strings.EqualFold(p.PlayerName, filter.PlayerName) {
			continue
		}
		if filter.PropType != "" && !strings.EqualFold(p.PropType, filter.PropType) {
			continue
		}
		if p.IsAlternate && !filter.IncludeAlternate {
			continue
		}
		out := *p
		props = append(props, &out)
	}

	return props, nil
}

// CountCompletedRuns counts completed runs recorded for day
func (r *MemoryRepository) CountCompletedRuns(ctx context.Context, day string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, run := range r.runs {
		if run.Day == day && run.Status == models.RunCompleted {
			count++
		}
	}
	return count, nil
}

// CreateRun records a new run
func (r *MemoryRepository) CreateRun(ctx context.Context, run *models.CronRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.runs[run.ID]; ok {
		return fmt.Errorf("run %s already exists", run.ID)
	}
	stored := *run
	r.runs[run.ID] = &stored
	return nil
}

// UpdateRun overwrites an existing run record
func (r *MemoryRepository) UpdateRun(ctx context.Context, run *models.CronRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.runs[run.ID]; !ok {
		return fmt.Errorf("run %s: %w", run.ID, service.ErrNotFound)
	}
	stored := *run
	r.runs[run.ID] = &stored
	return nil
}

// FailStaleRuns marks running runs started before cutoff as failed
func (r *MemoryRepository) FailStaleRuns(ctx context.Context, cutoff time.Time, reason string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	failed := 0
	for _, run := range r.runs {
		if run.Status != models.RunRunning || !run.StartedAt.Before(cutoff) {
			continue
		}
		completedAt := time.Now().UTC()
		run.Status = models.RunFailed
		run.CompletedAt = &completedAt
		run.Error = reason
		failed++
	}
	return failed, nil
}

// Runs returns a copy of every run record, for inspection in tools and tests
func (r *MemoryRepository) Runs() []models.CronRun {
	r.mu.RLock()
	defer r.mu.RUnlock()

	runs := make([]models.CronRun, 0, len(r.runs))
	for _, run := range r.runs {
		runs = append(runs, *run)
	}
	return runs
}

// Ping always succeeds
func (r *MemoryRepository) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op
func (r *MemoryRepository) Close() error {
	return nil
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
