package service

import (
	"context"
	"errors"
	"time"

	"github.com/cypherlabdev/odds-pipeline-service/internal/models"
)

//go:generate mockgen -destination=../mocks/mock_repository.go -package=mocks . Repository

// ErrNotFound is returned by reads when the record does not exist
var ErrNotFound = errors.New("not found")

// Repository is the persistence boundary. It is the sole writer of games,
// quotes, props and run records; every upsert converges on its conflict key.
type Repository interface {
	UpsertGame(ctx context.Context, game *models.Game) (*models.Game, error)
	UpsertOddsQuote(ctx context.Context, quote *models.OddsQuote, conflictKey string) error
	UpsertPlayerProp(ctx context.Context, prop *models.PlayerProp, conflictKey string) error

	GetGame(ctx context.Context, gameID string) (*models.Game, error)
	ListGames(ctx context.Context, from, to time.Time) ([]*models.Game, error)
	// ListOddsQuotes returns quotes in insertion order
	ListOddsQuotes(ctx context.Context, gameIDs []string) ([]*models.OddsQuote, error)
	ListPlayerProps(ctx context.Context, filter models.PropFilter) ([]*models.PlayerProp, error)

	CountCompletedRuns(ctx context.Context, day string) (int, error)
	CreateRun(ctx context.Context, run *models.CronRun) error
	UpdateRun(ctx context.Context, run *models.CronRun) error
	// FailStaleRuns moves running runs started before cutoff to failed
	FailStaleRuns(ctx context.Context, cutoff time.Time, reason string) (int, error)

	Ping(ctx context.Context) error
	Close() error
}
