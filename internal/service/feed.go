package service

import (
	"context"
	"time"

	"github.com/cypherlabdev/odds-pipeline-service/internal/models"
)

//go:generate mockgen -destination=../mocks/mock_feed.go -package=mocks . OddsFeed

// OddsFeed is the upstream odds source
type OddsFeed interface {
	FetchEvents(ctx context.Context, sportKey string, from, to time.Time) ([]models.FeedEvent, error)
	FetchEventOdds(ctx context.Context, sportKey, eventID string, books, markets []string) (*models.FeedEvent, error)
}
