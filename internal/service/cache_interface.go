package service

import (
	"context"
	"time"

	"github.com/cypherlabdev/odds-pipeline-service/internal/models"
)

//go:generate mockgen -destination=../mocks/mock_cache.go -package=mocks . FeaturedStore,AnalysisCache,RunLocker

// FeaturedStore holds the featured picks of each day
type FeaturedStore interface {
	// ReplaceFeatured swaps the whole set for day; nothing from the previous set survives
	ReplaceFeatured(ctx context.Context, day string, picks []models.FeaturedPick) error
	GetFeatured(ctx context.Context, day string) ([]models.FeaturedPick, error)
}

// AnalysisCache caches on-demand analysis results
type AnalysisCache interface {
	GetAnalysis(ctx context.Context, key string) (*models.AnalysisResult, error)
	SetAnalysis(ctx context.Context, key string, result *models.AnalysisResult) error
}

// RunLocker provides a mutual-exclusion lock around the run gate
type RunLocker interface {
	// AcquireLock returns ok=false when another holder owns key
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	ReleaseLock(ctx context.Context, key, token string) error
}
