package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cypherlabdev/odds-pipeline-service/internal/consensus"
	"github.com/cypherlabdev/odds-pipeline-service/internal/models"
	"github.com/cypherlabdev/odds-pipeline-service/pkg/analyzer"
	"github.com/cypherlabdev/odds-pipeline-service/pkg/idempotency"
)

// PropQuery identifies a player prop selection to analyze
type PropQuery struct {
	GameID     string
	PlayerName string
	PropType   string
	Sportsbook string
	Line       *decimal.Decimal // nil selects the book's main line
	Side       models.Side
}

// GameMarketQuery identifies a game-line selection to analyze
type GameMarketQuery struct {
	GameID     string
	Market     models.MarketType
	Side       models.Side
	Sportsbook string
}

// AnalysisService serves on-demand analysis and consensus reads with a cache-first strategy
type AnalysisService struct {
	repo     Repository
	analyzer *analyzer.Analyzer
	cache    AnalysisCache
	featured FeaturedStore
	logger   zerolog.Logger
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(
	repo Repository,
	analyzer *analyzer.Analyzer,
	cache AnalysisCache,
	featured FeaturedStore,
	logger zerolog.Logger,
) *AnalysisService {
	return &AnalysisService{
		repo:     repo,
		analyzer: analyzer,
		cache:    cache,
		featured: featured,
		logger:   logger.With().Str("component", "analysis_service").Logger(),
	}
}

// AnalyzeProp analyzes one book's price on a player prop.
// Returns *analyzer.InsufficientDataError when the market cannot support an analysis.
func (s *AnalysisService) AnalyzeProp(ctx context.Context, q PropQuery) (*models.AnalysisResult, error) {
	if q.Side == "" {
		q.Side = models.SideOver
	}

	var line interface{}
	if q.Line != nil {
		line = *q.Line
	}
	cacheKey := idempotency.Key("analysis", "prop", q.GameID, q.PlayerName, q.PropType, q.Sportsbook, line, q.Side)
	if cached := s.cached(ctx, cacheKey); cached != nil {
		return cached, nil
	}

	props, err := s.repo.ListPlayerProps(ctx, models.PropFilter{
		GameIDs:          []string{q.GameID},
		PlayerName:       q.PlayerName,
		PropType:         q.PropType,
		IncludeAlternate: q.Line != nil,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load props: %w", err)
	}

	if q.Line != nil {
		props = pinTargetLine(props, q.Sportsbook, *q.Line)
	}

	if len(props) == 0 {
		return nil, &analyzer.InsufficientDataError{
			SelectionID:    consensus.SelectionID(q.GameID, q.PropType, q.PlayerName, q.Side),
			TargetBook:     q.Sportsbook,
			Reason:         analyzer.ReasonTargetMissing,
			AvailableBooks: []string{},
		}
	}

	snapshot, err := consensus.PropSnapshot(props, q.Side)
	if err != nil {
		return nil, err
	}

	return s.analyze(ctx, cacheKey, snapshot, q.Sportsbook)
}

// AnalyzeGameMarket analyzes one book's price on a game line
func (s *AnalysisService) AnalyzeGameMarket(ctx context.Context, q GameMarketQuery) (*models.AnalysisResult, error) {
	if !consensus.ValidSide(q.Market, q.Side) {
		return nil, fmt.Errorf("side %q is not valid for market %q", q.Side, q.Market)
	}

	cacheKey := idempotency.Key("analysis", "game", q.GameID, q.Market, q.Sportsbook, q.Side)
	if cached := s.cached(ctx, cacheKey); cached != nil {
		return cached, nil
	}

	game, err := s.repo.GetGame(ctx, q.GameID)
	if err != nil {
		return nil, fmt.Errorf("failed to load game: %w", err)
	}

	quotes, err := s.repo.ListOddsQuotes(ctx, []string{q.GameID})
	if err != nil {
		return nil, fmt.Errorf("failed to load quotes: %w", err)
	}

	snapshot, err := consensus.GameMarketSnapshot(game, q.GameID, quotes, q.Market, q.Side)
	if err != nil {
		return nil, err
	}

	return s.analyze(ctx, cacheKey, snapshot, q.Sportsbook)
}

// GameConsensus returns the merged per-book view of a game
func (s *AnalysisService) GameConsensus(ctx context.Context, gameID string) (*models.GameConsensus, error) {
	if _, err := s.repo.GetGame(ctx, gameID); err != nil {
		return nil, fmt.Errorf("failed to load game: %w", err)
	}

	quotes, err := s.repo.ListOddsQuotes(ctx, []string{gameID})
	if err != nil {
		return nil, fmt.Errorf("failed to load quotes: %w", err)
	}

	view := consensus.AggregateGame(gameID, quotes)

	s.logger.Debug().
		Str("game_id", gameID).
		Int("books", len(view.Books)).
		Msg("built game consensus")

	return &view, nil
}

// Featured returns the featured picks stored for day
func (s *AnalysisService) Featured(ctx context.Context, day string) ([]models.FeaturedPick, error) {
	picks, err := s.featured.GetFeatured(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve featured picks: %w", err)
	}
	return picks, nil
}

func (s *AnalysisService) analyze(ctx context.Context, cacheKey string, snapshot *models.MarketSnapshot, book string) (*models.AnalysisResult, error) {
	result, err := s.analyzer.Analyze(snapshot, book)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetAnalysis(ctx, cacheKey, result); err != nil {
		// Don't fail the request on cache errors
		s.logger.Warn().
			Err(err).
			Str("selection_id", result.SelectionID).
			Msg("failed to cache analysis")
	}

	s.logger.Info().
		Str("selection_id", result.SelectionID).
		Str("book", result.Sportsbook).
		Int("price", result.Price).
		Float64("ev_pct", result.ExpectedValuePct).
		Float64("score", result.RecommendationScore).
		Msg("analyzed selection")

	return result, nil
}

func (s *AnalysisService) cached(ctx context.Context, key string) *models.AnalysisResult {
	cached, err := s.cache.GetAnalysis(ctx, key)
	if err == nil && cached != nil {
		s.logger.Debug().Str("key", key).Msg("cache hit for analysis")
		return cached
	}
	if err != nil && !errors.Is(err, ErrNotFound) {
		s.logger.Warn().Err(err).Str("key", key).Msg("analysis cache error")
	}
	return nil
}

// pinTargetLine drops the target book's quotes at other lines, so the requested
// line is the one analyzed. Other books keep every line for the reference window.
func pinTargetLine(props []*models.PlayerProp, book string, line decimal.Decimal) []*models.PlayerProp {
	out := make([]*models.PlayerProp, 0, len(props))
	for _, p := range props {
		if strings.EqualFold(p.Sportsbook, book) && !p.Line.Equal(line) {
			continue
		}
		out = append(out, p)
	}
	return out
}
