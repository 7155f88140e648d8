// Package featured ranks the day's analyzable selections and stores the top picks.
package featured

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cypherlabdev/odds-pipeline-service/internal/consensus"
	"github.com/cypherlabdev/odds-pipeline-service/internal/models"
	"github.com/cypherlabdev/odds-pipeline-service/internal/service"
	"github.com/cypherlabdev/odds-pipeline-service/pkg/analyzer"
)

var gameSides = []struct {
	market models.MarketType
	side   models.Side
}{
	{models.MarketMoneyline, models.SideHome},
	{models.MarketMoneyline, models.SideAway},
	{models.MarketSpread, models.SideHome},
	{models.MarketSpread, models.SideAway},
	{models.MarketTotal, models.SideOver},
	{models.MarketTotal, models.SideUnder},
}

// Config bounds the candidate set and the output size
type Config struct {
	TopN           int
	LookaheadHours int
	Location       *time.Location
}

// Selector generates the featured picks of a day
type Selector struct {
	repo      service.Repository
	analyzer  *analyzer.Analyzer
	store     service.FeaturedStore
	publisher service.EventPublisher
	config    Config
	now       func() time.Time
	logger    zerolog.Logger
}

// NewSelector creates a new featured pick selector
func NewSelector(
	repo service.Repository,
	a *analyzer.Analyzer,
	store service.FeaturedStore,
	publisher service.EventPublisher,
	config Config,
	logger zerolog.Logger,
) *Selector {
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.TopN <= 0 {
		config.TopN = 10
	}
	if config.LookaheadHours <= 0 {
		config.LookaheadHours = 24
	}
	if publisher == nil {
		publisher = service.NopPublisher{}
	}

	return &Selector{
		repo:      repo,
		analyzer:  a,
		store:     store,
		publisher: publisher,
		config:    config,
		now:       time.Now,
		logger:    logger.With().Str("component", "featured_selector").Logger(),
	}
}

// Generate evaluates every candidate for day, stores the top N as the day's
// complete featured set and returns it. Nothing from a previous set survives.
func (s *Selector) Generate(ctx context.Context, day string) ([]models.FeaturedPick, error) {
	start, err := time.ParseInLocation(models.DayLayout, day, s.config.Location)
	if err != nil {
		return nil, fmt.Errorf("invalid day %q: %w", day, err)
	}
	end := start.Add(time.Duration(s.config.LookaheadHours) * time.Hour)

	candidates, err := s.candidates(ctx, start, end)
	if err != nil {
		return nil, err
	}

	results := s.analyzer.BatchAnalyze(candidates)
	picks := rank(bestPerSelection(results), s.config.TopN)

	generatedAt := s.now().UTC()
	featured := make([]models.FeaturedPick, 0, len(picks))
	for i, result := range picks {
		featured = append(featured, models.FeaturedPick{
			Rank:        i + 1,
			Day:         day,
			Analysis:    *result,
			GeneratedAt: generatedAt,
		})
	}

	if err := s.store.ReplaceFeatured(ctx, day, featured); err != nil {
		return nil, fmt.Errorf("failed to store featured picks: %w", err)
	}

	event := &models.PipelineEvent{
		Type:      models.EventFeaturedRegenerated,
		Day:       day,
		Featured:  featured,
		Timestamp: generatedAt,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("day", day).Msg("failed to publish featured event")
	}

	s.logger.Info().
		Str("day", day).
		Int("candidates", len(candidates)).
		Int("analyzed", len(results)).
		Int("featured", len(featured)).
		Msg("generated featured picks")

	return featured, nil
}

// candidates pairs every main-line snapshot in the window with each
// non-reference book quoting it
func (s *Selector) candidates(ctx context.Context, from, to time.Time) ([]analyzer.Candidate, error) {
	games, err := s.repo.ListGames(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	if len(games) == 0 {
		return nil, nil
	}

	gameIDs := make([]string, 0, len(games))
	for _, g := range games {
		gameIDs = append(gameIDs, g.ID)
	}

	quotes, err := s.repo.ListOddsQuotes(ctx, gameIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list odds quotes: %w", err)
	}
	props, err := s.repo.ListPlayerProps(ctx, models.PropFilter{GameIDs: gameIDs})
	if err != nil {
		return nil, fmt.Errorf("failed to list player props: %w", err)
	}

	var snapshots []*models.MarketSnapshot
	for _, game := range games {
		for _, gs := range gameSides {
			snapshot, err := consensus.GameMarketSnapshot(game, game.ID, quotes, gs.market, gs.side)
			if err != nil {
				return nil, err
			}
			snapshots = append(snapshots, snapshot)
		}
	}
	for _, group := range consensus.GroupProps(props) {
		for _, side := range []models.Side{models.SideOver, models.SideUnder} {
			snapshot, err := consensus.PropSnapshot(group, side)
			if err != nil {
				return nil, err
			}
			snapshots = append(snapshots, snapshot)
		}
	}

	var candidates []analyzer.Candidate
	for _, snapshot := range snapshots {
		for _, book := range snapshot.Books() {
			if s.analyzer.IsReference(book) {
				continue
			}
			candidates = append(candidates, analyzer.Candidate{Snapshot: snapshot, TargetBook: book})
		}
	}

	return candidates, nil
}

// better orders analyses: score desc, line distance asc, selection id asc, book asc
func better(a, b *models.AnalysisResult) bool {
	if a.RecommendationScore != b.RecommendationScore {
		return a.RecommendationScore > b.RecommendationScore
	}
	if a.LineDistance != b.LineDistance {
		return a.LineDistance < b.LineDistance
	}
	if a.SelectionID != b.SelectionID {
		return a.SelectionID < b.SelectionID
	}
	return strings.ToLower(a.Sportsbook) < strings.ToLower(b.Sportsbook)
}

func bestPerSelection(results []*models.AnalysisResult) []*models.AnalysisResult {
	best := make(map[string]*models.AnalysisResult, len(results))
	for _, r := range results {
		if current, ok := best[r.SelectionID]; !ok || better(r, current) {
			best[r.SelectionID] = r
		}
	}

	out := make([]*models.AnalysisResult, 0, len(best))
	for _, r := range best {
		out = append(out, r)
	}
	return out
}

func rank(results []*models.AnalysisResult, topN int) []*models.AnalysisResult {
	sort.Slice(results, func(i, j int) bool {
		return better(results[i], results[j])
	})
	if len(results) > topN {
		results = results[:topN]
	}
	return results
}
