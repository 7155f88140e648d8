// Package collector pulls one sport's events and odds from the feed and
// writes them through the repository.
package collector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cypherlabdev/odds-pipeline-service/internal/metrics"
	"github.com/cypherlabdev/odds-pipeline-service/internal/models"
	"github.com/cypherlabdev/odds-pipeline-service/internal/service"
	"github.com/cypherlabdev/odds-pipeline-service/pkg/idempotency"
	"github.com/cypherlabdev/odds-pipeline-service/pkg/workerpool"
)

// Options control one sport's collection pass
type Options struct {
	Sport            models.Sport
	StartOffsetHours int
	WindowHours      int
	Books            []string
	GameMarkets      []string
	PropMarkets      []string
	SkipProps        bool
	SkipAlternates   bool
	Concurrency      int
}

// Markets is the market list requested per event
func (o Options) Markets() []string {
	markets := append([]string{}, o.GameMarkets...)
	if !o.SkipProps {
		markets = append(markets, o.PropMarkets...)
	}
	return markets
}

// Collector fetches events and odds for a sport and upserts them
type Collector struct {
	feed    service.OddsFeed
	repo    service.Repository
	metrics *metrics.Metrics
	now     func() time.Time
	logger  zerolog.Logger
}

// NewCollector creates a new collector
func NewCollector(feed service.OddsFeed, repo service.Repository, m *metrics.Metrics, logger zerolog.Logger) *Collector {
	return &Collector{
		feed:    feed,
		repo:    repo,
		metrics: m,
		now:     time.Now,
		logger:  logger.With().Str("component", "collector").Logger(),
	}
}

// eventTally is what one event contributed to the sport's details
type eventTally struct {
	games          int
	quotes         int
	props          int
	upsertFailures int
	errors         []string
}

// Collect runs one pass for opts.Sport. Per-event fetch failures and
// per-entity write failures are recorded in the details and never abort the
// remaining events; only failing to list the sport's events returns an error.
func (c *Collector) Collect(ctx context.Context, opts Options) (*models.CollectDetails, error) {
	start := c.now()
	details := &models.CollectDetails{Sport: opts.Sport, Errors: []string{}}
	defer func() {
		details.DurationMs = float64(c.now().Sub(start).Microseconds()) / 1000
	}()

	sportKey := opts.Sport.FeedKey()
	if sportKey == "" {
		return details, fmt.Errorf("sport %q has no feed key", opts.Sport)
	}

	from := start.Add(time.Duration(opts.StartOffsetHours) * time.Hour)
	to := from.Add(time.Duration(opts.WindowHours) * time.Hour)

	events, err := c.feed.FetchEvents(ctx, sportKey, from, to)
	if err != nil {
		return details, fmt.Errorf("failed to list %s events: %w", opts.Sport, err)
	}
	details.Events = len(events)

	allow := make(map[string]bool, len(opts.Books))
	for _, book := range opts.Books {
		allow[strings.ToLower(book)] = true
	}
	markets := opts.Markets()

	results := workerpool.Run(ctx, events, opts.Concurrency,
		func(ctx context.Context, _ int, event models.FeedEvent) (*eventTally, error) {
			return c.collectEvent(ctx, opts, sportKey, event, allow, markets)
		})

	for i, res := range results {
		if res.Err != nil {
			details.EventsFailed++
			details.Errors = append(details.Errors, fmt.Sprintf("event %s: %v", events[i].ID, res.Err))
			continue
		}
		tally := res.Value
		details.Games += tally.games
		details.Quotes += tally.quotes
		details.Props += tally.props
		details.UpsertFailures += tally.upsertFailures
		details.Errors = append(details.Errors, tally.errors...)
	}

	c.logger.Info().
		Str("sport", string(opts.Sport)).
		Int("events", details.Events).
		Int("events_fetched", workerpool.Succeeded(results)).
		Int("events_failed", details.EventsFailed).
		Int("games", details.Games).
		Int("quotes", details.Quotes).
		Int("props", details.Props).
		Int("upsert_failures", details.UpsertFailures).
		Msg("collection pass finished")

	return details, nil
}

func (c *Collector) collectEvent(
	ctx context.Context,
	opts Options,
	sportKey string,
	listed models.FeedEvent,
	allow map[string]bool,
	markets []string,
) (*eventTally, error) {
	event, err := c.feed.FetchEventOdds(ctx, sportKey, listed.ID, opts.Books, markets)
	c.metrics.EventFetch(opts.Sport, err)
	if err != nil {
		c.logger.Warn().
			Err(err).
			Str("sport", string(opts.Sport)).
			Str("event_id", listed.ID).
			Msg("failed to fetch event odds")
		return nil, err
	}
	mergeListing(event, &listed)

	normalized := Normalize(event, opts.Sport, allow, opts.SkipAlternates, c.now().UTC())
	tally := &eventTally{}

	if _, err := c.repo.UpsertGame(ctx, normalized.Game); err != nil {
		c.metrics.Entity("game", err)
		tally.fail(fmt.Sprintf("game %s: %v", listed.ID, err))
		// quotes and props reference the game row
		return tally, nil
	}
	c.metrics.Entity("game", nil)
	tally.games++

	for _, quote := range normalized.Quotes {
		key := idempotency.OddsQuoteKey(quote.GameID, string(quote.Market), quote.Sportsbook)
		err := c.repo.UpsertOddsQuote(ctx, quote, key)
		c.metrics.Entity("quote", err)
		if err != nil {
			tally.fail(fmt.Sprintf("quote %s: %v", key, err))
		} else {
			tally.quotes++
		}
	}

	for _, prop := range normalized.Props {
		key := idempotency.PlayerPropKey(prop.GameID, prop.PlayerName, prop.PropType, prop.Sportsbook, prop.Line, prop.IsAlternate)
		err := c.repo.UpsertPlayerProp(ctx, prop, key)
		c.metrics.Entity("prop", err)
		if err != nil {
			tally.fail(fmt.Sprintf("prop %s: %v", key, err))
		} else {
			tally.props++
		}
	}

	return tally, nil
}

func (t *eventTally) fail(msg string) {
	t.upsertFailures++
	t.errors = append(t.errors, msg)
}

// mergeListing fills fields the odds response may omit from the events listing
func mergeListing(event *models.FeedEvent, listed *models.FeedEvent) {
	if event.ID == "" {
		event.ID = listed.ID
	}
	if event.HomeTeam == "" {
		event.HomeTeam = listed.HomeTeam
	}
	if event.AwayTeam == "" {
		event.AwayTeam = listed.AwayTeam
	}
	if event.CommenceTime.IsZero() {
		event.CommenceTime = listed.CommenceTime
	}
}
