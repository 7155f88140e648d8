package collector

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cypherlabdev/odds-pipeline-service/internal/models"
)

// Feed market keys for game lines
const (
	FeedMarketH2H     = "h2h"
	FeedMarketSpreads = "spreads"
	FeedMarketTotals  = "totals"

	propMarketPrefix = "player_"
	alternateSuffix  = "_alternate"
	outcomeOver      = "over"
	outcomeUnder     = "under"
)

var gameMarkets = map[string]models.MarketType{
	FeedMarketH2H:     models.MarketMoneyline,
	FeedMarketSpreads: models.MarketSpread,
	FeedMarketTotals:  models.MarketTotal,
}

// Normalized is everything one feed event yields
type Normalized struct {
	Game   *models.Game
	Quotes []*models.OddsQuote
	Props  []*models.PlayerProp
}

// Normalize converts a feed event into a game, its game-line quotes and its
// player props. Books outside allow (when non-empty) are ignored. A book may
// offer any subset of markets; markets that cannot be read are skipped.
func Normalize(event *models.FeedEvent, sport models.Sport, allow map[string]bool, skipAlternates bool, collectedAt time.Time) *Normalized {
	out := &Normalized{
		Game: &models.Game{
			ID:           event.ID,
			Sport:        sport,
			HomeTeam:     event.HomeTeam,
			AwayTeam:     event.AwayTeam,
			CommenceTime: event.CommenceTime.UTC(),
		},
	}

	for _, book := range event.Bookmakers {
		bookKey := strings.ToLower(book.Key)
		if len(allow) > 0 && !allow[bookKey] {
			continue
		}

		for _, market := range book.Markets {
			lastUpdate := market.LastUpdate
			if lastUpdate.IsZero() {
				lastUpdate = book.LastUpdate
			}

			if marketType, ok := gameMarkets[market.Key]; ok {
				quote := gameQuote(event, marketType, market.Outcomes)
				if quote == nil {
					continue
				}
				quote.GameID = event.ID
				quote.Sportsbook = bookKey
				quote.LastUpdate = lastUpdate
				quote.CollectedAt = collectedAt
				out.Quotes = append(out.Quotes, quote)
				continue
			}

			if !strings.HasPrefix(market.Key, propMarketPrefix) {
				continue
			}
			propType := market.Key
			alternate := strings.HasSuffix(propType, alternateSuffix)
			if alternate {
				if skipAlternates {
					continue
				}
				propType = strings.TrimSuffix(propType, alternateSuffix)
			}

			for _, prop := range props(market.Outcomes) {
				prop.GameID = event.ID
				prop.PropType = propType
				prop.Sportsbook = bookKey
				prop.IsAlternate = alternate
				prop.LastUpdate = lastUpdate
				prop.CollectedAt = collectedAt
				out.Props = append(out.Props, prop)
			}
		}
	}

	return out
}

func gameQuote(event *models.FeedEvent, market models.MarketType, outcomes []models.FeedOutcome) *models.OddsQuote {
	quote := &models.OddsQuote{Market: market}

	switch market {
	case models.MarketMoneyline:
		for _, o := range outcomes {
			switch {
			case strings.EqualFold(o.Name, event.HomeTeam):
				quote.HomePrice = price(o.Price)
			case strings.EqualFold(o.Name, event.AwayTeam):
				quote.AwayPrice = price(o.Price)
			}
		}
		if quote.HomePrice == nil && quote.AwayPrice == nil {
			return nil
		}

	case models.MarketSpread:
		for _, o := range outcomes {
			switch {
			case strings.EqualFold(o.Name, event.HomeTeam):
				quote.HomePrice = price(o.Price)
				if o.Point != nil {
					quote.Line = decimal.NewNullDecimal(decimal.NewFromFloat(*o.Point))
				}
			case strings.EqualFold(o.Name, event.AwayTeam):
				quote.AwayPrice = price(o.Price)
				if o.Point != nil && !quote.Line.Valid {
					quote.Line = decimal.NewNullDecimal(decimal.NewFromFloat(*o.Point).Neg())
				}
			}
		}
		if !quote.Line.Valid {
			return nil
		}

	case models.MarketTotal:
		for _, o := range outcomes {
			switch strings.ToLower(o.Name) {
			case outcomeOver:
				quote.OverPrice = price(o.Price)
			case outcomeUnder:
				quote.UnderPrice = price(o.Price)
			default:
				continue
			}
			if o.Point != nil && !quote.Line.Valid {
				quote.Line = decimal.NewNullDecimal(decimal.NewFromFloat(*o.Point))
			}
		}
		if !quote.Line.Valid {
			return nil
		}
	}

	return quote
}

// props pairs over/under outcomes by player and line, in first-seen order
func props(outcomes []models.FeedOutcome) []*models.PlayerProp {
	type propKey struct {
		player string
		line   string
	}

	var ordered []*models.PlayerProp
	index := make(map[propKey]*models.PlayerProp)

	for _, o := range outcomes {
		side := strings.ToLower(o.Name)
		if o.Description == "" || o.Point == nil || (side != outcomeOver && side != outcomeUnder) {
			continue
		}

		line := decimal.NewFromFloat(*o.Point)
		key := propKey{player: strings.ToLower(o.Description), line: line.String()}
		prop, ok := index[key]
		if !ok {
			prop = &models.PlayerProp{PlayerName: o.Description, Line: line}
			index[key] = prop
			ordered = append(ordered, prop)
		}

		if side == outcomeOver {
			prop.OverPrice = price(o.Price)
		} else {
			prop.UnderPrice = price(o.Price)
		}
	}

	return ordered
}

func price(american float64) *int {
	return models.Price(int(math.Round(american)))
}
