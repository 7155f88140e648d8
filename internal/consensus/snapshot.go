package consensus

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cypherlabdev/odds-pipeline-service/internal/models"
	"github.com/cypherlabdev/odds-pipeline-service/pkg/idempotency"
)

// SelectionID identifies a selection independent of the book pricing it
func SelectionID(gameID, market, player string, side models.Side) string {
	return idempotency.Key("selection", gameID, market, player, side)
}

// ValidSide reports whether side belongs to market
func ValidSide(market models.MarketType, side models.Side) bool {
	switch market {
	case models.MarketMoneyline, models.MarketSpread:
		return side == models.SideHome || side == models.SideAway
	case models.MarketTotal:
		return side == models.SideOver || side == models.SideUnder
	}
	return false
}

// GameMarketSnapshot builds the snapshot of one side of a game market.
// game may be nil, in which case the label falls back to the game id.
func GameMarketSnapshot(game *models.Game, gameID string, quotes []*models.OddsQuote, market models.MarketType, side models.Side) (*models.MarketSnapshot, error) {
	if !ValidSide(market, side) {
		return nil, fmt.Errorf("side %q is not valid for market %q", side, market)
	}

	snapshot := &models.MarketSnapshot{
		SelectionID: SelectionID(gameID, string(market), "", side),
		Label:       gameLabel(game, gameID, market, side),
		GameID:      gameID,
		Market:      string(market),
		Side:        side,
		Quotes:      []models.BookQuote{},
	}

	for _, q := range quotes {
		if q == nil || q.GameID != gameID || q.Market != market {
			continue
		}
		if bq, ok := gameQuote(q, side); ok {
			snapshot.Quotes = append(snapshot.Quotes, bq)
		}
	}

	return snapshot, nil
}

func gameQuote(q *models.OddsQuote, side models.Side) (models.BookQuote, bool) {
	var price, opposite *int
	line := decimal.Zero

	switch q.Market {
	case models.MarketMoneyline:
		price, opposite = q.HomePrice, q.AwayPrice
		if side == models.SideAway {
			price, opposite = q.AwayPrice, q.HomePrice
		}
	case models.MarketSpread:
		if !q.Line.Valid {
			return models.BookQuote{}, false
		}
		line = q.Line.Decimal
		price, opposite = q.HomePrice, q.AwayPrice
		if side == models.SideAway {
			line = line.Neg()
			price, opposite = q.AwayPrice, q.HomePrice
		}
	case models.MarketTotal:
		if !q.Line.Valid {
			return models.BookQuote{}, false
		}
		line = q.Line.Decimal
		price, opposite = q.OverPrice, q.UnderPrice
		if side == models.SideUnder {
			price, opposite = q.UnderPrice, q.OverPrice
		}
	}

	if price == nil {
		return models.BookQuote{}, false
	}

	return models.BookQuote{
		Sportsbook:    q.Sportsbook,
		Line:          line,
		Price:         *price,
		OppositePrice: opposite,
	}, true
}

func gameLabel(game *models.Game, gameID string, market models.MarketType, side models.Side) string {
	if game == nil {
		return fmt.Sprintf("%s %s %s", gameID, market, side)
	}

	team := game.HomeTeam
	if side == models.SideAway {
		team = game.AwayTeam
	}

	switch market {
	case models.MarketMoneyline:
		return team + " moneyline"
	case models.MarketSpread:
		return team + " spread"
	}
	return fmt.Sprintf("%s %s", game.Matchup(), side)
}

// GroupProps groups props by (game, player, prop type) in first-seen order
func GroupProps(props []*models.PlayerProp) [][]*models.PlayerProp {
	var order []string
	groups := make(map[string][]*models.PlayerProp)

	for _, p := range props {
		if p == nil {
			continue
		}
		key := idempotency.Key(p.GameID, p.PlayerName, p.PropType)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], p)
	}

	out := make([][]*models.PlayerProp, 0, len(order))
	for _, key := range order {
		out = append(out, groups[key])
	}
	return out
}

// PropSnapshot builds the snapshot of one side of a player prop.
// props must all belong to the same (game, player, prop type).
func PropSnapshot(props []*models.PlayerProp, side models.Side) (*models.MarketSnapshot, error) {
	if side != models.SideOver && side != models.SideUnder {
		return nil, fmt.Errorf("side %q is not valid for a player prop", side)
	}
	if len(props) == 0 {
		return nil, fmt.Errorf("no props to snapshot")
	}

	first := props[0]
	snapshot := &models.MarketSnapshot{
		SelectionID: SelectionID(first.GameID, first.PropType, first.PlayerName, side),
		Label:       fmt.Sprintf("%s %s %s", first.PlayerName, side, first.PropType),
		GameID:      first.GameID,
		Market:      first.PropType,
		PlayerName:  first.PlayerName,
		Side:        side,
		Quotes:      make([]models.BookQuote, 0, len(props)),
	}

	for _, p := range props {
		price, opposite := p.OverPrice, p.UnderPrice
		if side == models.SideUnder {
			price, opposite = p.UnderPrice, p.OverPrice
		}
		if price == nil {
			continue
		}
		snapshot.Quotes = append(snapshot.Quotes, models.BookQuote{
			Sportsbook:    p.Sportsbook,
			Line:          p.Line,
			Price:         *price,
			OppositePrice: opposite,
		})
	}

	return snapshot, nil
}
