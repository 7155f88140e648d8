// Package consensus merges per-book quotes into per-game views and builds the
// market snapshots the analyzer consumes.
package consensus

import (
	"math"
	"sort"

	"github.com/cypherlabdev/odds-pipeline-service/internal/models"
)

// Aggregate groups quote rows by game and sportsbook and merges each book's
// markets into one record. Games keep first-seen order. Within a game, books are
// ordered by away moneyline descending, falling back to home moneyline, with books
// lacking a moneyline last; ties keep insertion order. The ordering is a display
// priority, not a statement about which price is best.
func Aggregate(rows []*models.OddsQuote) []models.GameConsensus {
	type gameGroup struct {
		books []models.BookOdds
		index map[string]int
	}

	var order []string
	groups := make(map[string]*gameGroup)

	for _, row := range rows {
		if row == nil {
			continue
		}

		g, ok := groups[row.GameID]
		if !ok {
			g = &gameGroup{index: make(map[string]int)}
			groups[row.GameID] = g
			order = append(order, row.GameID)
		}

		i, ok := g.index[row.Sportsbook]
		if !ok {
			g.books = append(g.books, models.BookOdds{Sportsbook: row.Sportsbook})
			i = len(g.books) - 1
			g.index[row.Sportsbook] = i
		}

		merge(&g.books[i], row)
	}

	out := make([]models.GameConsensus, 0, len(order))
	for _, gameID := range order {
		books := groups[gameID].books
		sort.SliceStable(books, func(i, j int) bool {
			return displayKey(books[i]) > displayKey(books[j])
		})
		out = append(out, models.GameConsensus{GameID: gameID, Books: books})
	}

	return out
}

// AggregateGame returns the merged view of a single game
func AggregateGame(gameID string, rows []*models.OddsQuote) models.GameConsensus {
	for _, gc := range Aggregate(rows) {
		if gc.GameID == gameID {
			return gc
		}
	}
	return models.GameConsensus{GameID: gameID, Books: []models.BookOdds{}}
}

func merge(book *models.BookOdds, row *models.OddsQuote) {
	switch row.Market {
	case models.MarketSpread:
		book.Spread = &models.SpreadOdds{
			HomeLine:  row.Line.Decimal,
			HomePrice: row.HomePrice,
			AwayPrice: row.AwayPrice,
		}
	case models.MarketTotal:
		book.Total = &models.TotalOdds{
			Line:       row.Line.Decimal,
			OverPrice:  row.OverPrice,
			UnderPrice: row.UnderPrice,
		}
	case models.MarketMoneyline:
		book.Moneyline = &models.MoneylineOdds{
			HomePrice: row.HomePrice,
			AwayPrice: row.AwayPrice,
		}
	}

	if row.LastUpdate.After(book.LastUpdate) {
		book.LastUpdate = row.LastUpdate
	}
}

func displayKey(b models.BookOdds) int {
	if b.Moneyline != nil {
		if b.Moneyline.AwayPrice != nil {
			return *b.Moneyline.AwayPrice
		}
		if b.Moneyline.HomePrice != nil {
			return *b.Moneyline.HomePrice
		}
	}
	return math.MinInt
}
