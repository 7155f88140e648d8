package consensus

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cypherlabdev/odds-pipeline-service/internal/models"
)

func line(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func moneyline(game, book string, home, away *int) *models.OddsQuote {
	return &models.OddsQuote{GameID: game, Sportsbook: book, Market: models.MarketMoneyline, HomePrice: home, AwayPrice: away}
}

func spread(game, book, homeLine string, home, away int) *models.OddsQuote {
	return &models.OddsQuote{GameID: game, Sportsbook: book, Market: models.MarketSpread, Line: line(homeLine), HomePrice: models.Price(home), AwayPrice: models.Price(away)}
}

func total(game, book, points string, over, under int) *models.OddsQuote {
	return &models.OddsQuote{GameID: game, Sportsbook: book, Market: models.MarketTotal, Line: line(points), OverPrice: models.Price(over), UnderPrice: models.Price(under)}
}

// TestAggregate_MergesMarketsPerBook tests that a book's markets merge into one record
func TestAggregate_MergesMarketsPerBook(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	ml := moneyline("g1", "fanduel", models.Price(-150), models.Price(130))
	ml.LastUpdate = now
	rows := []*models.OddsQuote{
		spread("g1", "fanduel", "-3.5", -110, -110),
		total("g1", "fanduel", "47.5", -105, -115),
		ml,
		// only a total from this book
		total("g1", "draftkings", "48", -110, -110),
	}

	out := Aggregate(rows)

	require.Len(t, out, 1)
	require.Len(t, out[0].Books, 2)

	fd := out[0].Books[0]
	assert.Equal(t, "fanduel", fd.Sportsbook)
	require.NotNil(t, fd.Spread)
	require.NotNil(t, fd.Total)
	require.NotNil(t, fd.Moneyline)
	assert.True(t, fd.Spread.HomeLine.Equal(decimal.RequireFromString("-3.5")))
	assert.Equal(t, -105, *fd.Total.OverPrice)
	assert.Equal(t, 130, *fd.Moneyline.AwayPrice)
	assert.Equal(t, now, fd.LastUpdate)

	dk := out[0].Books[1]
	assert.Equal(t, "draftkings", dk.Sportsbook)
	assert.Nil(t, dk.Spread)
	assert.Nil(t, dk.Moneyline)
	require.NotNil(t, dk.Total)
}

// TestAggregate_DisplayOrder tests away-ML, home-ML fallback and missing-last ordering
func TestAggregate_DisplayOrder(t *testing.T) {
	rows := []*models.OddsQuote{
		total("g1", "no-ml", "47.5", -110, -110),
		moneyline("g1", "away-120", models.Price(100), models.Price(120)),
		moneyline("g1", "home-only", models.Price(125), nil),
		moneyline("g1", "away-110", models.Price(-130), models.Price(110)),
		moneyline("g1", "tie-first", models.Price(-140), models.Price(120)),
	}

	out := Aggregate(rows)
	require.Len(t, out, 1)

	var books []string
	for _, b := range out[0].Books {
		books = append(books, b.Sportsbook)
	}
	assert.Equal(t, []string{"home-only", "away-120", "tie-first", "away-110", "no-ml"}, books)
}

// TestAggregate_MultipleGames tests game grouping in first-seen order
func TestAggregate_MultipleGames(t *testing.T) {
	rows := []*models.OddsQuote{
		moneyline("g2", "fanduel", models.Price(-110), models.Price(-110)),
		moneyline("g1", "fanduel", models.Price(-200), models.Price(170)),
		moneyline("g2", "pinnacle", models.Price(-105), models.Price(-105)),
		nil,
	}

	out := Aggregate(rows)

	require.Len(t, out, 2)
	assert.Equal(t, "g2", out[0].GameID)
	assert.Len(t, out[0].Books, 2)
	assert.Equal(t, "g1", out[1].GameID)

	single := AggregateGame("g1", rows)
	assert.Len(t, single.Books, 1)

	empty := AggregateGame("missing", rows)
	assert.Empty(t, empty.Books)
}

func TestAggregate_Empty(t *testing.T) {
	assert.Empty(t, Aggregate(nil))
}
