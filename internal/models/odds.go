package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MarketType is the kind of game line a quote carries
type MarketType string

const (
	MarketSpread    MarketType = "spread"
	MarketTotal     MarketType = "total"
	MarketMoneyline MarketType = "moneyline"
)

// Valid reports whether m is one of the known game markets
func (m MarketType) Valid() bool {
	switch m {
	case MarketSpread, MarketTotal, MarketMoneyline:
		return true
	}
	return false
}

// OddsQuote is one sportsbook's price for one game market.
// Spread and moneyline use the home/away prices, totals use over/under.
// Line holds the home spread or the total points and is null for moneylines.
type OddsQuote struct {
	GameID      string              `json:"game_id"`
	Sportsbook  string              `json:"sportsbook"`
	Market      MarketType          `json:"market"`
	Line        decimal.NullDecimal `json:"line"`
	HomePrice   *int                `json:"home_price,omitempty"`
	AwayPrice   *int                `json:"away_price,omitempty"`
	OverPrice   *int                `json:"over_price,omitempty"`
	UnderPrice  *int                `json:"under_price,omitempty"`
	LastUpdate  time.Time           `json:"last_update"`
	CollectedAt time.Time           `json:"collected_at"`
}

// PlayerProp is one sportsbook's over/under on a player statistic
type PlayerProp struct {
	GameID      string          `json:"game_id"`
	PlayerName  string          `json:"player_name"`
	PropType    string          `json:"prop_type"`
	Sportsbook  string          `json:"sportsbook"`
	Line        decimal.Decimal `json:"line"`
	OverPrice   *int            `json:"over_price,omitempty"`
	UnderPrice  *int            `json:"under_price,omitempty"`
	IsAlternate bool            `json:"is_alternate"`
	LastUpdate  time.Time       `json:"last_update"`
	CollectedAt time.Time       `json:"collected_at"`
}

// PropFilter narrows a player prop read. Zero values match everything.
type PropFilter struct {
	GameIDs          []string
	PlayerName       string
	PropType         string
	IncludeAlternate bool
}

// SpreadOdds is the spread section of a merged per-book record
type SpreadOdds struct {
	HomeLine  decimal.Decimal `json:"home_line"`
	HomePrice *int            `json:"home_price,omitempty"`
	AwayPrice *int            `json:"away_price,omitempty"`
}

// TotalOdds is the total section of a merged per-book record
type TotalOdds struct {
	Line       decimal.Decimal `json:"line"`
	OverPrice  *int            `json:"over_price,omitempty"`
	UnderPrice *int            `json:"under_price,omitempty"`
}

// MoneylineOdds is the moneyline section of a merged per-book record
type MoneylineOdds struct {
	HomePrice *int `json:"home_price,omitempty"`
	AwayPrice *int `json:"away_price,omitempty"`
}

// BookOdds merges every market one sportsbook quotes for a game.
// Any section may be nil when the book does not offer that market.
type BookOdds struct {
	Sportsbook string         `json:"sportsbook"`
	Spread     *SpreadOdds    `json:"spread,omitempty"`
	Total      *TotalOdds     `json:"total,omitempty"`
	Moneyline  *MoneylineOdds `json:"moneyline,omitempty"`
	LastUpdate time.Time      `json:"last_update"`
}

// GameConsensus is the per-book view of one game's markets
type GameConsensus struct {
	GameID string     `json:"game_id"`
	Books  []BookOdds `json:"books"`
}

// Price returns a pointer to an American price, for literal construction
func Price(american int) *int {
	return &american
}
