package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side is the outcome of a two-way market a selection backs
type Side string

const (
	SideOver  Side = "over"
	SideUnder Side = "under"
	SideHome  Side = "home"
	SideAway  Side = "away"
)

// Opposite returns the other side of the same two-way market
func (s Side) Opposite() Side {
	switch s {
	case SideOver:
		return SideUnder
	case SideUnder:
		return SideOver
	case SideHome:
		return SideAway
	case SideAway:
		return SideHome
	}
	return ""
}

// BookQuote is one book's price for a selection plus the price of the opposite side.
// OppositePrice is nil when the book only hangs one side.
type BookQuote struct {
	Sportsbook    string          `json:"sportsbook"`
	Line          decimal.Decimal `json:"line"`
	Price         int             `json:"price"`
	OppositePrice *int            `json:"opposite_price,omitempty"`
}

// MarketSnapshot is every book's quote for a single selection at one point in time
type MarketSnapshot struct {
	SelectionID string      `json:"selection_id"`
	Label       string      `json:"label"`
	GameID      string      `json:"game_id"`
	Market      string      `json:"market"`
	PlayerName  string      `json:"player_name,omitempty"`
	Side        Side        `json:"side"`
	Quotes      []BookQuote `json:"quotes"`
}

// Books lists the sportsbooks present in the snapshot, in quote order
func (s *MarketSnapshot) Books() []string {
	books := make([]string, 0, len(s.Quotes))
	seen := make(map[string]bool, len(s.Quotes))
	for _, q := range s.Quotes {
		if seen[q.Sportsbook] {
			continue
		}
		seen[q.Sportsbook] = true
		books = append(books, q.Sportsbook)
	}
	return books
}

// AnalysisResult is the edge evaluation of one book's price for one selection.
// It is a pure function of the snapshot it was computed from.
type AnalysisResult struct {
	SelectionID         string          `json:"selection_id"`
	Selection           string          `json:"selection"`
	GameID              string          `json:"game_id"`
	Market              string          `json:"market"`
	Side                Side            `json:"side"`
	Sportsbook          string          `json:"sportsbook"`
	Price               int             `json:"price"`
	Line                decimal.Decimal `json:"line"`
	BookProbability     float64         `json:"book_implied_probability"`
	HitProbability      float64         `json:"implied_hit_probability"`
	FairPrice           int             `json:"fair_price"`
	BookHoldPct         float64         `json:"book_hold_pct"` // 0 when the book hangs one side
	ExpectedValuePct    float64         `json:"expected_value_pct"`
	HasEdge             bool            `json:"has_edge"`
	BestBook            string          `json:"best_book"`
	BestPrice           int             `json:"best_price"`
	ReferenceBooks      []string        `json:"reference_books"`
	ConsensusLine       decimal.Decimal `json:"consensus_line"`
	LineDistance        float64         `json:"line_distance"`
	RecommendationScore float64         `json:"recommendation_score"`
	Reasoning           string          `json:"reasoning"`
}

// FeaturedPick is a ranked analysis surfaced for a day
type FeaturedPick struct {
	Rank        int            `json:"rank"`
	Day         string         `json:"day"`
	Analysis    AnalysisResult `json:"analysis"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// AnalysisParams holds the edge engine's tuning
type AnalysisParams struct {
	SharpBooks        []string // reference books used to form the no-vig consensus
	MinReferenceBooks int      // evidence floor: fewer reference books means no analysis
	EdgeThreshold     float64  // EV% a price must exceed to be flagged as an edge
	MaxLineDiff       float64  // max |reference line - target line| to count a reference
	EVWeight          float64  // score points per EV%
}
