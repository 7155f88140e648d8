package models

import "time"

// FeedEvent is an event as returned by the upstream odds feed.
// Bookmakers is empty on the events listing and populated on the per-event odds call.
type FeedEvent struct {
	ID           string          `json:"id"`
	SportKey     string          `json:"sport_key"`
	CommenceTime time.Time       `json:"commence_time"`
	HomeTeam     string          `json:"home_team"`
	AwayTeam     string          `json:"away_team"`
	Bookmakers   []FeedBookmaker `json:"bookmakers,omitempty"`
}

// FeedBookmaker is one sportsbook's block inside a feed event
type FeedBookmaker struct {
	Key        string       `json:"key"`
	Title      string       `json:"title"`
	LastUpdate time.Time    `json:"last_update"`
	Markets    []FeedMarket `json:"markets"`
}

// FeedMarket is a market block (h2h, spreads, totals, player_* ...)
type FeedMarket struct {
	Key        string        `json:"key"`
	LastUpdate time.Time     `json:"last_update"`
	Outcomes   []FeedOutcome `json:"outcomes"`
}

// FeedOutcome is a single priced outcome. Description carries the player name on prop markets.
type FeedOutcome struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Price       float64  `json:"price"`
	Point       *float64 `json:"point,omitempty"`
}

// FeedQuota mirrors the request-usage headers the feed returns
type FeedQuota struct {
	Remaining int
	Used      int
}
