package models

import (
	"fmt"
	"strings"
	"time"
)

// Sport identifies a league we collect markets for
type Sport string

const (
	SportNFL   Sport = "NFL"
	SportNBA   Sport = "NBA"
	SportMLB   Sport = "MLB"
	SportNHL   Sport = "NHL"
	SportNCAAF Sport = "NCAAF"
	SportNCAAB Sport = "NCAAB"
)

var feedKeys = map[Sport]string{
	SportNFL:   "americanfootball_nfl",
	SportNBA:   "basketball_nba",
	SportMLB:   "baseball_mlb",
	SportNHL:   "icehockey_nhl",
	SportNCAAF: "americanfootball_ncaaf",
	SportNCAAB: "basketball_ncaab",
}

// FeedKey returns the upstream feed's sport key (e.g. "americanfootball_nfl")
func (s Sport) FeedKey() string {
	return feedKeys[s]
}

// ParseSport accepts either the league code or the upstream feed key
func ParseSport(raw string) (Sport, error) {
	candidate := Sport(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := feedKeys[candidate]; ok {
		return candidate, nil
	}

	lower := strings.ToLower(strings.TrimSpace(raw))
	for sport, key := range feedKeys {
		if key == lower {
			return sport, nil
		}
	}

	return "", fmt.Errorf("unknown sport: %q", raw)
}

// Game is a scheduled matchup. ID is the externally issued event id and is the
// idempotency anchor for every quote and prop that references the game.
type Game struct {
	ID           string    `json:"id"`
	Sport        Sport     `json:"sport"`
	HomeTeam     string    `json:"home_team"`
	AwayTeam     string    `json:"away_team"`
	CommenceTime time.Time `json:"commence_time"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Matchup renders "Away @ Home"
func (g *Game) Matchup() string {
	return g.AwayTeam + " @ " + g.HomeTeam
}
