// Package oddsmath converts American odds and removes bookmaker hold.
package oddsmath

import (
	"fmt"
	"math"
)

// ImpliedProbability converts American odds to the book's implied probability
// +150 → 0.40, -110 → 0.5238
func ImpliedProbability(american int) (float64, error) {
	if american == 0 {
		return 0, fmt.Errorf("invalid American odds: cannot be 0")
	}
	if american > 0 {
		return 100.0 / (float64(american) + 100.0), nil
	}
	return float64(-american) / (float64(-american) + 100.0), nil
}

// Payout returns the profit per unit staked when the bet wins
// +150 → 1.50, -110 → 0.9091
func Payout(american int) (float64, error) {
	if american == 0 {
		return 0, fmt.Errorf("invalid American odds: cannot be 0")
	}
	if american > 0 {
		return float64(american) / 100.0, nil
	}
	return 100.0 / float64(-american), nil
}

// AmericanToDecimal converts American odds to decimal odds
// +150 → 2.50, -150 → 1.667
func AmericanToDecimal(american int) (float64, error) {
	payout, err := Payout(american)
	if err != nil {
		return 0, err
	}
	return payout + 1.0, nil
}

// ProbabilityToAmerican converts a probability to its fair American price
// 0.40 → +150, 0.60 → -150
func ProbabilityToAmerican(probability float64) (int, error) {
	if probability <= 0 || probability >= 1 {
		return 0, fmt.Errorf("invalid probability: must be between 0 and 1")
	}
	if probability <= 0.5 {
		return int(math.Round((1.0/probability - 1.0) * 100.0)), nil
	}
	return int(math.Round(-100.0 * probability / (1.0 - probability))), nil
}

// Better reports whether price a pays more than price b
func Better(a, b int) bool {
	pa, errA := Payout(a)
	pb, errB := Payout(b)
	if errA != nil {
		return false
	}
	if errB != nil {
		return true
	}
	return pa > pb
}
