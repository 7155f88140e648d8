package oddsmath

import "fmt"

// RemoveVig normalizes a two-way market so both sides sum to 1 (multiplicative method)
//
// Side A: -110 (52.38%) | Side B: -110 (52.38%)
// Overround: 104.76% → fair 50% / 50%
func RemoveVig(prob1, prob2 float64) (fair1, fair2 float64, err error) {
	if prob1 <= 0 || prob1 >= 1 || prob2 <= 0 || prob2 >= 1 {
		return 0, 0, fmt.Errorf("probabilities must be between 0 and 1")
	}

	total := prob1 + prob2
	return prob1 / total, prob2 / total, nil
}

// RemoveVigAmerican de-vigs a two-way market quoted in American odds
func RemoveVigAmerican(price, opposite int) (fair, fairOpposite float64, err error) {
	p1, err := ImpliedProbability(price)
	if err != nil {
		return 0, 0, err
	}
	p2, err := ImpliedProbability(opposite)
	if err != nil {
		return 0, 0, err
	}
	return RemoveVig(p1, p2)
}

// HoldPercent is the bookmaker margin of a two-way market, in percent
func HoldPercent(price, opposite int) (float64, error) {
	p1, err := ImpliedProbability(price)
	if err != nil {
		return 0, err
	}
	p2, err := ImpliedProbability(opposite)
	if err != nil {
		return 0, err
	}
	return (p1 + p2 - 1.0) * 100.0, nil
}

// ExpectedValuePercent is the EV of a $100 stake at the given price when the
// selection's true probability is fair: (fair × payout − (1 − fair)) × 100
func ExpectedValuePercent(fair float64, american int) (float64, error) {
	if fair <= 0 || fair >= 1 {
		return 0, fmt.Errorf("fair probability must be between 0 and 1")
	}
	payout, err := Payout(american)
	if err != nil {
		return 0, err
	}
	return (fair*payout - (1.0 - fair)) * 100.0, nil
}
