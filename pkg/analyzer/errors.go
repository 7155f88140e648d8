package analyzer

import (
	"errors"
	"fmt"
)

// Reasons an analysis could not be formed
const (
	ReasonTargetMissing         = "target_quote_missing"
	ReasonInsufficientReference = "insufficient_reference_books"
)

// InsufficientDataError means the market does not carry enough evidence to
// analyze the selection. It is an expected outcome, not a failure.
type InsufficientDataError struct {
	SelectionID    string
	TargetBook     string
	Reason         string
	AvailableBooks []string
	ReferenceBooks int
	Required       int
}

func (e *InsufficientDataError) Error() string {
	if e.Reason == ReasonInsufficientReference {
		return fmt.Sprintf("insufficient market data for %s at %s: %d reference books, need %d",
			e.SelectionID, e.TargetBook, e.ReferenceBooks, e.Required)
	}
	return fmt.Sprintf("insufficient market data for %s: no quote from %s", e.SelectionID, e.TargetBook)
}

// IsInsufficientData reports whether err carries an InsufficientDataError
func IsInsufficientData(err error) bool {
	var target *InsufficientDataError
	return errors.As(err, &target)
}
