// Package analyzer evaluates a sportsbook price against the no-vig consensus of the sharp books.
package analyzer

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cypherlabdev/odds-pipeline-service/internal/models"
	"github.com/cypherlabdev/odds-pipeline-service/pkg/oddsmath"
)

const lineEpsilon = 1e-9

// Candidate pairs a market snapshot with the book whose price is evaluated
type Candidate struct {
	Snapshot   *models.MarketSnapshot
	TargetBook string
}

// Analyzer computes fair probability, expected value and a recommendation score
type Analyzer struct {
	params models.AnalysisParams
	sharp  map[string]bool
	logger zerolog.Logger
}

// NewAnalyzer creates a new edge analyzer
func NewAnalyzer(params models.AnalysisParams, logger zerolog.Logger) *Analyzer {
	if params.MinReferenceBooks < 1 {
		params.MinReferenceBooks = 1
	}

	sharp := make(map[string]bool, len(params.SharpBooks))
	for _, book := range params.SharpBooks {
		sharp[strings.ToLower(book)] = true
	}

	return &Analyzer{
		params: params,
		sharp:  sharp,
		logger: logger.With().Str("component", "analyzer").Logger(),
	}
}

// IsReference reports whether book belongs to the sharp reference set
func (a *Analyzer) IsReference(book string) bool {
	return a.sharp[strings.ToLower(book)]
}

type reference struct {
	book string
	fair float64
	line float64
}

// Analyze evaluates targetBook's price in the snapshot.
// Returns *InsufficientDataError when the target has no quote or too few
// reference books can be de-vigged.
func (a *Analyzer) Analyze(snapshot *models.MarketSnapshot, targetBook string) (*models.AnalysisResult, error) {
	target, ok := findQuote(snapshot, targetBook)
	if !ok {
		return nil, &InsufficientDataError{
			SelectionID:    snapshot.SelectionID,
			TargetBook:     targetBook,
			Reason:         ReasonTargetMissing,
			AvailableBooks: snapshot.Books(),
			Required:       a.params.MinReferenceBooks,
		}
	}

	bookProb, err := oddsmath.ImpliedProbability(target.Price)
	if err != nil {
		return nil, fmt.Errorf("invalid target price: %w", err)
	}

	targetLine := target.Line.InexactFloat64()
	refs := a.references(snapshot, target.Sportsbook, targetLine)
	if len(refs) < a.params.MinReferenceBooks {
		return nil, &InsufficientDataError{
			SelectionID:    snapshot.SelectionID,
			TargetBook:     targetBook,
			Reason:         ReasonInsufficientReference,
			AvailableBooks: snapshot.Books(),
			ReferenceBooks: len(refs),
			Required:       a.params.MinReferenceBooks,
		}
	}

	var sumFair, sumLine float64
	refBooks := make([]string, len(refs))
	for i, r := range refs {
		sumFair += r.fair
		sumLine += r.line
		refBooks[i] = r.book
	}
	fair := sumFair / float64(len(refs))
	consensusLine := sumLine / float64(len(refs))

	ev, err := oddsmath.ExpectedValuePercent(fair, target.Price)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate expected value: %w", err)
	}

	lineDistance := math.Abs(targetLine - consensusLine)
	best := bestQuote(snapshot, target)

	fairPrice, err := oddsmath.ProbabilityToAmerican(fair)
	if err != nil {
		return nil, fmt.Errorf("failed to price consensus: %w", err)
	}
	var hold float64
	if target.OppositePrice != nil {
		if h, err := oddsmath.HoldPercent(target.Price, *target.OppositePrice); err == nil {
			hold = math.Round(h*100) / 100
		}
	}

	result := &models.AnalysisResult{
		SelectionID:         snapshot.SelectionID,
		Selection:           snapshot.Label,
		GameID:              snapshot.GameID,
		Market:              snapshot.Market,
		Side:                snapshot.Side,
		Sportsbook:          target.Sportsbook,
		Price:               target.Price,
		Line:                target.Line,
		BookProbability:     bookProb,
		HitProbability:      fair,
		FairPrice:           fairPrice,
		BookHoldPct:         hold,
		ExpectedValuePct:    ev,
		HasEdge:             ev > a.params.EdgeThreshold,
		BestBook:            best.Sportsbook,
		BestPrice:           best.Price,
		ReferenceBooks:      refBooks,
		ConsensusLine:       decimal.NewFromFloat(consensusLine).Round(2),
		LineDistance:        lineDistance,
		RecommendationScore: a.score(ev, len(refs), lineDistance),
	}
	result.Reasoning = reasoning(result)

	return result, nil
}

// references de-vigs every usable sharp quote, one per book, sorted by book name
// so the consensus sum is evaluated in a fixed order.
func (a *Analyzer) references(snapshot *models.MarketSnapshot, targetBook string, targetLine float64) []reference {
	byBook := make(map[string]reference)

	for _, q := range snapshot.Quotes {
		book := strings.ToLower(q.Sportsbook)
		if book == strings.ToLower(targetBook) || !a.sharp[book] || q.OppositePrice == nil {
			continue
		}

		line := q.Line.InexactFloat64()
		if math.Abs(line-targetLine) > a.params.MaxLineDiff+lineEpsilon {
			continue
		}

		fair, _, err := oddsmath.RemoveVigAmerican(q.Price, *q.OppositePrice)
		if err != nil {
			a.logger.Debug().
				Err(err).
				Str("selection_id", snapshot.SelectionID).
				Str("book", q.Sportsbook).
				Msg("skipping unusable reference quote")
			continue
		}

		// a book quoting several lines contributes the one closest to the target
		if prev, ok := byBook[book]; ok && math.Abs(prev.line-targetLine) <= math.Abs(line-targetLine) {
			continue
		}
		byBook[book] = reference{book: book, fair: fair, line: line}
	}

	refs := make([]reference, 0, len(byBook))
	for _, r := range byBook {
		refs = append(refs, r)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].book < refs[j].book })

	return refs
}

// score maps EV, depth of evidence and line agreement onto 0-100
func (a *Analyzer) score(ev float64, refCount int, lineDistance float64) float64 {
	extra := refCount - a.params.MinReferenceBooks
	if extra > 5 {
		extra = 5
	}

	s := 50.0 + a.params.EVWeight*ev + 2.0*float64(extra) - 10.0*lineDistance
	s = math.Max(0, math.Min(100, s))

	return math.Round(s*10) / 10
}

// BatchAnalyze analyzes candidates, skipping the ones without enough evidence
func (a *Analyzer) BatchAnalyze(candidates []Candidate) []*models.AnalysisResult {
	results := make([]*models.AnalysisResult, 0, len(candidates))
	skipped := 0

	for _, c := range candidates {
		res, err := a.Analyze(c.Snapshot, c.TargetBook)
		if err != nil {
			skipped++
			if !IsInsufficientData(err) {
				a.logger.Warn().
					Err(err).
					Str("selection_id", c.Snapshot.SelectionID).
					Str("book", c.TargetBook).
					Msg("failed to analyze selection")
			}
			continue
		}
		results = append(results, res)
	}

	a.logger.Debug().
		Int("input_count", len(candidates)).
		Int("output_count", len(results)).
		Int("skipped", skipped).
		Msg("batch analysis complete")

	return results
}

func findQuote(snapshot *models.MarketSnapshot, book string) (models.BookQuote, bool) {
	for _, q := range snapshot.Quotes {
		if strings.EqualFold(q.Sportsbook, book) && q.Price != 0 {
			return q, true
		}
	}
	return models.BookQuote{}, false
}

// bestQuote is the highest paying quote at the target's line; ties go to the lower book name
func bestQuote(snapshot *models.MarketSnapshot, target models.BookQuote) models.BookQuote {
	best := target
	for _, q := range snapshot.Quotes {
		if q.Price == 0 || !q.Line.Equal(target.Line) {
			continue
		}
		if oddsmath.Better(q.Price, best.Price) ||
			(q.Price == best.Price && strings.ToLower(q.Sportsbook) < strings.ToLower(best.Sportsbook)) {
			best = q
		}
	}
	return best
}

func reasoning(r *models.AnalysisResult) string {
	verdict := "no edge"
	if r.HasEdge {
		verdict = "edge"
	}
	return fmt.Sprintf("%s at %s %+d: %d-book no-vig consensus %.1f%% (fair %+d) vs book %.1f%%, EV %+.2f%% (%s); best price %+d at %s",
		r.Selection, r.Sportsbook, r.Price,
		len(r.ReferenceBooks), r.HitProbability*100, r.FairPrice, r.BookProbability*100,
		r.ExpectedValuePct, verdict, r.BestPrice, r.BestBook)
}
