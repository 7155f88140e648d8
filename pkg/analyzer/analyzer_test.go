package analyzer

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cypherlabdev/odds-pipeline-service/internal/models"
	"github.com/cypherlabdev/odds-pipeline-service/pkg/oddsmath"
)

// testAnalyzerSetup is a helper struct to hold test dependencies
type testAnalyzerSetup struct {
	analyzer *Analyzer
	params   models.AnalysisParams
}

// setupTestAnalyzer creates a test analyzer with default parameters
func setupTestAnalyzer() *testAnalyzerSetup {
	params := models.AnalysisParams{
		SharpBooks:        []string{"pinnacle", "circa", "bookmaker"},
		MinReferenceBooks: 2,
		EdgeThreshold:     1.0,
		MaxLineDiff:       1.0,
		EVWeight:          5.0,
	}

	return &testAnalyzerSetup{
		analyzer: NewAnalyzer(params, zerolog.Nop()),
		params:   params,
	}
}

func quote(book, line string, price int, opposite *int) models.BookQuote {
	return models.BookQuote{
		Sportsbook:    book,
		Line:          decimal.RequireFromString(line),
		Price:         price,
		OppositePrice: opposite,
	}
}

func overSnapshot(quotes ...models.BookQuote) *models.MarketSnapshot {
	return &models.MarketSnapshot{
		SelectionID: "evt-1|patrick mahomes|player_pass_yds|over",
		Label:       "Patrick Mahomes over player_pass_yds",
		GameID:      "evt-1",
		Market:      "player_pass_yds",
		PlayerName:  "Patrick Mahomes",
		Side:        models.SideOver,
		Quotes:      quotes,
	}
}

func devig(t *testing.T, price, opposite int) float64 {
	fair, _, err := oddsmath.RemoveVigAmerican(price, opposite)
	require.NoError(t, err)
	return fair
}

// TestAnalyze_EdgeAgainstSharpConsensus tests a soft price beating the sharp consensus
func TestAnalyze_EdgeAgainstSharpConsensus(t *testing.T) {
	setup := setupTestAnalyzer()

	snapshot := overSnapshot(
		quote("fanduel", "275.5", 110, models.Price(-140)),
		quote("pinnacle", "275.5", -120, models.Price(100)),
		quote("circa", "275.5", -118, models.Price(-102)),
		quote("bookmaker", "275.5", -122, models.Price(102)),
	)

	result, err := setup.analyzer.Analyze(snapshot, "fanduel")
	require.NoError(t, err)

	// references are summed in book-name order
	expectedFair := (devig(t, -122, 102) + devig(t, -118, -102) + devig(t, -120, 100)) / 3
	expectedEV, err := oddsmath.ExpectedValuePercent(expectedFair, 110)
	require.NoError(t, err)

	assert.Equal(t, "fanduel", result.Sportsbook)
	assert.Equal(t, 110, result.Price)
	assert.InDelta(t, expectedFair, result.HitProbability, 1e-12)
	assert.InDelta(t, expectedEV, result.ExpectedValuePct, 1e-9)
	assert.InDelta(t, 100.0/210.0, result.BookProbability, 1e-12)
	assert.True(t, result.HasEdge)
	assert.Equal(t, []string{"bookmaker", "circa", "pinnacle"}, result.ReferenceBooks)
	assert.Equal(t, "fanduel", result.BestBook)
	assert.Equal(t, 110, result.BestPrice)
	assert.Equal(t, 0.0, result.LineDistance)
	assert.True(t, result.ConsensusLine.Equal(decimal.RequireFromString("275.5")))
	assert.Contains(t, result.Reasoning, "3-book no-vig consensus")

	expectedFairPrice, err := oddsmath.ProbabilityToAmerican(expectedFair)
	require.NoError(t, err)
	assert.Equal(t, expectedFairPrice, result.FairPrice)
	// +110 / -140 carries 100/210 + 140/240 - 1 of margin
	assert.InDelta(t, 5.95, result.BookHoldPct, 0.01)
	assert.GreaterOrEqual(t, result.RecommendationScore, 0.0)
	assert.LessOrEqual(t, result.RecommendationScore, 100.0)
}

// TestAnalyze_FairMinus110 checks the EV formula for a -110 price at a 0.52 consensus
func TestAnalyze_FairMinus110(t *testing.T) {
	ev, err := oddsmath.ExpectedValuePercent(0.52, -110)
	require.NoError(t, err)
	assert.InDelta(t, (0.52*(100.0/110.0)-0.48)*100, ev, 1e-9)

	// the flag compares strictly against the configured threshold
	setup := setupTestAnalyzer()
	snapshot := overSnapshot(
		quote("draftkings", "47.5", -110, models.Price(-110)),
		quote("pinnacle", "47.5", -115, models.Price(-105)),
		quote("circa", "47.5", -115, models.Price(-105)),
	)
	result, err := setup.analyzer.Analyze(snapshot, "draftkings")
	require.NoError(t, err)
	assert.Equal(t, result.ExpectedValuePct > setup.params.EdgeThreshold, result.HasEdge)
}

// TestAnalyze_Deterministic tests that repeated analysis yields identical results
func TestAnalyze_Deterministic(t *testing.T) {
	setup := setupTestAnalyzer()

	snapshot := overSnapshot(
		quote("fanduel", "275.5", -105, models.Price(-115)),
		quote("pinnacle", "275.5", -112, models.Price(-108)),
		quote("circa", "276.5", -110, models.Price(-110)),
		quote("bookmaker", "275.5", -109, models.Price(-111)),
	)

	first, err := setup.analyzer.Analyze(snapshot, "fanduel")
	require.NoError(t, err)

	// shuffled quote order must not change anything
	reordered := overSnapshot(snapshot.Quotes[3], snapshot.Quotes[1], snapshot.Quotes[0], snapshot.Quotes[2])
	for i := 0; i < 5; i++ {
		again, err := setup.analyzer.Analyze(reordered, "fanduel")
		require.NoError(t, err)
		assert.Equal(t, first.HitProbability, again.HitProbability)
		assert.Equal(t, first.ExpectedValuePct, again.ExpectedValuePct)
		assert.Equal(t, first.RecommendationScore, again.RecommendationScore)
		assert.Equal(t, first.ReferenceBooks, again.ReferenceBooks)
	}
}

// TestAnalyze_NoReferenceBooks tests the evidence floor
func TestAnalyze_NoReferenceBooks(t *testing.T) {
	setup := setupTestAnalyzer()

	snapshot := overSnapshot(
		quote("fanduel", "275.5", 110, models.Price(-140)),
		quote("draftkings", "275.5", 105, models.Price(-135)),
	)

	result, err := setup.analyzer.Analyze(snapshot, "fanduel")

	assert.Nil(t, result)
	require.Error(t, err)
	assert.True(t, IsInsufficientData(err))

	var insufficient *InsufficientDataError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, ReasonInsufficientReference, insufficient.Reason)
	assert.Equal(t, 0, insufficient.ReferenceBooks)
	assert.Equal(t, []string{"fanduel", "draftkings"}, insufficient.AvailableBooks)
}

// TestAnalyze_SingleReferenceBelowFloor tests that one sharp book is not enough
func TestAnalyze_SingleReferenceBelowFloor(t *testing.T) {
	setup := setupTestAnalyzer()

	snapshot := overSnapshot(
		quote("fanduel", "275.5", 110, models.Price(-140)),
		quote("pinnacle", "275.5", -120, models.Price(100)),
		// one-sided sharp quotes cannot be de-vigged
		quote("circa", "275.5", -118, nil),
	)

	_, err := setup.analyzer.Analyze(snapshot, "fanduel")

	var insufficient *InsufficientDataError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 1, insufficient.ReferenceBooks)
	assert.Equal(t, 2, insufficient.Required)
}

// TestAnalyze_TargetMissing tests analysis for a book that has no quote
func TestAnalyze_TargetMissing(t *testing.T) {
	setup := setupTestAnalyzer()

	snapshot := overSnapshot(
		quote("pinnacle", "275.5", -120, models.Price(100)),
		quote("circa", "275.5", -118, models.Price(-102)),
	)

	_, err := setup.analyzer.Analyze(snapshot, "fanduel")

	var insufficient *InsufficientDataError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, ReasonTargetMissing, insufficient.Reason)
	assert.Equal(t, []string{"pinnacle", "circa"}, insufficient.AvailableBooks)
	assert.Contains(t, err.Error(), "no quote from fanduel")
}

// TestAnalyze_TargetExcludedFromReference tests that a sharp target does not vote for itself
func TestAnalyze_TargetExcludedFromReference(t *testing.T) {
	setup := setupTestAnalyzer()

	snapshot := overSnapshot(
		quote("pinnacle", "275.5", -120, models.Price(100)),
		quote("circa", "275.5", -118, models.Price(-102)),
		quote("bookmaker", "275.5", -122, models.Price(102)),
	)

	result, err := setup.analyzer.Analyze(snapshot, "Pinnacle")
	require.NoError(t, err)
	assert.Equal(t, []string{"bookmaker", "circa"}, result.ReferenceBooks)
}

// TestAnalyze_LineWindow tests reference line filtering and line distance
func TestAnalyze_LineWindow(t *testing.T) {
	setup := setupTestAnalyzer()

	snapshot := overSnapshot(
		quote("fanduel", "275.5", -110, models.Price(-110)),
		quote("pinnacle", "276.5", -110, models.Price(-110)),
		quote("circa", "276.5", -110, models.Price(-110)),
		// too far from the target line
		quote("bookmaker", "280.5", -110, models.Price(-110)),
	)

	result, err := setup.analyzer.Analyze(snapshot, "fanduel")
	require.NoError(t, err)

	assert.Equal(t, []string{"circa", "pinnacle"}, result.ReferenceBooks)
	assert.InDelta(t, 1.0, result.LineDistance, 1e-12)
	assert.True(t, result.ConsensusLine.Equal(decimal.RequireFromString("276.5")))
}

// TestAnalyze_BestPrice tests best book selection at the target line
func TestAnalyze_BestPrice(t *testing.T) {
	setup := setupTestAnalyzer()

	snapshot := overSnapshot(
		quote("fanduel", "275.5", -110, models.Price(-110)),
		quote("draftkings", "275.5", 100, models.Price(-120)),
		quote("caesars", "275.5", 100, models.Price(-125)),
		quote("betmgm", "276.5", 120, models.Price(-140)),
		quote("pinnacle", "275.5", -108, models.Price(-112)),
		quote("circa", "275.5", -108, models.Price(-112)),
	)

	result, err := setup.analyzer.Analyze(snapshot, "fanduel")
	require.NoError(t, err)

	assert.Equal(t, "caesars", result.BestBook)
	assert.Equal(t, 100, result.BestPrice)
}

// TestScore_Bounds tests score clamping and reference depth bonus
func TestScore_Bounds(t *testing.T) {
	setup := setupTestAnalyzer()

	assert.Equal(t, 100.0, setup.analyzer.score(50, 2, 0))
	assert.Equal(t, 0.0, setup.analyzer.score(-50, 2, 0))
	assert.Equal(t, 50.0, setup.analyzer.score(0, 2, 0))
	assert.Equal(t, 54.0, setup.analyzer.score(0, 4, 0))
	assert.Equal(t, 60.0, setup.analyzer.score(0, 20, 0))
	assert.Equal(t, 45.0, setup.analyzer.score(0, 2, 0.5))
	assert.Equal(t, 62.5, setup.analyzer.score(2.5, 2, 0))
}

// TestBatchAnalyze_SkipsUnanalyzable tests batch analysis
func TestBatchAnalyze_SkipsUnanalyzable(t *testing.T) {
	setup := setupTestAnalyzer()

	good := overSnapshot(
		quote("fanduel", "275.5", 110, models.Price(-140)),
		quote("pinnacle", "275.5", -120, models.Price(100)),
		quote("circa", "275.5", -118, models.Price(-102)),
	)
	thin := overSnapshot(quote("fanduel", "275.5", 110, models.Price(-140)))

	results := setup.analyzer.BatchAnalyze([]Candidate{
		{Snapshot: good, TargetBook: "fanduel"},
		{Snapshot: thin, TargetBook: "fanduel"},
		{Snapshot: good, TargetBook: "betmgm"},
	})

	require.Len(t, results, 1)
	assert.Equal(t, "fanduel", results[0].Sportsbook)
}

func TestNewAnalyzer_ClampsFloor(t *testing.T) {
	a := NewAnalyzer(models.AnalysisParams{}, zerolog.Nop())
	assert.Equal(t, 1, a.params.MinReferenceBooks)
	assert.False(t, a.IsReference("pinnacle"))
}
