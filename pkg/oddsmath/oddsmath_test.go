package oddsmath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImpliedProbability(t *testing.T) {
	tests := []struct {
		name     string
		american int
		expected float64
	}{
		{"even money", 100, 0.5},
		{"plus 150", 150, 0.4},
		{"minus 150", -150, 0.6},
		{"minus 110", -110, 110.0 / 210.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ImpliedProbability(tt.american)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, p, 1e-12)
		})
	}

	_, err := ImpliedProbability(0)
	assert.Error(t, err)
}

func TestPayoutAndDecimal(t *testing.T) {
	p, err := Payout(-110)
	require.NoError(t, err)
	assert.InDelta(t, 100.0/110.0, p, 1e-12)

	d, err := AmericanToDecimal(150)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, d, 1e-12)
}

func TestProbabilityToAmerican(t *testing.T) {
	odds, err := ProbabilityToAmerican(0.4)
	require.NoError(t, err)
	assert.Equal(t, 150, odds)

	odds, err = ProbabilityToAmerican(0.6)
	require.NoError(t, err)
	assert.Equal(t, -150, odds)

	_, err = ProbabilityToAmerican(1)
	assert.Error(t, err)
}

func TestRemoveVig_StandardJuice(t *testing.T) {
	fair1, fair2, err := RemoveVigAmerican(-110, -110)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, fair1, 1e-12)
	assert.InDelta(t, 0.5, fair2, 1e-12)

	hold, err := HoldPercent(-110, -110)
	require.NoError(t, err)
	assert.InDelta(t, 4.76, hold, 0.01)
}

func TestRemoveVig_SumsToOne(t *testing.T) {
	fair1, fair2, err := RemoveVigAmerican(-135, 115)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, fair1+fair2, 1e-12)
	assert.Greater(t, fair1, fair2)
}

func TestRemoveVig_Invalid(t *testing.T) {
	_, _, err := RemoveVig(0, 0.5)
	assert.Error(t, err)
	_, _, err = RemoveVigAmerican(0, -110)
	assert.Error(t, err)
}

// TestExpectedValuePercent_FairMinus110 checks a -110 price against a 0.52 fair probability
func TestExpectedValuePercent_FairMinus110(t *testing.T) {
	ev, err := ExpectedValuePercent(0.52, -110)
	require.NoError(t, err)
	assert.InDelta(t, (0.52*(100.0/110.0)-0.48)*100, ev, 1e-9)
}

func TestExpectedValuePercent_PlusMoney(t *testing.T) {
	ev, err := ExpectedValuePercent(0.52, 110)
	require.NoError(t, err)
	assert.InDelta(t, 9.2, ev, 1e-9)

	_, err = ExpectedValuePercent(1.2, 110)
	assert.Error(t, err)
}

func TestBetter(t *testing.T) {
	assert.True(t, Better(-105, -110))
	assert.True(t, Better(120, -110))
	assert.False(t, Better(-120, 100))
}
