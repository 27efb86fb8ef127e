package confidence

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adlens/domain/campaign"
	"adlens/internal/metrics"
)

// revenueWindow builds a window where per-row ROAS equals revenue/100.
func revenueWindow(t *testing.T, revenue []float64) campaign.Window {
	t.Helper()
	n := len(revenue)
	spend := make([]float64, n)
	for i := range spend {
		spend[i] = 100
	}
	table := campaign.NewTable(n)
	require.NoError(t, table.AddNumeric(campaign.ColSpend, spend))
	require.NoError(t, table.AddNumeric(campaign.ColRevenue, revenue))
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return campaign.NewWindow(table.View(), start, start)
}

func TestScore_TinySampleDefaultsSignificance(t *testing.T) {
	scorer := NewScorer(metrics.NewCalculator())
	before := revenueWindow(t, []float64{500})
	after := revenueWindow(t, []float64{1000})

	// sample = min(1, 2/20) = 0.1; significance defaults to 0.5
	got := scorer.Score(before, after, campaign.MetricROAS)
	assert.InDelta(t, 0.34, got, 1e-9)
}

func TestScore_ClearShiftScoresHigh(t *testing.T) {
	scorer := NewScorer(metrics.NewCalculator())
	before := revenueWindow(t, []float64{500, 510, 495, 505, 490, 500, 515, 485, 502, 498})
	after := revenueWindow(t, []float64{900, 910, 895, 905, 890, 900, 915, 885, 902, 898})

	got := scorer.Score(before, after, campaign.MetricROAS)
	assert.GreaterOrEqual(t, got, 0.9)
	assert.LessOrEqual(t, got, 1.0)
}

func TestScore_DegenerateSamplesFallBack(t *testing.T) {
	scorer := NewScorer(metrics.NewCalculator())
	// zero variance on both sides: the t-test is degenerate
	before := revenueWindow(t, []float64{500, 500, 500})
	after := revenueWindow(t, []float64{500, 500, 500})

	// sample = min(1, 6/20) = 0.3; significance falls back to 0.5
	got := scorer.Score(before, after, campaign.MetricROAS)
	assert.InDelta(t, 0.42, got, 1e-9)
}

func TestScore_AlwaysWithinUnitInterval(t *testing.T) {
	scorer := NewScorerWithMinSample(metrics.NewCalculator(), 5)
	cases := [][2][]float64{
		{{500}, {500}},
		{{1, 2, 3}, {1000, 2000, 3000}},
		{{500, 500, 500, 500, 500, 500}, {500, 501, 499, 500, 502, 498}},
	}
	for _, c := range cases {
		got := scorer.Score(revenueWindow(t, c[0]), revenueWindow(t, c[1]), campaign.MetricROAS)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 1.0)
	}
}

func TestWelchTTest(t *testing.T) {
	t.Run("separated samples give small p", func(t *testing.T) {
		x := []float64{5.0, 5.1, 4.9, 5.05, 4.95, 5.02, 4.98, 5.15, 4.85, 5.0}
		y := []float64{9.0, 9.1, 8.9, 9.05, 8.95, 9.02, 8.98, 9.15, 8.85, 9.0}
		p, ok := WelchTTest(x, y)
		require.True(t, ok)
		assert.Less(t, p, 0.01)
	})

	t.Run("identical constants are degenerate", func(t *testing.T) {
		x := []float64{5, 5, 5}
		_, ok := WelchTTest(x, x)
		assert.False(t, ok)
	})

	t.Run("too few samples", func(t *testing.T) {
		_, ok := WelchTTest([]float64{1}, []float64{2, 3})
		assert.False(t, ok)
	})

	t.Run("NaN values are dropped", func(t *testing.T) {
		x := []float64{5.0, math.NaN(), 5.1, 4.9, 5.05, 4.95}
		y := []float64{9.0, 9.1, math.Inf(1), 8.9, 9.05, 8.95}
		p, ok := WelchTTest(x, y)
		require.True(t, ok)
		assert.Less(t, p, 0.05)
	})
}
