package confidence

import (
	"math"

	"adlens/domain/campaign"
	"adlens/internal/metrics"
)

// DefaultMinSample is the per-window sample size considered fully adequate.
const DefaultMinSample = 10

// Scorer blends a sample-size-adequacy score with a two-sample significance
// score into one [0,1] confidence value. It is a heuristic, not a formal
// causal-inference confidence interval.
type Scorer struct {
	calc      *metrics.Calculator
	minSample int
}

// NewScorer creates a confidence scorer with the default minimum sample size.
func NewScorer(calc *metrics.Calculator) *Scorer {
	return &Scorer{calc: calc, minSample: DefaultMinSample}
}

// NewScorerWithMinSample creates a scorer with an explicit minimum sample size.
func NewScorerWithMinSample(calc *metrics.Calculator, minSample int) *Scorer {
	if minSample <= 0 {
		minSample = DefaultMinSample
	}
	return &Scorer{calc: calc, minSample: minSample}
}

// Score computes confidence for a before/after comparison of the metric.
// sample = min(1, (n_before+n_after)/(2*minSample)); significance = 1 - p of
// a Welch two-sample t-test on per-row metric values, defaulting to 0.5 when
// either side has one row or fewer, or the test is degenerate. The blend is
// 0.4*sample + 0.6*significance, rounded to two decimals.
func (s *Scorer) Score(before, after campaign.Window, metric campaign.Metric) float64 {
	nBefore, nAfter := before.Rows(), after.Rows()

	sampleScore := math.Min(1, float64(nBefore+nAfter)/float64(2*s.minSample))

	significance := 0.5
	if nBefore > 1 && nAfter > 1 {
		x := s.calc.RowValues(before.View(), metric)
		y := s.calc.RowValues(after.View(), metric)
		if p, ok := WelchTTest(x, y); ok {
			significance = 1 - p
		}
	}

	confidence := 0.4*sampleScore + 0.6*significance
	return math.Round(confidence*100) / 100
}
