package confidence

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// WelchTTest runs a two-sided Welch two-sample t-test and returns the
// p-value. ok is false when the test is degenerate (fewer than two samples a
// side, zero pooled variance, or a non-finite statistic); callers fall back
// to their own default in that case.
func WelchTTest(x, y []float64) (p float64, ok bool) {
	x, y = dropNaN(x), dropNaN(y)
	if len(x) < 2 || len(y) < 2 {
		return 0, false
	}

	meanX, varX := stat.MeanVariance(x, nil)
	meanY, varY := stat.MeanVariance(y, nil)

	nx, ny := float64(len(x)), float64(len(y))
	se := varX/nx + varY/ny
	if se <= 0 || math.IsNaN(se) {
		return 0, false
	}

	t := (meanX - meanY) / math.Sqrt(se)

	// Welch-Satterthwaite degrees of freedom
	num := se * se
	den := (varX/nx)*(varX/nx)/(nx-1) + (varY/ny)*(varY/ny)/(ny-1)
	if den <= 0 || math.IsNaN(den) {
		return 0, false
	}
	df := num / den

	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p = 2 * dist.Survival(math.Abs(t))
	if math.IsNaN(p) {
		return 0, false
	}
	if p > 1 {
		p = 1
	}
	return p, true
}

func dropNaN(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) && !math.IsInf(x, 0) {
			out = append(out, x)
		}
	}
	return out
}
