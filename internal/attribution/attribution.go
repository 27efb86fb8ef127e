package attribution

import (
	"adlens/domain/campaign"
	"adlens/internal/metrics"
)

// Calculator recomputes a metric independently per distinct value of a
// grouping dimension in each window and reports each group's own delta.
// The returned map is a set of independent single-group deltas, not a
// partition of the total change.
type Calculator struct {
	calc *metrics.Calculator
}

// NewCalculator creates an attribution calculator.
func NewCalculator(calc *metrics.Calculator) *Calculator {
	return &Calculator{calc: calc}
}

// Attribute computes after-minus-before metric deltas per distinct value of
// groupCol present in either window. A missing group column yields an empty
// map.
func (a *Calculator) Attribute(before, after campaign.Window, metric campaign.Metric, groupCol string) map[string]float64 {
	if before.View() == nil || after.View() == nil {
		return map[string]float64{}
	}
	if !before.View().Table().HasColumn(groupCol) {
		return map[string]float64{}
	}

	beforeGroups := before.View().GroupBy(groupCol)
	afterGroups := after.View().GroupBy(groupCol)

	keys := make(map[string]bool)
	for k := range beforeGroups {
		keys[k] = true
	}
	for k := range afterGroups {
		keys[k] = true
	}

	out := make(map[string]float64, len(keys))
	for key := range keys {
		var beforeValue, afterValue float64
		if g, ok := beforeGroups[key]; ok {
			beforeValue = a.calc.ViewValue(g, metric)
		}
		if g, ok := afterGroups[key]; ok {
			afterValue = a.calc.ViewValue(g, metric)
		}
		out[key] = afterValue - beforeValue
	}
	return out
}
