package metrics

import (
	"math"

	"github.com/montanaflynn/stats"

	"adlens/domain/campaign"
)

// Calculator computes a metric's scalar value over any row subset. Derived
// metrics use a fixed formula table over column sums; a literal column is
// reduced to its mean. Missing columns read as zero and a zero denominator
// yields 0, never a division fault.
type Calculator struct{}

// NewCalculator creates a metric calculator.
func NewCalculator() *Calculator {
	return &Calculator{}
}

// Value computes the metric over a window.
func (c *Calculator) Value(w campaign.Window, metric campaign.Metric) float64 {
	if w.View() == nil {
		return 0
	}
	return c.ViewValue(w.View(), metric)
}

// ViewValue computes the metric over an arbitrary view.
func (c *Calculator) ViewValue(v *campaign.View, metric campaign.Metric) float64 {
	switch metric {
	case campaign.MetricROAS:
		return SafeDiv(v.Sum(campaign.ColRevenue), v.Sum(campaign.ColSpend))
	case campaign.MetricCPA:
		return SafeDiv(v.Sum(campaign.ColSpend), v.Sum(campaign.ColConversions))
	case campaign.MetricCTR:
		return SafeDiv(v.Sum(campaign.ColClicks), v.Sum(campaign.ColImpressions)) * 100
	case campaign.MetricCVR:
		return SafeDiv(v.Sum(campaign.ColConversions), v.Sum(campaign.ColClicks)) * 100
	case campaign.MetricCPC:
		return SafeDiv(v.Sum(campaign.ColSpend), v.Sum(campaign.ColClicks))
	case campaign.MetricCPM:
		return SafeDiv(v.Sum(campaign.ColSpend), v.Sum(campaign.ColImpressions)) * 1000
	}
	return c.columnMean(v, string(metric))
}

// RowValues computes the metric independently for each row of the view,
// feeding the significance test and the ML target. Rows where the formula
// denominator is zero evaluate to 0.
func (c *Calculator) RowValues(v *campaign.View, metric campaign.Metric) []float64 {
	out := make([]float64, v.Len())
	for pos := range out {
		out[pos] = c.ViewValue(v.Row(pos), metric)
	}
	return out
}

// Computable reports whether the view carries any signal for the metric:
// for derived metrics at least one required column, for literal metrics the
// column itself.
func (c *Calculator) Computable(v *campaign.View, metric campaign.Metric) bool {
	t := v.Table()
	switch metric {
	case campaign.MetricROAS:
		return t.HasColumn(campaign.ColRevenue) || t.HasColumn(campaign.ColSpend)
	case campaign.MetricCPA:
		return t.HasColumn(campaign.ColSpend) || t.HasColumn(campaign.ColConversions)
	case campaign.MetricCTR, campaign.MetricCPM:
		return t.HasColumn(campaign.ColImpressions)
	case campaign.MetricCVR, campaign.MetricCPC:
		return t.HasColumn(campaign.ColClicks)
	}
	return t.HasColumn(string(metric))
}

func (c *Calculator) columnMean(v *campaign.View, col string) float64 {
	raw := v.Values(col)
	clean := make([]float64, 0, len(raw))
	for _, x := range raw {
		if !math.IsNaN(x) {
			clean = append(clean, x)
		}
	}
	mean, err := stats.Mean(clean)
	if err != nil {
		return 0
	}
	return mean
}

// SafeDiv divides a by b, returning 0 on a zero or non-finite denominator.
func SafeDiv(a, b float64) float64 {
	if b == 0 || math.IsNaN(b) || math.IsInf(b, 0) || math.IsNaN(a) {
		return 0
	}
	return a / b
}
