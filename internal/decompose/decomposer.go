package decompose

import (
	"math"

	"adlens/domain/campaign"
	"adlens/domain/causal"
	"adlens/internal/metrics"
)

// Component names. These appear verbatim in results, insights, and
// recommendations.
const (
	ComponentConversionVolume = "Conversion Volume"
	ComponentAOV              = "Average Order Value"
	ComponentSpendLevel       = "Spend Level"
	ComponentCVR              = "Conversion Rate (CVR)"
	ComponentCTR              = "Click-Through Rate (CTR)"
	ComponentCPC              = "Cost Per Click (CPC)"
	ComponentClickVolume      = "Click Volume"
	ComponentImpressionVolume = "Impression Volume"
	ComponentUnknown          = "Unknown Factor"
)

// actionability is the fixed editorial tag per component type. It only ranks
// recommendations and is never derived from the data.
var actionability = map[string]causal.Actionability{
	ComponentCPC:              causal.ActionabilityHigh,
	ComponentCVR:              causal.ActionabilityHigh,
	ComponentSpendLevel:       causal.ActionabilityHigh,
	ComponentCTR:              causal.ActionabilityMedium,
	ComponentConversionVolume: causal.ActionabilityMedium,
	ComponentAOV:              causal.ActionabilityMedium,
	ComponentClickVolume:      causal.ActionabilityMedium,
	ComponentImpressionVolume: causal.ActionabilityLow,
	ComponentUnknown:          causal.ActionabilityLow,
}

// formula computes the raw component list for one metric. Each component is
// a first-order "freeze all but one factor" term; the terms approximate the
// total change without being required to sum to it exactly.
type formula func(before, after campaign.Window) []causal.ComponentContribution

// Decomposer turns a before/after window pair into an ordered list of
// component contributions for a metric. Dispatch is a closed strategy map
// keyed by the metric enum; metrics without a registered formula degrade to
// a single Unknown Factor placeholder.
type Decomposer struct {
	calc     *metrics.Calculator
	formulas map[campaign.Metric]formula
}

// NewDecomposer creates a decomposer with the full formula registry.
func NewDecomposer(calc *metrics.Calculator) *Decomposer {
	d := &Decomposer{calc: calc}
	d.formulas = map[campaign.Metric]formula{
		campaign.MetricROAS: d.decomposeROAS,
		campaign.MetricCPA:  d.decomposeCPA,
		campaign.MetricCTR:  d.decomposeCTR,
		campaign.MetricCVR:  d.decomposeCVR,
		campaign.MetricCPC:  d.decomposeCPC,
		campaign.MetricCPM:  d.decomposeCPM,
	}
	return d
}

// Decompose computes the component breakdown for a metric. The method
// selector exists for future extension: shapley and any unrecognized value
// currently route to the same formula-based path as hybrid. Contributions
// come back sorted by |absolute change| descending (stable).
func (d *Decomposer) Decompose(before, after campaign.Window, metric campaign.Metric, method causal.Method) []causal.ComponentContribution {
	// additive, multiplicative, shapley, hybrid, and anything unrecognized
	// all share the formula path today.
	_ = method

	f, ok := d.formulas[metric]
	if !ok {
		return []causal.ComponentContribution{placeholder()}
	}

	contributions := f(before, after)
	finalize(contributions, metric)
	sortByAbsChange(contributions)
	return contributions
}

// Supported reports whether the metric has a registered formula.
func (d *Decomposer) Supported(metric campaign.Metric) bool {
	_, ok := d.formulas[metric]
	return ok
}

// placeholder is the degraded single-component result for unregistered
// metrics: zero change, full contribution share.
func placeholder() causal.ComponentContribution {
	return causal.ComponentContribution{
		Component:              ComponentUnknown,
		AbsoluteChange:         0,
		PercentageContribution: 100,
		ImpactDirection:        causal.ImpactNeutral,
		Actionability:          actionability[ComponentUnknown],
	}
}

// finalize fills percentage shares and polarity-aware directions in place.
func finalize(contributions []causal.ComponentContribution, metric campaign.Metric) {
	totalAbs := 0.0
	for _, c := range contributions {
		totalAbs += math.Abs(c.AbsoluteChange)
	}
	for i := range contributions {
		c := &contributions[i]
		if totalAbs > 0 {
			c.PercentageContribution = math.Abs(c.AbsoluteChange) / totalAbs * 100
		} else {
			c.PercentageContribution = 0
		}
		c.ImpactDirection = direction(c.AbsoluteChange, metric)
	}
}

// direction labels a component's effect on the metric with the metric's
// polarity applied: for lower-is-better metrics the sign is inverted before
// labeling.
func direction(absoluteChange float64, metric campaign.Metric) causal.ImpactDirection {
	const eps = 1e-9
	if math.Abs(absoluteChange) < eps {
		return causal.ImpactNeutral
	}
	positive := absoluteChange > 0
	if !metric.HigherIsBetter() {
		positive = !positive
	}
	if positive {
		return causal.ImpactPositive
	}
	return causal.ImpactNegative
}

// sortByAbsChange orders contributions by |absolute change| descending with
// a stable tie-break on original position.
func sortByAbsChange(contributions []causal.ComponentContribution) {
	// insertion sort keeps the ordering stable without an extra key slice
	for i := 1; i < len(contributions); i++ {
		for j := i; j > 0; j-- {
			if math.Abs(contributions[j].AbsoluteChange) > math.Abs(contributions[j-1].AbsoluteChange) {
				contributions[j], contributions[j-1] = contributions[j-1], contributions[j]
			} else {
				break
			}
		}
	}
}

// contribution assembles one component entry from its factor values and its
// estimated effect on the metric.
func contribution(name string, beforeValue, afterValue, effect float64) causal.ComponentContribution {
	delta := afterValue - beforeValue
	return causal.ComponentContribution{
		Component:      name,
		AbsoluteChange: effect,
		BeforeValue:    beforeValue,
		AfterValue:     afterValue,
		Delta:          delta,
		DeltaPct:       metrics.SafeDiv(delta, math.Abs(beforeValue)) * 100,
		Actionability:  actionability[name],
	}
}
