package insight

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"adlens/domain/causal"
	"adlens/internal/decompose"
)

// maxRecommendations caps the recommendation list.
const maxRecommendations = 5

// Composer turns a result's numeric fields into ordered human-readable
// strings. It is stateless; both passes are pure functions of the result.
type Composer struct{}

// NewComposer creates an insight composer.
func NewComposer() *Composer {
	return &Composer{}
}

// Insights produces the ordered insight list: overall direction and
// magnitude, primary driver, top contributors, and the largest platform
// shift when attribution ran.
func (c *Composer) Insights(res *causal.Result) []string {
	var out []string

	switch {
	case res.TotalChange > 0:
		out = append(out, fmt.Sprintf("%s increased by %.1f%% between periods (%.2f to %.2f)",
			res.Metric, math.Abs(res.TotalChangePct), res.BeforeValue, res.AfterValue))
	case res.TotalChange < 0:
		out = append(out, fmt.Sprintf("%s decreased by %.1f%% between periods (%.2f to %.2f)",
			res.Metric, math.Abs(res.TotalChangePct), res.BeforeValue, res.AfterValue))
	default:
		out = append(out, fmt.Sprintf("%s held steady at %.2f between periods", res.Metric, res.AfterValue))
	}

	if res.PrimaryDriver != nil && res.PrimaryDriver.Component != decompose.ComponentUnknown {
		out = append(out, fmt.Sprintf("Primary driver: %s, accounting for %.1f%% of total component impact",
			res.PrimaryDriver.Component, res.PrimaryDriver.PercentageContribution))
	}

	if summary := topContributorSummary(res.Contributions); summary != "" {
		out = append(out, summary)
	}

	if platform, delta, ok := largestShift(res.PlatformAttribution); ok {
		out = append(out, fmt.Sprintf("%s saw the largest platform-level shift in %s (%+.2f)",
			platform, res.Metric, delta))
	}

	return out
}

// Recommendations keys off each high-actionability component's impact
// direction, adds a warning for the worst-contributing platform, and caps
// the list at five entries.
func (c *Composer) Recommendations(res *causal.Result) []string {
	var out []string

	for _, contrib := range res.Contributions {
		if contrib.Actionability != causal.ActionabilityHigh {
			continue
		}
		switch contrib.ImpactDirection {
		case causal.ImpactNegative:
			if text := negativeAdvice(contrib.Component, string(res.Metric)); text != "" {
				out = append(out, text)
			}
		case causal.ImpactPositive:
			out = append(out, fmt.Sprintf("%s is working in your favor on %s; consider scaling this lever",
				contrib.Component, res.Metric))
		}
	}

	if platform, delta, ok := worstPlatform(res); ok {
		out = append(out, fmt.Sprintf("Investigate %s: it is the worst-contributing platform for %s (%+.2f)",
			platform, res.Metric, delta))
	}

	if len(out) > maxRecommendations {
		out = out[:maxRecommendations]
	}
	return out
}

func negativeAdvice(component, metric string) string {
	switch {
	case strings.Contains(component, "CPC"):
		return "Reduce cost per click: tighten bids, refine keywords, or improve ad quality"
	case strings.Contains(component, "CVR") || strings.Contains(component, "Conversion"):
		return "Improve conversion rate: review landing pages, offers, and audience targeting"
	case strings.Contains(component, "Spend"):
		return fmt.Sprintf("Review budget allocation: spend changes are dragging %s down", metric)
	}
	return fmt.Sprintf("Address %s: it is the main drag on %s", component, metric)
}

func topContributorSummary(contributions []causal.ComponentContribution) string {
	var parts []string
	for _, c := range contributions {
		if len(parts) >= 3 {
			break
		}
		if c.PercentageContribution <= 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s (%.1f%%)", c.Component, c.PercentageContribution))
	}
	if len(parts) == 0 {
		return ""
	}
	return "Top contributors: " + strings.Join(parts, ", ")
}

// largestShift returns the group with the biggest absolute delta.
func largestShift(attribution map[string]float64) (string, float64, bool) {
	if len(attribution) == 0 {
		return "", 0, false
	}
	keys := sortedKeys(attribution)
	best, bestAbs := "", -1.0
	for _, k := range keys {
		if abs := math.Abs(attribution[k]); abs > bestAbs {
			best, bestAbs = k, abs
		}
	}
	return best, attribution[best], true
}

// worstPlatform returns the platform whose delta hurts the metric most,
// with the metric's polarity applied.
func worstPlatform(res *causal.Result) (string, float64, bool) {
	if len(res.PlatformAttribution) == 0 {
		return "", 0, false
	}
	keys := sortedKeys(res.PlatformAttribution)
	worst, worstHarm := "", 0.0
	found := false
	for _, k := range keys {
		delta := res.PlatformAttribution[k]
		harm := -delta
		if !res.Metric.HigherIsBetter() {
			harm = delta
		}
		if !found || harm > worstHarm {
			worst, worstHarm, found = k, harm, true
		}
	}
	if worstHarm <= 0 {
		return "", 0, false
	}
	return worst, res.PlatformAttribution[worst], true
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
