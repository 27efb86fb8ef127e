package insight

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adlens/domain/campaign"
	"adlens/domain/causal"
	"adlens/internal/decompose"
)

func droppingROAS() *causal.Result {
	primary := causal.ComponentContribution{
		Component:              decompose.ComponentCPC,
		AbsoluteChange:         -1.2,
		PercentageContribution: 60,
		ImpactDirection:        causal.ImpactNegative,
		Actionability:          causal.ActionabilityHigh,
	}
	return &causal.Result{
		Metric:         campaign.MetricROAS,
		BeforeValue:    5,
		AfterValue:     3,
		TotalChange:    -2,
		TotalChangePct: -40,
		Contributions: []causal.ComponentContribution{
			primary,
			{
				Component:              decompose.ComponentCVR,
				AbsoluteChange:         -0.8,
				PercentageContribution: 40,
				ImpactDirection:        causal.ImpactNegative,
				Actionability:          causal.ActionabilityHigh,
			},
		},
		PrimaryDriver: &primary,
		PlatformAttribution: map[string]float64{
			"Google": 0.3,
			"Meta":   -2.5,
		},
	}
}

func TestInsights_DecreaseNarrative(t *testing.T) {
	out := NewComposer().Insights(droppingROAS())
	require.NotEmpty(t, out)

	assert.Contains(t, out[0], "ROAS decreased by 40.0%")
	assert.Contains(t, out[1], "Primary driver: "+decompose.ComponentCPC)

	joined := strings.Join(out, "\n")
	assert.Contains(t, joined, "Top contributors:")
	assert.Contains(t, joined, "Meta saw the largest platform-level shift")
}

func TestInsights_SteadyMetric(t *testing.T) {
	res := &causal.Result{Metric: campaign.MetricCPA, BeforeValue: 50, AfterValue: 50}
	out := NewComposer().Insights(res)
	require.NotEmpty(t, out)
	assert.Contains(t, out[0], "held steady at 50.00")
}

func TestInsights_UnknownPrimaryDriverSuppressed(t *testing.T) {
	unknown := causal.ComponentContribution{
		Component:       decompose.ComponentUnknown,
		ImpactDirection: causal.ImpactNeutral,
	}
	res := &causal.Result{
		Metric:        campaign.MetricRevenue,
		TotalChange:   100,
		PrimaryDriver: &unknown,
	}
	for _, line := range NewComposer().Insights(res) {
		assert.NotContains(t, line, "Primary driver")
	}
}

func TestRecommendations_KeyedToNegativeComponents(t *testing.T) {
	out := NewComposer().Recommendations(droppingROAS())
	joined := strings.Join(out, "\n")

	assert.Contains(t, joined, "Reduce cost per click")
	assert.Contains(t, joined, "Improve conversion rate")
	assert.Contains(t, joined, "Investigate Meta")
}

func TestRecommendations_PositiveLeverScaling(t *testing.T) {
	res := &causal.Result{
		Metric:      campaign.MetricROAS,
		TotalChange: 1,
		Contributions: []causal.ComponentContribution{{
			Component:       decompose.ComponentCVR,
			AbsoluteChange:  0.9,
			ImpactDirection: causal.ImpactPositive,
			Actionability:   causal.ActionabilityHigh,
		}},
	}
	out := NewComposer().Recommendations(res)
	require.Len(t, out, 1)
	assert.Contains(t, out[0], "working in your favor")
}

func TestRecommendations_CappedAtFive(t *testing.T) {
	res := &causal.Result{Metric: campaign.MetricROAS}
	for i := 0; i < 8; i++ {
		res.Contributions = append(res.Contributions, causal.ComponentContribution{
			Component:       decompose.ComponentCPC,
			ImpactDirection: causal.ImpactNegative,
			Actionability:   causal.ActionabilityHigh,
		})
	}
	assert.Len(t, NewComposer().Recommendations(res), 5)
}

func TestRecommendations_LowActionabilityIgnored(t *testing.T) {
	res := &causal.Result{
		Metric: campaign.MetricCTR,
		Contributions: []causal.ComponentContribution{{
			Component:       decompose.ComponentImpressionVolume,
			AbsoluteChange:  -0.4,
			ImpactDirection: causal.ImpactNegative,
			Actionability:   causal.ActionabilityLow,
		}},
	}
	assert.Empty(t, NewComposer().Recommendations(res))
}

func TestRecommendations_CostMetricWorstPlatform(t *testing.T) {
	// For CPA a rising per-platform delta is harmful.
	res := &causal.Result{
		Metric: campaign.MetricCPA,
		PlatformAttribution: map[string]float64{
			"Google": -5, // CPA improved
			"Meta":   12, // CPA worsened most
		},
	}
	out := NewComposer().Recommendations(res)
	require.Len(t, out, 1)
	assert.Contains(t, out[0], "Investigate Meta")
}
