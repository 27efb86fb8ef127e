package knowledge

import (
	"context"
	"fmt"

	"adlens/domain/causal"
	"adlens/ports"
)

// StaticBase is the built-in knowledge base: a fixed rule set keyed off the
// caller-supplied context flags. It never errors, keeping the engine's
// enhancement step deterministic in tests.
type StaticBase struct{}

// NewStaticBase creates the default knowledge base.
func NewStaticBase() *StaticBase {
	return &StaticBase{}
}

// EnhanceCausalResult applies the static rules.
func (b *StaticBase) EnhanceCausalResult(_ context.Context, result *causal.Result, analysisCtx causal.Context) (*ports.Enhancement, error) {
	enhancement := &ports.Enhancement{}

	if analysisCtx.SeasonalPeriod {
		enhancement.PitfallWarnings = append(enhancement.PitfallWarnings, ports.PitfallWarning{
			Pitfall:  "Comparison spans a seasonal period, so part of the change may be calendar-driven",
			Solution: "Compare against the same period last year or extend the lookback window",
		})
	}
	if analysisCtx.SampleSize > 0 && analysisCtx.SampleSize < 20 {
		enhancement.PitfallWarnings = append(enhancement.PitfallWarnings, ports.PitfallWarning{
			Pitfall:  fmt.Sprintf("Only %d rows underlie this comparison", analysisCtx.SampleSize),
			Solution: "Treat the breakdown as directional and re-run once more data accumulates",
		})
	}
	if !analysisCtx.Randomized && !analysisCtx.HasControlGroup {
		enhancement.PitfallWarnings = append(enhancement.PitfallWarnings, ports.PitfallWarning{
			Pitfall:  "No control group: this is an accounting decomposition, not a causal estimate",
			Solution: "Validate the leading driver with a holdout or geo split before acting on it",
		})
	}
	if analysisCtx.DataQualityConcerns {
		enhancement.PitfallWarnings = append(enhancement.PitfallWarnings, ports.PitfallWarning{
			Pitfall:  "Caller flagged data-quality concerns for this dataset",
			Solution: "Re-verify tracking and ingestion before trusting component magnitudes",
		})
	}

	if result.Confidence > 0 && result.Confidence < 0.5 {
		enhancement.Interpretation.Insights = append(enhancement.Interpretation.Insights,
			"Confidence is low for this comparison; the ranked drivers may reorder with more data")
	}

	return enhancement, nil
}
