package drivers

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// ImportanceResult is what a provider reports for one feature set.
type ImportanceResult struct {
	// Importance maps feature name to a non-negative ranking score.
	Importance map[string]float64
	// SHAP maps feature name to mean absolute per-sample contribution.
	// Nil when the provider cannot attribute per-sample effects.
	SHAP map[string]float64
	// ModelScore is held-out goodness of fit in [0,1]; 0 when no model
	// was trained.
	ModelScore float64
}

// FeatureImportanceProvider ranks features by how well they explain
// variation in the target. The provider is chosen at construction time:
// model-based when training is viable, correlation-based otherwise. This
// replaces inline dependency-availability branching.
type FeatureImportanceProvider interface {
	Name() string
	Rank(fs *featureSet) *ImportanceResult
}

// CorrelationProvider is the degraded provider: absolute Pearson
// correlation of each feature against the target, no model, no per-sample
// attribution.
type CorrelationProvider struct{}

// NewCorrelationProvider creates the correlation fallback provider.
func NewCorrelationProvider() *CorrelationProvider {
	return &CorrelationProvider{}
}

// Name identifies the provider in logs and method tags.
func (p *CorrelationProvider) Name() string {
	return "correlation"
}

// Rank scores every feature by |Pearson r| against the target.
func (p *CorrelationProvider) Rank(fs *featureSet) *ImportanceResult {
	importance := make(map[string]float64, len(fs.names))
	for j, name := range fs.names {
		r := stat.Correlation(fs.column(j), fs.target, nil)
		if math.IsNaN(r) {
			r = 0
		}
		importance[name] = math.Abs(r)
	}
	return &ImportanceResult{Importance: importance, ModelScore: 0}
}
