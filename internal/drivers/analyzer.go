package drivers

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"adlens/domain/campaign"
	"adlens/domain/causal"
	"adlens/internal/metrics"
)

// MinTrainingRows is the minimum usable row count for model training; below
// it the analyzer degrades to the correlation provider.
const MinTrainingRows = 10

// Analyzer ranks numeric features by how well they explain variation in a
// target metric across rows. The model-based provider is preferred; the
// correlation provider is the degraded path when too little data survives
// NaN-dropping.
type Analyzer struct {
	calc     *metrics.Calculator
	model    FeatureImportanceProvider
	fallback FeatureImportanceProvider
}

// NewAnalyzer creates a driver analyzer with the default model provider and
// a fixed training seed.
func NewAnalyzer(calc *metrics.Calculator) *Analyzer {
	return &Analyzer{
		calc:     calc,
		model:    NewGradientBoostedProvider(DefaultSeed),
		fallback: NewCorrelationProvider(),
	}
}

// NewAnalyzerWithProvider creates a driver analyzer around an explicit
// model provider. Pass nil to force the correlation path.
func NewAnalyzerWithProvider(calc *metrics.Calculator, model FeatureImportanceProvider) *Analyzer {
	return &Analyzer{
		calc:     calc,
		model:    model,
		fallback: NewCorrelationProvider(),
	}
}

// AnalyzeDrivers runs the driver pass over a view. featureCols empty means
// auto-select every numeric column except the target; categoricalCols are
// one-hot encoded. The result is well-formed for any input.
func (a *Analyzer) AnalyzeDrivers(v *campaign.View, metric campaign.Metric, featureCols, categoricalCols []string) causal.DriverAnalysis {
	analysis := causal.DriverAnalysis{
		TargetMetric:      metric,
		FeatureImportance: map[string]float64{},
	}
	if v == nil || v.Len() == 0 {
		analysis.Insights = []string{"No data available for driver analysis"}
		return analysis
	}

	fs := buildFeatures(v, metric, featureCols, categoricalCols, a.calc)
	if len(fs.names) == 0 || len(fs.rows) == 0 {
		analysis.Insights = []string{"No usable features for driver analysis"}
		return analysis
	}

	directions := a.directions(fs)

	provider := a.model
	if provider == nil || len(fs.rows) < MinTrainingRows {
		provider = a.fallback
	}
	ranked := provider.Rank(fs)

	analysis.FeatureImportance = ranked.Importance
	analysis.SHAPValues = ranked.SHAP
	analysis.ModelScore = ranked.ModelScore
	analysis.TopDrivers = topDrivers(ranked.Importance, directions, 5)
	analysis.Insights = a.insights(metric, ranked.ModelScore, analysis.TopDrivers)
	return analysis
}

// directions labels each feature with the sign of its Pearson correlation
// against the target.
func (a *Analyzer) directions(fs *featureSet) map[string]string {
	out := make(map[string]string, len(fs.names))
	for j, name := range fs.names {
		r := stat.Correlation(fs.column(j), fs.target, nil)
		switch {
		case math.IsNaN(r) || math.Abs(r) < 1e-9:
			out[name] = "neutral"
		case r > 0:
			out[name] = "positive"
		default:
			out[name] = "negative"
		}
	}
	return out
}

// topDrivers orders features by score descending, name ascending on ties,
// and keeps the first limit entries with a non-zero score.
func topDrivers(importance map[string]float64, directions map[string]string, limit int) []causal.TopDriver {
	names := make([]string, 0, len(importance))
	for name := range importance {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if importance[names[i]] != importance[names[j]] {
			return importance[names[i]] > importance[names[j]]
		}
		return names[i] < names[j]
	})

	var out []causal.TopDriver
	for _, name := range names {
		if len(out) >= limit {
			break
		}
		if importance[name] <= 0 {
			continue
		}
		out = append(out, causal.TopDriver{
			Feature:   name,
			Score:     importance[name],
			Direction: directions[name],
		})
	}
	return out
}

func (a *Analyzer) insights(metric campaign.Metric, modelScore float64, top []causal.TopDriver) []string {
	var out []string
	switch {
	case modelScore > 0.7:
		out = append(out, fmt.Sprintf("Model explains %.0f%% of %s variation (high confidence)", modelScore*100, metric))
	case modelScore > 0.4:
		out = append(out, fmt.Sprintf("Model explains %.0f%% of %s variation (moderate confidence)", modelScore*100, metric))
	default:
		out = append(out, fmt.Sprintf("Model fit is weak for %s (low confidence, rankings may be unreliable)", metric))
	}
	if len(top) > 0 {
		out = append(out, fmt.Sprintf("Strongest driver of %s: %s (score %.3f, %s relationship)",
			metric, top[0].Feature, top[0].Score, top[0].Direction))
	}
	return out
}
