package engine

import (
	"context"
	"fmt"
	"math"
	"time"

	"adlens/domain/campaign"
	"adlens/domain/causal"
	"adlens/internal"
	"adlens/internal/attribution"
	"adlens/internal/confidence"
	"adlens/internal/decompose"
	"adlens/internal/drivers"
	"adlens/internal/insight"
	"adlens/internal/metrics"
	"adlens/internal/window"
	"adlens/ports"
)

// InsufficientDataInsight is the single insight on the empty-result fallback.
const InsufficientDataInsight = "Insufficient data for causal analysis"

// Engine sequences the full causal pipeline: period split, metric
// calculation, decomposition, attribution, driver analysis, confidence
// scoring, and insight composition. One call produces one immutable result;
// the engine holds no state across calls, so independent calls are safe to
// run concurrently.
//
// Analyze never returns an error: every failure path collapses to a
// well-formed empty result so dashboards always have something to render.
type Engine struct {
	splitter   *window.Splitter
	calc       *metrics.Calculator
	decomposer *decompose.Decomposer
	attrib     *attribution.Calculator
	scorer     *confidence.Scorer
	drivers    *drivers.Analyzer
	composer   *insight.Composer
	knowledge  ports.KnowledgeBase
	log        *internal.Logger
}

// New creates an engine. The knowledge base is optional; pass nil to skip
// the enhancement step.
func New(knowledge ports.KnowledgeBase) *Engine {
	calc := metrics.NewCalculator()
	return &Engine{
		splitter:   window.NewSplitter(),
		calc:       calc,
		decomposer: decompose.NewDecomposer(calc),
		attrib:     attribution.NewCalculator(calc),
		scorer:     confidence.NewScorer(calc),
		drivers:    drivers.NewAnalyzer(calc),
		composer:   insight.NewComposer(),
		knowledge:  knowledge,
		log:        internal.DefaultLogger,
	}
}

// Analyze explains why the metric changed between the two halves of the
// dataset. See causal.Options for tuning. The returned result is a value
// owned by the caller.
func (e *Engine) Analyze(ctx context.Context, table *campaign.Table, metric campaign.Metric, dateCol string, opts causal.Options) (result *causal.Result) {
	opts = opts.Normalize()

	// Fail-soft boundary: nothing escapes Analyze.
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("analysis panicked, returning empty result: %v", r)
			result = emptyResult(metric, opts.Method)
		}
	}()

	if table == nil || table.Rows() == 0 {
		return emptyResult(metric, opts.Method)
	}

	before, after, err := e.splitter.Split(table.View(), dateCol, parseSplitDate(opts.SplitDate), opts.LookbackDays)
	if err != nil {
		e.log.Debug("period split failed: %v", err)
		return emptyResult(metric, opts.Method)
	}

	if !e.calc.Computable(table.View(), metric) {
		return emptyResult(metric, opts.Method)
	}

	beforeValue := e.calc.Value(before, metric)
	afterValue := e.calc.Value(after, metric)
	totalChange := afterValue - beforeValue

	res := &causal.Result{
		Metric:         metric,
		BeforeValue:    beforeValue,
		AfterValue:     afterValue,
		TotalChange:    totalChange,
		TotalChangePct: metrics.SafeDiv(totalChange, math.Abs(beforeValue)) * 100,
		Method:         opts.Method,
		PeriodBefore:   before.Period(),
		PeriodAfter:    after.Period(),
	}

	res.Contributions = e.decomposer.Decompose(before, after, metric, opts.Method)
	if len(res.Contributions) > 0 {
		primary := res.Contributions[0]
		res.PrimaryDriver = &primary
		end := len(res.Contributions)
		if end > 4 {
			end = 4
		}
		res.SecondaryDrivers = append([]causal.ComponentContribution(nil), res.Contributions[1:end]...)
	}

	if opts.IncludeAttribution {
		if m := e.attrib.Attribute(before, after, metric, campaign.ColPlatform); len(m) > 0 {
			res.PlatformAttribution = m
		}
		if m := e.attrib.Attribute(before, after, metric, campaign.ColChannel); len(m) > 0 {
			res.ChannelAttribution = m
		}
	}

	if opts.IncludeML {
		analysis := e.drivers.AnalyzeDrivers(table.View(), metric, nil, nil)
		if len(analysis.FeatureImportance) > 0 {
			res.MLDrivers = analysis.FeatureImportance
		}
		if len(analysis.SHAPValues) > 0 {
			res.SHAPValues = analysis.SHAPValues
		}
	}

	res.Confidence = e.scorer.Score(before, after, metric)
	res.Insights = e.composer.Insights(res)
	res.Recommendations = e.composer.Recommendations(res)

	e.enhance(ctx, res, before, after, opts)

	return res
}

// AnalyzeDrivers runs the standalone driver pass, independent of any
// decomposition.
func (e *Engine) AnalyzeDrivers(table *campaign.Table, metric campaign.Metric, featureCols, categoricalCols []string) (analysis causal.DriverAnalysis) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("driver analysis panicked, returning empty analysis: %v", r)
			analysis = causal.DriverAnalysis{
				TargetMetric:      metric,
				FeatureImportance: map[string]float64{},
				Insights:          []string{"No data available for driver analysis"},
			}
		}
	}()

	if table == nil {
		return e.drivers.AnalyzeDrivers(nil, metric, featureCols, categoricalCols)
	}
	return e.drivers.AnalyzeDrivers(table.View(), metric, featureCols, categoricalCols)
}

// enhance invokes the knowledge base, treating any failure as non-fatal.
// Enhanced recommendations and interpretation insights are prepended;
// pitfall warnings are appended as formatted insight strings.
func (e *Engine) enhance(ctx context.Context, res *causal.Result, before, after campaign.Window, opts causal.Options) {
	if e.knowledge == nil {
		return
	}

	analysisCtx := opts.Context
	if analysisCtx.NumPeriods == 0 {
		analysisCtx.NumPeriods = 2
	}
	if analysisCtx.SampleSize == 0 {
		analysisCtx.SampleSize = before.Rows() + after.Rows()
	}
	if analysisCtx.Method == "" {
		analysisCtx.Method = string(opts.Method)
	}

	enhancement, err := e.knowledge.EnhanceCausalResult(ctx, res, analysisCtx)
	if err != nil {
		e.log.Warn("knowledge base enhancement failed: %v", err)
		return
	}
	if enhancement == nil {
		return
	}

	if len(enhancement.EnhancedRecommendations) > 0 {
		res.Recommendations = append(append([]string(nil), enhancement.EnhancedRecommendations...), res.Recommendations...)
	}
	if len(enhancement.Interpretation.Insights) > 0 {
		res.Insights = append(append([]string(nil), enhancement.Interpretation.Insights...), res.Insights...)
	}
	for _, w := range enhancement.PitfallWarnings {
		res.Insights = append(res.Insights, fmt.Sprintf("Pitfall: %s. %s", w.Pitfall, w.Solution))
	}
}

// emptyResult is the fail-soft fallback: all zeros, zero confidence, one
// explanatory insight.
func emptyResult(metric campaign.Metric, method causal.Method) *causal.Result {
	return &causal.Result{
		Metric:          metric,
		Method:          method,
		Contributions:   []causal.ComponentContribution{},
		Confidence:      0,
		Insights:        []string{InsufficientDataInsight},
		Recommendations: []string{},
	}
}

func parseSplitDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
