package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adlens/domain/campaign"
	"adlens/domain/causal"
	"adlens/internal/decompose"
	"adlens/internal/testkit"
	"adlens/ports"
)

// aggregatePair builds a two-row table: one aggregate row per period, ten
// days apart so the midpoint split puts one row on each side.
func aggregatePair(t *testing.T, before, after map[string]float64) *campaign.Table {
	t.Helper()
	cols := map[string]bool{}
	for k := range before {
		cols[k] = true
	}
	for k := range after {
		cols[k] = true
	}

	table := campaign.NewTable(2)
	require.NoError(t, table.AddTime(campaign.ColDate, []time.Time{
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
	}))
	for col := range cols {
		require.NoError(t, table.AddNumeric(col, []float64{before[col], after[col]}))
	}
	return table
}

func TestAnalyze_ROASDoubles(t *testing.T) {
	table := aggregatePair(t,
		map[string]float64{campaign.ColSpend: 1000, campaign.ColConversions: 10, campaign.ColRevenue: 5000},
		map[string]float64{campaign.ColSpend: 1000, campaign.ColConversions: 20, campaign.ColRevenue: 10000},
	)

	res := New(nil).Analyze(context.Background(), table, campaign.MetricROAS, campaign.ColDate, causal.DefaultOptions())
	require.NotNil(t, res)

	assert.InDelta(t, 5.0, res.BeforeValue, 1e-9)
	assert.InDelta(t, 10.0, res.AfterValue, 1e-9)
	assert.InDelta(t, 5.0, res.TotalChange, 1e-9)
	assert.InDelta(t, 100.0, res.TotalChangePct, 1e-9)
	assert.InDelta(t, res.AfterValue-res.BeforeValue, res.TotalChange, 1e-9)

	require.NotNil(t, res.PrimaryDriver)
	assert.Equal(t, decompose.ComponentConversionVolume, res.PrimaryDriver.Component)
	assert.Equal(t, *res.PrimaryDriver, res.Contributions[0])
	assert.LessOrEqual(t, len(res.SecondaryDrivers), 3)

	// one row a side: sample 0.1, significance default 0.5
	assert.InDelta(t, 0.34, res.Confidence, 1e-9)
	assert.NotEmpty(t, res.Insights)
}

func TestAnalyze_SyntheticCampaignPipeline(t *testing.T) {
	table := testkit.NewCampaignGenerator(testkit.DefaultCampaignConfig()).Table()

	res := New(nil).Analyze(context.Background(), table, campaign.MetricROAS, campaign.ColDate, causal.DefaultOptions())
	require.NotNil(t, res)

	assert.GreaterOrEqual(t, res.Confidence, 0.0)
	assert.LessOrEqual(t, res.Confidence, 1.0)
	assert.Greater(t, res.Confidence, 0.0)
	assert.Len(t, res.Contributions, 6)
	assert.Len(t, res.PlatformAttribution, 3)
	assert.NotEmpty(t, res.ChannelAttribution)
	assert.NotEmpty(t, res.MLDrivers)
	assert.NotEmpty(t, res.Insights)
	assert.NotEmpty(t, res.PeriodBefore)
	assert.NotEmpty(t, res.PeriodAfter)
}

func TestAnalyze_Idempotent(t *testing.T) {
	table := testkit.NewCampaignGenerator(testkit.DefaultCampaignConfig()).Table()
	e := New(nil)
	opts := causal.DefaultOptions()

	first := e.Analyze(context.Background(), table, campaign.MetricCPA, campaign.ColDate, opts)
	second := e.Analyze(context.Background(), table, campaign.MetricCPA, campaign.ColDate, opts)
	assert.Equal(t, first, second)
}

func TestAnalyze_FailSoft(t *testing.T) {
	e := New(nil)
	opts := causal.DefaultOptions()

	noDates := campaign.NewTable(3)
	require.NoError(t, noDates.AddNumeric(campaign.ColSpend, []float64{1, 2, 3}))

	noMetricData := aggregatePair(t,
		map[string]float64{campaign.ColClicks: 100},
		map[string]float64{campaign.ColClicks: 200},
	)

	cases := map[string]*campaign.Table{
		"nil table":              nil,
		"empty table":            campaign.NewTable(0),
		"missing date column":    noDates,
		"missing metric columns": noMetricData,
	}
	for name, table := range cases {
		t.Run(name, func(t *testing.T) {
			res := e.Analyze(context.Background(), table, campaign.MetricROAS, campaign.ColDate, opts)
			require.NotNil(t, res)
			assert.Equal(t, 0.0, res.Confidence)
			assert.Equal(t, []string{InsufficientDataInsight}, res.Insights)
			assert.Empty(t, res.Contributions)
			assert.Nil(t, res.PrimaryDriver)
		})
	}
}

func TestAnalyze_OptionFlagsDisablePasses(t *testing.T) {
	table := testkit.NewCampaignGenerator(testkit.DefaultCampaignConfig()).Table()
	opts := causal.DefaultOptions()
	opts.IncludeML = false
	opts.IncludeAttribution = false

	res := New(nil).Analyze(context.Background(), table, campaign.MetricROAS, campaign.ColDate, opts)
	assert.Nil(t, res.MLDrivers)
	assert.Nil(t, res.SHAPValues)
	assert.Nil(t, res.PlatformAttribution)
	assert.Nil(t, res.ChannelAttribution)
}

func TestAnalyze_ExplicitSplitDate(t *testing.T) {
	cfg := testkit.DefaultCampaignConfig()
	table := testkit.NewCampaignGenerator(cfg).Table()
	opts := causal.DefaultOptions()
	opts.SplitDate = "2025-02-01"
	opts.LookbackDays = 14

	res := New(nil).Analyze(context.Background(), table, campaign.MetricCVR, campaign.ColDate, opts)
	assert.Equal(t, "2025-01-18 to 2025-01-31", res.PeriodBefore)
	assert.Equal(t, "2025-02-01 to 2025-02-14", res.PeriodAfter)
}

type stubKnowledge struct {
	enhancement *ports.Enhancement
	err         error
}

func (s *stubKnowledge) EnhanceCausalResult(context.Context, *causal.Result, causal.Context) (*ports.Enhancement, error) {
	return s.enhancement, s.err
}

func TestAnalyze_KnowledgeEnhancement(t *testing.T) {
	table := testkit.NewCampaignGenerator(testkit.DefaultCampaignConfig()).Table()
	kb := &stubKnowledge{enhancement: &ports.Enhancement{
		EnhancedRecommendations: []string{"Run a holdout experiment to confirm the effect"},
		Interpretation:          ports.Interpretation{Insights: []string{"Treat the split as observational"}},
		PitfallWarnings:         []ports.PitfallWarning{{Pitfall: "No control group", Solution: "Add a geo holdout"}},
	}}

	res := New(kb).Analyze(context.Background(), table, campaign.MetricROAS, campaign.ColDate, causal.DefaultOptions())

	require.NotEmpty(t, res.Recommendations)
	assert.Equal(t, "Run a holdout experiment to confirm the effect", res.Recommendations[0])
	require.NotEmpty(t, res.Insights)
	assert.Equal(t, "Treat the split as observational", res.Insights[0])
	assert.Contains(t, res.Insights[len(res.Insights)-1], "Pitfall: No control group. Add a geo holdout")
}

func TestAnalyze_KnowledgeErrorIsNonFatal(t *testing.T) {
	table := testkit.NewCampaignGenerator(testkit.DefaultCampaignConfig()).Table()
	kb := &stubKnowledge{err: errors.New("knowledge base offline")}

	res := New(kb).Analyze(context.Background(), table, campaign.MetricROAS, campaign.ColDate, causal.DefaultOptions())
	require.NotNil(t, res)
	assert.Greater(t, res.Confidence, 0.0)
	assert.NotEmpty(t, res.Insights)
}

func TestAnalyzeDrivers_NilTable(t *testing.T) {
	analysis := New(nil).AnalyzeDrivers(nil, campaign.MetricROAS, nil, nil)
	assert.Equal(t, campaign.MetricROAS, analysis.TargetMetric)
	assert.Empty(t, analysis.FeatureImportance)
	assert.NotEmpty(t, analysis.Insights)
}

func TestAnalyzeDrivers_SyntheticCampaign(t *testing.T) {
	table := testkit.NewCampaignGenerator(testkit.DefaultCampaignConfig()).Table()

	analysis := New(nil).AnalyzeDrivers(table, campaign.MetricROAS,
		nil, []string{campaign.ColPlatform})
	assert.NotEmpty(t, analysis.FeatureImportance)
	assert.Contains(t, analysis.FeatureImportance, "Platform=Google")
}
