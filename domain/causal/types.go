package causal

import (
	"adlens/domain/campaign"
)

// Method selects the decomposition strategy. Shapley currently aliases the
// formula-based path; see DESIGN.md for the recorded decision.
type Method string

const (
	MethodAdditive       Method = "additive"
	MethodMultiplicative Method = "multiplicative"
	MethodShapley        Method = "shapley"
	MethodHybrid         Method = "hybrid"
)

// ImpactDirection labels a component's effect with the metric's polarity
// applied: a falling CPC is "positive" for a cost metric.
type ImpactDirection string

const (
	ImpactPositive ImpactDirection = "positive"
	ImpactNegative ImpactDirection = "negative"
	ImpactNeutral  ImpactDirection = "neutral"
)

// Actionability is a fixed editorial tag per component type. It ranks
// recommendations only and is never computed from data.
type Actionability string

const (
	ActionabilityHigh   Actionability = "high"
	ActionabilityMedium Actionability = "medium"
	ActionabilityLow    Actionability = "low"
)

// ComponentContribution quantifies one named factor's effect on the metric
// change. Delta is always AfterValue-BeforeValue; PercentageContribution is
// the component's share of total absolute contribution, not of the signed
// total change.
type ComponentContribution struct {
	Component              string          `json:"component"`
	AbsoluteChange         float64         `json:"absolute_change"`
	PercentageContribution float64         `json:"percentage_contribution"`
	BeforeValue            float64         `json:"before_value"`
	AfterValue             float64         `json:"after_value"`
	Delta                  float64         `json:"delta"`
	DeltaPct               float64         `json:"delta_pct"`
	ImpactDirection        ImpactDirection `json:"impact_direction"`
	Actionability          Actionability   `json:"actionability"`
}

// Result is the output of one engine call. All fields are plain values;
// the result is never mutated after return.
type Result struct {
	Metric           campaign.Metric         `json:"metric"`
	BeforeValue      float64                 `json:"before_value"`
	AfterValue       float64                 `json:"after_value"`
	TotalChange      float64                 `json:"total_change"`
	TotalChangePct   float64                 `json:"total_change_pct"`
	Contributions    []ComponentContribution `json:"contributions"`
	PrimaryDriver    *ComponentContribution  `json:"primary_driver,omitempty"`
	SecondaryDrivers []ComponentContribution `json:"secondary_drivers,omitempty"`

	ChannelAttribution  map[string]float64 `json:"channel_attribution,omitempty"`
	PlatformAttribution map[string]float64 `json:"platform_attribution,omitempty"`

	MLDrivers  map[string]float64 `json:"ml_drivers,omitempty"`
	SHAPValues map[string]float64 `json:"shap_values,omitempty"`

	Confidence   float64 `json:"confidence"`
	Method       Method  `json:"method"`
	PeriodBefore string  `json:"period_before"`
	PeriodAfter  string  `json:"period_after"`

	Insights        []string `json:"insights"`
	Recommendations []string `json:"recommendations"`
}

// TopDriver is one ranked entry of a driver analysis.
type TopDriver struct {
	Feature   string  `json:"feature"`
	Score     float64 `json:"score"`
	Direction string  `json:"direction"`
}

// DriverAnalysis is the output of the standalone driver pass. ModelScore is
// the held-out R-squared, 0 when the model could not be trained; SHAPValues
// is nil on the correlation fallback.
type DriverAnalysis struct {
	TargetMetric      campaign.Metric    `json:"target_metric"`
	FeatureImportance map[string]float64 `json:"feature_importance"`
	SHAPValues        map[string]float64 `json:"shap_values,omitempty"`
	TopDrivers        []TopDriver        `json:"top_drivers"`
	ModelScore        float64            `json:"model_score"`
	Insights          []string           `json:"insights"`
}

// Context carries caller-supplied flags forwarded to the knowledge base
// when enhancing a result.
type Context struct {
	NumPeriods          int    `json:"num_periods"`
	SampleSize          int    `json:"sample_size"`
	HasControlGroup     bool   `json:"has_control_group"`
	Method              string `json:"method"`
	SeasonalPeriod      bool   `json:"seasonal_period"`
	Randomized          bool   `json:"randomized"`
	DataQualityConcerns bool   `json:"data_quality_concerns"`
	GeographicProximity bool   `json:"geographic_proximity"`
}

// Options tune a single engine call. Zero values select the documented
// defaults via Normalize.
type Options struct {
	SplitDate          string  // optional explicit split point (YYYY-MM-DD); empty = midpoint
	LookbackDays       int     // window length each side of the split; default 30
	Method             Method  // decomposition method; default hybrid
	IncludeML          bool    // run the driver-analysis pass
	IncludeAttribution bool    // run the channel/platform attribution pass
	Context            Context // knowledge-base context flags
}

// DefaultOptions returns the documented defaults: 30-day lookback, hybrid
// method, ML and attribution passes enabled.
func DefaultOptions() Options {
	return Options{
		LookbackDays:       30,
		Method:             MethodHybrid,
		IncludeML:          true,
		IncludeAttribution: true,
	}
}

// Normalize fills unset option fields with their defaults.
func (o Options) Normalize() Options {
	if o.LookbackDays <= 0 {
		o.LookbackDays = 30
	}
	if o.Method == "" {
		o.Method = MethodHybrid
	}
	return o
}
