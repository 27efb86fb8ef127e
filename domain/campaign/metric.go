package campaign

import "strings"

// Metric identifies a campaign performance metric. Known derived metrics are
// computed from component columns; any other value is treated as a literal
// column name whose per-row mean is the metric value.
type Metric string

const (
	MetricROAS Metric = "ROAS"
	MetricCPA  Metric = "CPA"
	MetricCTR  Metric = "CTR"
	MetricCVR  Metric = "CVR"
	MetricCPC  Metric = "CPC"
	MetricCPM  Metric = "CPM"

	MetricRevenue Metric = "Revenue"
	MetricSpend   Metric = "Spend"
)

// Well-known column names. Matching is case-sensitive and exact: alias
// resolution belongs to the ingestion layer, not this engine.
const (
	ColDate        = "Date"
	ColPlatform    = "Platform"
	ColChannel     = "Channel"
	ColSpend       = "Spend"
	ColImpressions = "Impressions"
	ColClicks      = "Clicks"
	ColConversions = "Conversions"
	ColRevenue     = "Revenue"
)

// derivedMetrics is the closed set of formula-backed metrics.
var derivedMetrics = map[Metric]bool{
	MetricROAS: true,
	MetricCPA:  true,
	MetricCTR:  true,
	MetricCVR:  true,
	MetricCPC:  true,
	MetricCPM:  true,
}

// ParseMetric normalizes a metric string. Known derived metrics are matched
// case-insensitively; anything else passes through untouched as a literal
// column reference.
func ParseMetric(s string) Metric {
	upper := Metric(strings.ToUpper(strings.TrimSpace(s)))
	if derivedMetrics[upper] {
		return upper
	}
	return Metric(strings.TrimSpace(s))
}

// IsDerived reports whether the metric is computed from a ratio formula
// rather than read from a literal column.
func (m Metric) IsDerived() bool {
	return derivedMetrics[m]
}

// HigherIsBetter reports the metric's polarity. Cost metrics (CPA, CPC, CPM,
// Spend) improve when they decrease; everything else improves when it
// increases.
func (m Metric) HigherIsBetter() bool {
	switch m {
	case MetricCPA, MetricCPC, MetricCPM, MetricSpend:
		return false
	default:
		return true
	}
}

func (m Metric) String() string {
	return string(m)
}
