package decompose

import (
	"adlens/domain/campaign"
	"adlens/domain/causal"
	"adlens/internal/metrics"
)

// factors holds a window's aggregate totals and the ratio factors derived
// from them. All ratios are zero-guarded.
type factors struct {
	spend       float64
	impressions float64
	clicks      float64
	conversions float64
	revenue     float64

	aov float64 // revenue per conversion
	cvr float64 // conversions per click, percent
	ctr float64 // clicks per impression, percent
	cpc float64 // spend per click
}

func extract(w campaign.Window) factors {
	f := factors{
		spend:       w.Sum(campaign.ColSpend),
		impressions: w.Sum(campaign.ColImpressions),
		clicks:      w.Sum(campaign.ColClicks),
		conversions: w.Sum(campaign.ColConversions),
		revenue:     w.Sum(campaign.ColRevenue),
	}
	f.aov = metrics.SafeDiv(f.revenue, f.conversions)
	f.cvr = metrics.SafeDiv(f.conversions, f.clicks) * 100
	f.ctr = metrics.SafeDiv(f.clicks, f.impressions) * 100
	f.cpc = metrics.SafeDiv(f.spend, f.clicks)
	return f
}

// decomposeROAS splits a ROAS change into six first-order components.
// ROAS = Revenue/Spend = (Conversions x AOV)/Spend, with the funnel chain
// Conversions = Clicks x CVR and Spend = Clicks x CPC. Each term freezes
// every factor at its before-period value except one, and is normalized by
// before-period spend.
func (d *Decomposer) decomposeROAS(before, after campaign.Window) []causal.ComponentContribution {
	b, a := extract(before), extract(after)

	return []causal.ComponentContribution{
		contribution(ComponentConversionVolume, b.conversions, a.conversions,
			metrics.SafeDiv((a.conversions-b.conversions)*b.aov, b.spend)),
		contribution(ComponentAOV, b.aov, a.aov,
			metrics.SafeDiv(b.conversions*(a.aov-b.aov), b.spend)),
		contribution(ComponentSpendLevel, b.spend, a.spend,
			-metrics.SafeDiv(b.revenue*(a.spend-b.spend), b.spend*b.spend)),
		contribution(ComponentCVR, b.cvr, a.cvr,
			metrics.SafeDiv(b.clicks*(a.cvr-b.cvr)/100*b.aov, b.spend)),
		contribution(ComponentCTR, b.ctr, a.ctr,
			metrics.SafeDiv(b.impressions*(a.ctr-b.ctr)/100*(b.cvr/100)*b.aov, b.spend)),
		contribution(ComponentCPC, b.cpc, a.cpc,
			-metrics.SafeDiv(b.revenue*b.clicks*(a.cpc-b.cpc), b.spend*b.spend)),
	}
}

// decomposeCPA splits a CPA change. CPA = Spend/Conversions with
// Conversions = Clicks x CVR and Spend = Clicks x CPC.
func (d *Decomposer) decomposeCPA(before, after campaign.Window) []causal.ComponentContribution {
	b, a := extract(before), extract(after)

	return []causal.ComponentContribution{
		contribution(ComponentSpendLevel, b.spend, a.spend,
			metrics.SafeDiv(a.spend-b.spend, b.conversions)),
		contribution(ComponentConversionVolume, b.conversions, a.conversions,
			-metrics.SafeDiv(b.spend*(a.conversions-b.conversions), b.conversions*b.conversions)),
		contribution(ComponentCVR, b.cvr, a.cvr,
			-metrics.SafeDiv(b.spend*b.clicks*(a.cvr-b.cvr)/100, b.conversions*b.conversions)),
		contribution(ComponentCPC, b.cpc, a.cpc,
			metrics.SafeDiv(b.clicks*(a.cpc-b.cpc), b.conversions)),
	}
}

// decomposeCTR splits a CTR change into click and impression volume terms.
func (d *Decomposer) decomposeCTR(before, after campaign.Window) []causal.ComponentContribution {
	b, a := extract(before), extract(after)

	return []causal.ComponentContribution{
		contribution(ComponentClickVolume, b.clicks, a.clicks,
			metrics.SafeDiv(a.clicks-b.clicks, b.impressions)*100),
		contribution(ComponentImpressionVolume, b.impressions, a.impressions,
			-metrics.SafeDiv(b.clicks*(a.impressions-b.impressions), b.impressions*b.impressions)*100),
	}
}

// decomposeCVR splits a CVR change into conversion and click volume terms.
func (d *Decomposer) decomposeCVR(before, after campaign.Window) []causal.ComponentContribution {
	b, a := extract(before), extract(after)

	return []causal.ComponentContribution{
		contribution(ComponentConversionVolume, b.conversions, a.conversions,
			metrics.SafeDiv(a.conversions-b.conversions, b.clicks)*100),
		contribution(ComponentClickVolume, b.clicks, a.clicks,
			-metrics.SafeDiv(b.conversions*(a.clicks-b.clicks), b.clicks*b.clicks)*100),
	}
}

// decomposeCPC splits a CPC change into spend and click volume terms.
func (d *Decomposer) decomposeCPC(before, after campaign.Window) []causal.ComponentContribution {
	b, a := extract(before), extract(after)

	return []causal.ComponentContribution{
		contribution(ComponentSpendLevel, b.spend, a.spend,
			metrics.SafeDiv(a.spend-b.spend, b.clicks)),
		contribution(ComponentClickVolume, b.clicks, a.clicks,
			-metrics.SafeDiv(b.spend*(a.clicks-b.clicks), b.clicks*b.clicks)),
	}
}

// decomposeCPM splits a CPM change into spend and impression volume terms.
func (d *Decomposer) decomposeCPM(before, after campaign.Window) []causal.ComponentContribution {
	b, a := extract(before), extract(after)

	return []causal.ComponentContribution{
		contribution(ComponentSpendLevel, b.spend, a.spend,
			metrics.SafeDiv(a.spend-b.spend, b.impressions)*1000),
		contribution(ComponentImpressionVolume, b.impressions, a.impressions,
			-metrics.SafeDiv(b.spend*(a.impressions-b.impressions), b.impressions*b.impressions)*1000),
	}
}
