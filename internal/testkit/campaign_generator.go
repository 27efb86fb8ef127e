package testkit

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"adlens/domain/campaign"
)

// CampaignConfig configures the synthetic campaign-performance generator.
// The generator injects a deliberate regime shift at the midpoint so causal
// analysis has something real to find.
type CampaignConfig struct {
	Days      int       `json:"days"`
	Platforms []string  `json:"platforms"`
	Channels  []string  `json:"channels"`
	StartDate time.Time `json:"start_date"`
	Seed      int64     `json:"seed"`

	// After-period multipliers applied from the midpoint on. 1.0 = no shift.
	SpendShift float64 `json:"spend_shift"`
	CVRShift   float64 `json:"cvr_shift"`
	CPCShift   float64 `json:"cpc_shift"`
}

// DefaultCampaignConfig returns sensible defaults: two months of daily rows
// per platform with a conversion-rate drop in the second half.
func DefaultCampaignConfig() CampaignConfig {
	return CampaignConfig{
		Days:       60,
		Platforms:  []string{"Google", "Meta", "TikTok"},
		Channels:   []string{"Search", "Social", "Display"},
		StartDate:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Seed:       42,
		SpendShift: 1.0,
		CVRShift:   0.7,
		CPCShift:   1.0,
	}
}

// CampaignGenerator produces deterministic campaign-day rows.
type CampaignGenerator struct {
	config CampaignConfig
	rng    *rand.Rand
}

// NewCampaignGenerator creates a generator seeded from the config.
func NewCampaignGenerator(config CampaignConfig) *CampaignGenerator {
	return &CampaignGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Table generates the dataset as a typed campaign table: one row per day per
// platform with Date, Platform, Channel, Spend, Impressions, Clicks,
// Conversions, and Revenue columns.
func (g *CampaignGenerator) Table() *campaign.Table {
	rows := g.config.Days * len(g.config.Platforms)

	dates := make([]time.Time, 0, rows)
	platforms := make([]string, 0, rows)
	channels := make([]string, 0, rows)
	spend := make([]float64, 0, rows)
	impressions := make([]float64, 0, rows)
	clicks := make([]float64, 0, rows)
	conversions := make([]float64, 0, rows)
	revenue := make([]float64, 0, rows)

	midpoint := g.config.Days / 2

	for day := 0; day < g.config.Days; day++ {
		date := g.config.StartDate.AddDate(0, 0, day)
		shifted := day >= midpoint

		for p, platform := range g.config.Platforms {
			base := 800.0 + 250.0*float64(p)

			daySpend := base * g.jitter(0.15)
			cpc := (1.2 + 0.3*float64(p)) * g.jitter(0.10)
			ctr := 0.02 * g.jitter(0.20)
			cvr := 0.05 * g.jitter(0.20)
			aov := 120.0 * g.jitter(0.10)

			if shifted {
				daySpend *= g.config.SpendShift
				cvr *= g.config.CVRShift
				cpc *= g.config.CPCShift
			}

			dayClicks := math.Round(daySpend / cpc)
			dayImpr := math.Round(dayClicks / ctr)
			dayConv := math.Round(dayClicks * cvr)
			dayRev := dayConv * aov

			dates = append(dates, date)
			platforms = append(platforms, platform)
			channels = append(channels, g.config.Channels[(day+p)%len(g.config.Channels)])
			spend = append(spend, round2(daySpend))
			impressions = append(impressions, dayImpr)
			clicks = append(clicks, dayClicks)
			conversions = append(conversions, dayConv)
			revenue = append(revenue, round2(dayRev))
		}
	}

	t := campaign.NewTable(rows)
	// Column adds cannot fail here: lengths match by construction.
	_ = t.AddTime(campaign.ColDate, dates)
	_ = t.AddLabel(campaign.ColPlatform, platforms)
	_ = t.AddLabel(campaign.ColChannel, channels)
	_ = t.AddNumeric(campaign.ColSpend, spend)
	_ = t.AddNumeric(campaign.ColImpressions, impressions)
	_ = t.AddNumeric(campaign.ColClicks, clicks)
	_ = t.AddNumeric(campaign.ColConversions, conversions)
	_ = t.AddNumeric(campaign.ColRevenue, revenue)
	return t
}

// Records renders the dataset as headers plus formatted string rows for the
// CSV/XLSX writers.
func (g *CampaignGenerator) Records() ([]string, [][]string) {
	t := g.Table()
	v := t.View()

	headers := []string{
		campaign.ColDate, campaign.ColPlatform, campaign.ColChannel,
		campaign.ColSpend, campaign.ColImpressions, campaign.ColClicks,
		campaign.ColConversions, campaign.ColRevenue,
	}

	dates := v.Times(campaign.ColDate)
	platforms := v.Labels(campaign.ColPlatform)
	channels := v.Labels(campaign.ColChannel)
	spend := v.Values(campaign.ColSpend)
	impressions := v.Values(campaign.ColImpressions)
	clicks := v.Values(campaign.ColClicks)
	conversions := v.Values(campaign.ColConversions)
	revenue := v.Values(campaign.ColRevenue)

	rows := make([][]string, t.Rows())
	for i := range rows {
		rows[i] = []string{
			dates[i].Format("2006-01-02"),
			platforms[i],
			channels[i],
			fmt.Sprintf("%.2f", spend[i]),
			fmt.Sprintf("%.0f", impressions[i]),
			fmt.Sprintf("%.0f", clicks[i]),
			fmt.Sprintf("%.0f", conversions[i]),
			fmt.Sprintf("%.2f", revenue[i]),
		}
	}
	return headers, rows
}

// jitter returns a multiplicative noise factor centered on 1.
func (g *CampaignGenerator) jitter(scale float64) float64 {
	f := 1 + g.rng.NormFloat64()*scale
	if f < 0.1 {
		f = 0.1
	}
	return f
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
