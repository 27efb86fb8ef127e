package testkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adlens/domain/campaign"
)

func TestCampaignGenerator_Shape(t *testing.T) {
	cfg := DefaultCampaignConfig()
	table := NewCampaignGenerator(cfg).Table()

	assert.Equal(t, cfg.Days*len(cfg.Platforms), table.Rows())
	for _, col := range []string{
		campaign.ColDate, campaign.ColPlatform, campaign.ColChannel,
		campaign.ColSpend, campaign.ColImpressions, campaign.ColClicks,
		campaign.ColConversions, campaign.ColRevenue,
	} {
		assert.True(t, table.HasColumn(col), col)
	}

	platforms := table.View().GroupKeys(campaign.ColPlatform)
	assert.Equal(t, []string{"Google", "Meta", "TikTok"}, platforms)
}

func TestCampaignGenerator_Deterministic(t *testing.T) {
	cfg := DefaultCampaignConfig()
	headersA, rowsA := NewCampaignGenerator(cfg).Records()
	headersB, rowsB := NewCampaignGenerator(cfg).Records()

	assert.Equal(t, headersA, headersB)
	assert.Equal(t, rowsA, rowsB)
}

func TestCampaignGenerator_CVRShiftLowersSecondHalf(t *testing.T) {
	cfg := DefaultCampaignConfig()
	cfg.CVRShift = 0.5
	table := NewCampaignGenerator(cfg).Table()
	v := table.View()

	dates := v.Times(campaign.ColDate)
	midpoint := cfg.StartDate.AddDate(0, 0, cfg.Days/2)
	firstHalf := v.Filter(func(pos int) bool { return dates[pos].Before(midpoint) })
	secondHalf := v.Filter(func(pos int) bool { return !dates[pos].Before(midpoint) })

	cvrBefore := firstHalf.Sum(campaign.ColConversions) / firstHalf.Sum(campaign.ColClicks)
	cvrAfter := secondHalf.Sum(campaign.ColConversions) / secondHalf.Sum(campaign.ColClicks)
	require.Greater(t, cvrBefore, 0.0)
	assert.Less(t, cvrAfter, cvrBefore)
}

func TestCampaignGenerator_RecordsMatchTable(t *testing.T) {
	cfg := DefaultCampaignConfig()
	cfg.Days = 4
	headers, rows := NewCampaignGenerator(cfg).Records()

	assert.Len(t, headers, 8)
	assert.Len(t, rows, cfg.Days*len(cfg.Platforms))
	for _, row := range rows {
		assert.Len(t, row, len(headers))
	}
}
