package window

import (
	"time"

	"adlens/domain/campaign"
	"adlens/domain/core"
)

// Splitter partitions a dataset into a before window and an after window
// around a split point, each bounded by a lookback length.
type Splitter struct{}

// NewSplitter creates a period splitter.
func NewSplitter() *Splitter {
	return &Splitter{}
}

// Split parses the date column, drops rows with unparsable (zero) dates, and
// cuts the remainder at splitAt. A zero splitAt selects the midpoint between
// the earliest and latest date. The before window keeps the trailing
// lookbackDays before the split; the after window keeps the leading
// lookbackDays from the split onward. Either side empty is an
// insufficient-data condition surfaced as an error for the engine's
// fail-soft boundary.
func (s *Splitter) Split(v *campaign.View, dateCol string, splitAt time.Time, lookbackDays int) (campaign.Window, campaign.Window, error) {
	if v == nil || v.Len() == 0 {
		return campaign.Window{}, campaign.Window{}, core.ErrInsufficientData
	}
	if ct, ok := v.Table().Type(dateCol); !ok || ct != campaign.ColumnTime {
		return campaign.Window{}, campaign.Window{}, core.ErrMissingDateColumn
	}

	times := v.Times(dateCol)
	dated := v.Filter(func(pos int) bool { return !times[pos].IsZero() })
	if dated.Len() == 0 {
		return campaign.Window{}, campaign.Window{}, core.ErrInsufficientData
	}

	datedTimes := dated.Times(dateCol)
	min, max := datedTimes[0], datedTimes[0]
	for _, t := range datedTimes[1:] {
		if t.Before(min) {
			min = t
		}
		if t.After(max) {
			max = t
		}
	}

	split := splitAt
	if split.IsZero() {
		split = min.Add(max.Sub(min) / 2)
	}

	lookback := time.Duration(lookbackDays) * 24 * time.Hour
	beforeCut := split.Add(-lookback)
	afterCut := split.Add(lookback)

	before := dated.Filter(func(pos int) bool {
		t := datedTimes[pos]
		return t.Before(split) && !t.Before(beforeCut)
	})
	after := dated.Filter(func(pos int) bool {
		t := datedTimes[pos]
		return !t.Before(split) && t.Before(afterCut)
	})

	if before.Len() == 0 || after.Len() == 0 {
		return campaign.Window{}, campaign.Window{}, core.ErrEmptyWindow
	}

	beforeStart, beforeEnd := bounds(before.Times(dateCol))
	afterStart, afterEnd := bounds(after.Times(dateCol))

	return campaign.NewWindow(before, beforeStart, beforeEnd),
		campaign.NewWindow(after, afterStart, afterEnd), nil
}

func bounds(times []time.Time) (time.Time, time.Time) {
	start, end := times[0], times[0]
	for _, t := range times[1:] {
		if t.Before(start) {
			start = t
		}
		if t.After(end) {
			end = t
		}
	}
	return start, end
}
