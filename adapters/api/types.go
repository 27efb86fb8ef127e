package api

import (
	"math"
	"sort"
	"time"

	"adlens/domain/campaign"
	"adlens/domain/causal"
	"adlens/internal/errors"
)

// AnalyzeRequest is the JSON body for POST /api/analyze. Rows are raw
// records keyed by column name; typing is inferred the same way the file
// reader does it.
type AnalyzeRequest struct {
	Rows               []map[string]interface{} `json:"rows"`
	Metric             string                   `json:"metric"`
	DateColumn         string                   `json:"date_column"`
	SplitDate          string                   `json:"split_date,omitempty"`
	LookbackDays       int                      `json:"lookback_days,omitempty"`
	Method             string                   `json:"method,omitempty"`
	IncludeML          *bool                    `json:"include_ml,omitempty"`
	IncludeAttribution *bool                    `json:"include_attribution,omitempty"`
	Context            causal.Context           `json:"context"`
}

// Options converts the request's tuning fields into engine options.
func (r *AnalyzeRequest) Options() causal.Options {
	opts := causal.DefaultOptions()
	opts.SplitDate = r.SplitDate
	if r.LookbackDays > 0 {
		opts.LookbackDays = r.LookbackDays
	}
	if r.Method != "" {
		opts.Method = causal.Method(r.Method)
	}
	if r.IncludeML != nil {
		opts.IncludeML = *r.IncludeML
	}
	if r.IncludeAttribution != nil {
		opts.IncludeAttribution = *r.IncludeAttribution
	}
	opts.Context = r.Context
	return opts
}

// AnalyzeResponse wraps the engine result with the persisted ID when a
// repository is configured.
type AnalyzeResponse struct {
	ID     string         `json:"id,omitempty"`
	Result *causal.Result `json:"result"`
}

// DriversRequest is the JSON body for POST /api/drivers.
type DriversRequest struct {
	Rows               []map[string]interface{} `json:"rows"`
	Metric             string                   `json:"metric"`
	FeatureColumns     []string                 `json:"feature_columns,omitempty"`
	CategoricalColumns []string                 `json:"categorical_columns,omitempty"`
}

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// tableFromRows builds a typed table from raw JSON records. Column order is
// sorted for determinism; per-column typing votes across values.
func tableFromRows(rows []map[string]interface{}) (*campaign.Table, error) {
	t := campaign.NewTable(len(rows))
	if len(rows) == 0 {
		return t, nil
	}

	names := map[string]bool{}
	for _, row := range rows {
		for k := range row {
			names[k] = true
		}
	}
	ordered := make([]string, 0, len(names))
	for k := range names {
		ordered = append(ordered, k)
	}
	sort.Strings(ordered)

	for _, name := range ordered {
		numbers, dates, nonEmpty := 0, 0, 0
		for _, row := range rows {
			v, ok := row[name]
			if !ok || v == nil {
				continue
			}
			nonEmpty++
			switch value := v.(type) {
			case float64:
				numbers++
			case string:
				if _, ok := parseDate(value); ok {
					dates++
				}
			}
		}

		var err error
		switch {
		case nonEmpty > 0 && dates*2 > nonEmpty:
			values := make([]time.Time, len(rows))
			for i, row := range rows {
				if s, ok := row[name].(string); ok {
					values[i], _ = parseDate(s)
				}
			}
			err = t.AddTime(name, values)
		case nonEmpty > 0 && numbers*2 > nonEmpty:
			values := make([]float64, len(rows))
			for i, row := range rows {
				if f, ok := row[name].(float64); ok {
					values[i] = f
				} else {
					values[i] = math.NaN()
				}
			}
			err = t.AddNumeric(name, values)
		default:
			values := make([]string, len(rows))
			for i, row := range rows {
				if s, ok := row[name].(string); ok {
					values[i] = s
				}
			}
			err = t.AddLabel(name, values)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "building column %s", name)
		}
	}
	return t, nil
}

var dateLayouts = []string{"2006-01-02", "2006-01-02 15:04:05", time.RFC3339}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
