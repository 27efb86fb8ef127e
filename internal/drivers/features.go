package drivers

import (
	"fmt"
	"math"

	"adlens/domain/campaign"
	"adlens/internal/metrics"
)

// featureSet is the dense design matrix handed to an importance provider.
// Rows with any missing value have already been dropped.
type featureSet struct {
	names  []string
	rows   [][]float64 // samples x features
	target []float64
}

func (fs *featureSet) column(j int) []float64 {
	out := make([]float64, len(fs.rows))
	for i, row := range fs.rows {
		out[i] = row[j]
	}
	return out
}

// buildFeatures assembles the design matrix. When featureCols is empty every
// numeric column except the target is auto-selected; categoricalCols are
// one-hot encoded as "Column=Value" indicators. The target is read from a
// literal column when present, otherwise computed per row from the metric
// formula.
func buildFeatures(v *campaign.View, metric campaign.Metric, featureCols, categoricalCols []string, calc *metrics.Calculator) *featureSet {
	t := v.Table()

	if len(featureCols) == 0 {
		for _, name := range t.NumericColumns() {
			if name == string(metric) {
				continue
			}
			featureCols = append(featureCols, name)
		}
	}

	names := make([]string, 0, len(featureCols))
	columns := make([][]float64, 0, len(featureCols))
	for _, col := range featureCols {
		if ct, ok := t.Type(col); !ok || ct != campaign.ColumnNumeric {
			continue
		}
		names = append(names, col)
		columns = append(columns, v.Values(col))
	}

	for _, col := range categoricalCols {
		if ct, ok := t.Type(col); !ok || ct != campaign.ColumnLabel {
			continue
		}
		labels := v.Labels(col)
		for _, value := range v.GroupKeys(col) {
			indicator := make([]float64, len(labels))
			for i, l := range labels {
				if l == value {
					indicator[i] = 1
				}
			}
			names = append(names, fmt.Sprintf("%s=%s", col, value))
			columns = append(columns, indicator)
		}
	}

	var target []float64
	if ct, ok := t.Type(string(metric)); ok && ct == campaign.ColumnNumeric {
		target = v.Values(string(metric))
	} else {
		target = calc.RowValues(v, metric)
	}

	fs := &featureSet{names: names}
	for i := 0; i < v.Len(); i++ {
		if math.IsNaN(target[i]) || math.IsInf(target[i], 0) {
			continue
		}
		row := make([]float64, len(columns))
		clean := true
		for j, col := range columns {
			if math.IsNaN(col[i]) || math.IsInf(col[i], 0) {
				clean = false
				break
			}
			row[j] = col[i]
		}
		if !clean {
			continue
		}
		fs.rows = append(fs.rows, row)
		fs.target = append(fs.target, target[i])
	}
	return fs
}

// standardize z-scores each feature column in place. Zero-variance columns
// collapse to zeros.
func (fs *featureSet) standardize() {
	n := len(fs.rows)
	if n == 0 {
		return
	}
	for j := range fs.names {
		mean, sd := 0.0, 0.0
		for _, row := range fs.rows {
			mean += row[j]
		}
		mean /= float64(n)
		for _, row := range fs.rows {
			d := row[j] - mean
			sd += d * d
		}
		sd = math.Sqrt(sd / float64(n))
		for _, row := range fs.rows {
			if sd > 0 {
				row[j] = (row[j] - mean) / sd
			} else {
				row[j] = 0
			}
		}
	}
}
