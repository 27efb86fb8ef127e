package campaign

import (
	"math"
	"sort"
	"time"

	"adlens/domain/core"
)

// ColumnType classifies a table column for analysis purposes.
type ColumnType string

const (
	ColumnNumeric ColumnType = "numeric"
	ColumnLabel   ColumnType = "label"
	ColumnTime    ColumnType = "time"
)

// Table is the columnar dataset consumed by the analysis engine. Columns are
// typed at construction; the engine never mutates a table after it is built.
type Table struct {
	rows    int
	order   []string
	types   map[string]ColumnType
	numeric map[string][]float64
	labels  map[string][]string
	times   map[string][]time.Time
}

// NewTable creates an empty table with a fixed row count.
func NewTable(rows int) *Table {
	return &Table{
		rows:    rows,
		types:   make(map[string]ColumnType),
		numeric: make(map[string][]float64),
		labels:  make(map[string][]string),
		times:   make(map[string][]time.Time),
	}
}

// Rows returns the number of rows in the table.
func (t *Table) Rows() int {
	return t.rows
}

// Columns returns column names in insertion order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Type returns the column's type and whether the column exists.
func (t *Table) Type(name string) (ColumnType, bool) {
	ct, ok := t.types[name]
	return ct, ok
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.types[name]
	return ok
}

// NumericColumns returns the names of all numeric columns in order.
func (t *Table) NumericColumns() []string {
	var out []string
	for _, name := range t.order {
		if t.types[name] == ColumnNumeric {
			out = append(out, name)
		}
	}
	return out
}

// LabelColumns returns the names of all label (categorical) columns in order.
func (t *Table) LabelColumns() []string {
	var out []string
	for _, name := range t.order {
		if t.types[name] == ColumnLabel {
			out = append(out, name)
		}
	}
	return out
}

// AddNumeric adds a numeric column. Length must match the table's row count.
func (t *Table) AddNumeric(name string, values []float64) error {
	if err := t.checkColumn(name, len(values)); err != nil {
		return err
	}
	t.numeric[name] = values
	t.types[name] = ColumnNumeric
	t.order = append(t.order, name)
	return nil
}

// AddLabel adds a categorical column.
func (t *Table) AddLabel(name string, values []string) error {
	if err := t.checkColumn(name, len(values)); err != nil {
		return err
	}
	t.labels[name] = values
	t.types[name] = ColumnLabel
	t.order = append(t.order, name)
	return nil
}

// AddTime adds a timestamp column. Unparsable entries should be stored as the
// zero time; consumers treat zero as missing.
func (t *Table) AddTime(name string, values []time.Time) error {
	if err := t.checkColumn(name, len(values)); err != nil {
		return err
	}
	t.times[name] = values
	t.types[name] = ColumnTime
	t.order = append(t.order, name)
	return nil
}

func (t *Table) checkColumn(name string, n int) error {
	if _, exists := t.types[name]; exists {
		return core.ErrDuplicateColumn
	}
	if n != t.rows {
		return core.ErrColumnLengthMismatch
	}
	return nil
}

// View returns a view spanning every row of the table.
func (t *Table) View() *View {
	idx := make([]int, t.rows)
	for i := range idx {
		idx[i] = i
	}
	return &View{table: t, idx: idx}
}

// View is an immutable index slice over a table. All reductions treat a
// missing column as an all-zero series, never as an error.
type View struct {
	table *Table
	idx   []int
}

// Len returns the number of rows in the view.
func (v *View) Len() int {
	return len(v.idx)
}

// Table returns the backing table.
func (v *View) Table() *Table {
	return v.table
}

// Sum reduces a numeric column over the view. NaN entries are skipped.
func (v *View) Sum(col string) float64 {
	values, ok := v.table.numeric[col]
	if !ok {
		return 0
	}
	total := 0.0
	for _, i := range v.idx {
		if !math.IsNaN(values[i]) {
			total += values[i]
		}
	}
	return total
}

// Mean reduces a numeric column to its mean over the view. NaN entries are
// skipped; an empty or missing column yields 0.
func (v *View) Mean(col string) float64 {
	values, ok := v.table.numeric[col]
	if !ok {
		return 0
	}
	total, n := 0.0, 0
	for _, i := range v.idx {
		if !math.IsNaN(values[i]) {
			total += values[i]
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return total / float64(n)
}

// Values materializes a numeric column restricted to the view. A missing
// column materializes as zeros so formula evaluation never faults.
func (v *View) Values(col string) []float64 {
	out := make([]float64, len(v.idx))
	values, ok := v.table.numeric[col]
	if !ok {
		return out
	}
	for j, i := range v.idx {
		out[j] = values[i]
	}
	return out
}

// Labels materializes a label column restricted to the view. A missing column
// materializes as empty strings.
func (v *View) Labels(col string) []string {
	out := make([]string, len(v.idx))
	values, ok := v.table.labels[col]
	if !ok {
		return out
	}
	for j, i := range v.idx {
		out[j] = values[i]
	}
	return out
}

// Times materializes a time column restricted to the view. A missing column
// materializes as zero times.
func (v *View) Times(col string) []time.Time {
	out := make([]time.Time, len(v.idx))
	values, ok := v.table.times[col]
	if !ok {
		return out
	}
	for j, i := range v.idx {
		out[j] = values[i]
	}
	return out
}

// Filter returns a sub-view of rows where pred holds. The predicate receives
// positions relative to this view.
func (v *View) Filter(pred func(pos int) bool) *View {
	var idx []int
	for pos, i := range v.idx {
		if pred(pos) {
			idx = append(idx, i)
		}
	}
	return &View{table: v.table, idx: idx}
}

// Row returns a single-row sub-view at the given position.
func (v *View) Row(pos int) *View {
	return &View{table: v.table, idx: []int{v.idx[pos]}}
}

// GroupBy partitions the view by the distinct values of a label column.
// A missing column yields a single group keyed by the empty string.
func (v *View) GroupBy(col string) map[string]*View {
	groups := make(map[string][]int)
	labels, ok := v.table.labels[col]
	for _, i := range v.idx {
		key := ""
		if ok {
			key = labels[i]
		}
		groups[key] = append(groups[key], i)
	}
	out := make(map[string]*View, len(groups))
	for key, idx := range groups {
		out[key] = &View{table: v.table, idx: idx}
	}
	return out
}

// GroupKeys returns the sorted distinct values of a label column over the view.
func (v *View) GroupKeys(col string) []string {
	seen := make(map[string]bool)
	labels, ok := v.table.labels[col]
	if !ok {
		return nil
	}
	for _, i := range v.idx {
		seen[labels[i]] = true
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
