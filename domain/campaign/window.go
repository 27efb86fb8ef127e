package campaign

import (
	"fmt"
	"time"
)

// Window is an immutable row subset bounded by a time period. Created once
// per analysis by the period splitter and read-only afterward.
type Window struct {
	view  *View
	start time.Time
	end   time.Time
}

// NewWindow creates a window over a view with its period bounds.
func NewWindow(view *View, start, end time.Time) Window {
	return Window{view: view, start: start, end: end}
}

// View returns the underlying row view.
func (w Window) View() *View {
	return w.view
}

// Start returns the window's first timestamp.
func (w Window) Start() time.Time {
	return w.start
}

// End returns the window's last timestamp.
func (w Window) End() time.Time {
	return w.end
}

// Rows returns the window's row count.
func (w Window) Rows() int {
	if w.view == nil {
		return 0
	}
	return w.view.Len()
}

// Sum reduces a numeric column over the window.
func (w Window) Sum(col string) float64 {
	if w.view == nil {
		return 0
	}
	return w.view.Sum(col)
}

// Mean reduces a numeric column to its mean over the window.
func (w Window) Mean(col string) float64 {
	if w.view == nil {
		return 0
	}
	return w.view.Mean(col)
}

// Period renders the window bounds as a human-readable date range.
func (w Window) Period() string {
	return fmt.Sprintf("%s to %s", w.start.Format("2006-01-02"), w.end.Format("2006-01-02"))
}
