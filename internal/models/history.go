// Package models defines data structures and domain types.
package models

import "time"

// TimeRange represents the selected history time range.
type TimeRange int

const (
	// TimeRange7Days shows runs from the last 7 days.
	TimeRange7Days TimeRange = iota
	// TimeRange30Days shows runs from the last 30 days.
	TimeRange30Days
	// TimeRange90Days shows runs from the last 90 days.
	TimeRange90Days
	// TimeRangeAllTime shows every stored run.
	TimeRangeAllTime
)

// String returns the display name for a time range.
func (t TimeRange) String() string {
	switch t {
	case TimeRange7Days:
		return "7 Days"
	case TimeRange30Days:
		return "30 Days"
	case TimeRange90Days:
		return "90 Days"
	case TimeRangeAllTime:
		return "All Time"
	default:
		return "Unknown"
	}
}

// Days returns the number of days for the time range (0 = unlimited).
func (t TimeRange) Days() int {
	switch t {
	case TimeRange7Days:
		return 7
	case TimeRange30Days:
		return 30
	case TimeRange90Days:
		return 90
	case TimeRangeAllTime:
		return 0
	default:
		return 30
	}
}

// Since returns the lower bound for the range relative to now, zero for all
// time.
func (t TimeRange) Since(now time.Time) time.Time {
	days := t.Days()
	if days == 0 {
		return time.Time{}
	}
	return now.AddDate(0, 0, -days)
}

// Next cycles to the next time range.
func (t TimeRange) Next() TimeRange {
	return (t + 1) % 4
}

// Run is the stored snapshot of one refresh.
type Run struct {
	StartedAt   time.Time
	ID          string
	Source      string
	Error       string
	Summary     Metrics
	RecordCount int
	Duration    time.Duration
}

// Failed reports whether the refresh ended in an error.
func (r *Run) Failed() bool {
	return r.Error != ""
}

// DailyMetric is a stored per-date aggregate, overwritten by later runs that
// include the same date.
type DailyMetric struct {
	Date      time.Time
	UpdatedAt time.Time
	RunID     string
	Metrics
	Records int
}

// HistoryStats summarizes stored history over a time range.
type HistoryStats struct {
	Range      TimeRange
	Runs       []Run
	Daily      []DailyMetric
	MeanOEE    Value
	BestOEE    Value
	WorstOEE   Value
	BestDay    time.Time
	WorstDay   time.Time
	FailedRuns int
	// Comparison describes the latest day against the range mean, e.g.
	// "+3.1 pts vs avg".
	Comparison string
}

// HasData reports whether any run or daily aggregate was found.
func (h *HistoryStats) HasData() bool {
	return h != nil && (len(h.Runs) > 0 || len(h.Daily) > 0)
}
