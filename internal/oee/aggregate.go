package oee

import (
	"sort"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/j-veylop/oee-dashboard-tui/internal/models"
)

// AllMachines is the machine filter value that keeps every machine.
const AllMachines = ""

// Filter narrows a row set by machine and an inclusive calendar date range.
// Zero From or To leaves that side open.
type Filter struct {
	From    time.Time
	To      time.Time
	Machine string
}

// Active reports whether the filter removes anything.
func (f Filter) Active() bool {
	return f.Machine != AllMachines || !f.From.IsZero() || !f.To.IsZero()
}

func (f Filter) hasRange() bool {
	return !f.From.IsZero() || !f.To.IsZero()
}

func calendarDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Keep reports whether r passes the filter. Rows without a date fail any
// date range.
func (f Filter) Keep(r *models.Row) bool {
	if f.Machine != AllMachines && r.Machine != f.Machine {
		return false
	}
	if !f.hasRange() {
		return true
	}
	if !r.HasDate {
		return false
	}
	day := calendarDay(r.Date)
	if !f.From.IsZero() && day.Before(calendarDay(f.From)) {
		return false
	}
	if !f.To.IsZero() && day.After(calendarDay(f.To)) {
		return false
	}
	return true
}

// Apply returns the rows that pass the filter.
func (f Filter) Apply(rows []models.Row) []models.Row {
	if !f.Active() {
		return rows
	}
	out := make([]models.Row, 0, len(rows))
	for i := range rows {
		if f.Keep(&rows[i]) {
			out = append(out, rows[i])
		}
	}
	return out
}

// Mean averages the known values, unweighted. No known values is unknown.
func Mean(values []models.Value) models.Value {
	data := make(stats.Float64Data, 0, len(values))
	for _, v := range values {
		if f, ok := v.Get(); ok {
			data = append(data, f)
		}
	}
	if len(data) == 0 {
		return models.Unknown()
	}
	mean, err := stats.Mean(data)
	if err != nil {
		return models.Unknown()
	}
	return models.Known(mean)
}

func meanMetrics(rows []models.Row) models.Metrics {
	var m models.Metrics
	cols := make([][]models.Value, len(models.AllMetrics))
	for i := range rows {
		for j, metric := range models.AllMetrics {
			cols[j] = append(cols[j], rows[i].Metrics.Get(metric))
		}
	}
	m.Availability = Mean(cols[models.MetricAvailability])
	m.Performance = Mean(cols[models.MetricPerformance])
	m.Quality = Mean(cols[models.MetricQuality])
	m.OEE = Mean(cols[models.MetricOEE])
	return m
}

// Summarize averages each metric over rows, skipping unknowns per metric.
func Summarize(rows []models.Row) models.Summary {
	return models.Summary{Metrics: meanMetrics(rows), Rows: len(rows)}
}

func groupKey(r *models.Row, by models.GroupBy) string {
	switch by {
	case models.GroupByDate:
		return r.DateKey()
	case models.GroupByMachine:
		return r.Machine
	case models.GroupByShift:
		return r.Shift
	default:
		return ""
	}
}

// Aggregate groups rows by date, machine or shift and averages each group.
// Rows with no value for the key are skipped. Groups are ordered by key,
// which for dates is chronological.
func Aggregate(rows []models.Row, by models.GroupBy) []models.Group {
	buckets := make(map[string][]models.Row)
	for i := range rows {
		key := groupKey(&rows[i], by)
		if key == "" {
			continue
		}
		buckets[key] = append(buckets[key], rows[i])
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	groups := make([]models.Group, 0, len(keys))
	for _, k := range keys {
		members := buckets[k]
		g := models.Group{Key: k, Metrics: meanMetrics(members), Rows: len(members)}
		if by == models.GroupByDate {
			g.Date = calendarDay(members[0].Date)
		}
		groups = append(groups, g)
	}
	return groups
}

// HasKnown reports whether any group has a known value for metric.
func HasKnown(groups []models.Group, metric models.Metric) bool {
	for i := range groups {
		if groups[i].Metrics.Get(metric).IsKnown() {
			return true
		}
	}
	return false
}

// TopDowntimeReasons sums downtime per stated reason and returns the n
// largest, ties broken by reason. Rows without a reason or downtime are
// ignored. n <= 0 returns every reason.
func TopDowntimeReasons(rows []models.Row, n int) []models.DowntimeReason {
	byReason := make(map[string]*models.DowntimeReason)
	for i := range rows {
		r := &rows[i]
		minutes, ok := r.Downtime.Get()
		if !ok || r.DowntimeReason == "" {
			continue
		}
		dr, exists := byReason[r.DowntimeReason]
		if !exists {
			dr = &models.DowntimeReason{Reason: r.DowntimeReason}
			byReason[r.DowntimeReason] = dr
		}
		dr.Minutes += minutes
		dr.Occurrences++
	}

	out := make([]models.DowntimeReason, 0, len(byReason))
	for _, dr := range byReason {
		out = append(out, *dr)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Minutes != out[j].Minutes {
			return out[i].Minutes > out[j].Minutes
		}
		return out[i].Reason < out[j].Reason
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
