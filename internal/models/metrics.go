package models

import "time"

// Metrics holds the four OEE figures for a record or a group.
type Metrics struct {
	Availability Value
	Performance  Value
	Quality      Value
	OEE          Value
}

// Metric selects one field of Metrics.
type Metric int

const (
	MetricAvailability Metric = iota
	MetricPerformance
	MetricQuality
	MetricOEE
)

// AllMetrics lists metrics in display order.
var AllMetrics = []Metric{MetricAvailability, MetricPerformance, MetricQuality, MetricOEE}

// String returns the display name for a metric.
func (m Metric) String() string {
	switch m {
	case MetricAvailability:
		return "Availability"
	case MetricPerformance:
		return "Performance"
	case MetricQuality:
		return "Quality"
	case MetricOEE:
		return "OEE"
	default:
		return "Unknown"
	}
}

// Get returns the selected field.
func (m Metrics) Get(metric Metric) Value {
	switch metric {
	case MetricAvailability:
		return m.Availability
	case MetricPerformance:
		return m.Performance
	case MetricQuality:
		return m.Quality
	case MetricOEE:
		return m.OEE
	default:
		return Unknown()
	}
}

// Row pairs a record with its computed metrics.
type Row struct {
	Record
	Metrics
}

// Summary is the unweighted mean of each metric over a set of rows.
type Summary struct {
	Metrics
	Rows int
}

// Group is an aggregate keyed by date, machine or shift.
type Group struct {
	Key  string
	Date time.Time // set when grouped by date
	Metrics
	Rows int
}

// DowntimeReason is summed downtime for one stated cause.
type DowntimeReason struct {
	Reason      string
	Minutes     float64
	Occurrences int
}

// Dataset is the result of one refresh.
type Dataset struct {
	LoadedAt time.Time
	Source   string
	Header   []string
	Mapping  ColumnMapping
	Rows     []Row
}

// Machines returns the distinct machine identifiers in first-seen order.
func (d *Dataset) Machines() []string {
	if d == nil {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for i := range d.Rows {
		m := d.Rows[i].Machine
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}

// DateBounds returns the earliest and latest record dates.
func (d *Dataset) DateBounds() (from, to time.Time, ok bool) {
	if d == nil {
		return time.Time{}, time.Time{}, false
	}
	for i := range d.Rows {
		r := &d.Rows[i]
		if !r.HasDate {
			continue
		}
		if !ok || r.Date.Before(from) {
			from = r.Date
		}
		if !ok || r.Date.After(to) {
			to = r.Date
		}
		ok = true
	}
	return from, to, ok
}
