// Package report renders a headless KPI report of a dataset as text or JSON.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/j-veylop/oee-dashboard-tui/internal/models"
	"github.com/j-veylop/oee-dashboard-tui/internal/oee"
)

// Options selects the rows and sections of a report.
type Options struct {
	Filter  oee.Filter
	GroupBy models.GroupBy
	// TopReasons limits the downtime section; zero omits it.
	TopReasons int
}

// Metrics is the JSON form of models.Metrics. Unknown values are null.
type Metrics struct {
	Availability *float64 `json:"availability"`
	Performance  *float64 `json:"performance"`
	Quality      *float64 `json:"quality"`
	OEE          *float64 `json:"oee"`
}

func toMetrics(m models.Metrics) Metrics {
	return Metrics{
		Availability: m.Availability.Ptr(),
		Performance:  m.Performance.Ptr(),
		Quality:      m.Quality.Ptr(),
		OEE:          m.OEE.Ptr(),
	}
}

// Group is one aggregate line.
type Group struct {
	Key     string  `json:"key"`
	Rows    int     `json:"rows"`
	Metrics Metrics `json:"metrics"`
}

// Reason is one downtime cause.
type Reason struct {
	Reason      string  `json:"reason"`
	Minutes     float64 `json:"minutes"`
	Occurrences int     `json:"occurrences"`
}

// Report is the computed content, independent of output format.
type Report struct {
	GeneratedAt time.Time         `json:"generated_at"`
	Source      string            `json:"source"`
	Columns     map[string]string `json:"columns"`
	Machine     string            `json:"machine,omitempty"`
	From        string            `json:"from,omitempty"`
	To          string            `json:"to,omitempty"`
	TotalRows   int               `json:"total_rows"`
	Rows        int               `json:"rows"`
	Summary     Metrics           `json:"summary"`
	GroupBy     string            `json:"group_by"`
	Groups      []Group           `json:"groups"`
	Downtime    []Reason          `json:"downtime,omitempty"`

	summary models.Metrics
	groups  []models.Group
	by      models.GroupBy
}

// Build computes a report from ds.
func Build(ds *models.Dataset, opts Options) *Report {
	rows := opts.Filter.Apply(ds.Rows)
	summary := oee.Summarize(rows)
	groups := oee.Aggregate(rows, opts.GroupBy)

	r := &Report{
		GeneratedAt: time.Now(),
		Source:      ds.Source,
		Columns:     make(map[string]string),
		Machine:     opts.Filter.Machine,
		TotalRows:   len(ds.Rows),
		Rows:        len(rows),
		Summary:     toMetrics(summary.Metrics),
		GroupBy:     opts.GroupBy.String(),
		Groups:      make([]Group, len(groups)),
		summary:     summary.Metrics,
		groups:      groups,
		by:          opts.GroupBy,
	}
	if !opts.Filter.From.IsZero() {
		r.From = opts.Filter.From.Format(time.DateOnly)
	}
	if !opts.Filter.To.IsZero() {
		r.To = opts.Filter.To.Format(time.DateOnly)
	}

	for _, role := range models.Roles() {
		if ds.Mapping.Has(role) {
			r.Columns[role.String()] = ds.Mapping.Name(role)
		}
	}
	for i, g := range groups {
		r.Groups[i] = Group{Key: g.Key, Rows: g.Rows, Metrics: toMetrics(g.Metrics)}
	}

	if opts.TopReasons > 0 && ds.Mapping.Has(models.RoleDowntime) && ds.Mapping.Has(models.RoleDowntimeReason) {
		for _, dr := range oee.TopDowntimeReasons(rows, opts.TopReasons) {
			r.Downtime = append(r.Downtime, Reason{Reason: dr.Reason, Minutes: dr.Minutes, Occurrences: dr.Occurrences})
		}
	}
	return r
}

// WriteJSON writes r as indented JSON.
func WriteJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// WriteText writes r as aligned plain text.
func WriteText(w io.Writer, r *Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw)
	fmt.Fprintf(tw, "  OEE Report\n")
	fmt.Fprintf(tw, "  ==========\n")
	fmt.Fprintln(tw)
	fmt.Fprintf(tw, "  Source:\t%s\n", r.Source)
	fmt.Fprintf(tw, "  Records:\t%d of %d\n", r.Rows, r.TotalRows)
	fmt.Fprintf(tw, "  Machine:\t%s\n", orDefault(r.Machine, "all"))
	fmt.Fprintf(tw, "  Dates:\t%s .. %s\n", orDefault(r.From, "first"), orDefault(r.To, "last"))
	fmt.Fprintln(tw)

	fmt.Fprintf(tw, "  Summary\n")
	fmt.Fprintf(tw, "  -------\n")
	for _, metric := range models.AllMetrics {
		fmt.Fprintf(tw, "  %s:\t%s\n", metric, r.summary.Get(metric).Percent())
	}
	fmt.Fprintln(tw)

	fmt.Fprintf(tw, "  %s\n", r.by.Label())
	fmt.Fprintf(tw, "  %s\n", strings.Repeat("-", len(r.by.Label())))
	if len(r.groups) == 0 {
		fmt.Fprintf(tw, "  (no %s column)\n", r.GroupBy)
	} else {
		fmt.Fprintf(tw, "  Key\tRows\tAvailability\tPerformance\tQuality\tOEE\n")
		for _, g := range r.groups {
			fmt.Fprintf(tw, "  %s\t%d\t%s\t%s\t%s\t%s\n",
				g.Key, g.Rows, g.Availability.Percent(), g.Performance.Percent(), g.Quality.Percent(), g.OEE.Percent())
		}
	}

	if len(r.Downtime) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintf(tw, "  Top Downtime Reasons\n")
		fmt.Fprintf(tw, "  --------------------\n")
		for _, d := range r.Downtime {
			fmt.Fprintf(tw, "  %s\t%.1f min\t%d stops\n", d.Reason, d.Minutes, d.Occurrences)
		}
	}
	fmt.Fprintln(tw)

	return tw.Flush()
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
