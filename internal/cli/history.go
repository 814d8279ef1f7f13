package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/j-veylop/oee-dashboard-tui/internal/db"
	"github.com/j-veylop/oee-dashboard-tui/internal/logger"
	"github.com/j-veylop/oee-dashboard-tui/internal/models"
	"github.com/j-veylop/oee-dashboard-tui/internal/services/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List stored refresh runs and daily OEE",
	Long: `Show the KPI snapshots recorded by previous refreshes.

Examples:
  oee history                    # Last 30 days
  oee history --range 7d         # Last week
  oee history --range all -o json`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

// Flags
var (
	historyRange  string
	historyFormat string
	historyLimit  int
)

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().StringVarP(&historyRange, "range", "r", "30d", "Time range: 7d, 30d, 90d, all")
	historyCmd.Flags().StringVarP(&historyFormat, "format", "o", "text", "Output format: text, json")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of runs to list, 0 for all")
}

func runHistory(cmd *cobra.Command, args []string) error {
	tr, err := parseTimeRange(historyRange)
	if err != nil {
		return err
	}
	format, err := parseFormat(historyFormat)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger.Setup(cmd.ErrOrStderr(), logger.ParseLevel(cfg.LogLevel))

	database, err := db.New(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	stats, err := history.New(database, 0).Stats(context.Background(), tr)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	runs := newestRuns(stats.Runs, historyLimit)
	if format == "json" {
		return writeHistoryJSON(cmd.OutOrStdout(), stats, runs)
	}
	return writeHistoryText(cmd.OutOrStdout(), stats, runs)
}

// parseTimeRange maps a --range flag to a history time range.
func parseTimeRange(s string) (models.TimeRange, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "7d", "7", "week":
		return models.TimeRange7Days, nil
	case "30d", "30", "month":
		return models.TimeRange30Days, nil
	case "90d", "90":
		return models.TimeRange90Days, nil
	case "all":
		return models.TimeRangeAllTime, nil
	default:
		return models.TimeRange30Days, fmt.Errorf("unknown range %q (want 7d, 30d, 90d or all)", s)
	}
}

// newestRuns returns up to limit runs, newest first. Runs arrive oldest first.
func newestRuns(runs []models.Run, limit int) []models.Run {
	out := make([]models.Run, 0, len(runs))
	for i := len(runs) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, runs[i])
	}
	return out
}

type historyRunJSON struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	Source     string    `json:"source"`
	Records    int       `json:"records"`
	DurationMS int64     `json:"duration_ms"`
	OEE        *float64  `json:"oee"`
	Error      string    `json:"error,omitempty"`
}

type historyDayJSON struct {
	Date    string   `json:"date"`
	Records int      `json:"records"`
	OEE     *float64 `json:"oee"`
}

type historyJSON struct {
	Range      string           `json:"range"`
	MeanOEE    *float64         `json:"mean_oee"`
	BestOEE    *float64         `json:"best_oee"`
	WorstOEE   *float64         `json:"worst_oee"`
	FailedRuns int              `json:"failed_runs"`
	Runs       []historyRunJSON `json:"runs"`
	Daily      []historyDayJSON `json:"daily"`
}

func writeHistoryJSON(w io.Writer, stats *models.HistoryStats, runs []models.Run) error {
	out := historyJSON{
		Range:      stats.Range.String(),
		MeanOEE:    stats.MeanOEE.Ptr(),
		BestOEE:    stats.BestOEE.Ptr(),
		WorstOEE:   stats.WorstOEE.Ptr(),
		FailedRuns: stats.FailedRuns,
		Runs:       make([]historyRunJSON, 0, len(runs)),
		Daily:      make([]historyDayJSON, 0, len(stats.Daily)),
	}
	for _, r := range runs {
		out.Runs = append(out.Runs, historyRunJSON{
			ID:         r.ID,
			StartedAt:  r.StartedAt,
			Source:     r.Source,
			Records:    r.RecordCount,
			DurationMS: r.Duration.Milliseconds(),
			OEE:        r.Summary.OEE.Ptr(),
			Error:      r.Error,
		})
	}
	for _, d := range stats.Daily {
		out.Daily = append(out.Daily, historyDayJSON{
			Date:    d.Date.Format("2006-01-02"),
			Records: d.Records,
			OEE:     d.OEE.Ptr(),
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	return nil
}

func writeHistoryText(w io.Writer, stats *models.HistoryStats, runs []models.Run) error {
	if !stats.HasData() {
		_, err := fmt.Fprintf(w, "No history in the last %s. Refresh the dashboard or run 'oee report' to record one.\n", strings.ToLower(stats.Range.String()))
		return err
	}

	fmt.Fprintf(w, "History (%s)\n", stats.Range)
	fmt.Fprintln(w, "==============")
	fmt.Fprintf(w, "Mean OEE:    %s\n", stats.MeanOEE.Percent())
	fmt.Fprintf(w, "Best day:    %s%s\n", stats.BestOEE.Percent(), dayLabel(stats.BestDay))
	fmt.Fprintf(w, "Worst day:   %s%s\n", stats.WorstOEE.Percent(), dayLabel(stats.WorstDay))
	fmt.Fprintf(w, "Failed runs: %d\n", stats.FailedRuns)
	if stats.Comparison != "" {
		fmt.Fprintf(w, "Latest day:  %s\n", stats.Comparison)
	}

	if len(runs) > 0 {
		fmt.Fprintln(w)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "STARTED\tSOURCE\tRECORDS\tOEE\tDURATION\tSTATUS")
		for _, r := range runs {
			status := "ok"
			if r.Failed() {
				status = truncate(r.Error, 40)
			}
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n",
				r.StartedAt.Local().Format("2006-01-02 15:04"),
				truncate(r.Source, 40),
				r.RecordCount,
				r.Summary.OEE.Percent(),
				r.Duration.Round(time.Millisecond),
				status,
			)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if len(stats.Daily) > 0 {
		fmt.Fprintln(w)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "DATE\tRECORDS\tAVAIL\tPERF\tQUALITY\tOEE")
		for _, d := range stats.Daily {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\n",
				d.Date.Format("2006-01-02"),
				d.Records,
				d.Availability.Percent(),
				d.Performance.Percent(),
				d.Quality.Percent(),
				d.OEE.Percent(),
			)
		}
		return tw.Flush()
	}
	return nil
}

func dayLabel(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return " (" + t.Format("2006-01-02") + ")"
}

// truncate shortens s to n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
