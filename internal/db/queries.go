package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/j-veylop/oee-dashboard-tui/internal/models"
)

var timeFormats = []string{
	sqlTimeLayout,
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05 +0000 UTC",
	sqlDateLayout,
}

func parseTimeString(s string) (time.Time, bool) {
	for _, format := range timeFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// InsertRun stores a refresh snapshot. An empty ID is filled with a new
// UUID and written back to run.
func (db *DB) InsertRun(ctx context.Context, run *models.Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	started := run.StartedAt
	if started.IsZero() {
		started = time.Now()
		run.StartedAt = started
	}

	query := `
		INSERT INTO runs (
			id, started_at, source, record_count,
			availability, performance, quality, oee,
			duration_ms, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := db.ExecContext(ctx, query,
		run.ID,
		started.UTC().Format(sqlTimeLayout),
		run.Source,
		run.RecordCount,
		nullFloat(run.Summary.Availability),
		nullFloat(run.Summary.Performance),
		nullFloat(run.Summary.Quality),
		nullFloat(run.Summary.OEE),
		run.Duration.Milliseconds(),
		nullString(run.Error),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

const runColumns = `
	id, started_at, source, record_count,
	availability, performance, quality, oee,
	duration_ms, error
`

// GetRecentRuns returns up to limit runs, newest first.
func (db *DB) GetRecentRuns(ctx context.Context, limit int) ([]models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC LIMIT ?`
	rows, err := db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent runs: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanRuns(rows)
}

// GetRunsSince returns runs started at or after since, oldest first. A zero
// since returns every run.
func (db *DB) GetRunsSince(ctx context.Context, since time.Time) ([]models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE started_at >= ? ORDER BY started_at ASC`
	rows, err := db.QueryContext(ctx, query, since.UTC().Format(sqlTimeLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanRuns(rows)
}

// GetRun returns the run with id, or nil when absent.
func (db *DB) GetRun(ctx context.Context, id string) (*models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE id = ?`
	rows, err := db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	defer func() { _ = rows.Close() }()
	runs, err := scanRuns(rows)
	if err != nil || len(runs) == 0 {
		return nil, err
	}
	return &runs[0], nil
}

func scanRuns(rows *sql.Rows) ([]models.Run, error) {
	var runs []models.Run
	for rows.Next() {
		var run models.Run
		var startedStr string
		var avail, perf, qual, oee sql.NullFloat64
		var durationMs int64
		var errStr sql.NullString

		if err := rows.Scan(
			&run.ID,
			&startedStr,
			&run.Source,
			&run.RecordCount,
			&avail,
			&perf,
			&qual,
			&oee,
			&durationMs,
			&errStr,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		if t, ok := parseTimeString(startedStr); ok {
			run.StartedAt = t
		}
		run.Summary = models.Metrics{
			Availability: valueFrom(avail),
			Performance:  valueFrom(perf),
			Quality:      valueFrom(qual),
			OEE:          valueFrom(oee),
		}
		run.Duration = time.Duration(durationMs) * time.Millisecond
		run.Error = errStr.String
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

// PruneRuns deletes runs started before cutoff and returns how many went.
func (db *DB) PruneRuns(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := db.ExecContext(ctx, `DELETE FROM runs WHERE started_at < ?`,
		cutoff.UTC().Format(sqlTimeLayout))
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

// UpsertDailyMetrics writes per-date aggregates from one run, replacing any
// stored values for the same dates. Groups without a date are skipped.
func (db *DB) UpsertDailyMetrics(ctx context.Context, runID string, groups []models.Group) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO daily_metrics (
			date, availability, performance, quality, oee, records, run_id, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			availability = excluded.availability,
			performance = excluded.performance,
			quality = excluded.quality,
			oee = excluded.oee,
			records = excluded.records,
			run_id = excluded.run_id,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare daily upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UTC().Format(sqlTimeLayout)
	for i := range groups {
		g := &groups[i]
		if g.Date.IsZero() {
			continue
		}
		if _, err := stmt.ExecContext(ctx,
			g.Date.Format(sqlDateLayout),
			nullFloat(g.Availability),
			nullFloat(g.Performance),
			nullFloat(g.Quality),
			nullFloat(g.OEE),
			g.Rows,
			nullString(runID),
			now,
		); err != nil {
			return fmt.Errorf("failed to upsert daily metrics for %s: %w", g.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit daily metrics: %w", err)
	}
	return nil
}

// GetDailyMetrics returns stored per-date aggregates on or after since,
// oldest first. A zero since returns all of them.
func (db *DB) GetDailyMetrics(ctx context.Context, since time.Time) ([]models.DailyMetric, error) {
	query := `
		SELECT date, availability, performance, quality, oee, records, run_id, updated_at
		FROM daily_metrics
		WHERE date >= ?
		ORDER BY date ASC
	`
	sinceStr := ""
	if !since.IsZero() {
		sinceStr = since.Format(sqlDateLayout)
	}
	rows, err := db.QueryContext(ctx, query, sinceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily metrics: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.DailyMetric
	for rows.Next() {
		var dm models.DailyMetric
		var dateStr, updatedStr string
		var avail, perf, qual, oee sql.NullFloat64
		var runID sql.NullString
		if err := rows.Scan(&dateStr, &avail, &perf, &qual, &oee, &dm.Records, &runID, &updatedStr); err != nil {
			return nil, fmt.Errorf("failed to scan daily metric: %w", err)
		}
		if t, err := time.Parse(sqlDateLayout, dateStr); err == nil {
			dm.Date = t
		}
		if t, ok := parseTimeString(updatedStr); ok {
			dm.UpdatedAt = t
		}
		dm.RunID = runID.String
		dm.Metrics = models.Metrics{
			Availability: valueFrom(avail),
			Performance:  valueFrom(perf),
			Quality:      valueFrom(qual),
			OEE:          valueFrom(oee),
		}
		out = append(out, dm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate daily metrics: %w", err)
	}
	return out, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullFloat(v models.Value) sql.NullFloat64 {
	f, ok := v.Get()
	return sql.NullFloat64{Float64: f, Valid: ok}
}

func valueFrom(n sql.NullFloat64) models.Value {
	if !n.Valid {
		return models.Unknown()
	}
	return models.Known(n.Float64)
}
