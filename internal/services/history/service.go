// Package history records refresh runs and summarizes stored KPI history.
package history

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/j-veylop/oee-dashboard-tui/internal/db"
	"github.com/j-veylop/oee-dashboard-tui/internal/logger"
	"github.com/j-veylop/oee-dashboard-tui/internal/models"
	"github.com/j-veylop/oee-dashboard-tui/internal/oee"
)

// similarBand is the OEE gap, in percentage points, treated as unchanged.
const similarBand = 1.0

// Service persists runs and caches the last computed stats per range.
type Service struct {
	mu    sync.RWMutex
	db    *db.DB
	cache map[models.TimeRange]*models.HistoryStats
	now   func() time.Time

	retention time.Duration
}

// New returns a history service. A positive retention prunes older runs
// after each recorded run.
func New(database *db.DB, retention time.Duration) *Service {
	return &Service{
		db:        database,
		cache:     make(map[models.TimeRange]*models.HistoryStats),
		now:       time.Now,
		retention: retention,
	}
}

// Record stores run and, when ds is non-nil, the per-date aggregates of the
// dataset. Failed runs are stored without aggregates.
func (s *Service) Record(ctx context.Context, run *models.Run, ds *models.Dataset) error {
	if s == nil || s.db == nil {
		return errors.New("history database not initialized")
	}

	if err := s.db.InsertRun(ctx, run); err != nil {
		return err
	}

	if ds != nil && !run.Failed() {
		groups := oee.Aggregate(ds.Rows, models.GroupByDate)
		if err := s.db.UpsertDailyMetrics(ctx, run.ID, groups); err != nil {
			return err
		}
	}

	if s.retention > 0 {
		cutoff := s.now().Add(-s.retention)
		n, err := s.db.PruneRuns(ctx, cutoff)
		if err != nil {
			logger.Warn("failed to prune runs", "error", err)
		} else if n > 0 {
			logger.Debug("pruned runs", "count", n, "cutoff", cutoff)
		}
	}

	s.mu.Lock()
	clear(s.cache)
	s.mu.Unlock()
	return nil
}

// Stats loads runs and daily aggregates in the range and summarizes the
// daily OEE series.
func (s *Service) Stats(ctx context.Context, tr models.TimeRange) (*models.HistoryStats, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("history database not initialized")
	}

	s.mu.RLock()
	cached := s.cache[tr]
	s.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	since := tr.Since(s.now())

	runs, err := s.db.GetRunsSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("load runs: %w", err)
	}

	daily, err := s.db.GetDailyMetrics(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("load daily metrics: %w", err)
	}

	hs := Summarize(tr, runs, daily)

	s.mu.Lock()
	s.cache[tr] = hs
	s.mu.Unlock()
	return hs, nil
}

// Summarize builds stats from already loaded rows. Daily metrics are
// expected in chronological order.
func Summarize(tr models.TimeRange, runs []models.Run, daily []models.DailyMetric) *models.HistoryStats {
	hs := &models.HistoryStats{
		Range:    tr,
		Runs:     runs,
		Daily:    daily,
		MeanOEE:  models.Unknown(),
		BestOEE:  models.Unknown(),
		WorstOEE: models.Unknown(),
	}

	for i := range runs {
		if runs[i].Failed() {
			hs.FailedRuns++
		}
	}

	var series stats.Float64Data
	for _, d := range daily {
		v, ok := d.OEE.Get()
		if !ok {
			continue
		}
		series = append(series, v)
		if !hs.BestOEE.IsKnown() || v > hs.BestOEE.Or(0) {
			hs.BestOEE = models.Known(v)
			hs.BestDay = d.Date
		}
		if !hs.WorstOEE.IsKnown() || v < hs.WorstOEE.Or(0) {
			hs.WorstOEE = models.Known(v)
			hs.WorstDay = d.Date
		}
	}

	if len(series) == 0 {
		hs.Comparison = "No daily history yet"
		return hs
	}

	mean, err := series.Mean()
	if err != nil {
		hs.Comparison = "No daily history yet"
		return hs
	}
	hs.MeanOEE = models.Known(mean)
	hs.Comparison = formatComparison(series[len(series)-1], mean)
	return hs
}

func formatComparison(latest, mean float64) string {
	diff := (latest - mean) * 100
	if math.Abs(diff) < similarBand {
		return "In line with range average"
	} else if diff > 0 {
		return fmt.Sprintf("+%.1f pts vs range average", diff)
	}
	return fmt.Sprintf("%.1f pts vs range average", diff)
}
