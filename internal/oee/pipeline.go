package oee

import (
	"time"

	"github.com/j-veylop/oee-dashboard-tui/internal/models"
)

// Evaluate runs one pass over a fetched table: resolve columns, build
// records and compute metrics for each.
func Evaluate(tbl *models.Table, s Settings, source string) *models.Dataset {
	ds := &models.Dataset{
		LoadedAt: time.Now(),
		Source:   source,
		Mapping:  models.NewColumnMapping(),
	}
	if tbl == nil {
		return ds
	}

	ds.Header = tbl.Header
	ds.Mapping = ResolveAll(tbl.Header)
	records := BuildRecords(tbl, ds.Mapping, s)

	ds.Rows = make([]models.Row, len(records))
	for i := range records {
		ds.Rows[i] = models.Row{Record: records[i], Metrics: Compute(&records[i], s)}
	}
	return ds
}

// Recompute recalculates metrics on an existing dataset with new settings.
// Records are rebuilt from their raw cells so default rate and derived
// actual time follow the new settings too.
func Recompute(ds *models.Dataset, s Settings) *models.Dataset {
	if ds == nil {
		return nil
	}
	tbl := &models.Table{Header: ds.Header, Rows: make([][]string, len(ds.Rows))}
	for i := range ds.Rows {
		tbl.Rows[i] = ds.Rows[i].Raw
	}
	out := Evaluate(tbl, s, ds.Source)
	out.LoadedAt = ds.LoadedAt
	return out
}
