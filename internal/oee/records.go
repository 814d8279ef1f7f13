package oee

import (
	"strings"

	"github.com/j-veylop/oee-dashboard-tui/internal/models"
)

// BuildRecords converts table rows into records using mapping. Settings
// contribute the default ideal rate and the derived actual time policy;
// machine overrides are applied later, at calculation time.
func BuildRecords(tbl *models.Table, mapping models.ColumnMapping, s Settings) []models.Record {
	if tbl == nil {
		return nil
	}

	text := func(row []string, role models.Role) string {
		idx, ok := mapping.Index(role)
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}
	number := func(row []string, role models.Role) models.Value {
		if !mapping.Has(role) {
			return models.Unknown()
		}
		return ParseNumber(text(row, role))
	}

	hasGood := mapping.Has(models.RoleGood)
	hasReject := mapping.Has(models.RoleReject)
	hasTotal := mapping.Has(models.RoleTotal)
	deriveActual := s.DeriveActualTime &&
		!mapping.Has(models.RoleActual) &&
		mapping.Has(models.RolePlanned) &&
		mapping.Has(models.RoleDowntime)

	records := make([]models.Record, 0, len(tbl.Rows))
	for _, row := range tbl.Rows {
		rec := models.Record{
			Shift:          text(row, models.RoleShift),
			Machine:        text(row, models.RoleMachine),
			Good:           number(row, models.RoleGood),
			Reject:         number(row, models.RoleReject),
			PlannedTime:    number(row, models.RolePlanned),
			ActualTime:     number(row, models.RoleActual),
			Downtime:       number(row, models.RoleDowntime),
			DowntimeReason: text(row, models.RoleDowntimeReason),
			Raw:            row,
		}

		if mapping.Has(models.RoleDate) {
			rec.Date, rec.HasDate = ParseDate(text(row, models.RoleDate))
		}

		switch {
		case hasGood && hasReject:
			rec.Total = sumKnown(rec.Good, rec.Reject)
		case hasTotal:
			rec.Total = number(row, models.RoleTotal)
		default:
			rec.Total = rec.Good
		}

		if deriveActual {
			rec.ActualTime = rec.PlannedTime.Sub(rec.Downtime)
		}

		switch {
		case mapping.Has(models.RoleIdealRate):
			rec.IdealRate = number(row, models.RoleIdealRate)
		case s.DefaultIdealRate > 0:
			rec.IdealRate = models.Known(s.DefaultIdealRate)
		}

		records = append(records, rec)
	}
	return records
}

// sumKnown adds a and b treating a missing side as zero. Both missing is
// unknown.
func sumKnown(a, b models.Value) models.Value {
	if !a.IsKnown() && !b.IsKnown() {
		return models.Unknown()
	}
	return models.Known(a.Or(0) + b.Or(0))
}
