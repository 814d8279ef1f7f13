// Package oee resolves spreadsheet columns to production roles and computes
// Availability, Performance, Quality and OEE per record and per group.
package oee

import (
	"strings"

	"github.com/j-veylop/oee-dashboard-tui/internal/models"
)

// Candidates is the ranked list of header names accepted for each role.
// Earlier entries win when a sheet carries more than one.
var Candidates = map[models.Role][]string{
	models.RoleDate:           {"Tanggal", "Date"},
	models.RoleShift:          {"Shift"},
	models.RoleMachine:        {"Mesin", "Machine", "Equipment"},
	models.RoleGood:           {"Good", "OK", "Output", "Produksi"},
	models.RoleReject:         {"Afkir", "Reject", "NG", "Bad"},
	models.RoleTotal:          {"Total", "Output"},
	models.RolePlanned:        {"Jam Kerja Target", "Planned Time", "planned_time", "Planned Minutes"},
	models.RoleActual:         {"Jam Kerja Aktual", "Jam Kerja Actual", "Actual Time", "Actual", "run_time", "runtime"},
	models.RoleDowntime:       {"Downtime", "Jam Berhenti", "Stop Time"},
	models.RoleIdealRate:      {"Speed", "Ideal Rate", "Ideal_Rate", "Ideal Rate (pcs/min)"},
	models.RoleDowntimeReason: {"Downtime Reason", "Alasan Downtime", "Stop Reason", "Reason"},
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Resolve returns the first header matching a candidate, scanning candidates
// in order. Matching ignores case and surrounding whitespace. The returned
// name is the header as written in the sheet.
func Resolve(header, candidates []string) (name string, index int, ok bool) {
	lowered := make([]string, len(header))
	for i, h := range header {
		lowered[i] = normalize(h)
	}
	for _, cand := range candidates {
		c := normalize(cand)
		if c == "" {
			continue
		}
		for i, h := range lowered {
			if h == c {
				return header[i], i, true
			}
		}
	}
	return "", -1, false
}

// ResolveAll maps every role against header. Roles without a match are left
// unresolved; none is mandatory.
func ResolveAll(header []string) models.ColumnMapping {
	m := models.NewColumnMapping()
	for _, role := range models.Roles() {
		if name, idx, ok := Resolve(header, Candidates[role]); ok {
			m.Set(role, idx, name)
		}
	}
	return m
}
