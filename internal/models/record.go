package models

import (
	"time"
)

// Role is the semantic meaning of a spreadsheet column.
type Role int

const (
	RoleDate Role = iota
	RoleShift
	RoleMachine
	RoleGood
	RoleReject
	RoleTotal
	RolePlanned
	RoleActual
	RoleDowntime
	RoleIdealRate
	RoleDowntimeReason

	roleCount
)

// Roles lists every role in display order.
func Roles() []Role {
	roles := make([]Role, 0, roleCount)
	for r := Role(0); r < roleCount; r++ {
		roles = append(roles, r)
	}
	return roles
}

// String returns the display name for a role.
func (r Role) String() string {
	switch r {
	case RoleDate:
		return "Date"
	case RoleShift:
		return "Shift"
	case RoleMachine:
		return "Machine"
	case RoleGood:
		return "Good"
	case RoleReject:
		return "Reject"
	case RoleTotal:
		return "Total"
	case RolePlanned:
		return "Planned Time"
	case RoleActual:
		return "Actual Time"
	case RoleDowntime:
		return "Downtime"
	case RoleIdealRate:
		return "Ideal Rate"
	case RoleDowntimeReason:
		return "Downtime Reason"
	default:
		return "Unknown"
	}
}

// ColumnMapping records which header column, if any, was resolved for each
// role. It is computed once per load.
type ColumnMapping struct {
	index [roleCount]int
	names [roleCount]string
}

// NewColumnMapping returns a mapping with every role unresolved.
func NewColumnMapping() ColumnMapping {
	var m ColumnMapping
	for i := range m.index {
		m.index[i] = -1
	}
	return m
}

// Set binds role to the column at idx named name.
func (m *ColumnMapping) Set(role Role, idx int, name string) {
	if role < 0 || role >= roleCount {
		return
	}
	m.index[role] = idx
	m.names[role] = name
}

// Index returns the column index for role.
func (m ColumnMapping) Index(role Role) (int, bool) {
	if role < 0 || role >= roleCount || m.index[role] < 0 {
		return -1, false
	}
	return m.index[role], true
}

// Name returns the header name resolved for role, or "" when absent.
func (m ColumnMapping) Name(role Role) string {
	if _, ok := m.Index(role); !ok {
		return ""
	}
	return m.names[role]
}

// Has reports whether role was resolved.
func (m ColumnMapping) Has(role Role) bool {
	_, ok := m.Index(role)
	return ok
}

// Table is a header row plus string cells, as read from CSV.
type Table struct {
	Header []string
	Rows   [][]string
}

// Cell returns the raw cell at row r, column c, or "" when the
// row is short.
func (t *Table) Cell(r, c int) string {
	if r < 0 || r >= len(t.Rows) || c < 0 || c >= len(t.Rows[r]) {
		return ""
	}
	return t.Rows[r][c]
}

// Record is one production row with every field optional.
type Record struct {
	Date           time.Time
	HasDate        bool
	Shift          string
	Machine        string
	Good           Value
	Reject         Value
	Total          Value
	PlannedTime    Value // minutes
	ActualTime     Value // minutes
	Downtime       Value // minutes
	IdealRate      Value // units per minute
	DowntimeReason string
	Raw            []string
}

// DateKey returns the calendar date as YYYY-MM-DD, or "" when absent.
func (r *Record) DateKey() string {
	if !r.HasDate {
		return ""
	}
	return r.Date.Format(time.DateOnly)
}
