package models

import (
	"testing"
	"time"
)

func TestColumnMapping(t *testing.T) {
	m := NewColumnMapping()
	for _, r := range Roles() {
		if m.Has(r) {
			t.Fatalf("new mapping should not resolve %v", r)
		}
	}

	m.Set(RoleMachine, 2, "Mesin")
	idx, ok := m.Index(RoleMachine)
	if !ok || idx != 2 {
		t.Errorf("Index(machine) = %d, %v", idx, ok)
	}
	if m.Name(RoleMachine) != "Mesin" {
		t.Errorf("Name(machine) = %q", m.Name(RoleMachine))
	}
	if m.Name(RoleShift) != "" {
		t.Errorf("Name(shift) = %q, want empty", m.Name(RoleShift))
	}

	// Column zero is a valid index.
	m.Set(RoleDate, 0, "Tanggal")
	if !m.Has(RoleDate) {
		t.Error("column 0 should count as resolved")
	}
}

func TestTable_Cell(t *testing.T) {
	tbl := Table{
		Header: []string{"a", "b"},
		Rows:   [][]string{{"1", "2"}, {"3"}},
	}
	if tbl.Cell(0, 1) != "2" {
		t.Errorf("Cell(0,1) = %q", tbl.Cell(0, 1))
	}
	if tbl.Cell(1, 1) != "" {
		t.Errorf("short row should yield empty cell, got %q", tbl.Cell(1, 1))
	}
	if tbl.Cell(5, 0) != "" {
		t.Error("out of range row should yield empty cell")
	}
}

func TestDataset_MachinesAndBounds(t *testing.T) {
	d1 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	ds := &Dataset{Rows: []Row{
		{Record: Record{Machine: "M2", Date: d2, HasDate: true}},
		{Record: Record{Machine: "M1"}},
		{Record: Record{Machine: "M2", Date: d1, HasDate: true}},
		{Record: Record{}},
	}}

	machines := ds.Machines()
	if len(machines) != 2 || machines[0] != "M2" || machines[1] != "M1" {
		t.Errorf("Machines() = %v", machines)
	}

	from, to, ok := ds.DateBounds()
	if !ok || !from.Equal(d1) || !to.Equal(d2) {
		t.Errorf("DateBounds() = %v, %v, %v", from, to, ok)
	}

	var empty *Dataset
	if _, _, ok := empty.DateBounds(); ok {
		t.Error("nil dataset should have no bounds")
	}
}
