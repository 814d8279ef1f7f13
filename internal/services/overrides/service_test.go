package overrides

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/j-veylop/oee-dashboard-tui/internal/models"
)

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "conf", "overrides.yaml")
	svc, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })
	return svc, path
}

func waitForEvent(t *testing.T, svc *Service, want EventType) Event {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev := <-svc.Events():
			if ev.Type == want {
				return ev
			}
		case <-timeout:
			t.Fatalf("timed out waiting for event %d", want)
			return Event{}
		}
	}
}

func TestNew_CreatesFile(t *testing.T) {
	svc, path := newTestService(t)

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("overrides file not created: %v", err)
	}
	waitForEvent(t, svc, EventLoaded)

	if got := svc.MachineRates(); len(got) != 0 {
		t.Errorf("MachineRates() = %v, want empty", got)
	}
	if svc.Path() != path {
		t.Errorf("Path() = %q", svc.Path())
	}
}

func TestNew_LoadsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overrides.yaml")
	content := "version: 1\nsheet_id: abc\naggregation: machine\ndefault_ideal_rate: 1.5\nmachines:\n  M1: 2.5\n  M2: 0\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	svc, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer svc.Close()

	o := svc.Get()
	if o.SheetID != "abc" {
		t.Errorf("SheetID = %q", o.SheetID)
	}
	if g, ok := o.GroupBy(); !ok || g != models.GroupByMachine {
		t.Errorf("GroupBy() = %v, %v", g, ok)
	}
	if o.DefaultIdealRate == nil || *o.DefaultIdealRate != 1.5 {
		t.Errorf("DefaultIdealRate = %v", o.DefaultIdealRate)
	}
	rates := svc.MachineRates()
	if len(rates) != 1 || rates["M1"] != 2.5 {
		t.Errorf("MachineRates() = %v, non-positive rates should be dropped", rates)
	}
}

func TestNew_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overrides.yaml")
	if err := os.WriteFile(path, []byte("machines: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := New(path); err == nil {
		t.Error("New should fail on invalid YAML")
	}
}

func TestSetMachineRate_PersistsAndRemoves(t *testing.T) {
	svc, path := newTestService(t)

	if err := svc.SetMachineRate(" M1 ", 3); err != nil {
		t.Fatalf("SetMachineRate: %v", err)
	}
	waitForEvent(t, svc, EventChanged)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "M1: 3") {
		t.Errorf("file does not contain the rate:\n%s", data)
	}

	if err := svc.SetMachineRate("M1", 0); err != nil {
		t.Fatalf("SetMachineRate(0): %v", err)
	}
	if _, ok := svc.MachineRates()["M1"]; ok {
		t.Error("zero rate should remove the override")
	}

	if err := svc.SetMachineRate("  ", 1); err == nil {
		t.Error("empty machine name should be rejected")
	}
}

func TestSetters(t *testing.T) {
	svc, _ := newTestService(t)

	if err := svc.SetSheetID(" sheet-2 "); err != nil {
		t.Fatal(err)
	}
	if err := svc.SetDefaultIdealRate(4); err != nil {
		t.Fatal(err)
	}
	if err := svc.SetDefaultIdealRate(-1); err == nil {
		t.Error("negative default rate should be rejected")
	}
	if err := svc.SetAggregation(models.GroupByShift); err != nil {
		t.Fatal(err)
	}

	o := svc.Get()
	if o.SheetID != "sheet-2" || *o.DefaultIdealRate != 4 || o.Aggregation != "shift" {
		t.Errorf("overrides = %+v", o)
	}
}

func TestGet_ReturnsCopy(t *testing.T) {
	svc, _ := newTestService(t)
	if err := svc.SetMachineRate("M1", 2); err != nil {
		t.Fatal(err)
	}

	o := svc.Get()
	o.Machines["M1"] = 99
	if svc.MachineRates()["M1"] != 2 {
		t.Error("Get() should not alias internal state")
	}
	if names := o.MachineNames(); len(names) != 1 || names[0] != "M1" {
		t.Errorf("MachineNames() = %v", names)
	}
}

func TestExternalEditReloads(t *testing.T) {
	svc, path := newTestService(t)
	waitForEvent(t, svc, EventLoaded)

	if err := os.WriteFile(path, []byte("version: 1\nmachines:\n  Press-7: 1.25\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	waitForEvent(t, svc, EventChanged)

	if got := svc.MachineRates()["Press-7"]; got != 1.25 {
		t.Errorf("rate after reload = %v, want 1.25", got)
	}
}

func TestExternalEditInvalidKeepsPrevious(t *testing.T) {
	svc, path := newTestService(t)
	if err := svc.SetMachineRate("M1", 2); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte("machines: [broken"), 0o600); err != nil {
		t.Fatal(err)
	}
	waitForEvent(t, svc, EventError)

	if svc.MachineRates()["M1"] != 2 {
		t.Error("invalid edit should keep previous overrides")
	}
}

func TestClose_Idempotent(t *testing.T) {
	svc, _ := newTestService(t)
	if err := svc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := svc.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}
