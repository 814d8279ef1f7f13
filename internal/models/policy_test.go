package models

import "testing"

func TestParseGroupBy(t *testing.T) {
	tests := []struct {
		in      string
		want    GroupBy
		wantErr bool
	}{
		{"date", GroupByDate, false},
		{" Machine ", GroupByMachine, false},
		{"mesin", GroupByMachine, false},
		{"SHIFT", GroupByShift, false},
		{"week", GroupByDate, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseGroupBy(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseGroupBy(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestGroupBy_NextCycles(t *testing.T) {
	g := GroupByDate
	seen := map[GroupBy]bool{}
	for range 3 {
		seen[g] = true
		g = g.Next()
	}
	if g != GroupByDate || len(seen) != 3 {
		t.Errorf("Next should cycle through all three levels, ended at %v", g)
	}
	if GroupByMachine.Label() != "Per Machine" {
		t.Errorf("Label() = %q", GroupByMachine.Label())
	}
}

func TestParseFallbackPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    FallbackPolicy
		wantErr bool
	}{
		{"assume_full", FallbackAssumeFull, false},
		{"assume-full", FallbackAssumeFull, false},
		{"unknown", FallbackUnknown, false},
		{"N/A", FallbackUnknown, false},
		{"zero", FallbackAssumeFull, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFallbackPolicy(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFallbackPolicy(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
	if FallbackUnknown.String() != "unknown" || FallbackAssumeFull.String() != "assume_full" {
		t.Error("String() should round-trip config names")
	}
}
