package models

import (
	"math"
	"testing"
)

func TestValue_KnownAndUnknown(t *testing.T) {
	var zero Value
	if zero.IsKnown() {
		t.Error("zero Value should be unknown")
	}

	v := Known(0)
	if !v.IsKnown() {
		t.Error("Known(0) should be known")
	}
	if got, ok := v.Get(); !ok || got != 0 {
		t.Errorf("Get() = %v, %v; want 0, true", got, ok)
	}

	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if Known(f).IsKnown() {
			t.Errorf("Known(%v) should be unknown", f)
		}
	}
}

func TestValue_Arithmetic(t *testing.T) {
	a := Known(6)
	b := Known(3)
	u := Unknown()

	tests := []struct {
		name  string
		got   Value
		want  float64
		known bool
	}{
		{"Add", a.Add(b), 9, true},
		{"Sub", a.Sub(b), 3, true},
		{"Mul", a.Mul(b), 18, true},
		{"Div", a.Div(b), 2, true},
		{"DivByZero", a.Div(Known(0)), 0, false},
		{"Max", Known(-1).Max(Known(0)), 0, true},
		{"AddUnknown", a.Add(u), 0, false},
		{"SubUnknown", u.Sub(b), 0, false},
		{"MulUnknown", a.Mul(u), 0, false},
		{"DivUnknown", u.Div(b), 0, false},
		{"MaxUnknown", u.Max(Known(0)), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.got.Get()
			if ok != tt.known {
				t.Fatalf("known = %v, want %v", ok, tt.known)
			}
			if ok && got != tt.want {
				t.Errorf("value = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValue_Formatting(t *testing.T) {
	if got := Unknown().Percent(); got != "N/A" {
		t.Errorf("Unknown().Percent() = %q, want N/A", got)
	}
	if got := Known(0).Percent(); got != "0.00%" {
		t.Errorf("Known(0).Percent() = %q, want 0.00%%", got)
	}
	if got := Known(0.9375).Percent(); got != "93.75%" {
		t.Errorf("Known(0.9375).Percent() = %q, want 93.75%%", got)
	}
	if got := Unknown().String(); got != "N/A" {
		t.Errorf("Unknown().String() = %q, want N/A", got)
	}
	if !math.IsNaN(Unknown().Float()) {
		t.Error("Unknown().Float() should be NaN")
	}
	if got := Unknown().Or(7); got != 7 {
		t.Errorf("Or() = %v, want 7", got)
	}
}

func TestValue_Ptr(t *testing.T) {
	if Unknown().Ptr() != nil {
		t.Error("Unknown().Ptr() should be nil")
	}
	p := Known(0.5).Ptr()
	if p == nil || *p != 0.5 {
		t.Fatalf("Known(0.5).Ptr() = %v", p)
	}
	if got := FromPtr(p); !got.IsKnown() || got.Or(0) != 0.5 {
		t.Errorf("FromPtr round trip = %v", got)
	}
	if FromPtr(nil).IsKnown() {
		t.Error("FromPtr(nil) should be unknown")
	}
}

func TestValue_Positive(t *testing.T) {
	if Unknown().Positive() || Known(0).Positive() || Known(-2).Positive() {
		t.Error("only known values above zero are positive")
	}
	if !Known(0.1).Positive() {
		t.Error("Known(0.1) should be positive")
	}
}
