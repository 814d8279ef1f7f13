package models

import (
	"fmt"
	"math"
)

// Value is an optional float64. The zero Value is unknown, which is distinct
// from a known zero. Arithmetic on Values propagates unknown.
type Value struct {
	v     float64
	known bool
}

// Known returns a Value holding f. NaN and infinities are treated as unknown.
func Known(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}
	}
	return Value{v: f, known: true}
}

// Unknown returns the absent Value.
func Unknown() Value {
	return Value{}
}

// IsKnown reports whether the value is present.
func (x Value) IsKnown() bool {
	return x.known
}

// Get returns the value and whether it is present.
func (x Value) Get() (float64, bool) {
	return x.v, x.known
}

// Or returns the value, or def when unknown.
func (x Value) Or(def float64) float64 {
	if !x.known {
		return def
	}
	return x.v
}

// Float returns the value, or NaN when unknown. Used where a gap is the
// natural rendering, such as chart series.
func (x Value) Float() float64 {
	if !x.known {
		return math.NaN()
	}
	return x.v
}

// Add returns x + y.
func (x Value) Add(y Value) Value {
	if !x.known || !y.known {
		return Value{}
	}
	return Known(x.v + y.v)
}

// Sub returns x - y.
func (x Value) Sub(y Value) Value {
	if !x.known || !y.known {
		return Value{}
	}
	return Known(x.v - y.v)
}

// Mul returns x * y.
func (x Value) Mul(y Value) Value {
	if !x.known || !y.known {
		return Value{}
	}
	return Known(x.v * y.v)
}

// Div returns x / y. Division by zero is unknown.
func (x Value) Div(y Value) Value {
	if !x.known || !y.known || y.v == 0 {
		return Value{}
	}
	return Known(x.v / y.v)
}

// Max returns the larger of x and y.
func (x Value) Max(y Value) Value {
	if !x.known || !y.known {
		return Value{}
	}
	return Known(math.Max(x.v, y.v))
}

// Positive reports whether the value is known and strictly greater than zero.
func (x Value) Positive() bool {
	return x.known && x.v > 0
}

// Percent formats the value as a percentage with two decimals, or "N/A".
func (x Value) Percent() string {
	if !x.known {
		return "N/A"
	}
	return fmt.Sprintf("%.2f%%", x.v*100)
}

// String formats the value with two decimals, or "N/A".
func (x Value) String() string {
	if !x.known {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", x.v)
}

// Ptr returns a pointer to the value, nil when unknown. Used for JSON output
// and nullable database columns.
func (x Value) Ptr() *float64 {
	if !x.known {
		return nil
	}
	v := x.v
	return &v
}

// FromPtr is the inverse of Ptr.
func FromPtr(p *float64) Value {
	if p == nil {
		return Value{}
	}
	return Known(*p)
}
