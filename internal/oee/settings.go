package oee

import (
	"github.com/j-veylop/oee-dashboard-tui/internal/models"
)

// Settings are the user-adjustable inputs of the calculation. They are passed
// explicitly to every computation.
type Settings struct {
	// MachineRates overrides the ideal rate (units/min) for listed machines.
	MachineRates map[string]float64
	// DefaultIdealRate applies when the sheet has no ideal-rate column.
	// Zero or negative disables it.
	DefaultIdealRate     float64
	AvailabilityFallback models.FallbackPolicy
	PerformanceFallback  models.FallbackPolicy
	// DeriveActualTime fills actual time as planned minus downtime when the
	// sheet has no actual-time column.
	DeriveActualTime bool
}

// DefaultSettings returns settings with both fallbacks set to assume full.
func DefaultSettings() Settings {
	return Settings{
		AvailabilityFallback: models.FallbackAssumeFull,
		PerformanceFallback:  models.FallbackAssumeFull,
	}
}

// WithMachineRates returns a copy of s using rates as the override table.
func (s Settings) WithMachineRates(rates map[string]float64) Settings {
	cp := make(map[string]float64, len(rates))
	for k, v := range rates {
		cp[k] = v
	}
	s.MachineRates = cp
	return s
}

// Override returns the override rate for machine, if one is set.
func (s Settings) Override(machine string) (float64, bool) {
	if machine == "" || s.MachineRates == nil {
		return 0, false
	}
	rate, ok := s.MachineRates[machine]
	if !ok || rate <= 0 {
		return 0, false
	}
	return rate, true
}

// IdealRate returns the rate the calculation uses for r: a machine override,
// else whatever the record carries (sheet column or default).
func (s Settings) IdealRate(r *models.Record) models.Value {
	if rate, ok := s.Override(r.Machine); ok {
		return models.Known(rate)
	}
	return r.IdealRate
}

func fallbackValue(p models.FallbackPolicy) models.Value {
	if p == models.FallbackAssumeFull {
		return models.Known(1)
	}
	return models.Unknown()
}
