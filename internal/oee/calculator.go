package oee

import (
	"github.com/j-veylop/oee-dashboard-tui/internal/models"
)

// Availability is the share of planned time the machine ran.
//
//   - planned and downtime known: max(0, (planned-downtime)/planned)
//   - else planned and actual known: actual/planned
//   - else actual and total known with no planned time: the fallback policy
//
// A zero planned time makes the result unknown.
func Availability(r *models.Record, policy models.FallbackPolicy) models.Value {
	planned, downtime, actual := r.PlannedTime, r.Downtime, r.ActualTime
	switch {
	case planned.IsKnown() && downtime.IsKnown():
		return planned.Sub(downtime).Div(planned).Max(models.Known(0))
	case planned.IsKnown() && actual.IsKnown():
		return actual.Div(planned)
	case !planned.IsKnown() && actual.IsKnown() && r.Total.IsKnown():
		return fallbackValue(policy)
	default:
		return models.Unknown()
	}
}

// Performance compares the total count with what the ideal rate would have
// produced over the actual run time. It is not capped at 1.
func Performance(r *models.Record, rate models.Value, policy models.FallbackPolicy) models.Value {
	actual := r.ActualTime
	if !rate.IsKnown() || !actual.Positive() {
		return models.Unknown()
	}
	if ideal := rate.Mul(actual); ideal.Positive() {
		if perf := r.Total.Div(ideal); perf.IsKnown() {
			return perf
		}
	}
	if r.Total.IsKnown() {
		return fallbackValue(policy)
	}
	return models.Unknown()
}

// Quality is the good share of the total count.
func Quality(r *models.Record) models.Value {
	if !r.Total.Positive() {
		return models.Unknown()
	}
	return r.Good.Div(r.Total)
}

// Compute returns all four metrics for r. OEE is known only when the other
// three are.
func Compute(r *models.Record, s Settings) models.Metrics {
	m := models.Metrics{
		Availability: Availability(r, s.AvailabilityFallback),
		Performance:  Performance(r, s.IdealRate(r), s.PerformanceFallback),
		Quality:      Quality(r),
	}
	m.OEE = m.Availability.Mul(m.Performance).Mul(m.Quality)
	return m
}
