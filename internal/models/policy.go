package models

import (
	"fmt"
	"strings"
)

// GroupBy selects the aggregation key.
type GroupBy int

const (
	GroupByDate GroupBy = iota
	GroupByMachine
	GroupByShift
)

// String returns the config name for an aggregation level.
func (g GroupBy) String() string {
	switch g {
	case GroupByDate:
		return "date"
	case GroupByMachine:
		return "machine"
	case GroupByShift:
		return "shift"
	default:
		return "unknown"
	}
}

// Label returns the display name for an aggregation level.
func (g GroupBy) Label() string {
	switch g {
	case GroupByDate:
		return "Per Date"
	case GroupByMachine:
		return "Per Machine"
	case GroupByShift:
		return "Per Shift"
	default:
		return "Unknown"
	}
}

// Next cycles to the next aggregation level.
func (g GroupBy) Next() GroupBy {
	return (g + 1) % 3
}

// ParseGroupBy parses date, machine or shift.
func ParseGroupBy(s string) (GroupBy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "date", "tanggal", "day":
		return GroupByDate, nil
	case "machine", "mesin":
		return GroupByMachine, nil
	case "shift":
		return GroupByShift, nil
	default:
		return GroupByDate, fmt.Errorf("unknown aggregation level %q (want date, machine or shift)", s)
	}
}

// FallbackPolicy decides what a metric becomes when its primary inputs are
// incomplete but the record still looks like a production run.
type FallbackPolicy int

const (
	// FallbackAssumeFull reports the metric as 1.0.
	FallbackAssumeFull FallbackPolicy = iota
	// FallbackUnknown leaves the metric unknown.
	FallbackUnknown
)

// String returns the config name for a policy.
func (p FallbackPolicy) String() string {
	switch p {
	case FallbackAssumeFull:
		return "assume_full"
	case FallbackUnknown:
		return "unknown"
	default:
		return "invalid"
	}
}

// ParseFallbackPolicy parses assume_full or unknown.
func ParseFallbackPolicy(s string) (FallbackPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "assume_full", "assume-full", "full", "1":
		return FallbackAssumeFull, nil
	case "unknown", "none", "na", "n/a":
		return FallbackUnknown, nil
	default:
		return FallbackAssumeFull, fmt.Errorf("unknown fallback policy %q (want assume_full or unknown)", s)
	}
}
