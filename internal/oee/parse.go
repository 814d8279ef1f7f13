package oee

import (
	"strconv"
	"strings"
	"time"

	"github.com/j-veylop/oee-dashboard-tui/internal/models"
)

// ParseNumber converts a cell to a Value. Blank or unparseable cells are
// unknown.
func ParseNumber(s string) models.Value {
	s = strings.TrimSpace(strings.TrimPrefix(s, "\ufeff"))
	if s == "" {
		return models.Unknown()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return models.Unknown()
	}
	return models.Known(f)
}

// dateLayouts is tried in order. Month-first slash dates are tried before
// day-first, so 03/04/2024 reads as March 4.
var dateLayouts = []string{
	time.DateOnly,
	time.DateTime,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006/01/02",
	"2006/01/02 15:04:05",
	"1/2/2006",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/06",
	"2/1/2006",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2-1-2006",
	"2.1.2006",
	"2-Jan-2006",
	"2 Jan 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// ParseDate parses a date cell and returns its calendar day at UTC midnight.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(strings.TrimPrefix(s, "\ufeff"))
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}
