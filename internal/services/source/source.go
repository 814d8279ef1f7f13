// Package source fetches the production table from a published Google Sheet
// or a local CSV file.
package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/j-veylop/oee-dashboard-tui/internal/models"
)

var (
	// ErrInvalidSheetID is returned for an empty or malformed sheet id.
	ErrInvalidSheetID = errors.New("invalid sheet id")
	// ErrNotPublic is returned when the export URL answers with a sign-in
	// page instead of CSV, which happens when link sharing is off.
	ErrNotPublic = errors.New("sheet is not publicly viewable (enable \"Anyone with the link can view\")")
	// ErrEmptyTable is returned when the CSV has no header row.
	ErrEmptyTable = errors.New("table has no header row")
)

// Source produces a table on demand.
type Source interface {
	// Name describes the source for logs and the run history.
	Name() string
	// Fetch reads the whole table. It is a single attempt.
	Fetch(ctx context.Context) (*models.Table, error)
}

// ParseCSV reads a CSV document into a table. Rows may be ragged; short rows
// are padded to the header width. A leading byte order mark is dropped.
func ParseCSV(r io.Reader) (*models.Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyTable
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	tbl := &models.Table{Header: header}
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", len(tbl.Rows)+2, err)
		}
		if blankRow(rec) {
			continue
		}
		if len(rec) < len(header) {
			padded := make([]string, len(header))
			copy(padded, rec)
			rec = padded
		}
		tbl.Rows = append(tbl.Rows, rec)
	}
	return tbl, nil
}

func blankRow(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
