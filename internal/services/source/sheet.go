package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/j-veylop/oee-dashboard-tui/internal/logger"
	"github.com/j-veylop/oee-dashboard-tui/internal/models"
)

const (
	// DefaultURLTemplate is the public CSV export endpoint. {sheet_id} is
	// replaced with the sheet id.
	DefaultURLTemplate = "https://docs.google.com/spreadsheets/d/{sheet_id}/export?format=csv"

	sheetIDPlaceholder = "{sheet_id}"
	defaultTimeout     = 30 * time.Second
	maxBodyBytes       = 32 << 20
)

var (
	sheetIDRe  = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	sheetURLRe = regexp.MustCompile(`/spreadsheets/d/([A-Za-z0-9_-]+)`)
)

// ExtractSheetID accepts either a bare sheet id or a full Google Sheets URL
// and returns the id.
func ExtractSheetID(input string) string {
	input = strings.TrimSpace(input)
	if match := sheetURLRe.FindStringSubmatch(input); len(match) > 1 {
		return match[1]
	}
	return input
}

// ValidateSheetID reports ErrInvalidSheetID for ids that cannot be part of
// an export URL.
func ValidateSheetID(id string) error {
	if !sheetIDRe.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidSheetID, id)
	}
	return nil
}

// SheetSource downloads a published Google Sheet as CSV.
type SheetSource struct {
	httpClient  *http.Client
	id          string
	urlTemplate string
}

// NewSheetSource returns a source for the sheet id (or sheet URL). An empty
// template uses DefaultURLTemplate; a non-positive timeout uses 30s.
func NewSheetSource(id, urlTemplate string, timeout time.Duration) (*SheetSource, error) {
	id = ExtractSheetID(id)
	if err := ValidateSheetID(id); err != nil {
		return nil, err
	}
	if urlTemplate == "" {
		urlTemplate = DefaultURLTemplate
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &SheetSource{
		httpClient:  &http.Client{Timeout: timeout},
		id:          id,
		urlTemplate: urlTemplate,
	}, nil
}

// ID returns the sheet id.
func (s *SheetSource) ID() string {
	return s.id
}

// URL returns the export URL for the sheet.
func (s *SheetSource) URL() string {
	return strings.ReplaceAll(s.urlTemplate, sheetIDPlaceholder, s.id)
}

// Name implements Source.
func (s *SheetSource) Name() string {
	return "sheet:" + s.id
}

// Fetch implements Source.
func (s *SheetSource) Fetch(ctx context.Context) (*models.Table, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet request: %w", err)
	}
	req.Header.Set("Accept", "text/csv")

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sheet request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("failed to close response body", "error", err)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("%w (status %d)", ErrNotPublic, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sheet export failed (status %d): %s", resp.StatusCode, snippet(body))
	}
	if isHTML(resp.Header.Get("Content-Type"), body) {
		return nil, ErrNotPublic
	}

	tbl, err := ParseCSV(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse sheet %s: %w", s.id, err)
	}

	logger.Debug("sheet fetched", "id", s.id, "rows", len(tbl.Rows), "bytes", len(body),
		"elapsed", time.Since(start))
	return tbl, nil
}

func isHTML(contentType string, body []byte) bool {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil && mediaType == "text/html" {
		return true
	}
	head := strings.ToLower(strings.TrimSpace(string(body[:min(len(body), 256)])))
	return strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html")
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
