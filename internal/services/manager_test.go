package services

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/j-veylop/oee-dashboard-tui/internal/config"
	"github.com/j-veylop/oee-dashboard-tui/internal/models"
	"github.com/j-veylop/oee-dashboard-tui/internal/services/source"
)

const sampleCSV = `Date,Machine,Good,Reject,Planned Time,Downtime,Actual Time,Ideal Rate
2024-01-01,M1,950,50,480,30,420,2.5
2024-01-02,M2,900,100,480,60,400,3
`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	tmpDir := t.TempDir()
	return &config.Config{
		DatabasePath:     filepath.Join(tmpDir, "test.db"),
		OverridesPath:    filepath.Join(tmpDir, "overrides.yaml"),
		FetchTimeout:     5 * time.Second,
		AlertThreshold:   0.6,
		AggregationLevel: models.GroupByDate,
	}
}

func fileConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := testConfig(t)
	cfg.SourceFile = filepath.Join(t.TempDir(), "production.csv")
	if err := os.WriteFile(cfg.SourceFile, []byte(sampleCSV), 0o600); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return cfg
}

func newTestManager(t *testing.T, cfg *config.Config) *Manager {
	t.Helper()
	mgr, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	t.Cleanup(func() { _ = mgr.Close() })
	return mgr
}

// waitFor reads events until match returns true or the timeout expires.
func waitFor(t *testing.T, ch <-chan ServiceEvent, match func(ServiceEvent) bool) ServiceEvent {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case e := <-ch:
			if match(e) {
				return e
			}
		case <-timeout:
			t.Fatal("Timeout waiting for event")
			return nil
		}
	}
}

func TestNewManager(t *testing.T) {
	mgr := newTestManager(t, testConfig(t))

	if mgr.Overrides() == nil {
		t.Error("Overrides service should be initialized")
	}
	if mgr.Database() == nil {
		t.Error("Database should be initialized")
	}
	if mgr.Dataset() != nil {
		t.Error("Dataset should be nil before the first refresh")
	}
	if mgr.Config() == nil {
		t.Error("Config should be set")
	}
}

func TestNewManager_NilConfig(t *testing.T) {
	if _, err := NewManager(nil); err == nil {
		t.Error("NewManager(nil) should fail")
	}
}

func TestManager_RefreshFromFile(t *testing.T) {
	mgr := newTestManager(t, fileConfig(t))
	ctx := context.Background()

	ds, err := mgr.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if len(ds.Rows) != 2 {
		t.Fatalf("len(Rows) = %d, want 2", len(ds.Rows))
	}
	if mgr.Dataset() != ds {
		t.Error("Dataset() should return the refreshed dataset")
	}

	got := ds.Rows[0].Availability.Or(-1)
	if math.Abs(got-0.9375) > 1e-9 {
		t.Errorf("Availability = %v, want 0.9375", got)
	}

	hs, err := mgr.History(ctx, models.TimeRangeAllTime)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(hs.Runs) != 1 {
		t.Errorf("len(Runs) = %d, want 1", len(hs.Runs))
	}
	if len(hs.Daily) != 2 {
		t.Errorf("len(Daily) = %d, want 2", len(hs.Daily))
	}
	if hs.Runs[0].RecordCount != 2 {
		t.Errorf("RecordCount = %d, want 2", hs.Runs[0].RecordCount)
	}
}

func TestManager_RefreshFromSheet(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	cfg := testConfig(t)
	cfg.SheetID = "abc123"
	cfg.SheetURLTemplate = srv.URL + "/{sheet_id}.csv"
	mgr := newTestManager(t, cfg)

	ds, err := mgr.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if gotPath != "/abc123.csv" {
		t.Errorf("path = %q, want /abc123.csv", gotPath)
	}
	if ds.Source != "sheet:abc123" {
		t.Errorf("Source = %q, want sheet:abc123", ds.Source)
	}
	if mgr.SourceName() != "sheet:abc123" {
		t.Errorf("SourceName() = %q", mgr.SourceName())
	}
}

func TestManager_RefreshFailureKeepsDataset(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) > 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	cfg := testConfig(t)
	cfg.SheetID = "abc123"
	cfg.SheetURLTemplate = srv.URL + "/{sheet_id}"
	mgr := newTestManager(t, cfg)
	ctx := context.Background()

	first, err := mgr.Refresh(ctx)
	if err != nil {
		t.Fatalf("first Refresh failed: %v", err)
	}

	ch, _ := mgr.Subscribe()

	if _, err := mgr.Refresh(ctx); err == nil {
		t.Fatal("second Refresh should fail")
	}
	if mgr.Dataset() != first {
		t.Error("failed refresh must keep the previous dataset")
	}
	if mgr.LastError() == nil {
		t.Error("LastError() should be set")
	}

	e := waitFor(t, ch, func(e ServiceEvent) bool {
		_, ok := e.(ErrorEvent)
		return ok
	})
	if e.(ErrorEvent).Service != "source" {
		t.Errorf("Service = %q, want source", e.(ErrorEvent).Service)
	}

	hs, err := mgr.History(ctx, models.TimeRangeAllTime)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if hs.FailedRuns != 1 || len(hs.Runs) != 2 {
		t.Errorf("runs = %d failed = %d, want 2 and 1", len(hs.Runs), hs.FailedRuns)
	}
}

func TestManager_RefreshInvalidSheetID(t *testing.T) {
	cfg := testConfig(t)
	cfg.SheetID = "not a sheet!"
	mgr := newTestManager(t, cfg)

	_, err := mgr.Refresh(context.Background())
	if !errors.Is(err, source.ErrInvalidSheetID) {
		t.Errorf("Refresh error = %v, want ErrInvalidSheetID", err)
	}
}

func TestManager_SettingsLayering(t *testing.T) {
	cfg := testConfig(t)
	cfg.DefaultIdealRate = 2
	mgr := newTestManager(t, cfg)

	if got := mgr.Settings().DefaultIdealRate; got != 2 {
		t.Errorf("DefaultIdealRate = %v, want 2", got)
	}

	if err := mgr.SetDefaultIdealRate(5); err != nil {
		t.Fatalf("SetDefaultIdealRate failed: %v", err)
	}
	if err := mgr.SetMachineRate("M1", 3); err != nil {
		t.Fatalf("SetMachineRate failed: %v", err)
	}

	s := mgr.Settings()
	if s.DefaultIdealRate != 5 {
		t.Errorf("DefaultIdealRate = %v, want 5", s.DefaultIdealRate)
	}
	if rate, ok := s.Override("M1"); !ok || rate != 3 {
		t.Errorf("Override(M1) = %v, %v, want 3, true", rate, ok)
	}
}

func TestManager_Aggregation(t *testing.T) {
	cfg := testConfig(t)
	cfg.AggregationLevel = models.GroupByShift
	mgr := newTestManager(t, cfg)

	if got := mgr.Aggregation(); got != models.GroupByShift {
		t.Errorf("Aggregation() = %v, want shift", got)
	}
	if err := mgr.SetAggregation(models.GroupByMachine); err != nil {
		t.Fatalf("SetAggregation failed: %v", err)
	}
	if got := mgr.Aggregation(); got != models.GroupByMachine {
		t.Errorf("Aggregation() = %v, want machine", got)
	}
}

func TestManager_PinnedSettings(t *testing.T) {
	cfg := testConfig(t)
	cfg.SheetID = "flag-sheet"
	cfg.DefaultIdealRate = 2
	cfg.AggregationLevel = models.GroupByShift
	cfg.Pinned = config.Pins{SheetID: true, DefaultIdealRate: true, Aggregation: true}
	mgr := newTestManager(t, cfg)

	if err := mgr.Overrides().SetSheetID("stored-sheet"); err != nil {
		t.Fatalf("SetSheetID failed: %v", err)
	}
	if err := mgr.Overrides().SetDefaultIdealRate(5); err != nil {
		t.Fatalf("SetDefaultIdealRate failed: %v", err)
	}
	if err := mgr.Overrides().SetAggregation(models.GroupByMachine); err != nil {
		t.Fatalf("SetAggregation failed: %v", err)
	}

	if got := mgr.SheetID(); got != "flag-sheet" {
		t.Errorf("SheetID() = %q, want flag-sheet", got)
	}
	if got := mgr.Settings().DefaultIdealRate; got != 2 {
		t.Errorf("DefaultIdealRate = %v, want 2", got)
	}
	if got := mgr.Aggregation(); got != models.GroupByShift {
		t.Errorf("Aggregation() = %v, want shift", got)
	}

	if err := mgr.SetAggregation(models.GroupByDate); err != nil {
		t.Fatalf("SetAggregation failed: %v", err)
	}
	if got := mgr.Aggregation(); got != models.GroupByDate {
		t.Errorf("Aggregation() after save = %v, want date", got)
	}
	if cfg.Pinned.Aggregation {
		t.Error("saving the aggregation should release the pin")
	}
}

func TestManager_SetSheetID(t *testing.T) {
	cfg := testConfig(t)
	cfg.SheetID = "abc123"
	mgr := newTestManager(t, cfg)

	if err := mgr.SetSheetID("bad id"); !errors.Is(err, source.ErrInvalidSheetID) {
		t.Errorf("SetSheetID(bad id) = %v, want ErrInvalidSheetID", err)
	}

	url := "https://docs.google.com/spreadsheets/d/1AbC_def-9/edit#gid=0"
	if err := mgr.SetSheetID(url); err != nil {
		t.Fatalf("SetSheetID(url) failed: %v", err)
	}
	if got := mgr.SheetID(); got != "1AbC_def-9" {
		t.Errorf("SheetID() = %q, want 1AbC_def-9", got)
	}
}

func TestManager_CloseWaitsForSheetChangeRefresh(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/def456.csv" {
			select {
			case started <- struct{}{}:
			default:
			}
			<-release
		}
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()
	defer close(release)

	cfg := testConfig(t)
	cfg.SheetID = "abc123"
	cfg.SheetURLTemplate = srv.URL + "/{sheet_id}.csv"
	mgr := newTestManager(t, cfg)

	if _, err := mgr.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	ch, _ := mgr.Subscribe()
	if err := mgr.SetSheetID("def456"); err != nil {
		t.Fatalf("SetSheetID failed: %v", err)
	}

	select {
	case <-started:
	case <-time.After(3 * time.Second):
		t.Fatal("sheet change did not start a refresh")
	}

	if err := mgr.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Close closes subscriber channels after background work ends, so the
	// outcome of the in-flight refresh must already be queued.
	finished := false
	for e := range ch {
		if ev, ok := e.(ErrorEvent); ok && ev.Service == "source" {
			finished = true
		}
		if ev, ok := e.(DatasetLoadedEvent); ok && ev.Run != nil {
			finished = true
		}
	}
	if !finished {
		t.Error("Close returned before the sheet-change refresh finished")
	}
}

func TestManager_OverrideRecomputesDataset(t *testing.T) {
	mgr := newTestManager(t, fileConfig(t))

	before, err := mgr.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	ch, _ := mgr.Subscribe()
	defer mgr.Unsubscribe(ch)

	if err := mgr.SetMachineRate("M1", 5); err != nil {
		t.Fatalf("SetMachineRate failed: %v", err)
	}

	e := waitFor(t, ch, func(e ServiceEvent) bool {
		loaded, ok := e.(DatasetLoadedEvent)
		return ok && loaded.Run == nil
	})
	after := e.(DatasetLoadedEvent).Dataset

	if after == before {
		t.Fatal("recompute should produce a new dataset")
	}
	// 1000 / (5 * 420)
	want := 1000.0 / 2100.0
	if got := after.Rows[0].Performance.Or(-1); math.Abs(got-want) > 1e-9 {
		t.Errorf("Performance = %v, want %v", got, want)
	}
	if !after.LoadedAt.Equal(before.LoadedAt) {
		t.Error("recompute should keep LoadedAt")
	}
}

func TestManager_Broadcast(t *testing.T) {
	mgr := newTestManager(t, testConfig(t))

	ch, _ := mgr.Subscribe()
	defer mgr.Unsubscribe(ch)

	event := RefreshStartedEvent{Source: "file:x.csv"}
	mgr.broadcast(event)

	select {
	case e := <-ch:
		if e != event {
			t.Errorf("Got event %v, want %v", e, event)
		}
	case <-time.After(time.Second):
		t.Error("Timeout waiting for broadcast")
	}
}

func TestManager_Subscription(t *testing.T) {
	mgr := newTestManager(t, testConfig(t))

	ch, cmd := mgr.Subscribe()
	if ch == nil {
		t.Error("Subscribe returned nil channel")
	}
	if cmd == nil {
		t.Error("Subscribe returned nil command")
	}

	mgr.Unsubscribe(ch)

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("Channel should be closed")
		}
	case <-time.After(time.Second):
		t.Error("Channel should be closed after Unsubscribe")
	}
}

func TestManager_CheckNotifications(t *testing.T) {
	var (
		mu     sync.Mutex
		titles []string
	)
	orig := notify
	notify = func(title, _ string) error {
		mu.Lock()
		defer mu.Unlock()
		titles = append(titles, title)
		return nil
	}
	defer func() { notify = orig }()

	cfg := testConfig(t)
	cfg.NotificationsEnabled = true
	mgr := newTestManager(t, cfg)

	mgr.checkNotifications(models.Known(0.7))  // first value, no previous
	mgr.checkNotifications(models.Known(0.5))  // crosses below
	mgr.checkNotifications(models.Known(0.55)) // still below
	mgr.checkNotifications(models.Unknown())   // unknown resets
	mgr.checkNotifications(models.Known(0.4))  // no known previous
	mgr.checkNotifications(models.Known(0.65)) // recovers

	mu.Lock()
	defer mu.Unlock()
	want := []string{"OEE below target", "OEE recovered"}
	if len(titles) != len(want) {
		t.Fatalf("notifications = %v, want %v", titles, want)
	}
	for i := range want {
		if titles[i] != want[i] {
			t.Errorf("notification %d = %q, want %q", i, titles[i], want[i])
		}
	}
}

func TestManager_CheckNotificationsDisabled(t *testing.T) {
	var calls int
	orig := notify
	notify = func(string, string) error {
		calls++
		return nil
	}
	defer func() { notify = orig }()

	mgr := newTestManager(t, testConfig(t))
	mgr.checkNotifications(models.Known(0.9))
	mgr.checkNotifications(models.Known(0.1))

	if calls != 0 {
		t.Errorf("notify called %d times with notifications disabled", calls)
	}
}

func TestWaitForEvent(t *testing.T) {
	ch := make(chan ServiceEvent, 1)
	ch <- RefreshStartedEvent{}

	cmd := WaitForEvent(ch)
	msg := cmd()
	if msg == nil {
		t.Error("WaitForEvent cmd returned nil msg")
	}
}

func TestServiceEvent_Interface(t *testing.T) {
	var _ ServiceEvent = RefreshStartedEvent{}
	var _ ServiceEvent = DatasetLoadedEvent{}
	var _ ServiceEvent = OverridesChangedEvent{}
	var _ ServiceEvent = ErrorEvent{}

	RefreshStartedEvent{}.isServiceEvent()
	DatasetLoadedEvent{}.isServiceEvent()
	OverridesChangedEvent{}.isServiceEvent()
	ErrorEvent{}.isServiceEvent()
}

func TestManager_CloseTwice(t *testing.T) {
	mgr, err := NewManager(testConfig(t))
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	if err := mgr.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if err := mgr.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}
