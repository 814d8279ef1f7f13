// Package services provides service orchestration for the TUI.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gen2brain/beeep"

	"github.com/j-veylop/oee-dashboard-tui/internal/config"
	"github.com/j-veylop/oee-dashboard-tui/internal/db"
	"github.com/j-veylop/oee-dashboard-tui/internal/logger"
	"github.com/j-veylop/oee-dashboard-tui/internal/models"
	"github.com/j-veylop/oee-dashboard-tui/internal/oee"
	"github.com/j-veylop/oee-dashboard-tui/internal/services/history"
	"github.com/j-veylop/oee-dashboard-tui/internal/services/overrides"
	"github.com/j-veylop/oee-dashboard-tui/internal/services/source"
)

type (
	// RefreshStartedEvent is emitted when a fetch begins.
	RefreshStartedEvent struct {
		Source string
	}

	// DatasetLoadedEvent is emitted when a new dataset is available, either
	// from a fetch (Run is set) or from recomputing with new settings.
	DatasetLoadedEvent struct {
		Dataset *models.Dataset
		Run     *models.Run
	}

	// OverridesChangedEvent is emitted when the overrides file changes.
	OverridesChangedEvent struct {
		Overrides overrides.Overrides
	}

	// ErrorEvent is emitted when an error occurs in any service.
	ErrorEvent struct {
		Service string
		Error   error
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (RefreshStartedEvent) isServiceEvent()   {}
func (DatasetLoadedEvent) isServiceEvent()    {}
func (OverridesChangedEvent) isServiceEvent() {}
func (ErrorEvent) isServiceEvent()            {}

// notify sends a desktop notification.
var notify = func(title, body string) error {
	return beeep.Notify(title, body, "")
}

// Manager orchestrates services and event routing.
type Manager struct {
	mu          sync.RWMutex
	refreshMu   sync.Mutex
	cfg         *config.Config
	overrides   *overrides.Service
	history     *history.Service
	database    *db.DB
	file        *source.FileSource
	sheet       *source.SheetSource
	dataset     *models.Dataset
	lastErr     error
	eventChan   chan ServiceEvent
	stopChan    chan struct{}
	cancel      context.CancelFunc
	subscribers []chan<- ServiceEvent
	previousOEE models.Value
	wg          sync.WaitGroup
	closeOnce   sync.Once
}

// NewManager creates a new service manager.
func NewManager(cfg *config.Config) (*Manager, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		cfg:         cfg,
		eventChan:   make(chan ServiceEvent, 100),
		stopChan:    make(chan struct{}),
		cancel:      cancel,
		previousOEE: models.Unknown(),
	}

	var err error
	m.overrides, err = overrides.New(cfg.OverridesPath)
	if err != nil {
		cancel()
		return nil, err
	}

	m.database, err = db.New(cfg.DatabasePath)
	if err != nil {
		cancel()
		_ = m.overrides.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	m.history = history.New(m.database, cfg.HistoryRetention)

	if cfg.UsesFile() {
		m.file = source.NewFileSource(cfg.SourceFile)
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			err := m.file.Watch(ctx, func() {
				if _, err := m.Refresh(ctx); err != nil {
					logger.Warn("refresh after file change failed", "error", err)
				}
			})
			if err != nil {
				m.broadcast(ErrorEvent{Service: "source", Error: err})
			}
		}()
	}

	m.wg.Add(1)
	go m.routeEvents(ctx)

	if cfg.RefreshInterval > 0 {
		m.wg.Add(1)
		go m.pollLoop(ctx, cfg.RefreshInterval)
	}

	return m, nil
}

// routeEvents routes events from individual services to subscribers.
func (m *Manager) routeEvents(ctx context.Context) {
	defer m.wg.Done()
	for {
		select {
		case event := <-m.overrides.Events():
			m.handleOverridesEvent(ctx, event)

		case <-m.stopChan:
			return
		}
	}
}

func (m *Manager) pollLoop(ctx context.Context, interval time.Duration) {
	defer m.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := m.Refresh(ctx); err != nil {
				logger.Warn("scheduled refresh failed", "error", err)
			}
		case <-m.stopChan:
			return
		}
	}
}

func (m *Manager) handleOverridesEvent(ctx context.Context, event overrides.Event) {
	switch event.Type {
	case overrides.EventLoaded:
		return

	case overrides.EventChanged:
		m.broadcast(OverridesChangedEvent{Overrides: m.overrides.Get()})

		if m.sourceChanged() {
			m.wg.Add(1)
			go func() {
				defer m.wg.Done()
				if _, err := m.Refresh(ctx); err != nil {
					logger.Warn("refresh after sheet change failed", "error", err)
				}
			}()
			return
		}
		m.recompute()

	case overrides.EventError:
		m.broadcast(ErrorEvent{Service: "overrides", Error: event.Error})
	}
}

// recompute reapplies the current settings to the loaded dataset.
func (m *Manager) recompute() {
	m.mu.Lock()
	if m.dataset == nil {
		m.mu.Unlock()
		return
	}
	ds := oee.Recompute(m.dataset, m.settingsLocked())
	m.dataset = ds
	m.mu.Unlock()

	m.broadcast(DatasetLoadedEvent{Dataset: ds})
}

// sourceChanged reports whether the configured sheet differs from the one
// last fetched.
func (m *Manager) sourceChanged() bool {
	if m.cfg.UsesFile() {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.sheet == nil {
		return false
	}
	return source.ExtractSheetID(m.sheetIDLocked()) != m.sheet.ID()
}

// Refresh fetches the source and replaces the current dataset. On failure
// the previous dataset stays in place and the failed run is recorded.
func (m *Manager) Refresh(ctx context.Context) (*models.Dataset, error) {
	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()

	src, err := m.source()
	if err != nil {
		m.fail(ctx, &models.Run{StartedAt: time.Now(), Source: m.SourceName()}, err)
		return nil, err
	}

	m.broadcast(RefreshStartedEvent{Source: src.Name()})
	logger.Info("refreshing dataset", "source", src.Name())

	run := &models.Run{StartedAt: time.Now(), Source: src.Name()}
	tbl, err := src.Fetch(ctx)
	if err != nil {
		run.Duration = time.Since(run.StartedAt)
		m.fail(ctx, run, err)
		return nil, err
	}

	ds := oee.Evaluate(tbl, m.Settings(), src.Name())
	summary := oee.Summarize(ds.Rows)
	run.Summary = summary.Metrics
	run.RecordCount = len(ds.Rows)
	run.Duration = time.Since(run.StartedAt)

	if err := m.history.Record(ctx, run, ds); err != nil {
		logger.Warn("failed to record run", "error", err)
	}

	m.mu.Lock()
	m.dataset = ds
	m.lastErr = nil
	m.mu.Unlock()

	logger.Info("dataset loaded",
		"source", src.Name(),
		"records", run.RecordCount,
		"oee", summary.OEE.String(),
		"duration", run.Duration,
	)

	m.checkNotifications(summary.OEE)
	m.broadcast(DatasetLoadedEvent{Dataset: ds, Run: run})
	return ds, nil
}

func (m *Manager) fail(ctx context.Context, run *models.Run, err error) {
	run.Error = err.Error()
	if recErr := m.history.Record(ctx, run, nil); recErr != nil {
		logger.Warn("failed to record run", "error", recErr)
	}

	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()

	logger.Error("refresh failed", "source", run.Source, "error", err)
	m.broadcast(ErrorEvent{Service: "source", Error: err})
}

// source returns the data source for the current configuration, reusing the
// sheet client while the sheet id is unchanged.
func (m *Manager) source() (source.Source, error) {
	if m.file != nil {
		return m.file, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	id := source.ExtractSheetID(m.sheetIDLocked())
	if m.sheet != nil && m.sheet.ID() == id {
		return m.sheet, nil
	}
	sheet, err := source.NewSheetSource(id, m.cfg.SheetURLTemplate, m.cfg.FetchTimeout)
	if err != nil {
		return nil, err
	}
	m.sheet = sheet
	return sheet, nil
}

func (m *Manager) sheetIDLocked() string {
	if id := m.overrides.Get().SheetID; id != "" && !m.cfg.Pinned.SheetID {
		return id
	}
	return m.cfg.SheetID
}

// checkNotifications alerts when the summary OEE crosses the alert
// threshold compared with the previous successful refresh.
func (m *Manager) checkNotifications(current models.Value) {
	m.mu.Lock()
	previous := m.previousOEE
	m.previousOEE = current
	m.mu.Unlock()

	if !m.cfg.NotificationsEnabled {
		return
	}

	cur, ok := current.Get()
	if !ok {
		return
	}
	prev, ok := previous.Get()
	if !ok {
		return
	}

	threshold := m.cfg.AlertThreshold
	switch {
	case cur < threshold && prev >= threshold:
		title := "OEE below target"
		body := fmt.Sprintf("OEE dropped to %s (target %s)", current.Percent(), models.Known(threshold).Percent())
		if err := notify(title, body); err != nil {
			logger.Debug("notification failed", "error", err)
		}
	case cur >= threshold && prev < threshold:
		title := "OEE recovered"
		body := fmt.Sprintf("OEE is back at %s", current.Percent())
		if err := notify(title, body); err != nil {
			logger.Debug("notification failed", "error", err)
		}
	}
}

// broadcast sends an event to all subscribers.
func (m *Manager) broadcast(event ServiceEvent) {
	// Send to main event channel
	select {
	case m.eventChan <- event:
	default:
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber channel full, skip
		}
	}
}

// Subscribe creates a channel for receiving service events.
// Returns a tea.Cmd that can be used in Bubble Tea's Init or Update.
func (m *Manager) Subscribe() (chan ServiceEvent, tea.Cmd) {
	ch := make(chan ServiceEvent, 50)

	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch, waitForEvent(ch)
}

// waitForEvent returns a tea.Cmd that waits for the next event.
func waitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// WaitForEvent returns a tea.Cmd for the next event on a channel.
func WaitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return waitForEvent(ch)
}

// Unsubscribe removes a subscriber channel.
func (m *Manager) Unsubscribe(ch chan ServiceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// Dataset returns the current dataset, nil before the first successful
// refresh.
func (m *Manager) Dataset() *models.Dataset {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dataset
}

// LastError returns the error of the last refresh, nil after a success.
func (m *Manager) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

// Settings returns the calculation settings: environment configuration with
// the overrides file layered on top.
func (m *Manager) Settings() oee.Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settingsLocked()
}

func (m *Manager) settingsLocked() oee.Settings {
	o := m.overrides.Get()
	s := m.cfg.Settings(o.Machines)
	if o.DefaultIdealRate != nil && !m.cfg.Pinned.DefaultIdealRate {
		s.DefaultIdealRate = *o.DefaultIdealRate
	}
	return s
}

// Aggregation returns the aggregation level, preferring the stored override.
func (m *Manager) Aggregation() models.GroupBy {
	m.mu.RLock()
	pinned := m.cfg.Pinned.Aggregation
	m.mu.RUnlock()
	if g, ok := m.overrides.Get().GroupBy(); ok && !pinned {
		return g
	}
	return m.cfg.AggregationLevel
}

// SheetID returns the effective sheet id.
func (m *Manager) SheetID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return source.ExtractSheetID(m.sheetIDLocked())
}

// SourceName describes where data is read from.
func (m *Manager) SourceName() string {
	if m.file != nil {
		return m.file.Name()
	}
	return "sheet:" + m.SheetID()
}

// SetSheetID validates and stores a new sheet id (or sheet URL). The change
// triggers a refresh through the overrides watcher.
func (m *Manager) SetSheetID(input string) error {
	id := source.ExtractSheetID(input)
	if err := source.ValidateSheetID(id); err != nil {
		return err
	}
	m.unpin(func(p *config.Pins) { p.SheetID = false })
	return m.overrides.SetSheetID(id)
}

// SetMachineRate stores a per-machine ideal rate. Zero removes it.
func (m *Manager) SetMachineRate(machine string, rate float64) error {
	return m.overrides.SetMachineRate(machine, rate)
}

// SetDefaultIdealRate stores the default ideal rate.
func (m *Manager) SetDefaultIdealRate(rate float64) error {
	m.unpin(func(p *config.Pins) { p.DefaultIdealRate = false })
	return m.overrides.SetDefaultIdealRate(rate)
}

// SetAggregation stores the aggregation level.
func (m *Manager) SetAggregation(g models.GroupBy) error {
	m.unpin(func(p *config.Pins) { p.Aggregation = false })
	return m.overrides.SetAggregation(g)
}

// unpin releases a command-line setting so the stored value applies.
func (m *Manager) unpin(fn func(p *config.Pins)) {
	m.mu.Lock()
	fn(&m.cfg.Pinned)
	m.mu.Unlock()
}

// History retrieves stored run history for a time range.
func (m *Manager) History(ctx context.Context, tr models.TimeRange) (*models.HistoryStats, error) {
	if m.history == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	return m.history.Stats(ctx, tr)
}

// Config returns the configuration the manager was built with.
func (m *Manager) Config() *config.Config {
	return m.cfg
}

// Overrides returns the overrides service.
func (m *Manager) Overrides() *overrides.Service {
	return m.overrides
}

// Database returns the database instance for direct access.
func (m *Manager) Database() *db.DB {
	return m.database
}

// Close closes the manager and all its services.
func (m *Manager) Close() error {
	var errs []error
	m.closeOnce.Do(func() {
		close(m.stopChan)
		m.cancel()
		m.wg.Wait()

		m.mu.Lock()
		for _, sub := range m.subscribers {
			close(sub)
		}
		m.subscribers = nil
		m.mu.Unlock()

		if err := m.overrides.Close(); err != nil {
			errs = append(errs, err)
		}

		if m.database != nil {
			if err := m.database.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	})
	return errors.Join(errs...)
}
