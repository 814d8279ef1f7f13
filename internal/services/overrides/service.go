// Package overrides persists user adjustments made from the dashboard
// (sheet id, default ideal rate, aggregation level and per-machine ideal
// rates) in a YAML file that is watched for external edits.
package overrides

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/j-veylop/oee-dashboard-tui/internal/logger"
	"github.com/j-veylop/oee-dashboard-tui/internal/models"
)

const fileVersion = 1

// Overrides is the content of the overrides file. Empty fields defer to the
// environment configuration.
type Overrides struct {
	Machines         map[string]float64 `yaml:"machines,omitempty"`
	DefaultIdealRate *float64           `yaml:"default_ideal_rate,omitempty"`
	SheetID          string             `yaml:"sheet_id,omitempty"`
	Aggregation      string             `yaml:"aggregation,omitempty"`
	Version          int                `yaml:"version"`
}

// Clone returns a deep copy.
func (o Overrides) Clone() Overrides {
	cp := o
	cp.Machines = maps.Clone(o.Machines)
	if o.DefaultIdealRate != nil {
		r := *o.DefaultIdealRate
		cp.DefaultIdealRate = &r
	}
	return cp
}

// MachineNames returns the overridden machines sorted by name.
func (o Overrides) MachineNames() []string {
	names := make([]string, 0, len(o.Machines))
	for name := range o.Machines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GroupBy returns the stored aggregation level, if any.
func (o Overrides) GroupBy() (models.GroupBy, bool) {
	if o.Aggregation == "" {
		return models.GroupByDate, false
	}
	g, err := models.ParseGroupBy(o.Aggregation)
	return g, err == nil
}

func (o Overrides) equal(other Overrides) bool {
	if o.SheetID != other.SheetID || o.Aggregation != other.Aggregation {
		return false
	}
	if (o.DefaultIdealRate == nil) != (other.DefaultIdealRate == nil) {
		return false
	}
	if o.DefaultIdealRate != nil && *o.DefaultIdealRate != *other.DefaultIdealRate {
		return false
	}
	return maps.Equal(o.Machines, other.Machines)
}

// EventType defines the type of overrides event.
type EventType int

const (
	// EventLoaded is sent once the file has been read at startup.
	EventLoaded EventType = iota
	// EventChanged is sent after the file changed, from either side.
	EventChanged
	// EventError is sent when a reload or the watcher fails.
	EventError
)

// Event represents an overrides service event.
type Event struct {
	Error error
	Type  EventType
}

// Service owns the overrides file.
type Service struct {
	current       Overrides
	watcher       *fsnotify.Watcher
	eventChan     chan Event
	stopChan      chan struct{}
	debounceTimer *time.Timer
	filePath      string
	mu            sync.RWMutex
	closeOnce     sync.Once
}

// New loads (or creates) the overrides file at filePath and starts watching
// it.
func New(filePath string) (*Service, error) {
	if filePath == "" {
		return nil, errors.New("overrides path is empty")
	}

	s := &Service{
		current:   Overrides{Version: fileVersion, Machines: map[string]float64{}},
		filePath:  filePath,
		eventChan: make(chan Event, 16),
		stopChan:  make(chan struct{}),
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create overrides directory: %w", err)
	}

	loaded, err := readFile(filePath)
	switch {
	case err == nil:
		s.current = loaded
	case errors.Is(err, os.ErrNotExist):
		if err := s.save(); err != nil {
			return nil, fmt.Errorf("failed to create overrides file: %w", err)
		}
	default:
		return nil, fmt.Errorf("failed to load overrides: %w", err)
	}

	if err := s.startWatcher(); err != nil {
		return nil, fmt.Errorf("failed to start file watcher: %w", err)
	}

	s.sendEvent(Event{Type: EventLoaded})
	return s, nil
}

// Path returns the overrides file path.
func (s *Service) Path() string {
	return s.filePath
}

// Events returns the event channel.
func (s *Service) Events() <-chan Event {
	return s.eventChan
}

// Get returns a copy of the current overrides.
func (s *Service) Get() Overrides {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// MachineRates returns a copy of the per-machine ideal rates.
func (s *Service) MachineRates() map[string]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := maps.Clone(s.current.Machines)
	if out == nil {
		out = map[string]float64{}
	}
	return out
}

// SetMachineRate stores an ideal rate for machine. A rate of zero or less
// removes the override.
func (s *Service) SetMachineRate(machine string, rate float64) error {
	machine = strings.TrimSpace(machine)
	if machine == "" {
		return errors.New("machine name is empty")
	}
	return s.update(func(o *Overrides) {
		if rate <= 0 {
			delete(o.Machines, machine)
			return
		}
		if o.Machines == nil {
			o.Machines = map[string]float64{}
		}
		o.Machines[machine] = rate
	})
}

// SetSheetID stores the sheet id. Empty clears it.
func (s *Service) SetSheetID(id string) error {
	return s.update(func(o *Overrides) { o.SheetID = strings.TrimSpace(id) })
}

// SetDefaultIdealRate stores the default ideal rate.
func (s *Service) SetDefaultIdealRate(rate float64) error {
	if rate < 0 {
		return fmt.Errorf("ideal rate must not be negative, got %v", rate)
	}
	return s.update(func(o *Overrides) { o.DefaultIdealRate = &rate })
}

// SetAggregation stores the aggregation level.
func (s *Service) SetAggregation(g models.GroupBy) error {
	return s.update(func(o *Overrides) { o.Aggregation = g.String() })
}

func (s *Service) update(fn func(o *Overrides)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.current.Clone()
	fn(&s.current)
	if s.current.equal(prev) {
		return nil
	}
	if err := s.saveLocked(); err != nil {
		s.current = prev
		return fmt.Errorf("failed to save overrides: %w", err)
	}

	s.sendEvent(Event{Type: EventChanged})
	return nil
}

func readFile(path string) (Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Overrides{}, err
	}
	var o Overrides
	if err := yaml.Unmarshal(data, &o); err != nil {
		return Overrides{}, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	for name, rate := range o.Machines {
		if rate <= 0 {
			delete(o.Machines, name)
		}
	}
	if o.Machines == nil {
		o.Machines = map[string]float64{}
	}
	if o.Version == 0 {
		o.Version = fileVersion
	}
	return o, nil
}

func (s *Service) save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

// saveLocked writes the file atomically (must hold lock).
func (s *Service) saveLocked() error {
	s.current.Version = fileVersion
	data, err := yaml.Marshal(s.current)
	if err != nil {
		return fmt.Errorf("failed to marshal overrides: %w", err)
	}

	// Write to temp file first, then rename
	tmpFile := s.filePath + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0o600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmpFile, s.filePath); err != nil {
		if removeErr := os.Remove(tmpFile); removeErr != nil {
			logger.Error("failed to remove temp file", "error", removeErr)
		}
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// startWatcher watches the parent directory so atomic saves are seen.
func (s *Service) startWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	s.watcher = watcher

	if err := watcher.Add(filepath.Dir(s.filePath)); err != nil {
		if closeErr := watcher.Close(); closeErr != nil {
			logger.Error("failed to close watcher", "error", closeErr)
		}
		return err
	}

	go s.watchLoop()
	return nil
}

// watchLoop handles file system events with debouncing.
func (s *Service) watchLoop() {
	const debounceInterval = 100 * time.Millisecond

	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(s.filePath) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			s.mu.Lock()
			if s.debounceTimer != nil {
				s.debounceTimer.Stop()
			}
			s.debounceTimer = time.AfterFunc(debounceInterval, s.handleFileChange)
			s.mu.Unlock()

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.sendEvent(Event{Type: EventError, Error: err})

		case <-s.stopChan:
			return
		}
	}
}

// handleFileChange reloads the file after an edit. Our own saves reload to
// identical content and produce no event.
func (s *Service) handleFileChange() {
	loaded, err := readFile(s.filePath)
	if err != nil {
		logger.Warn("overrides reload failed, keeping previous values", "path", s.filePath, "error", err)
		s.sendEvent(Event{Type: EventError, Error: err})
		return
	}

	s.mu.Lock()
	changed := !loaded.equal(s.current)
	if changed {
		s.current = loaded
	}
	s.mu.Unlock()

	if changed {
		logger.Info("overrides reloaded", "path", s.filePath, "machines", len(loaded.Machines))
		s.sendEvent(Event{Type: EventChanged})
	}
}

// sendEvent sends an event to the event channel non-blocking.
func (s *Service) sendEvent(event Event) {
	select {
	case s.eventChan <- event:
	default:
		// Channel full, drop oldest event
		select {
		case <-s.eventChan:
		default:
		}
		select {
		case s.eventChan <- event:
		default:
		}
	}
}

// Close stops the file watcher and cleans up resources.
func (s *Service) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.stopChan)

		s.mu.Lock()
		if s.debounceTimer != nil {
			s.debounceTimer.Stop()
		}
		s.mu.Unlock()

		if s.watcher != nil {
			err = s.watcher.Close()
		}
	})
	return err
}
