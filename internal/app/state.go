// Package app provides the main Bubble Tea application model and state management.
package app

import (
	"slices"
	"sync"
	"time"

	"github.com/j-veylop/oee-dashboard-tui/internal/models"
	"github.com/j-veylop/oee-dashboard-tui/internal/oee"
)

// NotificationType defines the type of notification.
type NotificationType int

const (
	// NotificationSuccess represents a success notification.
	NotificationSuccess NotificationType = iota
	// NotificationError represents an error notification.
	NotificationError
	// NotificationWarning represents a warning notification.
	NotificationWarning
	// NotificationInfo represents an informational notification.
	NotificationInfo
	// NotificationLoading represents a loading notification with spinner.
	NotificationLoading
)

const (
	// LoadingNotificationID is the fixed ID for loading notifications.
	LoadingNotificationID = "__loading__"
)

// String returns the string representation of a NotificationType.
func (n NotificationType) String() string {
	switch n {
	case NotificationSuccess:
		return "success"
	case NotificationError:
		return "error"
	case NotificationWarning:
		return "warning"
	case NotificationInfo:
		return "info"
	default:
		return "unknown"
	}
}

// Notification represents a user-facing notification message.
type Notification struct {
	ID        string
	Type      NotificationType
	Message   string
	CreatedAt time.Time
	Duration  time.Duration
}

// IsExpired returns true if the notification has expired.
func (n *Notification) IsExpired() bool {
	if n.Duration <= 0 {
		return false
	}
	return time.Since(n.CreatedAt) > n.Duration
}

// LoadingState tracks loading states for different resources.
type LoadingState struct {
	Initial bool
	Dataset bool
	History bool
}

// State is the shared state read by every tab.
type State struct {
	mu sync.RWMutex

	Dataset     *models.Dataset
	LastRun     *models.Run
	LastError   error
	Filter      oee.Filter
	Aggregation models.GroupBy

	Loading LoadingState

	LastUpdated time.Time

	// version increases whenever the dataset, filter or aggregation change.
	version uint64

	notifications   []Notification
	notificationSeq int
}

// NewState creates an empty state waiting for the first load.
func NewState() *State {
	return &State{
		notifications: make([]Notification, 0),
		Loading: LoadingState{
			Initial: true,
		},
	}
}

// SetLoading sets the loading state for a specific resource.
func (s *State) SetLoading(resource string, loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch resource {
	case "initial":
		s.Loading.Initial = loading
	case "dataset":
		s.Loading.Dataset = loading
	case "history":
		s.Loading.History = loading
	}
}

// AnyLoading returns true if any resource is currently loading.
func (s *State) AnyLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.Loading.Initial ||
		s.Loading.Dataset ||
		s.Loading.History
}

// IsInitialLoading returns true if initial data is still loading.
func (s *State) IsInitialLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Loading.Initial
}

// GetLoadingResources returns a list of currently loading resources.
func (s *State) GetLoadingResources() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var resources []string
	if s.Loading.Initial {
		resources = append(resources, "initial")
	}
	if s.Loading.Dataset {
		resources = append(resources, "dataset")
	}
	if s.Loading.History {
		resources = append(resources, "history")
	}
	return resources
}

// SetDataset replaces the current dataset. A machine filter that no longer
// matches any row is cleared.
func (s *State) SetDataset(ds *models.Dataset, run *models.Run) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Dataset = ds
	if run != nil {
		s.LastRun = run
		s.LastUpdated = time.Now()
	}
	s.LastError = nil

	if s.Filter.Machine != oee.AllMachines && !slices.Contains(ds.Machines(), s.Filter.Machine) {
		s.Filter.Machine = oee.AllMachines
	}
	s.version++
}

// GetDataset returns the current dataset, nil before the first load.
func (s *State) GetDataset() *models.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Dataset
}

// GetLastRun returns the run that produced the current dataset.
func (s *State) GetLastRun() *models.Run {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.LastRun
}

// SetLastError records the last refresh error.
func (s *State) SetLastError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastError = err
}

// GetLastError returns the last refresh error.
func (s *State) GetLastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.LastError
}

// SetFilter replaces the row filter.
func (s *State) SetFilter(f oee.Filter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Filter = f
	s.version++
}

// GetFilter returns the row filter.
func (s *State) GetFilter() oee.Filter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Filter
}

// FilteredRows returns the dataset rows that pass the filter.
func (s *State) FilteredRows() []models.Row {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Dataset == nil {
		return nil
	}
	return s.Filter.Apply(s.Dataset.Rows)
}

// SetAggregation sets the aggregation level.
func (s *State) SetAggregation(g models.GroupBy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Aggregation != g {
		s.Aggregation = g
		s.version++
	}
}

// GetAggregation returns the aggregation level.
func (s *State) GetAggregation() models.GroupBy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Aggregation
}

// Version returns a counter that changes whenever derived views need to be
// rebuilt.
func (s *State) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// AddNotification adds a new notification and returns its ID.
func (s *State) AddNotification(notifType NotificationType, message string, duration time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notificationSeq++
	id := time.Now().Format("20060102150405") + "-" + string(rune('A'+s.notificationSeq%26))

	notification := Notification{
		ID:        id,
		Type:      notifType,
		Message:   message,
		CreatedAt: time.Now(),
		Duration:  duration,
	}

	s.notifications = append(s.notifications, notification)

	// Keep only the last 10 notifications
	if len(s.notifications) > 10 {
		s.notifications = s.notifications[len(s.notifications)-10:]
	}

	return id
}

// RemoveNotification removes a notification by ID.
func (s *State) RemoveNotification(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == id {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}

// ClearExpiredNotifications removes all expired notifications.
func (s *State) ClearExpiredNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	s.notifications = active
}

// GetNotifications returns a copy of all active notifications.
func (s *State) GetNotifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Clear expired inline when reading
	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}

	return active
}

// ClearAllNotifications removes all notifications.
func (s *State) ClearAllNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = make([]Notification, 0)
}

// SetLoadingNotification sets a loading notification message.
func (s *State) SetLoadingNotification(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == LoadingNotificationID {
			s.notifications[i].Message = message
			return
		}
	}

	s.notifications = append(s.notifications, Notification{
		ID:        LoadingNotificationID,
		Type:      NotificationLoading,
		Message:   message,
		CreatedAt: time.Now(),
		Duration:  0,
	})
}

// ClearLoadingNotification removes the loading notification.
func (s *State) ClearLoadingNotification() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == LoadingNotificationID {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}

// GetLastUpdated returns the last time the state was updated.
func (s *State) GetLastUpdated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.LastUpdated
}

// TimeSinceUpdate returns the duration since the last update.
func (s *State) TimeSinceUpdate() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.LastUpdated.IsZero() {
		return 0
	}
	return time.Since(s.LastUpdated)
}
