package app

import (
	"time"

	"github.com/j-veylop/oee-dashboard-tui/internal/models"
	"github.com/j-veylop/oee-dashboard-tui/internal/oee"
	"github.com/j-veylop/oee-dashboard-tui/internal/services"
)

// TickMsg is sent periodically to trigger state refresh.
type TickMsg struct {
	Time time.Time
}

// StartLoadingMsg signals that a resource is starting to load.
type StartLoadingMsg struct {
	Resource string
}

// StopLoadingMsg signals that a resource has finished loading.
type StopLoadingMsg struct {
	Resource string
}

// RefreshMsg requests a new fetch of the source.
type RefreshMsg struct{}

// DatasetLoadedMsg contains the result of a user-requested refresh.
type DatasetLoadedMsg struct {
	Dataset *models.Dataset
	Error   error
}

// DatasetChangedMsg tells tabs that the shared dataset, filter or
// aggregation changed.
type DatasetChangedMsg struct{}

// FilterChangedMsg requests a new row filter.
type FilterChangedMsg struct {
	Filter oee.Filter
}

// AggregationChangedMsg requests a new aggregation level.
type AggregationChangedMsg struct {
	GroupBy models.GroupBy
}

// SettingsSavedMsg contains the result of persisting a setting.
type SettingsSavedMsg struct {
	Key   string
	Value string
	Error error
}

// AddNotificationMsg requests adding a new notification.
type AddNotificationMsg struct {
	Type     NotificationType
	Message  string
	Duration time.Duration
}

// RemoveNotificationMsg requests removal of a notification.
type RemoveNotificationMsg struct {
	ID string
}

// ClearExpiredNotificationsMsg triggers clearing of expired notifications.
type ClearExpiredNotificationsMsg struct{}

// ServiceEventMsg wraps a service event from the service manager.
type ServiceEventMsg struct {
	Event services.ServiceEvent
}

// SubscriptionEventMsg is the callback wrapper for service subscription.
type SubscriptionEventMsg struct {
	Channel chan services.ServiceEvent
}

// ErrorMsg represents a general error.
type ErrorMsg struct {
	Error   error
	Context string
}

// TabSwitchMsg requests switching to a specific tab.
type TabSwitchMsg struct {
	Tab TabID
}

// ToggleHelpMsg toggles the help display.
type ToggleHelpMsg struct{}
