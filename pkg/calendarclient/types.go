package calendarclient

import "time"

// Calendar is one remote calendar visible to an integration.
type Calendar struct {
	ID      string `json:"id"`
	Summary string `json:"summary"`
	Primary bool   `json:"primary,omitempty"`
}

// Event is the provider's event resource as this layer consumes it.
type Event struct {
	ID          string    `json:"id"`
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	AllDay      bool      `json:"allDay,omitempty"`
	Location    string    `json:"location,omitempty"`
	Attendees   []string  `json:"attendees,omitempty"`
	Recurrence  []string  `json:"recurrence,omitempty"`
	Updated     time.Time `json:"updated"`
	Status      string    `json:"status,omitempty"`

	// Private metadata round-tripped by the provider but invisible to other
	// API consumers. The sync layer uses it for loop prevention.
	ExtendedPrivate map[string]string `json:"extendedPrivate,omitempty"`
}

// WatchRequest registers a push channel on a calendar.
type WatchRequest struct {
	ChannelID  string
	CalendarID string
	Address    string
	TTL        time.Duration
}

// WatchResult carries the provider-issued watch metadata.
type WatchResult struct {
	ResourceID string    `json:"resourceId"`
	Expiration time.Time `json:"expiration"`
}
