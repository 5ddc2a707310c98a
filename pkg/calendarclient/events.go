package calendarclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

type eventListResponse struct {
	Items []Event `json:"items"`
}

// ListEvents re-fetches the authoritative event list for a calendar.
// Notifications never carry a diff; this is the only way to learn what
// changed.
func (c *Client) ListEvents(ctx context.Context, token, calendarID string) ([]Event, error) {
	var resp eventListResponse
	path := fmt.Sprintf("/calendars/%s/events", url.PathEscape(calendarID))
	if err := c.doRequest(ctx, token, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("list events for %s: %w", calendarID, err)
	}
	return resp.Items, nil
}

// InsertEvent creates an event remotely and returns the provider's version,
// including the assigned id.
func (c *Client) InsertEvent(ctx context.Context, token, calendarID string, ev Event) (*Event, error) {
	var created Event
	path := fmt.Sprintf("/calendars/%s/events", url.PathEscape(calendarID))
	if err := c.doRequest(ctx, token, http.MethodPost, path, ev, &created); err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	return &created, nil
}

// UpdateEvent replaces an existing remote event.
func (c *Client) UpdateEvent(ctx context.Context, token, calendarID string, ev Event) (*Event, error) {
	if ev.ID == "" {
		return nil, fmt.Errorf("update event: missing event id")
	}

	var updated Event
	path := fmt.Sprintf("/calendars/%s/events/%s", url.PathEscape(calendarID), url.PathEscape(ev.ID))
	if err := c.doRequest(ctx, token, http.MethodPut, path, ev, &updated); err != nil {
		return nil, fmt.Errorf("update event %s: %w", ev.ID, err)
	}
	return &updated, nil
}
