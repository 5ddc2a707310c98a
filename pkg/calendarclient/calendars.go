package calendarclient

import (
	"context"
	"fmt"
	"net/http"
)

type calendarListResponse struct {
	Items []Calendar `json:"items"`
}

// ListCalendars returns the calendars visible to the token's integration.
// Results are cached briefly: webhook setup lists the same account while
// fanning out channel creation.
func (c *Client) ListCalendars(ctx context.Context, token string) ([]Calendar, error) {
	cacheKey := "calendars:" + token
	if cached, ok := c.cache.Get(cacheKey); ok {
		return cached.([]Calendar), nil
	}

	var resp calendarListResponse
	if err := c.doRequest(ctx, token, http.MethodGet, "/users/me/calendarList", nil, &resp); err != nil {
		return nil, fmt.Errorf("list calendars: %w", err)
	}

	c.cache.Set(cacheKey, resp.Items)
	return resp.Items, nil
}
