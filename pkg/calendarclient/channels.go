package calendarclient

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

type watchPayload struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Address    string `json:"address"`
	Expiration int64  `json:"expiration"` // unix millis
}

type watchResponse struct {
	ResourceID string `json:"resourceId"`
	Expiration int64  `json:"expiration"` // unix millis
}

// Watch registers a push notification channel on a calendar.
func (c *Client) Watch(ctx context.Context, token string, req WatchRequest) (*WatchResult, error) {
	payload := watchPayload{
		ID:         req.ChannelID,
		Type:       "web_hook",
		Address:    req.Address,
		Expiration: time.Now().Add(req.TTL).UnixMilli(),
	}

	var resp watchResponse
	path := fmt.Sprintf("/calendars/%s/events/watch", req.CalendarID)
	if err := c.doRequest(ctx, token, http.MethodPost, path, payload, &resp); err != nil {
		return nil, fmt.Errorf("watch calendar %s: %w", req.CalendarID, err)
	}

	return &WatchResult{
		ResourceID: resp.ResourceID,
		Expiration: time.UnixMilli(resp.Expiration).UTC(),
	}, nil
}

type stopPayload struct {
	ID         string `json:"id"`
	ResourceID string `json:"resourceId"`
}

// StopChannel deregisters a push channel.
func (c *Client) StopChannel(ctx context.Context, token, channelID, resourceID string) error {
	payload := stopPayload{ID: channelID, ResourceID: resourceID}
	if err := c.doRequest(ctx, token, http.MethodPost, "/channels/stop", payload, nil); err != nil {
		return fmt.Errorf("stop channel %s: %w", channelID, err)
	}
	return nil
}
