package calendarclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

func (c *Client) doRequest(ctx context.Context, token, method, path string, body interface{}, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	safe := method == http.MethodGet
	return c.retry.Do(ctx, safe, func() error {
		return c.breaker.Execute(func() error {
			return c.doOnce(ctx, token, method, path, body, out)
		})
	})
}

func (c *Client) doOnce(ctx context.Context, token, method, path string, body interface{}, out interface{}) error {
	url := c.cfg.BaseURL + path

	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return err
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		bodyBytes, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("calendar api error: %s (failed to read body: %v)", resp.Status, err)
		}
		return fmt.Errorf("calendar api error: %s: %s", resp.Status, string(bodyBytes))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return err
		}
	}

	return nil
}
