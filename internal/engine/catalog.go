package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Engines returns the remote engine catalog as delivered by the service
func (c *Client) Engines(ctx context.Context) (json.RawMessage, error) {
	return c.getJSON(ctx, "/api/engines")
}

// Health returns the remote service health document
func (c *Client) Health(ctx context.Context) (json.RawMessage, error) {
	return c.getJSON(ctx, "/api/health")
}

func (c *Client) getJSON(ctx context.Context, path string) (json.RawMessage, error) {
	status, body, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, fmt.Errorf("GET %s: server error: %d - %s", path, status, snippet(body))
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("GET %s: response is not JSON", path)
	}
	return json.RawMessage(body), nil
}
