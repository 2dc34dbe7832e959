package sdk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Health checks the health of the server. A degraded server answers 503 but
// still names the failing checks, so both 200 and 503 decode to a status.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	resp, err := c.send(ctx, http.MethodGet, "/healthz", nil, nil, "application/json")
	if err != nil {
		return HealthStatus{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusServiceUnavailable {
		return HealthStatus{}, decodeAPIError(resp)
	}

	var out HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return HealthStatus{}, fmt.Errorf("sdk: decode health response: %w", err)
	}
	return out, nil
}
