package sdk

import "context"

// RebuildIndex triggers a full rescan of the partition roots.
func (c *Client) RebuildIndex(ctx context.Context) (RebuildStats, error) {
	var out RebuildStats
	if err := c.postJSON(ctx, "/v1/index/rebuild", nil, &out); err != nil {
		return RebuildStats{}, err
	}
	return out, nil
}

// Inconsistencies lists canonical key collisions found during the last build.
func (c *Client) Inconsistencies(ctx context.Context) ([]IndexConflict, error) {
	var out []IndexConflict
	if err := c.getJSON(ctx, "/v1/index/inconsistencies", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Batches lists every batch identifier known to the index.
func (c *Client) Batches(ctx context.Context) ([]string, error) {
	var out map[string][]string
	if err := c.getJSON(ctx, "/v1/index/batches", nil, &out); err != nil {
		return nil, err
	}
	return out["batches"], nil
}

// Materials lists every material known to the index.
func (c *Client) Materials(ctx context.Context) ([]string, error) {
	var out map[string][]string
	if err := c.getJSON(ctx, "/v1/index/materials", nil, &out); err != nil {
		return nil, err
	}
	return out["materials"], nil
}
