package sdk

import (
	"context"
	"net/url"
)

// Submit runs a query to a terminal state and returns the request with its
// completed task table.
func (c *Client) Submit(ctx context.Context, query string) (*Request, error) {
	var out Request
	body := map[string]string{"query": query}
	if err := c.postJSON(ctx, "/v1/requests", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get fetches one request by id.
func (c *Client) Get(ctx context.Context, id string) (*Request, error) {
	var out Request
	if err := c.getJSON(ctx, "/v1/requests/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// List returns all persisted requests, newest first.
func (c *Client) List(ctx context.Context) ([]Request, error) {
	var out []Request
	if err := c.getJSON(ctx, "/v1/requests", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Report fetches the synthesized report for a finished request.
func (c *Client) Report(ctx context.Context, id string) (*Report, error) {
	var out Report
	if err := c.getJSON(ctx, "/v1/requests/"+url.PathEscape(id)+"/report", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ReportMarkdown fetches the report rendered as a markdown document.
func (c *Client) ReportMarkdown(ctx context.Context, id string) (string, error) {
	q := url.Values{"format": {"markdown"}}
	return c.getText(ctx, "/v1/requests/"+url.PathEscape(id)+"/report", q)
}
