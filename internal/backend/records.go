package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const recordsPathPrefix = "/database/records/"

// ListRecords fetches rows of table matching q into out (a pointer to a slice).
func (c *Client) ListRecords(ctx context.Context, table string, q *Query, out interface{}, opts ...RequestOption) error {
	h := http.Header{}
	for _, o := range opts {
		o(h)
	}

	if err := c.do(ctx, http.MethodGet, recordsPathPrefix+table, q.urlValues(), h, nil, out); err != nil {
		return fmt.Errorf("failed to list %s records: %w", table, err)
	}

	return nil
}

// CreateRecords inserts rows (a slice of row objects, as the record endpoint
// expects) into table and decodes the returned representation into out, which
// may be nil when the caller does not need the created rows back.
func (c *Client) CreateRecords(ctx context.Context, table string, rows, out interface{}) error {
	b, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to marshal rows: %w", err)
	}

	h := http.Header{}
	h.Add("Prefer", "return=representation")

	if err := c.do(ctx, http.MethodPost, recordsPathPrefix+table, nil, h, bytes.NewReader(b), out); err != nil {
		return fmt.Errorf("failed to create %s records: %w", table, err)
	}

	return nil
}

// DeleteRecords deletes rows of table matching q.
func (c *Client) DeleteRecords(ctx context.Context, table string, q *Query) error {
	if err := c.do(ctx, http.MethodDelete, recordsPathPrefix+table, q.urlValues(), nil, nil, nil); err != nil {
		return fmt.Errorf("failed to delete %s records: %w", table, err)
	}

	return nil
}
