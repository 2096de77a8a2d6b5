// Package remote is the only component that talks to the Jobs API. Every
// non-success response or transport error is reported uniformly as an error;
// there is no internal retry; callers reload full state on failure.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/justsurfingit/pipeline-board/internal/pipeline"
)

// JobPatch is a partial single-job update. Nil fields are untouched;
// ClearDeadline distinguishes clearing the deadline from leaving it alone.
type JobPatch struct {
	Status              *pipeline.Stage `json:"status,omitempty"`
	ApplicationDeadline *time.Time      `json:"application_deadline,omitempty"`
	ClearDeadline       bool            `json:"clear_deadline,omitempty"`
	Notes               *string         `json:"notes,omitempty"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the Jobs API rooted at baseURL, e.g.
// "http://localhost:8080/api/v1".
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// ListJobs fetches the full unpaginated job set.
func (c *Client) ListJobs(ctx context.Context) ([]pipeline.JobRecord, error) {
	var jobs []pipeline.JobRecord
	if err := c.do(ctx, http.MethodGet, "/jobs", nil, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// StageCounts fetches the per-stage aggregate counts.
func (c *Client) StageCounts(ctx context.Context) (map[pipeline.Stage]int, error) {
	raw := map[string]int{}
	if err := c.do(ctx, http.MethodGet, "/jobs/stats", nil, &raw); err != nil {
		return nil, err
	}
	counts := make(map[pipeline.Stage]int, len(raw))
	for k, v := range raw {
		counts[pipeline.ParseStage(k)] += v
	}
	return counts, nil
}

// UpdateJob applies a partial update to a single job.
func (c *Client) UpdateJob(ctx context.Context, id uint, patch JobPatch) error {
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/jobs/%d", id), patch, nil)
}

// BulkUpdateStatus moves every listed job to the target stage in one call.
func (c *Client) BulkUpdateStatus(ctx context.Context, ids []uint, target pipeline.Stage) error {
	body := struct {
		IDs    []uint `json:"ids"`
		Status string `json:"status"`
	}{IDs: ids, Status: string(target)}
	return c.do(ctx, http.MethodPost, "/jobs/bulk/status", body, nil)
}

// BulkUpdateDeadline sets (nil clears) the deadline for every listed job.
func (c *Client) BulkUpdateDeadline(ctx context.Context, ids []uint, deadline *time.Time) error {
	body := struct {
		IDs      []uint     `json:"ids"`
		Deadline *time.Time `json:"deadline"`
	}{IDs: ids, Deadline: deadline}
	return c.do(ctx, http.MethodPost, "/jobs/bulk/deadline", body, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("jobs api: encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("jobs api: %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("jobs api: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("jobs api: %s %s: unexpected status %s", method, path, resp.Status)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("jobs api: decode %s %s: %w", method, path, err)
		}
	}
	return nil
}
