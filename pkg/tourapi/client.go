// Package tourapi implements the client for the remote tour catalog API.
package tourapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// Record is a single tour record exactly as the catalog API returned it.
// Field names and value shapes vary across deployments; normalization is
// the caller's concern.
type Record map[string]any

// Client fetches tour records from the catalog endpoint.
type Client struct {
	baseURL string
	rc      *resty.Client
}

// Config holds settings for the catalog API client.
type Config struct {
	// BaseURL is the full URL of the package listing endpoint,
	// e.g. "https://api.example.com/api/packages/".
	BaseURL string

	// Timeout bounds a single catalog fetch. Defaults to 30s.
	Timeout time.Duration
}

// NewClient creates a catalog API client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		rc:      resty.New().SetTimeout(timeout),
	}
}

// ListTours fetches the full tour record list. A response that is not a
// JSON array is an error; the caller decides whether that is fatal.
func (c *Client) ListTours(ctx context.Context) ([]Record, error) {
	resp, err := c.rc.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		Get(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("fetch tour packages: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("catalog endpoint returned %s", resp.Status())
	}

	var records []Record
	if err := json.Unmarshal(resp.Body(), &records); err != nil {
		return nil, fmt.Errorf("decode tour packages: %w", err)
	}

	return records, nil
}
