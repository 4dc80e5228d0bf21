// Package visionone fetches detection telemetry from the Trend Micro
// Vision One search API.
package visionone

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"visiongraph/pkg/models"
)

// regionEndpoints maps the vendor's region codes to API base URLs.
var regionEndpoints = map[string]string{
	"us": "https://api.xdr.trendmicro.com",
	"eu": "https://api.eu.xdr.trendmicro.com",
	"jp": "https://api.xdr.trendmicro.co.jp",
	"sg": "https://api.sg.xdr.trendmicro.com",
	"au": "https://api.au.xdr.trendmicro.com",
	"in": "https://api.in.xdr.trendmicro.com",
}

// Config configures the search client.
type Config struct {
	Region   string
	Endpoint string // overrides the region map when set
	Token    string
	Timeout  time.Duration
}

// Client calls the detection search endpoint.
type Client struct {
	base   string
	token  string
	client *http.Client
}

// Query describes one detection search.
type Query struct {
	// Filter is the TMV1-Query filter expression; empty matches everything.
	Filter string
	Top    int
	Start  time.Time
	End    time.Time
}

// searchResponse is the vendor response envelope.
type searchResponse struct {
	Items    []map[string]interface{} `json:"items"`
	NextLink string                   `json:"nextLink"`
}

// NewClient creates a search client for a region.
func NewClient(cfg Config) (*Client, error) {
	base := cfg.Endpoint
	if base == "" {
		var ok bool
		base, ok = regionEndpoints[cfg.Region]
		if !ok {
			return nil, fmt.Errorf("unknown region: %q", cfg.Region)
		}
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("api token is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		base:   base,
		token:  cfg.Token,
		client: &http.Client{Timeout: timeout},
	}, nil
}

// SearchDetections fetches one batch of detections. The result is ordered
// as returned by the vendor; pagination beyond the first page is not
// followed (the dashboard operates on a bounded batch per query).
func (c *Client) SearchDetections(ctx context.Context, q Query) ([]*models.Detection, error) {
	endpoint := c.base + "/v3.0/search/detections"

	params := url.Values{}
	if q.Top > 0 {
		params.Set("top", strconv.Itoa(q.Top))
	}
	if !q.Start.IsZero() {
		params.Set("startDateTime", q.Start.UTC().Format(time.RFC3339))
	}
	if !q.End.IsZero() {
		params.Set("endDateTime", q.End.UTC().Format(time.RFC3339))
	}
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if q.Filter != "" {
		req.Header.Set("TMV1-Query", q.Filter)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("search request failed with status %s", resp.Status)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	return models.FromMaps(body.Items), nil
}
