// Package cve looks up vulnerability records from the CIRCL CVE API and
// produces analyst-facing summaries.
package cve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// maxResponseSize limits the CVE API response body.
const maxResponseSize = 1024 * 1024 // 1MB

// ErrNotFound is returned when the upstream has no record for the CVE ID.
var ErrNotFound = errors.New("cve not found")

// cveIDPattern validates identifiers like CVE-2024-12345.
var cveIDPattern = regexp.MustCompile(`^CVE-\d{4}-\d{4,}$`)

// ValidID reports whether s is a well-formed CVE identifier.
func ValidID(s string) bool {
	return cveIDPattern.MatchString(strings.ToUpper(s))
}

// Record is a vulnerability record as returned by the upstream API.
type Record struct {
	ID          string   `json:"id"`
	CVSS        float64  `json:"cvss"`
	Description string   `json:"summary"`
	References  []string `json:"references"`
}

// Client fetches CVE records over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(client *Client) {
		client.logger = logger
	}
}

// NewClient creates a CVE API client for the given base URL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch retrieves the record for the given CVE ID. Unknown IDs return
// ErrNotFound.
func (c *Client) Fetch(ctx context.Context, id string) (*Record, error) {
	id = strings.ToUpper(strings.TrimSpace(id))
	if !ValidID(id) {
		return nil, fmt.Errorf("invalid CVE ID: %s", id)
	}

	url := fmt.Sprintf("%s/cve/%s", c.baseURL, id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cve lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cve API error (status %d)", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	// The upstream answers 200 with a null or empty body for unknown IDs.
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" || trimmed == "null" || trimmed == "{}" {
		return nil, ErrNotFound
	}

	var rec Record
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal cve record: %w", err)
	}
	if rec.ID == "" {
		rec.ID = id
	}

	return &rec, nil
}
