// Package reputation enriches extracted indicators with third-party
// reputation verdicts. Lookups are best-effort: provider failures degrade to
// Unknown and are never surfaced to the caller.
package reputation

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

// DefaultSourceLabel identifies the reputation provider in findings.
const DefaultSourceLabel = "VirusTotal"

// maxLookupResponseSize caps provider response bodies.
const maxLookupResponseSize = 1 << 20 // 1 MB

// Client talks to a VirusTotal-style reputation API: HTTP GET, API key
// header, indicator encoded in the path. A circuit breaker sheds load when
// the provider fails repeatedly; an open circuit reads as a lookup failure,
// which the enricher degrades to Unknown.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTimeout sets the per-lookup timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// NewClient creates a reputation provider client.
func NewClient(baseURL, apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "reputation-provider",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("Reputation breaker state change",
				"breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return c
}

// URLVotes returns the provider's malicious vote count for a URL.
// The URL is base64url-encoded into the request path per the provider's
// identifier scheme.
func (c *Client) URLVotes(ctx context.Context, url string) (int, error) {
	id := base64.RawURLEncoding.EncodeToString([]byte(url))
	return c.lookup(ctx, c.baseURL+"/urls/"+id)
}

// IPVotes returns the provider's malicious vote count for an IPv4 address.
func (c *Client) IPVotes(ctx context.Context, ip string) (int, error) {
	return c.lookup(ctx, c.baseURL+"/ip_addresses/"+ip)
}

// lookupResponse is the subset of the provider payload we consume.
type lookupResponse struct {
	Data struct {
		Attributes struct {
			LastAnalysisStats struct {
				Malicious int `json:"malicious"`
			} `json:"last_analysis_stats"`
		} `json:"attributes"`
	} `json:"data"`
}

func (c *Client) lookup(ctx context.Context, url string) (int, error) {
	votes, err := c.breaker.Execute(func() (any, error) {
		return c.doLookup(ctx, url)
	})
	if err != nil {
		return 0, err
	}
	return votes.(int), nil
}

func (c *Client) doLookup(ctx context.Context, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("create lookup request: %w", err)
	}
	req.Header.Set("x-apikey", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("reputation lookup failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxLookupResponseSize))
	if err != nil {
		return 0, fmt.Errorf("read lookup response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("reputation provider returned status %d", resp.StatusCode)
	}

	var parsed lookupResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, fmt.Errorf("parse lookup response: %w", err)
	}

	return parsed.Data.Attributes.LastAnalysisStats.Malicious, nil
}
