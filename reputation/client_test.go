package reputation

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupJSON(malicious int) map[string]any {
	return map[string]any{
		"data": map[string]any{
			"attributes": map[string]any{
				"last_analysis_stats": map[string]any{
					"malicious":  malicious,
					"harmless":   80,
					"suspicious": 1,
				},
			},
		},
	}
}

func TestClientIPVotes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ip_addresses/94.130.10.120", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-apikey"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(lookupJSON(7))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")

	votes, err := client.IPVotes(context.Background(), "94.130.10.120")
	require.NoError(t, err)
	assert.Equal(t, 7, votes)
}

func TestClientURLVotesEncodesIndicator(t *testing.T) {
	rawURL := "http://evil.example/login?a=b"
	wantID := base64.RawURLEncoding.EncodeToString([]byte(rawURL))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/urls/"+wantID, r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(lookupJSON(2))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")

	votes, err := client.URLVotes(context.Background(), rawURL)
	require.NoError(t, err)
	assert.Equal(t, 2, votes)
}

func TestClientNon200IsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")

	_, err := client.IPVotes(context.Background(), "1.2.3.4")
	assert.Error(t, err)
}

func TestClientBreakerOpensAfterRepeatedFailures(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")

	// Trip the breaker with consecutive failures, then keep calling.
	for i := 0; i < 10; i++ {
		_, err := client.IPVotes(context.Background(), "1.2.3.4")
		assert.Error(t, err)
	}

	// The open breaker sheds requests before they reach the provider.
	assert.Less(t, int(hits.Load()), 10)
}
