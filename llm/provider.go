package llm

import (
	"net/http"
	"sync"
)

// Provider adapts one upstream completion API. Implementations register
// themselves via RegisterProvider in an init function; the client resolves
// them by the name carried in each endpoint config.
type Provider interface {
	// Name returns the provider identifier (e.g. "openai", "ollama").
	Name() string

	// BuildURL constructs the full completions endpoint from a base URL.
	// An empty base URL selects the provider's default.
	BuildURL(baseURL string) string

	// SetHeaders adds provider-specific auth headers to the request.
	SetHeaders(req *http.Request)

	// BuildRequestBody serializes the request in the provider's wire format.
	// A nil temperature means provider default; maxTokens 0 means unbounded.
	BuildRequestBody(model string, messages []Message, temperature *float64, maxTokens int) ([]byte, error)

	// ParseResponse extracts the completion from the provider's response body.
	ParseResponse(body []byte, model string) (*Response, error)
}

var (
	providerRegistry = make(map[string]Provider)
	providerMu       sync.RWMutex
)

// RegisterProvider adds a provider to the registry, replacing any previous
// provider with the same name.
func RegisterProvider(p Provider) {
	providerMu.Lock()
	defer providerMu.Unlock()
	providerRegistry[p.Name()] = p
}

// GetProvider retrieves a provider by name, nil if unregistered.
func GetProvider(name string) Provider {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return providerRegistry[name]
}

// ListProviders returns all registered provider names.
func ListProviders() []string {
	providerMu.RLock()
	defer providerMu.RUnlock()

	names := make([]string, 0, len(providerRegistry))
	for name := range providerRegistry {
		names = append(names, name)
	}
	return names
}
