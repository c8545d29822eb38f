package llm

import (
	"net/http"
	"sort"
	"sync"
)

// Provider adapts one HTTP chat API to the shared request flow
type Provider interface {
	// Name is the provider identifier used in settings, e.g. "openai"
	Name() string
	// BuildURL returns the completion endpoint for baseURL, empty means the provider default
	BuildURL(baseURL string) string
	// HealthURL returns a cheap GET endpoint used by the health prober
	HealthURL(baseURL string) string
	// SetHeaders adds auth and provider headers
	SetHeaders(req *http.Request, apiKey string)
	// BuildRequestBody encodes the chat request
	BuildRequestBody(model string, messages []Message, temperature *float64, maxTokens int) ([]byte, error)
	// ParseResponse extracts the assistant text
	ParseResponse(body []byte) (*Response, error)
}

var (
	providerMu       sync.RWMutex
	providerRegistry = map[string]Provider{}
)

// RegisterProvider adds p to the registry, replacing any provider with the same name
func RegisterProvider(p Provider) {
	providerMu.Lock()
	defer providerMu.Unlock()
	providerRegistry[p.Name()] = p
}

// GetProvider returns the registered provider or nil
func GetProvider(name string) Provider {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return providerRegistry[name]
}

// ListProviders returns registered provider names plus the SDK backed ones, sorted
func ListProviders() []string {
	providerMu.RLock()
	names := make([]string, 0, len(providerRegistry)+1)
	for name := range providerRegistry {
		names = append(names, name)
	}
	providerMu.RUnlock()
	names = append(names, ProviderGemini)
	sort.Strings(names)
	return names
}
