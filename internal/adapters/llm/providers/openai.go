package providers

import (
	"net/http"
	"os"

	"lasrouter/internal/adapters/llm"
)

// OpenAIProvider targets api.openai.com or OpenRouter; wire format is shared with Ollama
type OpenAIProvider struct {
	OllamaProvider
}

func init() { llm.RegisterProvider(&OpenAIProvider{}) }

// Name returns the provider identifier
func (o *OpenAIProvider) Name() string { return "openai" }

// BuildURL returns the chat completions endpoint
func (o *OpenAIProvider) BuildURL(baseURL string) string {
	return completionsURL(baseURL, "https://api.openai.com/v1")
}

// HealthURL returns the model listing endpoint
func (o *OpenAIProvider) HealthURL(baseURL string) string {
	return modelsURL(baseURL, "https://api.openai.com/v1")
}

// SetHeaders adds bearer auth and the optional OpenRouter attribution headers
func (o *OpenAIProvider) SetHeaders(req *http.Request, apiKey string) {
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	if site := os.Getenv("OPENROUTER_SITE_URL"); site != "" {
		req.Header.Set("HTTP-Referer", site)
	}
	if name := os.Getenv("OPENROUTER_SITE_NAME"); name != "" {
		req.Header.Set("X-Title", name)
	}
}
