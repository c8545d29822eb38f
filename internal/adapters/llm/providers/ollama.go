// Package providers registers the HTTP chat providers with the llm package
// import it for side effects from the composition root
package providers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"lasrouter/internal/adapters/llm"
)

// OllamaProvider speaks the OpenAI compatible API served by Ollama, vLLM and friends
type OllamaProvider struct{}

func init() { llm.RegisterProvider(&OllamaProvider{}) }

// Name returns the provider identifier
func (o *OllamaProvider) Name() string { return "ollama" }

// BuildURL returns the chat completions endpoint
func (o *OllamaProvider) BuildURL(baseURL string) string {
	return completionsURL(baseURL, "http://localhost:11434/v1")
}

// HealthURL returns the model listing endpoint
func (o *OllamaProvider) HealthURL(baseURL string) string {
	return modelsURL(baseURL, "http://localhost:11434/v1")
}

// SetHeaders adds a bearer token when one is configured, local servers usually need none
func (o *OllamaProvider) SetHeaders(req *http.Request, apiKey string) {
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
}

type openAIRequest struct {
	Model          string          `json:"model"`
	Messages       []openAIMessage `json:"messages"`
	Temperature    *float64        `json:"temperature,omitempty"`
	MaxTokens      *int            `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

// BuildRequestBody asks for a JSON object reply
func (o *OllamaProvider) BuildRequestBody(model string, messages []llm.Message, temperature *float64, maxTokens int) ([]byte, error) {
	msgs := make([]openAIMessage, len(messages))
	for i, m := range messages {
		msgs[i] = openAIMessage{Role: m.Role, Content: m.Content}
	}
	req := openAIRequest{
		Model:          model,
		Messages:       msgs,
		Temperature:    temperature,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}
	if maxTokens > 0 {
		req.MaxTokens = &maxTokens
	}
	return json.Marshal(req)
}

type openAIResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// ParseResponse extracts the first choice
func (o *OllamaProvider) ParseResponse(body []byte) (*llm.Response, error) {
	var resp openAIResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse openai response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}
	return &llm.Response{
		Content:      resp.Choices[0].Message.Content,
		Model:        resp.Model,
		FinishReason: resp.Choices[0].FinishReason,
		TokensUsed:   resp.Usage.TotalTokens,
	}, nil
}

func completionsURL(baseURL, def string) string {
	base := strings.TrimSuffix(baseOr(baseURL, def), "/")
	if strings.HasSuffix(base, "/chat/completions") {
		return base
	}
	return base + "/chat/completions"
}

func modelsURL(baseURL, def string) string {
	base := strings.TrimSuffix(baseOr(baseURL, def), "/")
	return strings.TrimSuffix(base, "/chat/completions") + "/models"
}

func baseOr(baseURL, def string) string {
	if strings.TrimSpace(baseURL) == "" {
		return def
	}
	return strings.TrimSpace(baseURL)
}
