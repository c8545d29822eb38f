package providers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"lasrouter/internal/adapters/llm"
)

const anthropicVersion = "2023-06-01"

// AnthropicProvider implements the messages API
type AnthropicProvider struct{}

func init() { llm.RegisterProvider(&AnthropicProvider{}) }

// Name returns the provider identifier
func (a *AnthropicProvider) Name() string { return "anthropic" }

// BuildURL returns the messages endpoint
func (a *AnthropicProvider) BuildURL(baseURL string) string {
	return strings.TrimSuffix(baseOr(baseURL, "https://api.anthropic.com"), "/") + "/v1/messages"
}

// HealthURL returns the model listing endpoint
func (a *AnthropicProvider) HealthURL(baseURL string) string {
	return strings.TrimSuffix(baseOr(baseURL, "https://api.anthropic.com"), "/") + "/v1/models"
}

// SetHeaders adds the api key and version headers
func (a *AnthropicProvider) SetHeaders(req *http.Request, apiKey string) {
	if apiKey != "" {
		req.Header.Set("x-api-key", apiKey)
	}
	req.Header.Set("anthropic-version", anthropicVersion)
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature *float64           `json:"temperature,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// BuildRequestBody lifts the system message into the top level field
func (a *AnthropicProvider) BuildRequestBody(model string, messages []llm.Message, temperature *float64, maxTokens int) ([]byte, error) {
	req := anthropicRequest{Model: model, MaxTokens: maxTokens, Temperature: temperature}
	if req.MaxTokens <= 0 {
		req.MaxTokens = 1024
	}
	for _, m := range messages {
		if m.Role == "system" {
			req.System = m.Content
			continue
		}
		req.Messages = append(req.Messages, anthropicMessage{Role: m.Role, Content: m.Content})
	}
	return json.Marshal(req)
}

type anthropicResponse struct {
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// ParseResponse concatenates text blocks
func (a *AnthropicProvider) ParseResponse(body []byte) (*llm.Response, error) {
	var resp anthropicResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse anthropic response: %w", err)
	}
	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return &llm.Response{
		Content:      b.String(),
		Model:        resp.Model,
		FinishReason: resp.StopReason,
		TokensUsed:   resp.Usage.InputTokens + resp.Usage.OutputTokens,
	}, nil
}
