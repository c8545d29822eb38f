// Package llm talks to external text generation endpoints
// HTTP providers register themselves from the providers package; gemini goes through the genai SDK
package llm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"lasrouter/internal/platform/logger"
)

// ProviderGemini is served by the genai SDK rather than a registered HTTP provider
const ProviderGemini = "gemini"

// Message is one chat turn
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Response is the parsed provider reply
type Response struct {
	Content      string
	Model        string
	FinishReason string
	TokensUsed   int
}

// Endpoint selects a provider, model and credentials for one call
type Endpoint struct {
	Provider string
	Model    string
	BaseURL  string
	APIKey   string
}

// RetryConfig bounds retries of transient failures; the caller context bounds total time
type RetryConfig struct {
	MaxAttempts int
	Backoff     time.Duration
}

// DefaultRetryConfig retries once after a short pause
func DefaultRetryConfig() RetryConfig { return RetryConfig{MaxAttempts: 2, Backoff: 500 * time.Millisecond} }

// Options configures a Client
type Options struct {
	HTTPClient  *http.Client
	Retry       RetryConfig
	Temperature float64
	MaxTokens   int
}

// Client sends single system+user prompts to the configured endpoint
type Client struct {
	http   *http.Client
	retry  RetryConfig
	temp   float64
	tokens int
	gemini geminiFactory
	log    *logger.Logger
}

// NewClient builds a Client; zero options get sane defaults
func NewClient(opt Options) *Client {
	hc := opt.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 60 * time.Second}
	}
	r := opt.Retry
	if r.MaxAttempts <= 0 {
		r = DefaultRetryConfig()
	}
	tokens := opt.MaxTokens
	if tokens <= 0 {
		tokens = 512
	}
	return &Client{
		http:   hc,
		retry:  r,
		temp:   opt.Temperature,
		tokens: tokens,
		gemini: newGenaiGenerator,
		log:    logger.Named("llm"),
	}
}

// Generate sends system and user prompts and returns the raw assistant text
func (c *Client) Generate(ctx context.Context, ep Endpoint, system, user string) (string, error) {
	ep.Provider = strings.ToLower(strings.TrimSpace(ep.Provider))
	if ep.Model == "" {
		return "", NewFatalError(fmt.Errorf("no model configured for provider %q", ep.Provider))
	}

	var lastErr error
	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		out, err := c.once(ctx, ep, system, user)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !IsTransient(err) || attempt == c.retry.MaxAttempts {
			break
		}
		c.log.Debug().Err(err).Int("attempt", attempt).Str("provider", ep.Provider).Msg("transient model error; retrying")
		select {
		case <-ctx.Done():
			return "", NewTransientError(ctx.Err())
		case <-time.After(c.retry.Backoff * time.Duration(attempt)):
		}
	}
	return "", lastErr
}

func (c *Client) once(ctx context.Context, ep Endpoint, system, user string) (string, error) {
	if ep.Provider == ProviderGemini {
		g, err := c.gemini(ctx, ep)
		if err != nil {
			return "", err
		}
		return g.generate(ctx, ep.Model, system, user, c.temp, c.tokens)
	}

	p := GetProvider(ep.Provider)
	if p == nil {
		return "", NewFatalError(fmt.Errorf("unknown provider: %s", ep.Provider))
	}
	temp := c.temp
	body, err := p.BuildRequestBody(ep.Model, []Message{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}, &temp, c.tokens)
	if err != nil {
		return "", NewFatalError(fmt.Errorf("build request body: %w", err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BuildURL(ep.BaseURL), bytes.NewReader(body))
	if err != nil {
		return "", NewFatalError(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	p.SetHeaders(req, apiKey(ep))

	respBody, status, err := c.do(req)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", classifyHTTPError(status, respBody)
	}
	resp, err := p.ParseResponse(respBody)
	if err != nil {
		return "", NewFatalError(err)
	}
	return resp.Content, nil
}

// Ping checks that the endpoint answers with the configured credentials
func (c *Client) Ping(ctx context.Context, ep Endpoint) error {
	ep.Provider = strings.ToLower(strings.TrimSpace(ep.Provider))
	if ep.Provider == ProviderGemini {
		g, err := c.gemini(ctx, ep)
		if err != nil {
			return err
		}
		return g.ping(ctx, ep.Model)
	}
	p := GetProvider(ep.Provider)
	if p == nil {
		return NewFatalError(fmt.Errorf("unknown provider: %s", ep.Provider))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.HealthURL(ep.BaseURL), nil)
	if err != nil {
		return NewFatalError(err)
	}
	p.SetHeaders(req, apiKey(ep))
	body, status, err := c.do(req)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return classifyHTTPError(status, body)
	}
	return nil
}

func (c *Client) do(req *http.Request) ([]byte, int, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, NewTransientError(fmt.Errorf("http request failed: %w", err))
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, 0, NewTransientError(fmt.Errorf("read response body: %w", err))
	}
	return b, resp.StatusCode, nil
}

// apiKeyEnv names the fallback env var per provider
var apiKeyEnv = map[string]string{
	"openai":       "OPENAI_API_KEY",
	"ollama":       "OPENAI_API_KEY",
	"anthropic":    "ANTHROPIC_API_KEY",
	ProviderGemini: "GEMINI_API_KEY",
}

func apiKey(ep Endpoint) string {
	if ep.APIKey != "" {
		return ep.APIKey
	}
	if env, ok := apiKeyEnv[ep.Provider]; ok {
		return os.Getenv(env)
	}
	return ""
}
