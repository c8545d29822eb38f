// Package resolver maps free request text to one catalog triple
// Tiers run in a fixed order: literal override, model, keyword fallback. Resolve always returns a triple
package resolver

import (
	"context"
	"strings"
	"time"

	"lasrouter/internal/core/catalog"
	"lasrouter/internal/platform/config"
)

// Source names the tier that produced a resolution
type Source string

const (
	SourceRule     Source = "rule"
	SourceModel    Source = "model"
	SourceFallback Source = "fallback"
)

// Resolution is the transient result of one Resolve call
type Resolution struct {
	Triple     *catalog.Triple `json:"triple"`
	Confidence float64         `json:"confidence"`
	Reasoning  string          `json:"reasoning"`
	Source     Source          `json:"source"`
}

// ModelConfig selects the external text generation endpoint
type ModelConfig struct {
	Provider string        `json:"provider"`
	Model    string        `json:"model"`
	Endpoint string        `json:"endpoint,omitempty"`
	APIKey   string        `json:"apiKey,omitempty"`
	Timeout  time.Duration `json:"-"`
}

// Enabled reports whether a model call should be attempted
func (m *ModelConfig) Enabled() bool {
	if m == nil {
		return false
	}
	p := strings.ToLower(strings.TrimSpace(m.Provider))
	return p != "" && p != "none" && strings.TrimSpace(m.Model) != ""
}

// ModelConfigFromEnv reads MODEL_* keys under cfg; a missing provider yields a disabled config
func ModelConfigFromEnv(cfg config.Conf) ModelConfig {
	c := cfg.Prefix("MODEL_")
	return ModelConfig{
		Provider: c.MayEnum("PROVIDER", "none", "none", "openai", "ollama", "anthropic", "gemini"),
		Model:    c.MayString("NAME", ""),
		Endpoint: c.MayString("ENDPOINT", ""),
		APIKey:   c.MayString("API_KEY", ""),
		Timeout:  c.MayDuration("TIMEOUT", 30*time.Second),
	}
}

// Generator sends a system and user prompt to the configured model and returns raw text
type Generator interface {
	Generate(ctx context.Context, cfg ModelConfig, system, user string) (string, error)
}

// GeneratorFunc adapts a function to Generator
type GeneratorFunc func(ctx context.Context, cfg ModelConfig, system, user string) (string, error)

// Generate calls f
func (f GeneratorFunc) Generate(ctx context.Context, cfg ModelConfig, system, user string) (string, error) {
	return f(ctx, cfg, system, user)
}

// Options tunes the fixed confidences of the deterministic tiers
type Options struct {
	RuleConfidence     float64
	FallbackConfidence float64
	DefaultConfidence  float64
	ModelTimeout       time.Duration
}

// DefaultOptions are the confidences the gate threshold is tuned against
func DefaultOptions() Options {
	return Options{
		RuleConfidence:     0.95,
		FallbackConfidence: 0.7,
		DefaultConfidence:  0.05,
		ModelTimeout:       30 * time.Second,
	}
}

// FromConfig reads RESOLVER_* overrides
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("RESOLVER_")
	d := DefaultOptions()
	return Options{
		RuleConfidence:     clamp(c.MayFloat64("RULE_CONFIDENCE", d.RuleConfidence)),
		FallbackConfidence: clamp(c.MayFloat64("FALLBACK_CONFIDENCE", d.FallbackConfidence)),
		DefaultConfidence:  clamp(c.MayFloat64("DEFAULT_CONFIDENCE", d.DefaultConfidence)),
		ModelTimeout:       c.MayDuration("MODEL_TIMEOUT", d.ModelTimeout),
	}
}

func clamp(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}
