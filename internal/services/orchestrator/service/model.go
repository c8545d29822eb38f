package service

import (
	"context"

	"lasrouter/internal/adapters/llm"
	_ "lasrouter/internal/adapters/llm/providers"
	"lasrouter/internal/core/resolver"
)

// ModelClient adapts the llm client to the resolver generator and the health pinger
type ModelClient struct {
	Client *llm.Client
}

// Generate implements resolver.Generator
func (m ModelClient) Generate(ctx context.Context, mc resolver.ModelConfig, system, user string) (string, error) {
	return m.Client.Generate(ctx, endpoint(mc), system, user)
}

// Ping implements the intent source probe
func (m ModelClient) Ping(ctx context.Context, mc resolver.ModelConfig) error {
	return m.Client.Ping(ctx, endpoint(mc))
}

func endpoint(mc resolver.ModelConfig) llm.Endpoint {
	return llm.Endpoint{Provider: mc.Provider, Model: mc.Model, BaseURL: mc.Endpoint, APIKey: mc.APIKey}
}
