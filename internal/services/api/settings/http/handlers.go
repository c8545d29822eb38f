// Package http provides the model provider settings endpoints
package http

import (
	stdhttp "net/http"

	"lasrouter/internal/modkit/httpkit"
	ledger "lasrouter/internal/services/ledger/domain"
)

// ModelIn selects the model used by the resolver
// sending the redacted key back keeps the stored one
type ModelIn struct {
	Provider string `json:"provider" validate:"required,oneof=none openai ollama anthropic gemini"`
	Model    string `json:"model" validate:"max=200"`
	Endpoint string `json:"endpoint,omitempty" validate:"omitempty,url"`
	APIKey   string `json:"apiKey,omitempty" validate:"max=500"`
}

// ModelOut is the redacted read model
type ModelOut struct {
	Configured bool `json:"configured"`
	ledger.ModelConfig
}

// Register mounts the settings routes
func Register(r httpkit.Router, sp ledger.SettingsPort) {
	h := &handlers{sp: sp}
	httpkit.Get(r, "/model", h.getModel)
	httpkit.PutJSON[ModelIn](r, "/model", h.putModel)
}

type handlers struct{ sp ledger.SettingsPort }

// @Summary Current model provider, API key redacted
// @Tags Settings
// @Produce json
// @Success 200 {object} ModelOut "ok"
// @Router /settings/model [get]
func (h *handlers) getModel(r *stdhttp.Request) (any, error) {
	cfg, err := h.sp.ModelConfig(r.Context())
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return ModelOut{ModelConfig: ledger.ModelConfig{Provider: "none"}}, nil
	}
	return ModelOut{Configured: true, ModelConfig: cfg.Redacted()}, nil
}

// @Summary Replace the model provider selection
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body ModelIn true "Model settings"
// @Success 200 {object} ModelOut "ok"
// @Failure 422 {object} httpkit.Envelope "invalid settings"
// @Router /settings/model [put]
func (h *handlers) putModel(r *stdhttp.Request, in ModelIn) (any, error) {
	saved, err := h.sp.SetModelConfig(r.Context(), ledger.ModelConfig{
		Provider: in.Provider,
		Model:    in.Model,
		Endpoint: in.Endpoint,
		APIKey:   in.APIKey,
	})
	if err != nil {
		return nil, err
	}
	return ModelOut{Configured: true, ModelConfig: saved.Redacted()}, nil
}
