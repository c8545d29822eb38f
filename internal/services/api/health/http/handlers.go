// Package http provides the component health endpoints
package http

import (
	"context"
	stdhttp "net/http"

	"lasrouter/internal/modkit/httpkit"
	ledger "lasrouter/internal/services/ledger/domain"
)

// Prober runs an on-demand probe of every component
type Prober interface {
	ProbeHealth(ctx context.Context) ([]ledger.HealthRecord, error)
}

// Register mounts the health routes
func Register(r httpkit.Router, hp ledger.HealthPort, p Prober) {
	h := &handlers{health: hp, prober: p}
	httpkit.Get(r, "/", h.snapshot)
	httpkit.Post(r, "/probe", h.probe)
}

type handlers struct {
	health ledger.HealthPort
	prober Prober
}

// @Summary Last recorded health per component
// @Tags Health
// @Produce json
// @Success 200 {array} ledger.HealthRecord "ok"
// @Router /health [get]
func (h *handlers) snapshot(r *stdhttp.Request) (any, error) {
	return h.health.ComponentHealth(r.Context())
}

// @Summary Probe every component now
// @Tags Health
// @Produce json
// @Success 200 {array} ledger.HealthRecord "ok"
// @Router /health/probe [post]
func (h *handlers) probe(r *stdhttp.Request) (any, error) {
	return h.prober.ProbeHealth(r.Context())
}
