// Package module wires the health endpoints into the api
package module

import (
	"time"

	modkit "lasrouter/internal/modkit"
	"lasrouter/internal/modkit/httpkit"
	healthhttp "lasrouter/internal/services/api/health/http"
	ledger "lasrouter/internal/services/ledger/domain"
)

// Ports is the port set the composition root hands over with modkit.WithPorts
type Ports struct {
	Health ledger.HealthPort
	Prober healthhttp.Prober
}

// Module serves /health
type Module struct {
	b     modkit.Built
	ports Ports
}

// New builds the health module; probes are bounded by a 30s request timeout unless overridden
func New(_ modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build("health", append([]modkit.Option{
		modkit.WithPrefix("/health"),
		modkit.WithTimeout(30 * time.Second),
	}, opts...)...)
	p, ok := b.Ports.(Ports)
	if !ok || p.Health == nil || p.Prober == nil {
		panic("health module requires Ports with non nil Health and Prober")
	}
	return &Module{b: b, ports: p}
}

// MountRoutes implements modkit.Module
func (m *Module) MountRoutes(r httpkit.Router) {
	m.b.Mount(r, func(rr httpkit.Router) { healthhttp.Register(rr, m.ports.Health, m.ports.Prober) })
}

// Ports implements modkit.Module
func (m *Module) Ports() any { return m.ports }

// Name implements modkit.Module
func (m *Module) Name() string { return m.b.Name }
