// Package module wires meta endpoints into the API using a tiny module
package module

import (
	"time"

	modkit "lasrouter/internal/modkit"
	"lasrouter/internal/modkit/httpkit"
	metahttp "lasrouter/internal/services/api/meta/http"
)

// Ports carries the readiness checks; all optional
type Ports struct {
	Checks map[string]metahttp.Pinger
}

// Module serves /meta
type Module struct {
	b         modkit.Built
	ports     Ports
	startedAt time.Time
}

// New constructs a meta module with the provided dependencies and options
func New(_ modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build("meta", append([]modkit.Option{
		modkit.WithPrefix("/meta"),
		modkit.WithTimeout(5 * time.Second),
	}, opts...)...)
	p, _ := b.Ports.(Ports)
	return &Module{b: b, ports: p, startedAt: time.Now()}
}

// MountRoutes implements the modkit.Module interface
func (m *Module) MountRoutes(r httpkit.Router) {
	m.b.Mount(r, func(rr httpkit.Router) {
		metahttp.Register(rr, metahttp.Deps{
			ServiceName: "lasrouter",
			StartedAt:   m.startedAt,
			Checks:      m.ports.Checks,
		})
	})
}

// Ports implements the modkit.Module interface
func (m *Module) Ports() any { return m.ports }

// Name implements the modkit.Module interface
func (m *Module) Name() string { return m.b.Name }
