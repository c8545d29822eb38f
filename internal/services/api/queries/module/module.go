// Package module wires the query endpoints into the api
package module

import (
	modkit "lasrouter/internal/modkit"
	"lasrouter/internal/modkit/httpkit"
	queryhttp "lasrouter/internal/services/api/queries/http"
)

// Ports is the port set the composition root hands over with modkit.WithPorts
type Ports struct {
	Queries queryhttp.Service
}

// Module serves /queries
type Module struct {
	b     modkit.Built
	ports Ports
}

// New builds the queries module; it panics without Ports
func New(_ modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build("queries", append([]modkit.Option{modkit.WithPrefix("/queries")}, opts...)...)
	p, ok := b.Ports.(Ports)
	if !ok || p.Queries == nil {
		panic("queries module requires Ports with a non nil Queries")
	}
	return &Module{b: b, ports: p}
}

// MountRoutes implements modkit.Module
func (m *Module) MountRoutes(r httpkit.Router) {
	m.b.Mount(r, func(rr httpkit.Router) { queryhttp.Register(rr, m.ports.Queries) })
}

// Ports implements modkit.Module
func (m *Module) Ports() any { return m.ports }

// Name implements modkit.Module
func (m *Module) Name() string { return m.b.Name }
