// Package module wires the request read endpoints into the api
package module

import (
	modkit "lasrouter/internal/modkit"
	"lasrouter/internal/modkit/httpkit"
	reqhttp "lasrouter/internal/services/api/requests/http"
	ledger "lasrouter/internal/services/ledger/domain"
)

// Ports is the port set the composition root hands over with modkit.WithPorts
type Ports struct {
	Reader ledger.ReaderPort
}

// Module serves /requests
type Module struct {
	b     modkit.Built
	ports Ports
}

// New builds the requests module; it panics without Ports
func New(_ modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build("requests", append([]modkit.Option{modkit.WithPrefix("/requests")}, opts...)...)
	p, ok := b.Ports.(Ports)
	if !ok || p.Reader == nil {
		panic("requests module requires Ports with a non nil Reader")
	}
	return &Module{b: b, ports: p}
}

// MountRoutes implements modkit.Module
func (m *Module) MountRoutes(r httpkit.Router) {
	m.b.Mount(r, func(rr httpkit.Router) { reqhttp.Register(rr, m.ports.Reader) })
}

// Ports implements modkit.Module
func (m *Module) Ports() any { return m.ports }

// Name implements modkit.Module
func (m *Module) Name() string { return m.b.Name }
