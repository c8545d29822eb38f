// Package module wires the catalog endpoints into the api
package module

import (
	"lasrouter/internal/core/catalog"
	modkit "lasrouter/internal/modkit"
	"lasrouter/internal/modkit/httpkit"
	cathttp "lasrouter/internal/services/api/catalog/http"
)

// Ports is the port set the composition root hands over with modkit.WithPorts
type Ports struct {
	Catalog *catalog.Catalog
	Files   cathttp.FileLister
}

// Module serves /catalog
type Module struct {
	b     modkit.Built
	ports Ports
}

// New builds the catalog module; it panics without Ports
func New(_ modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build("catalog", append([]modkit.Option{modkit.WithPrefix("/catalog")}, opts...)...)
	p, ok := b.Ports.(Ports)
	if !ok || p.Catalog == nil || p.Files == nil {
		panic("catalog module requires Ports with non nil Catalog and Files")
	}
	return &Module{b: b, ports: p}
}

// MountRoutes implements modkit.Module
func (m *Module) MountRoutes(r httpkit.Router) {
	m.b.Mount(r, func(rr httpkit.Router) { cathttp.Register(rr, m.ports.Catalog, m.ports.Files) })
}

// Ports implements modkit.Module
func (m *Module) Ports() any { return m.ports }

// Name implements modkit.Module
func (m *Module) Name() string { return m.b.Name }
