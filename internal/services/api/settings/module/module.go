// Package module wires the settings endpoints into the api
package module

import (
	modkit "lasrouter/internal/modkit"
	"lasrouter/internal/modkit/httpkit"
	sethttp "lasrouter/internal/services/api/settings/http"
	ledger "lasrouter/internal/services/ledger/domain"
)

// Ports is the port set the composition root hands over with modkit.WithPorts
type Ports struct {
	Settings ledger.SettingsPort
}

// Module serves /settings
type Module struct {
	b     modkit.Built
	ports Ports
}

// New builds the settings module; it panics without Ports
func New(_ modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build("settings", append([]modkit.Option{modkit.WithPrefix("/settings")}, opts...)...)
	p, ok := b.Ports.(Ports)
	if !ok || p.Settings == nil {
		panic("settings module requires Ports with a non nil Settings")
	}
	return &Module{b: b, ports: p}
}

// MountRoutes implements modkit.Module
func (m *Module) MountRoutes(r httpkit.Router) {
	m.b.Mount(r, func(rr httpkit.Router) { sethttp.Register(rr, m.ports.Settings) })
}

// Ports implements modkit.Module
func (m *Module) Ports() any { return m.ports }

// Name implements modkit.Module
func (m *Module) Name() string { return m.b.Name }
