// Package module mounts the live event stream
package module

import (
	modkit "lasrouter/internal/modkit"
	"lasrouter/internal/modkit/httpkit"
	broadcast "lasrouter/internal/services/broadcast/service"
)

// Ports is the port set the composition root hands over with modkit.WithPorts
type Ports struct {
	Hub *broadcast.Hub
	WS  broadcast.WSOptions
}

// Module serves the /events websocket; it must not carry a request timeout
type Module struct {
	b     modkit.Built
	ports Ports
}

// New builds the events module; it panics without a hub
func New(_ modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build("events", append([]modkit.Option{modkit.WithPrefix("/events")}, opts...)...)
	p, ok := b.Ports.(Ports)
	if !ok || p.Hub == nil {
		panic("events module requires Ports with a non nil Hub")
	}
	return &Module{b: b, ports: p}
}

// MountRoutes implements modkit.Module
func (m *Module) MountRoutes(r httpkit.Router) {
	h := broadcast.Handler(m.ports.Hub, m.ports.WS)
	m.b.Mount(r, func(rr httpkit.Router) { rr.Handle("/", h) })
}

// Ports implements modkit.Module
func (m *Module) Ports() any { return m.ports }

// Name implements modkit.Module
func (m *Module) Name() string { return m.b.Name }
