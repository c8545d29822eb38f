package modkit

import (
	"testing"

	"lasrouter/internal/modkit/module"
	phttp "lasrouter/internal/platform/net/http"
)

type stub struct {
	mounted bool
	ports   any
}

func (s *stub) MountRoutes(_ phttp.Router) { s.mounted = true }
func (s *stub) Ports() any                 { return s.ports }
func (s *stub) Name() string               { return "stub" }

var _ Module = (*stub)(nil)

func TestBuiltModuleRegisters(t *testing.T) {
	module.Reset()
	t.Cleanup(module.Reset)

	build := func(opts ...Option) Module {
		b := Build("stub", opts...)
		return &stub{ports: b.Name}
	}
	m := build(WithName("renamed"))
	m.MountRoutes(nil)
	if !m.(*stub).mounted {
		t.Fatal("MountRoutes not invoked")
	}
	module.Register(m)
	if got, ok := module.PortsAs[string]("stub"); !ok || got != "renamed" {
		t.Fatalf("PortsAs = %v, %v", got, ok)
	}
}
