package modkit

import (
	"net/http"
	"time"

	"lasrouter/internal/modkit/httpkit"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// Built is the resolved option set a module keeps after construction
type Built struct {
	Name    string
	Prefix  string
	Mw      []func(http.Handler) http.Handler
	Ports   any
	Timeout time.Duration
}

// Build applies options over defaults; def is used when WithName is absent
func Build(def string, opts ...Option) Built {
	c := buildCfg{name: def}
	for _, o := range opts {
		o(&c)
	}
	mw := append([]func(http.Handler) http.Handler(nil), c.mw...)
	if c.timeout > 0 {
		mw = append(mw, chimw.Timeout(c.timeout))
	}
	return Built{
		Name:    c.name,
		Prefix:  c.prefix,
		Mw:      mw,
		Ports:   c.ports,
		Timeout: c.timeout,
	}
}

// Mount registers routes under the built prefix with the built middleware
// with no prefix the routes land in a group on r so middleware stays scoped
func (b Built) Mount(r httpkit.Router, register func(httpkit.Router)) {
	if b.Prefix == "" {
		r.Group(func(g httpkit.Router) {
			if len(b.Mw) > 0 {
				g.Use(b.Mw...)
			}
			register(g)
		})
		return
	}
	httpkit.MountUnder(r, b.Prefix, b.Mw, register)
}
