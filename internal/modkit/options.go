package modkit

import (
	"net/http"
	"time"
)

// Option mutates build configuration for a module
type Option func(*buildCfg)

type buildCfg struct {
	name    string
	prefix  string
	mw      []func(http.Handler) http.Handler
	ports   any
	timeout time.Duration
}

// WithName sets a module name used in logs and the registry
func WithName(name string) Option {
	return func(c *buildCfg) { c.name = name }
}

// WithPrefix mounts a module under a path prefix below /api/v1
func WithPrefix(prefix string) Option {
	return func(c *buildCfg) { c.prefix = prefix }
}

// WithMiddlewares attaches per module middleware in order
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(c *buildCfg) { c.mw = append(c.mw, mw...) }
}

// WithPorts injects a port set owned by another module
func WithPorts[T any](p T) Option {
	return func(c *buildCfg) { c.ports = p }
}

// WithTimeout bounds every request served by the module, 0 means no bound
// long polling and streaming modules leave this unset
func WithTimeout(d time.Duration) Option {
	return func(c *buildCfg) { c.timeout = d }
}
