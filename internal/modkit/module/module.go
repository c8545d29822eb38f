// Package module holds the module contract and the bootstrap port registry
// it sits apart from modkit so port packages can import it without cycles
package module

import (
	phttp "lasrouter/internal/platform/net/http"
)

// Module is the contract the registry and port lookups work against
type Module interface {
	MountRoutes(r phttp.Router)
	Ports() any
	Name() string
}
