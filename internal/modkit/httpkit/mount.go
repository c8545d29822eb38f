package httpkit

import (
	"net/http"
	"strings"
)

// Middlewares is a middleware chain applied to one mounted subtree
type Middlewares = []func(http.Handler) http.Handler

// APIVersion is the only version the router serves today
const APIVersion = "v1"

// APIPrefix returns /api/<version> for a version with or without slashes
func APIPrefix(version string) string { return "/api/" + strings.Trim(version, "/") }

// MountUnder mounts fn on a subrouter at prefix with mw applied first
func MountUnder(r Router, prefix string, mw Middlewares, fn func(Router)) {
	r.Route(prefix, func(sub Router) {
		if len(mw) > 0 {
			sub.Use(mw...)
		}
		fn(sub)
	})
}

// MountAPI mounts fn under APIPrefix(version)
//
//	httpkit.MountAPI(r, "v1", httpkit.CommonStack(opts), func(api httpkit.Router) {
//	  requests.MountRoutes(api)
//	})
func MountAPI(r Router, version string, mw Middlewares, fn func(Router)) {
	MountUnder(r, APIPrefix(version), mw, fn)
}

// MountAPIV1 mounts fn under /api/v1
func MountAPIV1(r Router, mw Middlewares, fn func(Router)) { MountAPI(r, APIVersion, mw, fn) }
