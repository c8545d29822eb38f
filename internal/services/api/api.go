// Package api mounts the versioned HTTP API for the dashboard and direct queries
package api

import (
	"net/http"
	"time"

	"lasrouter/internal/core/catalog"
	"lasrouter/internal/core/version"
	"lasrouter/internal/platform/config"
	"lasrouter/internal/platform/logger"
	"lasrouter/internal/platform/metrics"
	"lasrouter/internal/platform/net/middleware"
	phttp "lasrouter/internal/platform/net/http"

	"lasrouter/internal/modkit"
	"lasrouter/internal/modkit/httpkit"
	"lasrouter/internal/modkit/module"
	"lasrouter/internal/modkit/swaggerkit"

	catalogmod "lasrouter/internal/services/api/catalog/module"
	eventsmod "lasrouter/internal/services/api/events/module"
	healthmod "lasrouter/internal/services/api/health/module"
	metahttp "lasrouter/internal/services/api/meta/http"
	metamod "lasrouter/internal/services/api/meta/module"
	queriesmod "lasrouter/internal/services/api/queries/module"
	requestsmod "lasrouter/internal/services/api/requests/module"
	settingsmod "lasrouter/internal/services/api/settings/module"
	broadcast "lasrouter/internal/services/broadcast/service"
	execsvc "lasrouter/internal/services/executor/service"
	ledgersvc "lasrouter/internal/services/ledger/service"
	orchsvc "lasrouter/internal/services/orchestrator/service"
)

// Services are the domain services the modules are wired to
type Services struct {
	Catalog      *catalog.Catalog
	Ledger       *ledgersvc.Service
	Executor     *execsvc.Service
	Orchestrator *orchsvc.Service
	Hub          *broadcast.Hub
	// Ready lists extra backends pinged by /meta/ready; registered modules whose
	// ports can Ping are added under the module name
	Ready map[string]metahttp.Pinger
}

// Options are the API options
type Options struct {
	Config         config.Conf
	Logger         *logger.Logger
	Metrics        *metrics.Metrics
	EnableSwagger  bool
	EnableProfiler bool
	CORSOrigins    []string
	SlowLog        time.Duration
}

// OptionsFromConfig reads HTTP_* under cfg
func OptionsFromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("HTTP_")
	return Options{
		Config:         c,
		EnableSwagger:  c.MayBool("SWAGGER", true),
		EnableProfiler: c.MayBool("PROFILER", false),
		CORSOrigins:    c.MayCSV("CORS_ORIGINS", nil),
		SlowLog:        c.MayDuration("SLOW_LOG", 2*time.Second),
	}
}

// Mount mounts the API, docs, profiler and metrics onto r
func Mount(r phttp.Router, svc Services, opt Options) []modkit.Module {
	deps := modkit.Deps{Log: opt.Logger, Cfg: opt.Config, Metrics: opt.Metrics}

	mods := []modkit.Module{
		queriesmod.New(deps, modkit.WithPorts(queriesmod.Ports{Queries: svc.Orchestrator})),
		requestsmod.New(deps, modkit.WithPorts(requestsmod.Ports{Reader: svc.Ledger})),
		healthmod.New(deps, modkit.WithPorts(healthmod.Ports{Health: svc.Ledger, Prober: svc.Orchestrator})),
		catalogmod.New(deps, modkit.WithPorts(catalogmod.Ports{Catalog: svc.Catalog, Files: svc.Executor})),
		settingsmod.New(deps, modkit.WithPorts(settingsmod.Ports{Settings: svc.Ledger})),
		eventsmod.New(deps, modkit.WithPorts(eventsmod.Ports{Hub: svc.Hub})),
	}
	for _, m := range mods {
		module.Register(m)
	}
	mods = append(mods, metamod.New(deps, modkit.WithPorts(metamod.Ports{Checks: readyChecks(svc.Ready)})))

	swaggerkit.Mount(r, opt.EnableSwagger, swaggerkit.StampVersion(version.Info()))
	phttp.MountProfiler(r, "/debug", opt.EnableProfiler)
	if opt.Metrics != nil {
		r.Handle("/metrics", opt.Metrics.Handler())
	}
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/api/v1/meta/live", http.StatusTemporaryRedirect)
	})

	stack := httpkit.CommonStack(httpkit.StackOptions{
		CORS:    middleware.CORSOptions{AllowedOrigins: opt.CORSOrigins},
		SlowLog: opt.SlowLog,
	})
	httpkit.MountAPIV1(r, stack, func(api httpkit.Router) {
		for _, m := range mods {
			m.MountRoutes(api)
		}
	})
	return mods
}

// readyChecks merges extra with a check per registered module that can Ping
func readyChecks(extra map[string]metahttp.Pinger) map[string]metahttp.Pinger {
	out := make(map[string]metahttp.Pinger, len(extra))
	for _, name := range module.Names() {
		if p, ok := module.PortsAs[metahttp.Pinger](name); ok {
			out[name] = p
		}
	}
	for name, p := range extra {
		out[name] = p
	}
	return out
}
