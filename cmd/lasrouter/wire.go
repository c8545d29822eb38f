package main

import (
	"context"

	"lasrouter/internal/adapters/llm"
	"lasrouter/internal/adapters/mailbox"
	"lasrouter/internal/adapters/runner"
	"lasrouter/internal/core/catalog"
	"lasrouter/internal/core/clarify"
	"lasrouter/internal/core/resolver"
	"lasrouter/internal/platform/config"
	"lasrouter/internal/platform/logger"
	"lasrouter/internal/platform/metrics"
	broadcast "lasrouter/internal/services/broadcast/service"
	execsvc "lasrouter/internal/services/executor/service"
	ledgersvc "lasrouter/internal/services/ledger/service"
	orchsvc "lasrouter/internal/services/orchestrator/service"
)

// app holds every wired service for one process
type app struct {
	cfg     config.Conf
	log     *logger.Logger
	metrics *metrics.Metrics

	catalog  *catalog.Catalog
	executor *execsvc.Service
	ledger   *ledgersvc.Service
	hub      *broadcast.Hub
	spool    *mailbox.Spool
	orch     *orchsvc.Service

	closeStore func()
}

// configRoot is the LASROUTER_ view every service reads its options from
func configRoot() config.Conf { return config.New().Prefix("LASROUTER_") }

// loadCatalog reads CATALOG_FILE when set, otherwise the embedded definitions
func loadCatalog(cfg config.Conf) (*catalog.Catalog, error) {
	if p := cfg.MayString("CATALOG_FILE", ""); p != "" {
		return catalog.LoadFile(p)
	}
	return catalog.Load()
}

// wire builds the full service graph under the LASROUTER_ prefix
// withMetrics is false for one-shot CLI commands that never expose /metrics
func wire(ctx context.Context, withMetrics bool) (*app, error) {
	cfg := configRoot()
	l := logger.Get()

	var m *metrics.Metrics
	if withMetrics {
		m = metrics.New()
	}

	cat, err := loadCatalog(cfg)
	if err != nil {
		return nil, err
	}

	model := orchsvc.ModelClient{Client: llm.NewClient(llm.Options{})}
	res := resolver.New(cat, model, resolver.FromConfig(cfg), m)
	gate := clarify.New(cat, clarify.FromConfig(cfg), m)
	exec := execsvc.New(execsvc.FromConfig(cfg), runner.Exec{}, m)

	lopt := ledgersvc.FromConfig(cfg)
	store, closeStore, err := ledgersvc.OpenStore(ctx, lopt)
	if err != nil {
		return nil, err
	}
	led := ledgersvc.New(store, lopt, m)

	spool := mailbox.New(mailbox.FromConfig(cfg))
	if err := spool.Init(); err != nil {
		closeStore()
		return nil, err
	}

	hub := broadcast.New(m)
	o := orchsvc.New(orchsvc.Deps{
		Resolver: res,
		Gate:     gate,
		Executor: exec,
		Ledger:   led,
		Events:   hub,
		Inbox:    spool,
		Mailer:   spool,
		Model:    model,
		Backend:  exec,
		Spool:    spool,
		EnvModel: resolver.ModelConfigFromEnv(cfg),
		Metrics:  m,
	}, orchsvc.FromConfig(cfg))

	l.Debug().
		Int("triples", cat.Len()).
		Str("ledger", lopt.Driver).
		Str("mailbox", spool.InboxDir()).
		Msg("services wired")

	return &app{
		cfg:        cfg,
		log:        l,
		metrics:    m,
		catalog:    cat,
		executor:   exec,
		ledger:     led,
		hub:        hub,
		spool:      spool,
		orch:       o,
		closeStore: closeStore,
	}, nil
}

// close drains background work and releases the ledger backend
func (a *app) close() {
	a.orch.Wait()
	a.hub.Close()
	a.closeStore()
}
