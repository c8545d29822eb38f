package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"lasrouter/internal/modkit/module"
	phttp "lasrouter/internal/platform/net/http"
	"lasrouter/internal/platform/net/middleware"
	"lasrouter/internal/services/api"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCmd() *cobra.Command {
	var (
		addr     string
		noPoll   bool
		noHealth bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the inbox poller and the health prober",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mustSetEnv("LASROUTER_HTTP_ADDR", addr)
			return runServe(cmd.Context(), !noPoll, !noHealth)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default :8080)")
	cmd.Flags().BoolVar(&noPoll, "no-poll", false, "do not poll the inbound mailbox")
	cmd.Flags().BoolVar(&noHealth, "no-health", false, "do not run the periodic health prober")
	return cmd
}

func runServe(parent context.Context, poll, health bool) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := wire(ctx, true)
	if err != nil {
		return err
	}
	defer a.close()

	srv := phttp.NewServer(a.cfg.Prefix("HTTP_"), func(m *chi.Mux) {
		m.Use(middleware.Heartbeat("/healthz"))
	})
	opt := api.OptionsFromConfig(a.cfg)
	opt.Logger = a.log
	opt.Metrics = a.metrics

	api.Mount(srv.Router(), api.Services{
		Catalog:      a.catalog,
		Ledger:       a.ledger,
		Executor:     a.executor,
		Orchestrator: a.orch,
		Hub:          a.hub,
	}, opt)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })
	if poll {
		g.Go(func() error { return a.orch.Run(gctx) })
	}
	if health {
		g.Go(func() error {
			a.orch.RunHealth(gctx)
			return nil
		})
	}

	a.log.Info().Str("addr", srv.Addr()).Strs("modules", module.Names()).
		Bool("poll", poll).Bool("health", health).Msg("lasrouter serving")
	return g.Wait()
}
