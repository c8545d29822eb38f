package service

import (
	"context"
	"errors"
	"time"

	broadcast "lasrouter/internal/services/broadcast/service"
	ledger "lasrouter/internal/services/ledger/domain"
	"lasrouter/internal/services/orchestrator/domain"

	"golang.org/x/sync/errgroup"
)

type probeResult struct {
	status ledger.HealthStatus
	meta   map[string]any
}

// ProbeHealth checks every component concurrently, records the results and broadcasts them
func (s *Service) ProbeHealth(ctx context.Context) ([]ledger.HealthRecord, error) {
	checks := []struct {
		id string
		fn func(context.Context) probeResult
	}{
		{ledger.ComponentIntentSource, s.probeModel},
		{ledger.ComponentMailTransport, probeWith(s.d.Spool, "mail transport")},
		{ledger.ComponentExecutionBackend, probeWith(s.d.Backend, "execution backend")},
	}

	results := make([]probeResult, len(checks))
	var g errgroup.Group
	for i, c := range checks {
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(ctx, s.opt.HealthTimeout)
			defer cancel()
			results[i] = c.fn(pctx)
			return nil
		})
	}
	_ = g.Wait()

	recs := make([]ledger.HealthRecord, 0, len(checks))
	var errs []error
	for i, c := range checks {
		rec, err := s.d.Ledger.SetComponentHealth(ctx, c.id, results[i].status, results[i].meta)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		recs = append(recs, rec)
		s.d.Events.Publish(broadcast.Event{Type: broadcast.EventHealthUpdated, Payload: rec})
	}
	return recs, errors.Join(errs...)
}

// RunHealth probes at start and then every HealthInterval until ctx ends
// A zero interval probes once
func (s *Service) RunHealth(ctx context.Context) {
	s.probeLogged(ctx)
	if s.opt.HealthInterval <= 0 {
		return
	}
	t := time.NewTicker(s.opt.HealthInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.probeLogged(ctx)
		}
	}
}

func (s *Service) probeLogged(ctx context.Context) {
	if _, err := s.ProbeHealth(ctx); err != nil {
		s.log.Warn().Err(err).Msg("health probe not recorded")
	}
}

func (s *Service) probeModel(ctx context.Context) probeResult {
	mc := s.modelConfig(ctx)
	if !mc.Enabled() {
		return probeResult{ledger.HealthWarning, map[string]any{
			"provider": "none",
			"detail":   "no model configured; keyword fallback only",
		}}
	}
	meta := map[string]any{"provider": mc.Provider, "model": mc.Model}
	if s.d.Model == nil {
		meta["detail"] = "no model client"
		return probeResult{ledger.HealthWarning, meta}
	}
	start := time.Now()
	err := s.d.Model.Ping(ctx, *mc)
	meta["latencyMs"] = time.Since(start).Milliseconds()
	if err != nil {
		meta["error"] = err.Error()
		return probeResult{ledger.HealthOffline, meta}
	}
	return probeResult{ledger.HealthOnline, meta}
}

func probeWith(p domain.ProbePort, what string) func(context.Context) probeResult {
	return func(ctx context.Context) probeResult {
		if p == nil {
			return probeResult{ledger.HealthOffline, map[string]any{"detail": what + " not configured"}}
		}
		ok, meta := p.Probe(ctx)
		if meta == nil {
			meta = map[string]any{}
		}
		if !ok {
			return probeResult{ledger.HealthOffline, meta}
		}
		return probeResult{ledger.HealthOnline, meta}
	}
}
