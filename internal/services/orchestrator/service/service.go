// Package service runs the request pipeline: precheck, resolve, gate, record, execute, broadcast
package service

import (
	"context"
	"fmt"
	"sync"

	"lasrouter/internal/core/catalog"
	"lasrouter/internal/core/clarify"
	"lasrouter/internal/core/normalize"
	"lasrouter/internal/core/resolver"
	perr "lasrouter/internal/platform/errors"
	"lasrouter/internal/platform/logger"
	"lasrouter/internal/platform/metrics"
	broadcast "lasrouter/internal/services/broadcast/service"
	execdom "lasrouter/internal/services/executor/domain"
	ledger "lasrouter/internal/services/ledger/domain"
	"lasrouter/internal/services/orchestrator/domain"
)

// Deps are the collaborators of the orchestrator
// Resolver, Gate, Executor and Ledger are required; the rest degrade to no-ops or "not configured" health
type Deps struct {
	Resolver domain.ResolverPort
	Gate     domain.GatePort
	Executor execdom.ExecutorPort
	Ledger   ledger.LedgerPort
	Events   domain.PublisherPort
	Inbox    domain.InboxPort
	Mailer   domain.MailerPort
	Model    domain.ModelPingerPort
	Backend  domain.ProbePort
	Spool    domain.ProbePort
	EnvModel resolver.ModelConfig
	Metrics  *metrics.Metrics
}

// Service is the only component that calls more than one other service
type Service struct {
	d   Deps
	opt Options
	log *logger.Logger

	wg sync.WaitGroup
}

// New wires the orchestrator
func New(d Deps, opt Options) *Service {
	if d.Resolver == nil {
		panic("orchestrator.Service requires a non nil Resolver")
	}
	if d.Gate == nil {
		panic("orchestrator.Service requires a non nil Gate")
	}
	if d.Executor == nil {
		panic("orchestrator.Service requires a non nil Executor")
	}
	if d.Ledger == nil {
		panic("orchestrator.Service requires a non nil Ledger")
	}
	if d.Events == nil {
		d.Events = nopPublisher{}
	}
	return &Service{d: d, opt: opt.withDefaults(), log: logger.Named("orchestrator")}
}

type nopPublisher struct{}

func (nopPublisher) Publish(broadcast.Event) {}

// Wait blocks until every background execution started with wait=false has finished
func (s *Service) Wait() { s.wg.Wait() }

// HandleQuery runs the pipeline for a direct query
// With wait=false the processing request is returned and execution continues in the background
func (s *Service) HandleQuery(ctx context.Context, text string, wait bool) (domain.QueryResult, error) {
	return s.run(ctx, ledger.OriginDirect, "direct-query", text, wait)
}

// Check previews resolution and gating without recording or executing anything
func (s *Service) Check(ctx context.Context, text string) domain.CheckResult {
	text = normalize.Sanitize(text)
	if clar, stop := s.d.Gate.Precheck(text); stop {
		return domain.CheckResult{Clarification: clar}
	}
	res := s.d.Resolver.Resolve(ctx, text, s.modelConfig(ctx))
	return domain.CheckResult{Resolution: &res, Clarification: s.d.Gate.ShouldClarify(text, res)}
}

func (s *Service) run(
	ctx context.Context, origin ledger.Origin, source, text string, wait bool,
) (out domain.QueryResult, err error) {
	var created *ledger.Request
	defer func() {
		if r := recover(); r != nil {
			err = perr.PanicErrf("pipeline panic: %v", r)
			s.log.Error().Interface("panic", r).Str("origin", string(origin)).Msg("pipeline panic recovered")
			if created != nil {
				req := s.fail(ctx, created.ID, origin, fmt.Sprintf("internal error: %v", r))
				out = domain.QueryResult{Request: &req}
			}
		}
	}()

	text = normalize.Sanitize(text)
	if clar, stop := s.d.Gate.Precheck(text); stop {
		return s.clarified(ctx, origin, clar), nil
	}
	res := s.d.Resolver.Resolve(ctx, text, s.modelConfig(ctx))
	if clar := s.d.Gate.ShouldClarify(text, res); clar.NeedsClarification {
		return s.clarified(ctx, origin, clar), nil
	}

	req, err := s.d.Ledger.Create(ctx, origin, source, text)
	if err != nil {
		return domain.QueryResult{}, err
	}
	created = &req
	ctx = logger.WithLedgerID(ctx, req.ID)
	s.publish(broadcast.EventNewRequest, req)

	resolution := toLedger(res)
	req, err = s.d.Ledger.Update(ctx, req.ID, ledger.Patch{Resolution: &resolution})
	if err != nil {
		failed := s.fail(ctx, created.ID, origin, "could not record resolution: "+err.Error())
		return domain.QueryResult{Request: &failed}, err
	}
	s.publish(broadcast.EventRequestUpdated, req)

	triple := *res.Triple
	if !wait {
		bg := context.WithoutCancel(ctx)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					s.log.Error().Interface("panic", r).Str("id", req.ID).Msg("background execution panic recovered")
					s.fail(bg, req.ID, origin, fmt.Sprintf("internal error: %v", r))
				}
			}()
			s.execute(bg, req, origin, triple)
		}()
		return domain.QueryResult{Request: &req}, nil
	}

	final := s.execute(ctx, req, origin, triple)
	return domain.QueryResult{Request: &final}, nil
}

func (s *Service) clarified(ctx context.Context, origin ledger.Origin, clar clarify.Result) domain.QueryResult {
	logger.C(ctx).Info().Str("origin", string(origin)).Str("stage", string(clar.Stage)).
		Float64("confidence", clar.Confidence).Msg("clarification requested")
	return domain.QueryResult{Clarification: &clar}
}

func (s *Service) execute(ctx context.Context, req ledger.Request, origin ledger.Origin, t catalog.Triple) ledger.Request {
	o := s.d.Executor.Execute(ctx, t)
	dur := o.DurationMs
	p := ledger.Patch{DurationMs: &dur}
	if o.Success {
		st, path := ledger.StatusCompleted, o.OutputPath
		p.Status, p.OutputArtifactPath = &st, &path
	} else {
		st, detail := ledger.StatusError, o.Error
		if detail == "" {
			detail = "execution failed"
		}
		p.Status, p.ErrorDetail = &st, &detail
	}
	final, err := s.d.Ledger.Update(ctx, req.ID, p)
	if err != nil {
		logger.C(ctx).Error().Err(err).Msg("terminal update failed")
		return s.fail(ctx, req.ID, origin, "could not record outcome: "+err.Error())
	}
	s.publish(broadcast.EventRequestUpdated, final)
	s.d.Metrics.RequestDone(string(origin), string(final.Status))
	logger.C(ctx).Info().Str("tool", t.ToolID).Str("status", string(final.Status)).Int64("duration_ms", dur).
		Msg("request finished")
	return final
}

// fail moves a request to error; if the ledger refuses, the last known state is returned
func (s *Service) fail(ctx context.Context, id string, origin ledger.Origin, detail string) ledger.Request {
	st := ledger.StatusError
	req, err := s.d.Ledger.Update(ctx, id, ledger.Patch{Status: &st, ErrorDetail: &detail})
	if err != nil {
		logger.C(ctx).Error().Err(err).Str("id", id).Msg("could not mark request as failed")
		if cur, gerr := s.d.Ledger.Get(ctx, id); gerr == nil {
			return cur
		}
		return ledger.Request{ID: id, Origin: origin, Status: st, ErrorDetail: detail}
	}
	s.publish(broadcast.EventRequestUpdated, req)
	s.d.Metrics.RequestDone(string(origin), string(st))
	return req
}

func (s *Service) publish(t broadcast.EventType, req ledger.Request) {
	s.d.Events.Publish(broadcast.Event{Type: t, Payload: req})
}

// modelConfig prefers the ledger setting and falls back to the environment
func (s *Service) modelConfig(ctx context.Context) *resolver.ModelConfig {
	env := s.d.EnvModel
	stored, err := s.d.Ledger.ModelConfig(ctx)
	if err != nil {
		logger.C(ctx).Warn().Err(err).Msg("model settings unavailable; using environment")
		return &env
	}
	if stored == nil {
		return &env
	}
	return &resolver.ModelConfig{
		Provider: stored.Provider,
		Model:    stored.Model,
		Endpoint: stored.Endpoint,
		APIKey:   stored.APIKey,
		Timeout:  env.Timeout,
	}
}

func toLedger(r resolver.Resolution) ledger.Resolution {
	out := ledger.Resolution{Confidence: r.Confidence, Reasoning: r.Reasoning, Source: string(r.Source)}
	if r.Triple != nil {
		out.Script, out.LASFile, out.Tool = r.Triple.ScriptID, r.Triple.InputFileID, r.Triple.ToolID
	}
	return out
}
