// Package http provides the direct query endpoints
package http

import (
	"context"
	stdhttp "net/http"

	"lasrouter/internal/modkit/httpkit"
	ledger "lasrouter/internal/services/ledger/domain"
	orch "lasrouter/internal/services/orchestrator/domain"
)

// Service is the orchestrator surface these handlers need
type Service interface {
	HandleQuery(ctx context.Context, text string, wait bool) (orch.QueryResult, error)
	Check(ctx context.Context, text string) orch.CheckResult
}

// QueryIn is the body of both query endpoints
type QueryIn struct {
	Text string `json:"text" validate:"notblank,max=4000"`
	// Wait defaults to true; false returns 202 with the processing request
	Wait *bool `json:"wait,omitempty"`
}

// Register mounts the query routes
func Register(r httpkit.Router, s Service) {
	h := &handlers{svc: s}
	httpkit.PostJSON[QueryIn](r, "/", h.query)
	httpkit.PostJSON[QueryIn](r, "/check", h.check)
}

type handlers struct{ svc Service }

// @Summary Run a direct query through the pipeline
// @Tags Queries
// @Accept json
// @Produce json
// @Param payload body QueryIn true "Query"
// @Success 200 {object} orch.QueryResult "clarification or finished request"
// @Success 202 {object} orch.QueryResult "request accepted and processing"
// @Router /queries [post]
func (h *handlers) query(r *stdhttp.Request, in QueryIn) (any, error) {
	wait := in.Wait == nil || *in.Wait
	out, err := h.svc.HandleQuery(r.Context(), in.Text, wait)
	if err != nil {
		return nil, err
	}
	if out.Request != nil && out.Request.Status == ledger.StatusProcessing {
		return httpkit.Accepted(out), nil
	}
	return out, nil
}

// @Summary Preview resolution and clarification without executing
// @Tags Queries
// @Accept json
// @Produce json
// @Param payload body QueryIn true "Query"
// @Success 200 {object} orch.CheckResult "ok"
// @Router /queries/check [post]
func (h *handlers) check(r *stdhttp.Request, in QueryIn) (any, error) {
	return h.svc.Check(r.Context(), in.Text), nil
}
