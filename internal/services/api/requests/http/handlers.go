// Package http provides the request ledger read endpoints
package http

import (
	stdhttp "net/http"
	"strconv"

	"lasrouter/internal/modkit/httpkit"
	perr "lasrouter/internal/platform/errors"
	ledger "lasrouter/internal/services/ledger/domain"
)

// Register mounts the request routes
func Register(r httpkit.Router, rd ledger.ReaderPort) {
	h := &handlers{rd: rd}
	httpkit.Get(r, "/", h.list)
	httpkit.Get(r, "/{id}", h.get)
}

type handlers struct{ rd ledger.ReaderPort }

// @Summary List requests newest first
// @Tags Requests
// @Produce json
// @Param limit query int false "max rows, default 50, capped at 500"
// @Success 200 {array} ledger.Request "ok"
// @Router /requests [get]
func (h *handlers) list(r *stdhttp.Request) (any, error) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return nil, perr.WithField(perr.InvalidArgf("limit must be a non negative integer"), "limit")
		}
		limit = n
	}
	return h.rd.List(r.Context(), limit)
}

// @Summary Get one request
// @Tags Requests
// @Produce json
// @Param id path string true "request id"
// @Success 200 {object} ledger.Request "ok"
// @Failure 404 {object} httpkit.Envelope "unknown id"
// @Router /requests/{id} [get]
func (h *handlers) get(r *stdhttp.Request) (any, error) {
	return h.rd.Get(r.Context(), httpkit.Param(r, "id"))
}
