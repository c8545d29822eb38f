// Package http exposes the analysis catalog and the LAS files on disk
package http

import (
	stdhttp "net/http"

	"lasrouter/internal/core/catalog"
	"lasrouter/internal/modkit/httpkit"
	execsvc "lasrouter/internal/services/executor/service"
)

// FileLister lists the LAS files available to the executor
type FileLister interface {
	ListInputs(cat *catalog.Catalog) ([]execsvc.LASFile, error)
}

// Entry is one catalog triple as served to the dashboard
type Entry struct {
	catalog.Triple
	Default bool `json:"default"`
}

// Register mounts the catalog routes
func Register(r httpkit.Router, cat *catalog.Catalog, files FileLister) {
	h := &handlers{cat: cat, files: files}
	httpkit.Get(r, "/", h.list)
	httpkit.Get(r, "/files", h.listFiles)
}

type handlers struct {
	cat   *catalog.Catalog
	files FileLister
}

// @Summary Supported analyses
// @Tags Catalog
// @Produce json
// @Success 200 {array} Entry "ok"
// @Router /catalog [get]
func (h *handlers) list(_ *stdhttp.Request) (any, error) {
	def := h.cat.Default()
	ts := h.cat.Triples()
	out := make([]Entry, 0, len(ts))
	for _, t := range ts {
		out = append(out, Entry{Triple: t, Default: t.Equal(def)})
	}
	return out, nil
}

// @Summary LAS files in the input directory with their catalog binding
// @Tags Catalog
// @Produce json
// @Success 200 {array} execsvc.LASFile "ok"
// @Router /catalog/files [get]
func (h *handlers) listFiles(_ *stdhttp.Request) (any, error) {
	return h.files.ListInputs(h.cat)
}
