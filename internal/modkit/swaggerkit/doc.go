// Package swaggerkit serves the swagger UI and the hand maintained OpenAPI document
package swaggerkit

import (
	_ "embed"
	"encoding/json"
	"net/http"

	"lasrouter/internal/core/version"
	"lasrouter/internal/platform/logger"
	phttp "lasrouter/internal/platform/net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

//go:embed openapi.json
var openapiDoc []byte

// docReader is a seam for tests
var docReader = func() []byte { return openapiDoc }

// SpecMutator tweaks the parsed document before it is served
type SpecMutator func(map[string]any)

// StampVersion writes the build version into info.version
func StampVersion(bi version.BuildInfo) SpecMutator {
	return func(doc map[string]any) {
		info, _ := doc["info"].(map[string]any)
		if info == nil {
			info = map[string]any{}
			doc["info"] = info
		}
		info["version"] = bi.Version
	}
}

// Mount serves the UI at /api/docs and the document at /api/docs/doc.json when enabled
// the document is rendered once, with every mutator applied in order
func Mount(r phttp.Router, enabled bool, ms ...SpecMutator) {
	if !enabled {
		return
	}
	doc := render(docReader(), ms)
	r.Get("/api/docs", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/api/docs/", http.StatusPermanentRedirect)
	})
	r.Get("/api/docs/doc.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(doc)
	})
	r.Handle("/api/docs/*", httpSwagger.Handler(
		httpSwagger.InstanceName("lasrouter"),
		httpSwagger.URL("/api/docs/doc.json"),
	))
}

func render(raw []byte, ms []SpecMutator) []byte {
	if len(ms) == 0 {
		return raw
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		logger.Named("swagger").Warn().Err(err).Msg("openapi document is not valid json; serving as is")
		return raw
	}
	for _, m := range ms {
		if m != nil {
			m(doc)
		}
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return raw
	}
	return out
}
