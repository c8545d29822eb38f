package swaggerkit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"lasrouter/internal/core/version"
	phttp "lasrouter/internal/platform/net/http"
	kit "lasrouter/internal/platform/testkit"

	"github.com/go-chi/chi/v5"
)

func TestEmbeddedDocIsValidJSON(t *testing.T) {
	var doc map[string]any
	if err := json.Unmarshal(openapiDoc, &doc); err != nil {
		t.Fatalf("openapi.json: %v", err)
	}
	paths, _ := doc["paths"].(map[string]any)
	for _, p := range []string{"/queries", "/requests", "/health", "/catalog", "/settings/model"} {
		if _, ok := paths[p]; !ok {
			t.Fatalf("%s path missing", p)
		}
	}
}

func TestStampVersionServed(t *testing.T) {
	mux := chi.NewRouter()
	Mount(phttp.AdaptChi(mux), true, StampVersion(version.BuildInfo{Version: "1.2.3"}))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/docs/doc.json", nil))

	var doc struct {
		Info struct{ Version string } `json:"info"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Info.Version != "1.2.3" {
		t.Fatalf("version = %q", doc.Info.Version)
	}
}

func TestStampVersionAddsInfo(t *testing.T) {
	doc := map[string]any{}
	StampVersion(version.BuildInfo{Version: "dev"})(doc)
	if doc["info"].(map[string]any)["version"] != "dev" {
		t.Fatalf("info = %v", doc["info"])
	}
}

func TestInvalidDocServedAsIs(t *testing.T) {
	kit.Serial(t)
	kit.Swap(t, &docReader, func() []byte { return []byte("{not json") })
	if got := string(render(docReader(), []SpecMutator{func(map[string]any) {}})); got != "{not json" {
		t.Fatalf("render = %q", got)
	}
}

func TestMountDisabled(t *testing.T) {
	mux := chi.NewRouter()
	Mount(phttp.AdaptChi(mux), false)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/docs/doc.json", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("disabled docs = %d", rr.Code)
	}
}
