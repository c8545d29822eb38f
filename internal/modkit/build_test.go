package modkit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lasrouter/internal/modkit/httpkit"
	phttp "lasrouter/internal/platform/net/http"

	"github.com/go-chi/chi/v5"
)

func TestBuild_Defaults(t *testing.T) {
	t.Parallel()

	b := Build("catalog")
	if b.Name != "catalog" {
		t.Fatalf("Name = %q, want default", b.Name)
	}
	if b.Prefix != "" || b.Ports != nil || b.Timeout != 0 || len(b.Mw) != 0 {
		t.Fatalf("unexpected non-zero defaults: %+v", b)
	}
}

func TestBuild_OptionsOverride(t *testing.T) {
	t.Parallel()

	type ports struct{ N int }
	noop := func(next http.Handler) http.Handler { return next }

	b := Build("x",
		WithName("requests"),
		WithPrefix("/requests"),
		WithMiddlewares(noop, noop),
		WithPorts(ports{N: 3}),
		WithTimeout(time.Second),
	)
	if b.Name != "requests" || b.Prefix != "/requests" {
		t.Fatalf("name/prefix = %q %q", b.Name, b.Prefix)
	}
	if len(b.Mw) != 3 {
		t.Fatalf("Mw = %d, want 2 user + timeout", len(b.Mw))
	}
	if p, ok := b.Ports.(ports); !ok || p.N != 3 {
		t.Fatalf("Ports = %#v", b.Ports)
	}
}

func TestBuilt_MountPrefixAndMiddleware(t *testing.T) {
	t.Parallel()

	hits := 0
	count := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits++
			next.ServeHTTP(w, r)
		})
	}
	mux := chi.NewRouter()
	r := phttp.AdaptChi(mux)
	r.Get("/outside", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })

	Build("m", WithPrefix("/m"), WithMiddlewares(count)).Mount(r, func(sub httpkit.Router) {
		sub.Get("/ping", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	})

	for _, tc := range []struct {
		path string
		code int
	}{{"/m/ping", http.StatusOK}, {"/outside", http.StatusTeapot}} {
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tc.path, nil))
		if rr.Code != tc.code {
			t.Fatalf("%s = %d, want %d", tc.path, rr.Code, tc.code)
		}
	}
	if hits != 1 {
		t.Fatalf("module middleware ran %d times, want 1", hits)
	}
}

func TestBuilt_MountWithoutPrefixIsGrouped(t *testing.T) {
	t.Parallel()

	hits := 0
	count := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits++
			next.ServeHTTP(w, r)
		})
	}
	mux := chi.NewRouter()
	r := phttp.AdaptChi(mux)
	Build("g", WithMiddlewares(count)).Mount(r, func(g httpkit.Router) {
		g.Get("/in", func(w http.ResponseWriter, _ *http.Request) {})
	})
	r.Get("/out", func(w http.ResponseWriter, _ *http.Request) {})

	for _, p := range []string{"/in", "/out"} {
		mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}
	if hits != 1 {
		t.Fatalf("grouped middleware leaked: hits = %d", hits)
	}
}
