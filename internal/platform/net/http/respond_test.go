package http_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	perr "lasrouter/internal/platform/errors"
	pnet "lasrouter/internal/platform/net"
	phttp "lasrouter/internal/platform/net/http"
)

func reqWithID(method, path, body, rid string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	return req.WithContext(pnet.WithRequestID(req.Context(), rid))
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) phttp.Envelope {
	t.Helper()
	var env phttp.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, rec.Body.String())
	}
	return env
}

func TestHandle_SuccessAndError(t *testing.T) {
	ok := phttp.Handle(func(*http.Request) phttp.Response { return phttp.Accepted(map[string]string{"id": "r1"}) })
	rec := httptest.NewRecorder()
	ok(rec, reqWithID("POST", "/q", "", "rid-1"))
	env := decode(t, rec)
	if rec.Code != http.StatusAccepted || env.RequestID != "rid-1" || env.Data == nil {
		t.Fatalf("accepted envelope = %d %+v", rec.Code, env)
	}

	bad := phttp.Handle(func(*http.Request) phttp.Response {
		return phttp.Error(perr.WithField(perr.NotFoundf("request %s not found", "x"), "id"))
	})
	rec = httptest.NewRecorder()
	bad(rec, reqWithID("GET", "/r/x", "", "rid-2"))
	env = decode(t, rec)
	if rec.Code != http.StatusNotFound || env.Code != perr.ErrorCodeNotFound || env.Field != "id" {
		t.Fatalf("error envelope = %d %+v", rec.Code, env)
	}

	foreign := phttp.Handle(func(*http.Request) phttp.Response { return phttp.Error(errors.New("boom")) })
	rec = httptest.NewRecorder()
	foreign(rec, reqWithID("GET", "/", "", ""))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("foreign error status = %d", rec.Code)
	}
}

func TestHandle_NoContentAndHeaders(t *testing.T) {
	h := phttp.Handle(func(*http.Request) phttp.Response {
		r := phttp.NoContent()
		r.Header = http.Header{"X-Probe": []string{"1"}}
		return r
	})
	rec := httptest.NewRecorder()
	h(rec, reqWithID("DELETE", "/", "", ""))
	if rec.Code != http.StatusNoContent || rec.Body.Len() != 0 || rec.Header().Get("X-Probe") != "1" {
		t.Fatalf("no content = %d %q", rec.Code, rec.Body.String())
	}
}

type queryIn struct {
	Text string `json:"text" validate:"required"`
}

func TestJSONHandler(t *testing.T) {
	h := phttp.JSONHandler(func(_ *http.Request, in queryIn) (any, error) {
		if in.Text == "conflict" {
			return nil, perr.Conflictf("terminal")
		}
		if in.Text == "created" {
			return phttp.Created(in), nil
		}
		return map[string]string{"echo": in.Text}, nil
	})

	cases := []struct {
		body string
		want int
	}{
		{`{"text":"gamma"}`, http.StatusOK},
		{`{"text":"created"}`, http.StatusCreated},
		{`{"text":"conflict"}`, http.StatusConflict},
		{`{"text":""}`, http.StatusBadRequest},
		{`{"nope":1}`, http.StatusBadRequest},
		{`not json`, http.StatusBadRequest},
	}
	for _, c := range cases {
		rec := httptest.NewRecorder()
		h(rec, reqWithID("POST", "/q", c.body, ""))
		if rec.Code != c.want {
			t.Fatalf("body %s -> %d, want %d (%s)", c.body, rec.Code, c.want, rec.Body.String())
		}
	}
}

func TestNoBodyHandler(t *testing.T) {
	h := phttp.NoBodyHandler(func(*http.Request) (any, error) { return []int{1, 2}, nil })
	rec := httptest.NewRecorder()
	h(rec, reqWithID("GET", "/", "", ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}
