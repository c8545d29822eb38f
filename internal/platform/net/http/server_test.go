package http

import (
	"context"
	"net"
	stdhttp "net/http"
	"testing"
	"time"

	"lasrouter/internal/platform/config"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()
	return l.Addr().String()
}

func TestServer_RunStopsOnCancel(t *testing.T) {
	addr := freeAddr(t)
	t.Setenv("T_HTTP_ADDR", addr)
	srv := NewServer(config.New().Prefix("T_HTTP_"))
	srv.Router().Get("/ping", func(w stdhttp.ResponseWriter, _ *stdhttp.Request) { w.WriteHeader(stdhttp.StatusNoContent) })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	var res *stdhttp.Response
	var err error
	for i := 0; i < 50; i++ {
		res, err = stdhttp.Get("http://" + addr + "/ping")
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("server never came up: %v", err)
	}
	_ = res.Body.Close()
	if res.StatusCode != stdhttp.StatusNoContent {
		t.Fatalf("status = %d", res.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
}
