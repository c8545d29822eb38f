package httpkit

import (
	"net/http"
	"time"

	"lasrouter/internal/platform/net/middleware"
)

// StackOptions tunes CommonStack
type StackOptions struct {
	CORS    middleware.CORSOptions
	SlowLog time.Duration
}

// CommonStack returns the baseline middleware for the versioned api
// request timeouts are left to modules since queries may wait on a subprocess
// and the events stream must stay hijackable
func CommonStack(o StackOptions) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		middleware.RequestID(),
		middleware.RealIP(),
		middleware.AccessLogZerolog(middleware.AccessLogOptions{Slow: o.SlowLog}),
		middleware.RecoverJSON,
		middleware.NoCache(),
		middleware.CORS(o.CORS),
		middleware.StripSlashes(),
	}
}
