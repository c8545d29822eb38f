package pg

import (
	"context"
	"strings"
	"time"

	"lasrouter/internal/platform/logger"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// QueryEvent is one finished statement
type QueryEvent struct {
	SQL       string
	Args      any
	ElapsedUS int64
	Err       error
	Slow      bool
}

// QueryTracer receives every finished statement
type QueryTracer interface {
	OnQuery(ctx context.Context, ev QueryEvent)
}

// Tracer logs statements at debug, slow ones at warn
// the returned tracer keeps debug output even when the root level is higher
func Tracer(root logger.Logger) QueryTracer {
	ll := root.Level(zerolog.DebugLevel).With().Str("component", "pg").Logger()
	return &zlTracer{log: ll}
}

type zlTracer struct{ log logger.Logger }

func (z *zlTracer) OnQuery(_ context.Context, ev QueryEvent) {
	evt := z.log.Debug()
	if ev.Slow {
		evt = z.log.Warn()
	}
	if ev.Err != nil {
		evt = z.log.Error().Err(ev.Err)
	}
	evt.Float64("elapsed_ms", float64(ev.ElapsedUS)/1000.0).
		Bool("slow", ev.Slow).
		Str("sql", compact(ev.SQL)).
		Msg("pg query")
}

// pgxTracer bridges pgx.QueryTracer to QueryTracer
type pgxTracer struct {
	t    QueryTracer
	slow time.Duration
}

type startKey struct{}

type started struct {
	at   time.Time
	sql  string
	args []any
}

func (p *pgxTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, d pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, startKey{}, started{at: time.Now(), sql: d.SQL, args: d.Args})
}

func (p *pgxTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, d pgx.TraceQueryEndData) {
	s, ok := ctx.Value(startKey{}).(started)
	if !ok {
		return
	}
	elapsed := time.Since(s.at)
	p.t.OnQuery(ctx, QueryEvent{
		SQL:       s.sql,
		Args:      s.args,
		ElapsedUS: elapsed.Microseconds(),
		Err:       d.Err,
		Slow:      p.slow > 0 && elapsed >= p.slow,
	})
}

// compact folds a multi-line statement onto one log-friendly line
func compact(s string) string { return strings.Join(strings.Fields(s), " ") }
