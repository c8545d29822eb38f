// Package pg opens a pgx pool with optional query tracing and runs transactions on it
package pg

import (
	"context"
	"errors"
	"time"

	"lasrouter/internal/platform/config"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Config configures the pool
type Config struct {
	URL      string
	MaxConns int32
	SlowMs   int
}

// FromConfig reads PG_* under cfg, e.g. LASROUTER_LEDGER_PG_URL
func FromConfig(cfg config.Conf) Config {
	c := cfg.Prefix("PG_")
	return Config{
		URL:      c.MayString("URL", ""),
		MaxConns: int32(c.MayInt("MAX_CONNS", 4)),
		SlowMs:   c.MayInt("SLOW_MS", 200),
	}
}

// PG is a pool plus the tracer wired into it
type PG struct {
	Pool   *pgxpool.Pool
	Tracer QueryTracer
	SlowMs int
}

var newPool = pgxpool.NewWithConfig

// Open parses cfg, installs tracer on every connection and builds the pool
// poolCfgMut may adjust the parsed pool config before the pool is created
func Open(ctx context.Context, cfg Config, tracer QueryTracer, poolCfgMut func(*pgxpool.Config)) (*PG, error) {
	if cfg.URL == "" {
		return nil, errors.New("pg: empty url")
	}
	pcfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	if tracer != nil {
		pcfg.ConnConfig.Tracer = &pgxTracer{t: tracer, slow: time.Duration(cfg.SlowMs) * time.Millisecond}
	}
	if poolCfgMut != nil {
		poolCfgMut(pcfg)
	}
	pool, err := newPool(ctx, pcfg)
	if err != nil {
		return nil, err
	}
	return &PG{Pool: pool, Tracer: tracer, SlowMs: cfg.SlowMs}, nil
}

// Ping round-trips SELECT 1
func (p *PG) Ping(ctx context.Context) error {
	if p == nil || p.Pool == nil {
		return errors.New("pg: not open")
	}
	var one int
	return p.Pool.QueryRow(ctx, "SELECT 1").Scan(&one)
}

// Tx runs fn in a transaction, committing when fn returns nil
func (p *PG) Tx(ctx context.Context, fn func(pgx.Tx) error) error {
	if p == nil || p.Pool == nil {
		return errors.New("pg: not open")
	}
	return pgx.BeginFunc(ctx, p.Pool, fn)
}

// Close closes the pool; nil safe
func (p *PG) Close() {
	if p != nil && p.Pool != nil {
		p.Pool.Close()
	}
}
