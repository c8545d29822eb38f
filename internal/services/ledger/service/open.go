package service

import (
	"context"

	perr "lasrouter/internal/platform/errors"
	"lasrouter/internal/platform/logger"
	"lasrouter/internal/platform/store/pg"
	"lasrouter/internal/services/ledger/repo"
)

// OpenStore builds the DocStore for opt.Driver; close releases backend resources
func OpenStore(ctx context.Context, opt Options) (store repo.DocStore, closeFn func(), err error) {
	switch opt.Driver {
	case DriverPG:
		if opt.PG.URL == "" {
			return nil, nil, perr.Configf("ledger driver pg needs LEDGER_PG_URL")
		}
		db, err := pg.Open(ctx, opt.PG, pg.Tracer(*logger.Named("ledger")), nil)
		if err != nil {
			return nil, nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "open ledger database")
		}
		r := repo.NewPG(db, "")
		if err := r.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return r, db.Close, nil
	case DriverMemory:
		return repo.NewMemory(), func() {}, nil
	default:
		return repo.NewFile(opt.Path), func() {}, nil
	}
}
