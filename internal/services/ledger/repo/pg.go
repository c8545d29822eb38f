package repo

import (
	"context"
	"encoding/json"
	"errors"

	perr "lasrouter/internal/platform/errors"
	"lasrouter/internal/platform/store/pg"
	"lasrouter/internal/services/ledger/domain"

	"github.com/jackc/pgx/v5"
)

const (
	ddl = `CREATE TABLE IF NOT EXISTS ledger_documents (
	id         text PRIMARY KEY,
	doc        jsonb NOT NULL,
	updated_at timestamptz NOT NULL DEFAULT now()
)`
	seed      = `INSERT INTO ledger_documents (id, doc) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`
	selectDoc = `SELECT doc FROM ledger_documents WHERE id = $1`
	lockDoc   = `SELECT doc FROM ledger_documents WHERE id = $1 FOR UPDATE`
	updateDoc = `UPDATE ledger_documents SET doc = $2, updated_at = now() WHERE id = $1`
)

// DefaultDocumentID is the row that holds the ledger
const DefaultDocumentID = "default"

// PG keeps the document as one JSONB row
type PG struct {
	db *pg.PG
	id string
}

// NewPG binds the store to a pool; id selects the row, empty means DefaultDocumentID
func NewPG(db *pg.PG, id string) *PG {
	if db == nil {
		panic("ledger repo: nil pg")
	}
	if id == "" {
		id = DefaultDocumentID
	}
	return &PG{db: db, id: id}
}

// Migrate creates the table and the empty document row when missing
func (p *PG) Migrate(ctx context.Context) error {
	if _, err := p.db.Pool.Exec(ctx, ddl); err != nil {
		return perr.FromPostgres(err, "create ledger_documents")
	}
	empty, _ := json.Marshal(emptyDoc())
	if _, err := p.db.Pool.Exec(ctx, seed, p.id, empty); err != nil {
		return perr.FromPostgres(err, "seed ledger document")
	}
	return nil
}

// Load reads the document without locking
func (p *PG) Load(ctx context.Context) (domain.Document, error) {
	return scanDoc(p.db.Pool.QueryRow(ctx, selectDoc, p.id))
}

// Save overwrites the document
func (p *PG) Save(ctx context.Context, doc domain.Document) error {
	return p.db.Tx(ctx, func(tx pgx.Tx) error { return p.write(ctx, tx, doc) })
}

// Update locks the row, applies fn and writes the result in one transaction
// serialization and lock failures are retried once
func (p *PG) Update(ctx context.Context, fn func(*domain.Document) error) error {
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		err = p.db.Tx(ctx, func(tx pgx.Tx) error {
			doc, err := scanDoc(tx.QueryRow(ctx, lockDoc, p.id))
			if err != nil {
				return err
			}
			if err := fn(&doc); err != nil {
				return err
			}
			return p.write(ctx, tx, doc)
		})
		if !perr.IsRetryable(err) {
			break
		}
	}
	if err != nil {
		if _, ok := perr.As(err); ok {
			return err
		}
		return perr.FromPostgres(err, "update ledger document")
	}
	return nil
}

// Ping checks the connection
func (p *PG) Ping(ctx context.Context) error { return p.db.Ping(ctx) }

func (p *PG) write(ctx context.Context, tx pgx.Tx, doc domain.Document) error {
	normalize(&doc)
	b, err := json.Marshal(doc)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeDB, "encode ledger")
	}
	tag, err := tx.Exec(ctx, updateDoc, p.id, b)
	if err != nil {
		return perr.FromPostgres(err, "write ledger document")
	}
	if tag.RowsAffected() == 0 {
		return perr.DBf("ledger document %q missing; run migrations", p.id)
	}
	return nil
}

func scanDoc(row pgx.Row) (domain.Document, error) {
	var raw []byte
	doc := emptyDoc()
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return doc, nil
		}
		return doc, perr.FromPostgres(err, "read ledger document")
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return doc, perr.Wrap(err, perr.ErrorCodeDB, "decode ledger document")
	}
	normalize(&doc)
	return doc, nil
}

func emptyDoc() domain.Document {
	var d domain.Document
	normalize(&d)
	return d
}
