// Package repo persists the ledger document
//
// A DocStore holds exactly one Document. Backends that can lock the stored row
// also implement Updater so the read and the write share one transaction.
package repo

import (
	"context"

	"lasrouter/internal/services/ledger/domain"
)

// DocStore loads and saves the whole ledger document
type DocStore interface {
	Load(ctx context.Context) (domain.Document, error)
	Save(ctx context.Context, doc domain.Document) error
}

// Updater applies fn to the stored document atomically
// fn returning an error aborts without saving
type Updater interface {
	Update(ctx context.Context, fn func(*domain.Document) error) error
}

// Mutate runs fn as one read-modify-write against s
func Mutate(ctx context.Context, s DocStore, fn func(*domain.Document) error) error {
	if u, ok := s.(Updater); ok {
		return u.Update(ctx, fn)
	}
	doc, err := s.Load(ctx)
	if err != nil {
		return err
	}
	if err := fn(&doc); err != nil {
		return err
	}
	return s.Save(ctx, doc)
}

// normalize replaces nil slices so the document always serializes as arrays
func normalize(doc *domain.Document) {
	if doc.Requests == nil {
		doc.Requests = []domain.Request{}
	}
	if doc.Health == nil {
		doc.Health = []domain.HealthRecord{}
	}
}
