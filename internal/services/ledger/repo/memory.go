package repo

import (
	"context"
	"encoding/json"
	"sync"

	"lasrouter/internal/services/ledger/domain"
)

// Memory is a process-local store for one-shot CLI runs and tests
// documents round-trip through JSON so callers never alias stored data
type Memory struct {
	mu  sync.Mutex
	raw []byte
}

// NewMemory returns an empty store
func NewMemory() *Memory { return &Memory{} }

// Load returns a copy of the stored document
func (m *Memory) Load(_ context.Context) (domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var doc domain.Document
	if len(m.raw) > 0 {
		if err := json.Unmarshal(m.raw, &doc); err != nil {
			return doc, err
		}
	}
	normalize(&doc)
	return doc, nil
}

// Save stores a copy of doc
func (m *Memory) Save(_ context.Context, doc domain.Document) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.raw = b
	m.mu.Unlock()
	return nil
}
