package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	perr "lasrouter/internal/platform/errors"
	"lasrouter/internal/services/ledger/domain"
)

// File keeps the document as indented JSON on local disk
// writes go to a temp file in the same directory, are fsynced, then renamed over the target
type File struct {
	path string
}

// NewFile returns a file store at path; the directory is created on first save
func NewFile(path string) *File { return &File{path: path} }

// Path returns the document location
func (f *File) Path() string { return f.path }

// Load reads the document; a missing file is an empty ledger
func (f *File) Load(_ context.Context) (domain.Document, error) {
	var doc domain.Document
	b, err := os.ReadFile(f.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		normalize(&doc)
		return doc, nil
	case err != nil:
		return doc, perr.Wrapf(err, perr.ErrorCodeDB, "read ledger %s", f.path)
	}
	if len(b) > 0 {
		if err := json.Unmarshal(b, &doc); err != nil {
			return doc, perr.Wrapf(err, perr.ErrorCodeDB, "decode ledger %s", f.path)
		}
	}
	normalize(&doc)
	return doc, nil
}

// Save replaces the document atomically
func (f *File) Save(_ context.Context, doc domain.Document) error {
	normalize(&doc)
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeDB, "encode ledger")
	}
	if err := writeAtomic(f.path, b); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeDB, "write ledger %s", f.path)
	}
	return nil
}

func writeAtomic(path string, b []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.part")
	if err != nil {
		return err
	}
	name := tmp.Name()
	cleanup := func(e error) error {
		_ = tmp.Close()
		_ = os.Remove(name)
		return e
	}
	if _, err := tmp.Write(b); err != nil {
		return cleanup(err)
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return err
	}
	if err := os.Rename(name, path); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("rename: %w", err)
	}
	// persist the rename itself; not every platform supports syncing a directory
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}
