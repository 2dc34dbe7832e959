// Package snapshot persists index snapshots. The server keeps them in the
// database so a restart serves lookups without a rescan; the CLI keeps them
// in a plain file so it works without any database at all.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kailas-cloud/crossdex/internal/db"
	"github.com/kailas-cloud/crossdex/internal/domain"
	"github.com/kailas-cloud/crossdex/internal/index"
)

// store is the consumer interface for snapshot persistence (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
}

// Repo stores the snapshot as one JSON document in the database.
type Repo struct {
	store store
	key   string
}

// New creates a database-backed snapshot repository.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, key: keyPrefix + "index:snapshot"}
}

// Load reads the persisted snapshot. A missing snapshot maps to
// domain.ErrIndexNotReady so callers know to rebuild, not to fail.
func (r *Repo) Load(ctx context.Context) (*index.Snapshot, error) {
	data, err := r.store.JSONGet(ctx, r.key, "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, domain.ErrIndexNotReady
		}
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return decodeStored(data)
}

// Save persists the snapshot, replacing any previous one.
func (r *Repo) Save(ctx context.Context, snap *index.Snapshot) error {
	data, err := index.EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	if err := r.store.JSONSet(ctx, r.key, "$", data); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// decodeStored handles the JSONPath wrapping: JSON.GET with "$" returns a
// one-element array around the stored document.
func decodeStored(data []byte) (*index.Snapshot, error) {
	if len(data) > 1 && data[0] == '[' {
		data = data[1 : len(data)-1]
	}
	return index.DecodeSnapshot(data)
}

// File stores the snapshot in a single JSON file.
type File struct {
	path string
}

// NewFile creates a file-backed snapshot repository.
func NewFile(path string) *File {
	return &File{path: path}
}

// Load reads the snapshot file. A missing file maps to domain.ErrIndexNotReady.
func (f *File) Load(_ context.Context) (*index.Snapshot, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrIndexNotReady
		}
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return index.DecodeSnapshot(data)
}

// Save writes the snapshot atomically via a temp file rename.
func (f *File) Save(_ context.Context, snap *index.Snapshot) error {
	data, err := index.EncodeSnapshot(snap)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".snapshot-*")
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("save snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("save snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}
