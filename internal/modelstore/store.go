package modelstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"socsentinel/internal/model"
)

// Store loads and saves trained model snapshots.
type Store interface {
	Load(ctx context.Context) (*model.Snapshot, error)
	Save(ctx context.Context, snap *model.Snapshot) error
}

// FileStore keeps snapshots as gzip-compressed JSON on local disk.
type FileStore struct {
	Path string
}

// NewFileStore builds a store for the given snapshot path.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

func (s *FileStore) Load(_ context.Context) (*model.Snapshot, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot %s: %w", s.Path, err)
	}
	defer f.Close()
	return model.DecodeSnapshot(f)
}

// Save writes to a temp file in the target directory and renames it into
// place, so readers never see a half-written snapshot.
func (s *FileStore) Save(_ context.Context, snap *model.Snapshot) error {
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := snap.Encode(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return fmt.Errorf("install snapshot %s: %w", s.Path, err)
	}
	return nil
}
