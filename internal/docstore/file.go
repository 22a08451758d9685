package docstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore keeps each document as a JSON file inside a single
// directory. Writes go through a temp file + rename so readers never
// observe a half-written document.
type FileStore struct {
	Dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create document directory, %w", err)
	}
	return &FileStore{Dir: dir}, nil
}

func (f *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(f.Dir, key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotExist
		}
		return nil, err
	}
	return data, nil
}

func (f *FileStore) Put(_ context.Context, key string, data []byte) error {
	dst := filepath.Join(f.Dir, key)
	tmp := dst + ".tmp"

	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
