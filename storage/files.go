package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
)

// FileStore is the sink uploaded photos are handed to. The handler only
// persists the reference it returns.
type FileStore interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}

// LocalFileStore writes uploads under a directory (FILE_UPLOAD_PATH).
type LocalFileStore struct {
	Dir string
}

func NewLocalFileStore(dir string) (*LocalFileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &LocalFileStore{Dir: dir}, nil
}

func (s *LocalFileStore) Save(_ context.Context, name string, r io.Reader) (string, error) {
	f, err := os.Create(filepath.Join(s.Dir, filepath.Base(name)))
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return filepath.Base(name), nil
}
