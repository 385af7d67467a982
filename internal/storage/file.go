package storage

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/xerrors"
)

type fileStorage struct {
	config FileConfig
}

type FileConfig struct {
	Directory string
}

// NewFileStorage creates a storage backend rooted at a local directory
func NewFileStorage(ctx context.Context, f FileConfig) (Storage, error) {
	if f.Directory == "" {
		f.Directory = "."
	}

	return &fileStorage{
		config: f,
	}, nil
}

func (a *fileStorage) URL(key string) string {
	return filepath.Join(a.config.Directory, filepath.FromSlash(key))
}

func (a *fileStorage) Put(ctx context.Context, key string, data []byte) (string, error) {
	filePath := a.URL(key)

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return "", xerrors.Errorf("failed to create output directory: %w", err)
	}

	// Write beside the target and rename so readers never see a partial file.
	tmp, err := os.CreateTemp(filepath.Dir(filePath), "."+filepath.Base(filePath)+".*")
	if err != nil {
		return "", xerrors.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", xerrors.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", xerrors.Errorf("failed to close file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return "", xerrors.Errorf("failed to set file mode: %w", err)
	}
	if err := os.Rename(tmp.Name(), filePath); err != nil {
		return "", xerrors.Errorf("failed to rename file: %w", err)
	}

	return filePath, nil
}

func (a *fileStorage) Get(ctx context.Context, url string) ([]byte, error) {
	data, err := os.ReadFile(url)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, xerrors.Errorf("%s: %w", url, ErrNotFound)
		}
		return nil, xerrors.Errorf("failed to read file: %w", err)
	}

	return data, nil
}
