package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalStore сохраняет фото в каталог на диске.
type LocalStore struct {
	root string
}

// NewLocalStore создаёт LocalStore с корнем root.
func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root}
}

// Put пишет файл в <root>/user-photos/<uuid>.<ext>.
// Файл сначала пишется во временный и затем переименовывается,
// чтобы недописанное фото не попало в раздачу.
func (s *LocalStore) Put(ctx context.Context, p Photo) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	key, _ := objectKey(p)
	dst := filepath.Join(s.root, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("mkdir photos dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(p.Content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("write photo: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("close photo: %w", err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("rename photo: %w", err)
	}
	return key, nil
}

// Delete удаляет <root>/<key>.
func (s *LocalStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(key)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove photo: %w", err)
	}
	return nil
}
