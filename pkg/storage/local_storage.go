package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	errs "foodmap-video-importer/pkg/errors"
)

// LocalStorage keeps objects on the local filesystem and serves them from a
// configured base URL. Suitable for single-node deployments; swap for a
// bucket-backed implementation behind the same interface.
type LocalStorage struct {
	root    string
	baseURL string
}

func NewLocalStorage(root, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errs.NewConfig("storage.NewLocalStorage", "cannot create storage root", err)
	}
	return &LocalStorage{root: root, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

func (s *LocalStorage) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	clean, err := s.resolve(path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(clean), 0o755); err != nil {
		return "", errs.NewExternal("storage.Upload", "storage", "cannot create directory", err)
	}
	if err := os.WriteFile(clean, data, 0o644); err != nil {
		return "", errs.NewExternal("storage.Upload", "storage", "write failed", err)
	}
	return s.baseURL + "/" + path, nil
}

func (s *LocalStorage) Delete(ctx context.Context, path string) error {
	clean, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(clean); err != nil && !os.IsNotExist(err) {
		return errs.NewExternal("storage.Delete", "storage", "delete failed", err)
	}
	return nil
}

func (s *LocalStorage) DeleteByPrefix(ctx context.Context, prefix string) error {
	dir, pat := filepath.Split(prefix)
	base, err := s.resolve(strings.TrimSuffix(dir, "/"))
	if err != nil {
		return err
	}
	entries, err := os.ReadDir(base)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errs.NewExternal("storage.DeleteByPrefix", "storage", "list failed", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), pat) {
			continue
		}
		if err := os.Remove(filepath.Join(base, e.Name())); err != nil && !os.IsNotExist(err) {
			return errs.NewExternal("storage.DeleteByPrefix", "storage", "delete failed", err)
		}
	}
	return nil
}

func (s *LocalStorage) resolve(path string) (string, error) {
	clean := filepath.Clean(filepath.Join(s.root, filepath.FromSlash(path)))
	if !strings.HasPrefix(clean, filepath.Clean(s.root)) {
		return "", errs.NewInput("storage.resolve", fmt.Sprintf("path escapes storage root: %s", path), nil)
	}
	return clean, nil
}
