package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// FileStore keeps one file per key under Dir. It is the local backend that
// survives a Redis outage; writes go through a temp file and rename so a
// crash never leaves a truncated snapshot behind.
type FileStore struct {
	Dir string
}

// Load reads the file for key, returning (nil, nil) when it does not exist.
func (s FileStore) Load(_ context.Context, key string) ([]byte, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

// Save writes the value atomically.
func (s FileStore) Save(_ context.Context, key string, value []byte) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".cart-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

// Remove deletes the file for key. Removing an absent key is not an error.
func (s FileStore) Remove(_ context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s FileStore) path(key string) (string, error) {
	if strings.TrimSpace(s.Dir) == "" {
		return "", errors.New("storage: file store directory not configured")
	}
	name := strings.NewReplacer(":", "_", "/", "_", "\\", "_", "..", "_").Replace(key)
	if name == "" {
		return "", errors.New("storage: empty key")
	}
	return filepath.Join(s.Dir, name+".json"), nil
}
