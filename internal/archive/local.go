package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopherai-training/internal/errs"
)

type Local struct {
	basePath string
}

func NewLocal(basePath string) (*Local, error) {
	if basePath == "" {
		return nil, fmt.Errorf("local archive requires a path")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create archive directory failed: %w", err)
	}
	return &Local{basePath: basePath}, nil
}

func (a *Local) Put(_ context.Context, key string, content []byte) error {
	fullPath, err := a.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("create archive directory failed: %w", err)
	}

	tmp := fullPath + ".tmp"
	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write archive file failed: %w", err)
	}
	if err := os.Rename(tmp, fullPath); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("commit archive file failed: %w", err)
	}
	return nil
}

func (a *Local) Get(_ context.Context, key string) ([]byte, error) {
	fullPath, err := a.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.NotFound("source %s not found", key)
		}
		return nil, fmt.Errorf("read archive file failed: %w", err)
	}
	return data, nil
}

func (a *Local) Delete(_ context.Context, key string) error {
	fullPath, err := a.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete archive file failed: %w", err)
	}
	return nil
}

func (a *Local) path(key string) (string, error) {
	rel, err := objectKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(a.basePath, filepath.FromSlash(rel)), nil
}
