package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalBackend writes uploads to a directory served by the API under urlPath
type LocalBackend struct {
	dir     string
	urlPath string
}

func NewLocalBackend(dir, urlPath string) (*LocalBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalBackend{dir: dir, urlPath: "/" + strings.Trim(urlPath, "/")}, nil
}

func (b *LocalBackend) Dir() string { return b.dir }

func (b *LocalBackend) Put(_ context.Context, name, _ string, data []byte) (string, error) {
	if err := os.WriteFile(filepath.Join(b.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return b.urlPath + "/" + name, nil
}

func (b *LocalBackend) Delete(_ context.Context, name string) error {
	err := os.Remove(filepath.Join(b.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (b *LocalBackend) NameFromURL(url string) (string, bool) {
	name, ok := strings.CutPrefix(url, b.urlPath+"/")
	if !ok || name == "" || strings.ContainsAny(name, `/\`) {
		return "", false
	}
	return name, true
}

func (b *LocalBackend) Check(_ context.Context) error {
	info, err := os.Stat(b.dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", b.dir)
	}
	return nil
}
