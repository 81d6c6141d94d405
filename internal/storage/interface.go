// Package storage validates uploaded images and hands them to a backend.
package storage

import "context"

// Backend persists validated image bytes under a generated name
type Backend interface {
	// Put stores data and returns its public URL
	Put(ctx context.Context, name, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, name string) error
	// NameFromURL returns the stored name when url points at this backend
	NameFromURL(url string) (string, bool)
	Check(ctx context.Context) error
}

var (
	_ Backend = (*LocalBackend)(nil)
	_ Backend = (*S3Backend)(nil)
)
