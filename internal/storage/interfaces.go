package storage

import (
	"context"
	"errors"
)

// ErrNotFound is wrapped by Load when nothing is stored at a path.
var ErrNotFound = errors.New("not found")

// Storage stores blobs under slash-separated relative paths.
type Storage interface {
	Save(ctx context.Context, path string, data []byte) error
	Load(ctx context.Context, path string) ([]byte, error)
	List(ctx context.Context, pattern string) ([]string, error)
	Exists(ctx context.Context, path string) bool
	Delete(ctx context.Context, path string) error
}
