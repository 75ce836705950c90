// Package objectstore stores public files such as avatars.
package objectstore

import (
	"context"
	"errors"
	"strings"
	"time"
)

var ErrNotFound = errors.New("object not found")

// Object describes a stored file.
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Store is a bucket of publicly readable objects. List returns keys in
// lexicographic order.
type Store interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	List(ctx context.Context, prefix string, offset, limit int) ([]Object, error)
	Delete(ctx context.Context, keys ...string) error
	// URL returns the public address of key.
	URL(key string) string
}

func joinURL(base, key string) string {
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(key, "/")
}
