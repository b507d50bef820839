// Package blob defines the object store the calendar feeds are published to.
package blob

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrObjectNotFound is returned when a key has no object.
var ErrObjectNotFound = errors.New("object not found")

// ErrInvalidKey is returned for keys that are empty, absolute or escape the store.
var ErrInvalidKey = errors.New("invalid object key")

// Store is a flat object store keyed by slash-separated names.
type Store interface {
	// Put creates or replaces the object at key.
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// Get returns ErrObjectNotFound if the key has no object.
	Get(ctx context.Context, key string) ([]byte, error)

	// List returns every key starting with prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes the object at key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// ValidateKey rejects keys that cannot be mapped safely onto a filesystem or bucket.
func ValidateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for part := range strings.SplitSeq(key, "/") {
		if part == "" || part == "." || part == ".." {
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return nil
}
