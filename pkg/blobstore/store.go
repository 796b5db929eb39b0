// Package blobstore keeps the binary payloads of remote record assets out of
// the record documents themselves.
package blobstore

import (
	"context"
	"errors"
	"io"
	"strings"
)

var (
	// ErrNotFound indicates the requested blob does not exist.
	ErrNotFound = errors.New("blob not found")
	// ErrEmptyKey indicates an empty storage key was provided.
	ErrEmptyKey = errors.New("storage key must not be empty")
	// ErrInvalidKey indicates the storage key contains a path traversal segment.
	ErrInvalidKey = errors.New("storage key contains invalid path segment")
)

type Store interface {
	// Put streams data to the blob at key, replacing any previous content.
	Put(ctx context.Context, key string, r io.Reader) (int64, error)
	// Get returns the full blob. Returns ErrNotFound if it does not exist.
	Get(ctx context.Context, key string) ([]byte, error)
	// Delete removes the blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

func validateKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if strings.Contains(key, "..") {
		return ErrInvalidKey
	}
	return nil
}
