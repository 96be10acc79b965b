package repository

import (
	"context"
	"time"
)

// Blob is an opaque value with its content type.
type Blob struct {
	Data        []byte
	ContentType string
	UpdatedAt   time.Time
}

// BlobStore is a flat key-value store. Get returns domain.ErrNotFound when
// the key is absent.
type BlobStore interface {
	Get(ctx context.Context, key string) (*Blob, error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
	// DeleteOlderThan removes blobs under prefix last written before cutoff
	// and reports how many were removed.
	DeleteOlderThan(ctx context.Context, prefix string, cutoff time.Time) (int, error)
}
