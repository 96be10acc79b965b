// Package memory holds process-local stores for development and tests.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"subtitle-translate/internal/domain"
	"subtitle-translate/internal/domain/ports/repository"
)

var _ repository.BlobStore = (*BlobStore)(nil)

type BlobStore struct {
	mu    sync.RWMutex
	blobs map[string]repository.Blob
	now   func() time.Time
}

func NewBlobStore() *BlobStore {
	return &BlobStore{blobs: make(map[string]repository.Blob), now: time.Now}
}

func (s *BlobStore) Get(ctx context.Context, key string) (*repository.Blob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	b.Data = append([]byte(nil), b.Data...)
	return &b, nil
}

func (s *BlobStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = repository.Blob{
		Data:        append([]byte(nil), data...),
		ContentType: contentType,
		UpdatedAt:   s.now().UTC(),
	}
	return nil
}

func (s *BlobStore) DeleteOlderThan(ctx context.Context, prefix string, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, b := range s.blobs {
		if strings.HasPrefix(k, prefix) && b.UpdatedAt.Before(cutoff) {
			delete(s.blobs, k)
			n++
		}
	}
	return n, nil
}

// Len reports the number of stored blobs.
func (s *BlobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
