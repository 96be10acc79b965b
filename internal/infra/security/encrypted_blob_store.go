package security

import (
	"context"
	"fmt"
	"time"

	"subtitle-translate/internal/domain/ports/repository"
)

var _ repository.BlobStore = (*EncryptedBlobStore)(nil)

// EncryptedBlobStore seals blob bodies before they reach the backend. The key
// is used as associated data, so a record copied under another key fails to
// open.
type EncryptedBlobStore struct {
	next repository.BlobStore
	enc  *EncryptionService
}

func NewEncryptedBlobStore(next repository.BlobStore, enc *EncryptionService) *EncryptedBlobStore {
	return &EncryptedBlobStore{next: next, enc: enc}
}

func (s *EncryptedBlobStore) Get(ctx context.Context, key string) (*repository.Blob, error) {
	b, err := s.next.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	pt, err := s.enc.Open(b.Data, []byte(key))
	if err != nil {
		return nil, fmt.Errorf("decrypt %s: %w", key, err)
	}
	b.Data = pt
	return b, nil
}

func (s *EncryptedBlobStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	ct, err := s.enc.Seal(data, []byte(key))
	if err != nil {
		return fmt.Errorf("encrypt %s: %w", key, err)
	}
	return s.next.Put(ctx, key, ct, contentType)
}

func (s *EncryptedBlobStore) DeleteOlderThan(ctx context.Context, prefix string, cutoff time.Time) (int, error) {
	return s.next.DeleteOlderThan(ctx, prefix, cutoff)
}
