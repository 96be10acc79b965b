package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"subtitle-translate/internal/domain"
	"subtitle-translate/internal/domain/ports/repository"
	"subtitle-translate/internal/infra/metrics"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

var _ repository.BlobStore = (*blobStore)(nil)

// executor is satisfied by *pgxpool.Pool and pgx.Tx.
type executor interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
}

type blobStore struct {
	db executor
}

func NewBlobStore(pool *pgxpool.Pool) *blobStore {
	return &blobStore{db: pool}
}

// EnsureSchema creates the blobs table when missing.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *blobStore) Get(ctx context.Context, key string) (*repository.Blob, error) {
	start := time.Now()
	const q = `SELECT data, content_type, updated_at FROM blobs WHERE key = $1;`

	var b repository.Blob
	err := s.db.QueryRow(ctx, q, key).Scan(&b.Data, &b.ContentType, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			observe("get", "miss", start)
			return nil, domain.ErrNotFound
		}
		observe("get", "error", start)
		return nil, fmt.Errorf("select blob %s: %w", key, err)
	}
	observe("get", "hit", start)
	return &b, nil
}

func (s *blobStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	start := time.Now()
	const q = `
INSERT INTO blobs (key, data, content_type, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (key) DO UPDATE SET
  data = EXCLUDED.data,
  content_type = EXCLUDED.content_type,
  updated_at = EXCLUDED.updated_at;`

	if _, err := s.db.Exec(ctx, q, key, data, contentType, time.Now().UTC()); err != nil {
		observe("put", "error", start)
		return fmt.Errorf("upsert blob %s: %w", key, err)
	}
	observe("put", "ok", start)
	return nil
}

func (s *blobStore) DeleteOlderThan(ctx context.Context, prefix string, cutoff time.Time) (int, error) {
	start := time.Now()
	const q = `DELETE FROM blobs WHERE starts_with(key, $1) AND updated_at < $2;`

	tag, err := s.db.Exec(ctx, q, prefix, cutoff)
	if err != nil {
		observe("sweep", "error", start)
		return 0, fmt.Errorf("delete expired blobs: %w", err)
	}
	observe("sweep", "ok", start)
	return int(tag.RowsAffected()), nil
}

func observe(op, result string, start time.Time) {
	metrics.ObserveStoreOp("postgres", op, result, time.Since(start).Milliseconds())
}
