// Package sqlite is an embedded BlobStore for single-node deployments.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"subtitle-translate/internal/domain"
	"subtitle-translate/internal/domain/ports/repository"
	"subtitle-translate/internal/infra/metrics"

	_ "modernc.org/sqlite"
)

var _ repository.BlobStore = (*BlobStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS blobs (
  key          TEXT PRIMARY KEY,
  data         BLOB NOT NULL,
  content_type TEXT NOT NULL,
  updated_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS blobs_updated_at_idx ON blobs (updated_at);`

type BlobStore struct {
	db   *sql.DB
	path string
}

// Open creates the database file (and its directory) when missing.
func Open(path string) (*BlobStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure sqlite dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &BlobStore{db: db, path: path}, nil
}

func (s *BlobStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *BlobStore) Get(ctx context.Context, key string) (*repository.Blob, error) {
	start := time.Now()
	var (
		b  repository.Blob
		ms int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT data, content_type, updated_at FROM blobs WHERE key = ?`, key,
	).Scan(&b.Data, &b.ContentType, &ms)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			observe("get", "miss", start)
			return nil, domain.ErrNotFound
		}
		observe("get", "error", start)
		return nil, fmt.Errorf("select blob %s: %w", key, err)
	}
	b.UpdatedAt = time.UnixMilli(ms).UTC()
	observe("get", "hit", start)
	return &b, nil
}

func (s *BlobStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	start := time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO blobs (key, data, content_type, updated_at) VALUES (?, ?, ?, ?)
         ON CONFLICT(key) DO UPDATE SET
           data = excluded.data,
           content_type = excluded.content_type,
           updated_at = excluded.updated_at`,
		key, data, contentType, time.Now().UnixMilli(),
	)
	if err != nil {
		observe("put", "error", start)
		return fmt.Errorf("upsert blob %s: %w", key, err)
	}
	observe("put", "ok", start)
	return nil
}

func (s *BlobStore) DeleteOlderThan(ctx context.Context, prefix string, cutoff time.Time) (int, error) {
	start := time.Now()
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM blobs WHERE substr(key, 1, length(?)) = ? AND updated_at < ?`,
		prefix, prefix, cutoff.UnixMilli(),
	)
	if err != nil {
		observe("sweep", "error", start)
		return 0, fmt.Errorf("delete expired blobs: %w", err)
	}
	n, _ := res.RowsAffected()
	observe("sweep", "ok", start)
	return int(n), nil
}

func observe(op, result string, start time.Time) {
	metrics.ObserveStoreOp("sqlite", op, result, time.Since(start).Milliseconds())
}
