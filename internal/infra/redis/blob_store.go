package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"subtitle-translate/internal/domain"
	"subtitle-translate/internal/domain/ports/repository"
	"subtitle-translate/internal/infra/metrics"

	"github.com/go-redis/redis/v8"
)

var _ repository.BlobStore = (*BlobStore)(nil)

const (
	fieldData        = "data"
	fieldContentType = "content_type"
	fieldUpdatedAt   = "updated_at"
)

// BlobStore keeps each blob in a hash so the content type travels with the
// bytes. Every write refreshes the key's TTL.
type BlobStore struct {
	cli *redis.Client
	ttl time.Duration
}

func NewBlobStore(c *Client, ttl time.Duration) *BlobStore {
	return &BlobStore{cli: c.cli, ttl: ttl}
}

func (s *BlobStore) Get(ctx context.Context, key string) (*repository.Blob, error) {
	start := time.Now()
	vals, err := s.cli.HGetAll(ctx, key).Result()
	if err != nil {
		observe("get", "error", start)
		return nil, fmt.Errorf("redis hgetall %s: %w", key, err)
	}
	if len(vals) == 0 {
		observe("get", "miss", start)
		return nil, domain.ErrNotFound
	}
	observe("get", "hit", start)

	b := &repository.Blob{
		Data:        []byte(vals[fieldData]),
		ContentType: vals[fieldContentType],
	}
	if ms, err := strconv.ParseInt(vals[fieldUpdatedAt], 10, 64); err == nil {
		b.UpdatedAt = time.UnixMilli(ms).UTC()
	}
	return b, nil
}

func (s *BlobStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	start := time.Now()
	_, err := s.cli.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key,
			fieldData, data,
			fieldContentType, contentType,
			fieldUpdatedAt, time.Now().UnixMilli(),
		)
		if s.ttl > 0 {
			p.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		observe("put", "error", start)
		return fmt.Errorf("redis put %s: %w", key, err)
	}
	observe("put", "ok", start)
	return nil
}

// DeleteOlderThan walks keys under prefix with SCAN. Keys normally expire on
// their own; this covers records written before a TTL was configured.
func (s *BlobStore) DeleteOlderThan(ctx context.Context, prefix string, cutoff time.Time) (int, error) {
	start := time.Now()
	deleted := 0
	iter := s.cli.Scan(ctx, 0, escapeGlob(prefix)+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		v, err := s.cli.HGet(ctx, key, fieldUpdatedAt).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			observe("sweep", "error", start)
			return deleted, fmt.Errorf("redis hget %s: %w", key, err)
		}
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil || !time.UnixMilli(ms).Before(cutoff) {
			continue
		}
		if err := s.cli.Del(ctx, key).Err(); err != nil {
			observe("sweep", "error", start)
			return deleted, fmt.Errorf("redis del %s: %w", key, err)
		}
		deleted++
	}
	if err := iter.Err(); err != nil {
		observe("sweep", "error", start)
		return deleted, fmt.Errorf("redis scan: %w", err)
	}
	observe("sweep", "ok", start)
	return deleted, nil
}

func observe(op, result string, start time.Time) {
	metrics.ObserveStoreOp("redis", op, result, time.Since(start).Milliseconds())
}

var globReplacer = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func escapeGlob(s string) string { return globReplacer.Replace(s) }
