package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"subtitle-translate/internal/domain/ports/repository"
	"subtitle-translate/internal/infra/jobstore"
	"subtitle-translate/internal/infra/metrics"
)

// RetentionWorker periodically removes job records older than the
// configured TTL.
type RetentionWorker struct {
	interval time.Duration
	ttl      time.Duration
	blobs    repository.BlobStore
	now      func() time.Time
	log      *zerolog.Logger
}

func NewRetentionWorker(interval, ttl time.Duration, blobs repository.BlobStore, logger *zerolog.Logger) *RetentionWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	compLog := logger.With().Str("component", "RetentionWorker").Logger()
	return &RetentionWorker{
		interval: interval,
		ttl:      ttl,
		blobs:    blobs,
		now:      time.Now,
		log:      &compLog,
	}
}

func (w *RetentionWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Dur("ttl", w.ttl).Msg("Starting retention worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping retention worker")
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.Sweep(ctx); err != nil {
				w.log.Error().Err(err).Msg("retention sweep error")
			}
		}
	}
}

// Sweep deletes every job record last written before now-ttl.
// A non-positive ttl disables deletion.
func (w *RetentionWorker) Sweep(ctx context.Context) (int, error) {
	if w.ttl <= 0 {
		return 0, nil
	}
	n, err := w.blobs.DeleteOlderThan(ctx, jobstore.KeyPrefix, w.now().Add(-w.ttl))
	if n > 0 {
		metrics.AddExpired(n)
		w.log.Info().Int("count", n).Msg("expired translate jobs removed")
	}
	return n, err
}
