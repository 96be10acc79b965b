// Package jobstore persists translate jobs as JSON records in a BlobStore.
package jobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"subtitle-translate/internal/domain"
	"subtitle-translate/internal/domain/model"
	"subtitle-translate/internal/domain/ports/repository"
)

const (
	KeyPrefix   = "translate-jobs/"
	ContentType = "application/json"
)

var _ repository.TranslateJobRepository = (*blobJobRepo)(nil)

type blobJobRepo struct {
	blobs repository.BlobStore
}

func NewBlobJobRepo(blobs repository.BlobStore) *blobJobRepo {
	return &blobJobRepo{blobs: blobs}
}

// Key returns the blob key of a job record.
func Key(jobID string) string {
	return KeyPrefix + jobID + ".json"
}

func (r *blobJobRepo) Get(ctx context.Context, id string) (*model.TranslateJob, error) {
	if id == "" {
		return nil, domain.ErrJobNotFound
	}
	b, err := r.blobs.Get(ctx, Key(id))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	var job model.TranslateJob
	if err := json.Unmarshal(b.Data, &job); err != nil {
		return nil, fmt.Errorf("%w: decode job %s: %v", domain.ErrStoreUnavailable, id, err)
	}
	return &job, nil
}

func (r *blobJobRepo) Save(ctx context.Context, job *model.TranslateJob) error {
	if job == nil || job.ID == "" {
		return domain.ErrInvalidArgument
	}
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job %s: %w", job.ID, err)
	}
	if err := r.blobs.Put(ctx, Key(job.ID), data, ContentType); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}
