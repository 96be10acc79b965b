package repository

import (
	"context"

	"subtitle-translate/internal/domain/model"
)

// TranslateJobRepository persists whole job records. Get returns
// domain.ErrJobNotFound for unknown ids; storage failures wrap
// domain.ErrStoreUnavailable.
type TranslateJobRepository interface {
	Get(ctx context.Context, id string) (*model.TranslateJob, error)
	Save(ctx context.Context, job *model.TranslateJob) error
}
