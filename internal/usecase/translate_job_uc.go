// File: internal/usecase/translate_job_uc.go
package usecase

import (
	"context"
	"errors"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"subtitle-translate/internal/domain"
	"subtitle-translate/internal/domain/model"
	"subtitle-translate/internal/domain/ports/repository"
	"subtitle-translate/internal/domain/srt"
	"subtitle-translate/internal/infra/i18n"
	"subtitle-translate/internal/infra/logging"
	"subtitle-translate/internal/infra/metrics"
)

// Compile-time check
var _ TranslateJobUseCase = (*translateJobUC)(nil)

type TranslateJobUseCase interface {
	// Submit parses srtText and stores a new job at cursor 0.
	Submit(ctx context.Context, srtText, targetLanguage, note string) (*model.TranslateJob, error)
	// Poll advances the job by one batch and reports progress.
	Poll(ctx context.Context, jobID string) (*model.Progress, error)
	// Result returns the serialized subtitle of a completed job without
	// claiming any work.
	Result(ctx context.Context, jobID string) (srtText string, completed bool, err error)
}

// JobAdvancer runs one bounded batch of a job.
type JobAdvancer interface {
	Advance(ctx context.Context, jobID string) (*model.Progress, error)
}

type translateJobUC struct {
	jobs        repository.TranslateJobRepository
	advancer    JobAdvancer
	defaultLang string
	newID       func() string
	log         *zerolog.Logger
}

func NewTranslateJobUseCase(
	jobs repository.TranslateJobRepository,
	advancer JobAdvancer,
	defaultLang string,
	log *zerolog.Logger,
) *translateJobUC {
	return &translateJobUC{
		jobs:        jobs,
		advancer:    advancer,
		defaultLang: defaultLang,
		newID:       func() string { return ulid.Make().String() },
		log:         log,
	}
}

func (u *translateJobUC) Submit(ctx context.Context, srtText, targetLanguage, note string) (*model.TranslateJob, error) {
	defer logging.TraceDuration(u.log, "TranslateJobUC.Submit")()

	cues := srt.Parse(srtText)
	if len(cues) == 0 {
		metrics.IncJobSubmitted("empty_subtitle")
		return nil, domain.ErrEmptySubtitle
	}

	lang := i18n.NormalizeLanguage(targetLanguage)
	if lang == "" {
		lang = u.defaultLang
	}

	job, err := model.NewTranslateJob(u.newID(), cues, lang, note)
	if err != nil {
		metrics.IncJobSubmitted("error")
		return nil, err
	}
	if err := u.jobs.Save(ctx, job); err != nil {
		metrics.IncJobSubmitted("error")
		return nil, err
	}

	metrics.IncJobSubmitted("created")
	logging.With(logging.WithJobID(ctx, job.ID), u.log).Info().
		Int("total", job.Total).
		Str("target_language", job.TargetLanguage).
		Msg("translate job created")
	return job, nil
}

func (u *translateJobUC) Poll(ctx context.Context, jobID string) (*model.Progress, error) {
	p, err := u.advancer.Advance(ctx, jobID)
	switch {
	case err == nil:
		metrics.IncJobPoll(string(p.Status))
	case errors.Is(err, domain.ErrJobNotFound):
		metrics.IncJobPoll("not_found")
	default:
		metrics.IncJobPoll("error")
	}
	return p, err
}

func (u *translateJobUC) Result(ctx context.Context, jobID string) (string, bool, error) {
	job, err := u.jobs.Get(ctx, jobID)
	if err != nil {
		return "", false, err
	}
	if !job.Completed {
		return "", false, nil
	}
	return srt.Serialize(job.Cues), true, nil
}
