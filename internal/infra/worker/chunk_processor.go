package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"subtitle-translate/internal/domain/model"
	"subtitle-translate/internal/domain/ports/repository"
	"subtitle-translate/internal/domain/srt"
	"subtitle-translate/internal/infra/logging"
	"subtitle-translate/internal/infra/metrics"
	"subtitle-translate/internal/usecase"
)

var _ usecase.JobAdvancer = (*ChunkProcessor)(nil)

// ChunkProcessor moves a translate job forward by at most one batch per call.
// It holds no state between calls; the job record is the only source of
// truth. Two overlapping calls for the same job may claim the same range and
// the later write wins.
type ChunkProcessor struct {
	jobs       repository.TranslateJobRepository
	translator usecase.TranslatorUseCase
	pool       *Pool
	batch      int
	log        *zerolog.Logger
}

// NewChunkProcessor claims up to batch cues per call and translates them
// through pool.
func NewChunkProcessor(
	jobs repository.TranslateJobRepository,
	translator usecase.TranslatorUseCase,
	pool *Pool,
	batch int,
	log *zerolog.Logger,
) *ChunkProcessor {
	if batch <= 0 {
		batch = 30
	}
	return &ChunkProcessor{jobs: jobs, translator: translator, pool: pool, batch: batch, log: log}
}

func (p *ChunkProcessor) Advance(ctx context.Context, jobID string) (*model.Progress, error) {
	ctx = logging.WithJobID(ctx, jobID)
	log := logging.With(ctx, p.log)
	defer logging.TraceDuration(log, "ChunkProcessor.Advance")()

	job, err := p.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if !job.Completed {
		start := time.Now()
		from, to := job.Claim(p.batch)
		metrics.ObserveBatch(to - from)
		failed := p.translateRange(ctx, log, job, from, to)

		// A cut-off invocation loses its batch; the persisted cursor still
		// points at it, so the next poll claims it again.
		if err := ctx.Err(); err != nil {
			log.Warn().Err(err).Int("from", from).Int("to", to).Msg("batch abandoned, claim not persisted")
			return nil, err
		}

		job.Settle()
		if job.Completed {
			metrics.IncJobCompleted()
		}
		log.Info().
			Int("from", from).
			Int("to", to).
			Int("failed", failed).
			Int("total", job.Total).
			Bool("completed", job.Completed).
			Dur("duration", time.Since(start)).
			Msg("batch processed")
	}

	// Written back even when nothing was claimed.
	if err := p.jobs.Save(ctx, job); err != nil {
		log.Error().Err(err).Msg("failed to persist job")
		return nil, err
	}
	return progressOf(job), nil
}

// translateRange resolves cues [from, to) concurrently and returns how many
// failed. A failed cue keeps no translation.
func (p *ChunkProcessor) translateRange(ctx context.Context, log *zerolog.Logger, job *model.TranslateJob, from, to int) int {
	if from >= to {
		return 0
	}
	results := make([]string, to-from)
	tasks := make([]Task, 0, to-from)
	for i := from; i < to; i++ {
		slot := i - from
		cue := job.Cues[i]
		tasks = append(tasks, func(ctx context.Context) error {
			text, err := p.translator.TranslateOne(ctx, cue.SourceText, job.TargetLanguage, job.Note)
			if err != nil {
				metrics.IncCue("failed")
				log.Warn().Err(err).Int("cue", cue.Index).Msg("cue translation failed, keeping source text")
				return err
			}
			metrics.IncCue("translated")
			results[slot] = text
			return nil
		})
	}
	_ = p.pool.Run(ctx, tasks)

	failed := 0
	for slot, text := range results {
		if text == "" {
			failed++
			continue
		}
		job.Resolve(from+slot, text)
	}
	return failed
}

func progressOf(job *model.TranslateJob) *model.Progress {
	p := &model.Progress{
		JobID:     job.ID,
		Status:    job.Status(),
		Completed: job.Completed,
		Cursor:    job.Cursor,
		Total:     job.Total,
		Processed: job.Processed(),
	}
	if job.Completed {
		p.SRT = srt.Serialize(job.Cues)
	}
	return p
}
