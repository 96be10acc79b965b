//go:build !integration

package worker

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"subtitle-translate/internal/domain"
	"subtitle-translate/internal/domain/model"
	"subtitle-translate/internal/domain/ports/repository"
	"subtitle-translate/internal/domain/srt"
	"subtitle-translate/internal/infra/jobstore"
	"subtitle-translate/internal/infra/memory"
	"subtitle-translate/internal/usecase"
)

// ---- Fakes ----

type stubTranslator struct {
	calls atomic.Int32
	fn    func(text string) (string, error)
}

func (s *stubTranslator) TranslateOne(ctx context.Context, text, targetLanguage, note string) (string, error) {
	s.calls.Add(1)
	return s.fn(text)
}

func suffixTranslator(suffix string) *stubTranslator {
	return &stubTranslator{fn: func(text string) (string, error) { return text + suffix, nil }}
}

type countingRepo struct {
	repository.TranslateJobRepository
	mu    sync.Mutex
	saves int
}

func (c *countingRepo) Save(ctx context.Context, job *model.TranslateJob) error {
	c.mu.Lock()
	c.saves++
	c.mu.Unlock()
	return c.TranslateJobRepository.Save(ctx, job)
}

type failingSaveRepo struct {
	repository.TranslateJobRepository
}

func (f failingSaveRepo) Save(ctx context.Context, job *model.TranslateJob) error {
	return domain.ErrStoreUnavailable
}

func makeCues(n int) []model.Cue {
	cues := make([]model.Cue, n)
	for i := range cues {
		cues[i] = model.Cue{
			Index:      i + 1,
			Start:      "00:00:00,000",
			End:        "00:00:01,000",
			SourceText: "line " + strings.Repeat("x", i%3),
		}
	}
	return cues
}

func seedJob(t *testing.T, repo repository.TranslateJobRepository, id string, n int) {
	t.Helper()
	job, err := model.NewTranslateJob(id, makeCues(n), "zh-CN", "")
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	if err := repo.Save(context.Background(), job); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func newProcessor(repo repository.TranslateJobRepository, tr usecase.TranslatorUseCase, batch int) *ChunkProcessor {
	logger := zerolog.Nop()
	return NewChunkProcessor(repo, tr, NewPool(batch), batch, &logger)
}

// ---- Tests ----

func TestAdvance_BatchBound(t *testing.T) {
	ctx := context.Background()
	repo := jobstore.NewBlobJobRepo(memory.NewBlobStore())
	seedJob(t, repo, "job", 10)
	tr := suffixTranslator("-T")
	p := newProcessor(repo, tr, 4)

	prog, err := p.Advance(ctx, "job")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if tr.calls.Load() != 4 {
		t.Fatalf("expected 4 translation calls, got %d", tr.calls.Load())
	}
	if prog.Cursor != 4 || prog.Total != 10 || prog.Completed || prog.SRT != "" {
		t.Fatalf("unexpected progress %+v", prog)
	}
	if prog.Processed != 4 || prog.Status != model.TranslateJobProcessing {
		t.Fatalf("unexpected progress %+v", prog)
	}
}

func TestAdvance_CursorMonotonicUntilComplete(t *testing.T) {
	ctx := context.Background()
	repo := jobstore.NewBlobJobRepo(memory.NewBlobStore())
	seedJob(t, repo, "job", 7)
	p := newProcessor(repo, suffixTranslator("!"), 3)

	last := 0
	polls := 0
	for {
		prog, err := p.Advance(ctx, "job")
		if err != nil {
			t.Fatalf("poll %d: %v", polls, err)
		}
		polls++
		if prog.Cursor < last {
			t.Fatalf("cursor went backwards: %d -> %d", last, prog.Cursor)
		}
		if prog.Cursor == last && !prog.Completed {
			t.Fatalf("cursor did not advance on an incomplete job")
		}
		last = prog.Cursor
		if prog.Completed {
			break
		}
		if polls > 10 {
			t.Fatal("job never completed")
		}
	}
	if polls != 3 || last != 7 {
		t.Fatalf("expected completion after 3 polls at cursor 7, got polls=%d cursor=%d", polls, last)
	}
}

func TestAdvance_CompletionIsStable(t *testing.T) {
	ctx := context.Background()
	base := jobstore.NewBlobJobRepo(memory.NewBlobStore())
	repo := &countingRepo{TranslateJobRepository: base}
	seedJob(t, base, "job", 2)
	tr := suffixTranslator("-ZH")
	p := newProcessor(repo, tr, 5)

	first, err := p.Advance(ctx, "job")
	if err != nil || !first.Completed {
		t.Fatalf("expected completion on first poll, got %+v err=%v", first, err)
	}
	for i := 0; i < 3; i++ {
		again, err := p.Advance(ctx, "job")
		if err != nil {
			t.Fatalf("repeat poll: %v", err)
		}
		if !again.Completed || again.SRT != first.SRT || again.Cursor != 2 {
			t.Fatalf("completed job changed on repeat poll: %+v", again)
		}
	}
	if tr.calls.Load() != 2 {
		t.Fatalf("expected no translation calls after completion, got %d", tr.calls.Load())
	}
	if repo.saves != 4 {
		t.Fatalf("expected the record to be written on every poll, got %d saves", repo.saves)
	}
}

func TestAdvance_FailedCueFallsBackToSource(t *testing.T) {
	ctx := context.Background()
	repo := jobstore.NewBlobJobRepo(memory.NewBlobStore())
	job, _ := model.NewTranslateJob("job", []model.Cue{
		{Index: 1, Start: "00:00:00,000", End: "00:00:01,000", SourceText: "keep me"},
		{Index: 2, Start: "00:00:01,000", End: "00:00:02,000", SourceText: "translate me"},
	}, "de", "")
	_ = repo.Save(ctx, job)

	tr := &stubTranslator{fn: func(text string) (string, error) {
		if text == "keep me" {
			return "", domain.ErrTranslationFailed
		}
		return "übersetzt", nil
	}}
	prog, err := newProcessor(repo, tr, 30).Advance(ctx, "job")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !prog.Completed {
		t.Fatal("a failed cue must not block completion")
	}
	if prog.Processed != 1 {
		t.Errorf("expected 1 processed cue, got %d", prog.Processed)
	}
	want := "1\n00:00:00,000 --> 00:00:01,000\nkeep me\n\n2\n00:00:01,000 --> 00:00:02,000\nübersetzt\n"
	if prog.SRT != want {
		t.Errorf("expected %q, got %q", want, prog.SRT)
	}
}

func TestAdvance_Errors(t *testing.T) {
	ctx := context.Background()
	repo := jobstore.NewBlobJobRepo(memory.NewBlobStore())

	if _, err := newProcessor(repo, suffixTranslator(""), 3).Advance(ctx, "missing"); !errors.Is(err, domain.ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}

	seedJob(t, repo, "job", 2)
	p := newProcessor(failingSaveRepo{TranslateJobRepository: repo}, suffixTranslator(""), 3)
	if _, err := p.Advance(ctx, "job"); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestSubmitAndPoll_HelloWorld(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.Nop()
	repo := jobstore.NewBlobJobRepo(memory.NewBlobStore())
	proc := newProcessor(repo, suffixTranslator("-ZH"), 30)
	uc := usecase.NewTranslateJobUseCase(repo, proc, "zh-CN", &logger)

	job, err := uc.Submit(ctx,
		"1\n00:00:00,000 --> 00:00:02,000\nHello\n\n2\n00:00:02,000 --> 00:00:04,000\nWorld\n",
		"zh-CN", "")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if job.ID == "" || job.Total != 2 {
		t.Fatalf("unexpected job %+v", job)
	}

	prog, err := uc.Poll(ctx, job.ID)
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if !prog.Completed {
		t.Fatal("expected completion on the first poll")
	}
	want := "1\n00:00:00,000 --> 00:00:02,000\nHello-ZH\n\n2\n00:00:02,000 --> 00:00:04,000\nWorld-ZH\n"
	if prog.SRT != want {
		t.Fatalf("expected %q, got %q", want, prog.SRT)
	}

	out, done, err := uc.Result(ctx, job.ID)
	if err != nil || !done || out != want {
		t.Fatalf("Result() = %q, %v, %v", out, done, err)
	}
}

func TestAdvance_CancelledBatchIsNotPersisted(t *testing.T) {
	repo := jobstore.NewBlobJobRepo(memory.NewBlobStore())
	seedJob(t, repo, "job", 3)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cutOff := &stubTranslator{fn: func(text string) (string, error) {
		cancel()
		return "", context.Canceled
	}}
	if _, err := newProcessor(repo, cutOff, 5).Advance(ctx, "job"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	stored, err := repo.Get(context.Background(), "job")
	if err != nil {
		t.Fatal(err)
	}
	if stored.Cursor != 0 || stored.Completed || stored.Processed() != 0 {
		t.Fatalf("expected the abandoned batch to stay unclaimed, got cursor=%d completed=%v", stored.Cursor, stored.Completed)
	}

	prog, err := newProcessor(repo, suffixTranslator("-ZH"), 5).Advance(context.Background(), "job")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !prog.Completed || prog.Processed != 3 {
		t.Fatalf("expected the next poll to re-claim and translate all cues, got %+v", prog)
	}
}

func TestAdvance_MultiParagraphTranslationStaysOneCue(t *testing.T) {
	ctx := context.Background()
	repo := jobstore.NewBlobJobRepo(memory.NewBlobStore())
	seedJob(t, repo, "job", 2)
	tr := &stubTranslator{fn: func(text string) (string, error) { return "first para\n\nsecond para", nil }}

	prog, err := newProcessor(repo, tr, 5).Advance(ctx, "job")
	if err != nil || !prog.Completed {
		t.Fatalf("expected completion, got %+v err=%v", prog, err)
	}
	cues := srt.Parse(prog.SRT)
	if len(cues) != 2 {
		t.Fatalf("expected 2 cues after re-parse, got %d in %q", len(cues), prog.SRT)
	}
	for _, c := range cues {
		if c.SourceText != "first para\nsecond para" {
			t.Errorf("cue %d lost text: %q", c.Index, c.SourceText)
		}
	}
}
