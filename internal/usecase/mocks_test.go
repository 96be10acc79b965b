//go:build !integration

// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"strings"
	"sync"

	"subtitle-translate/internal/domain"
	"subtitle-translate/internal/domain/model"
	"subtitle-translate/internal/domain/ports/adapter"
)

// memJobRepo is a small in-memory implementation used by unit tests.
type memJobRepo struct {
	mu      sync.RWMutex
	store   map[string]model.TranslateJob
	saveErr error // used by tests to simulate store failures
}

func newMemJobRepo() *memJobRepo {
	return &memJobRepo{store: make(map[string]model.TranslateJob)}
}

func (m *memJobRepo) Get(ctx context.Context, id string) (*model.TranslateJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.store[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	j.Cues = append([]model.Cue(nil), j.Cues...)
	return &j, nil
}

func (m *memJobRepo) Save(ctx context.Context, job *model.TranslateJob) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *job
	cp.Cues = append([]model.Cue(nil), job.Cues...)
	m.store[job.ID] = cp
	return nil
}

// fakeAI records the last request and answers through fn.
type fakeAI struct {
	mu      sync.Mutex
	lastReq adapter.ChatRequest
	fn      func(req adapter.ChatRequest) (string, error)
}

func (f *fakeAI) ListModels(ctx context.Context) ([]string, error) {
	return []string{"gpt-4o-mini"}, nil
}
func (f *fakeAI) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	return 0, nil
}
func (f *fakeAI) Chat(ctx context.Context, req adapter.ChatRequest) (string, adapter.Usage, error) {
	f.mu.Lock()
	f.lastReq = req
	f.mu.Unlock()
	text, err := f.fn(req)
	return text, adapter.Usage{}, err
}

type fakePrompts struct{}

func (fakePrompts) TranslationPrompt(text, targetLanguage, note string) string {
	return strings.Join([]string{"to " + targetLanguage, note, text}, "|")
}

// wordTokens counts whitespace-separated words.
type wordTokens struct{}

func (wordTokens) Count(model, text string) int { return len(strings.Fields(text)) }

type fakeAdvancer struct {
	progress *model.Progress
	err      error
	calls    int
}

func (f *fakeAdvancer) Advance(ctx context.Context, jobID string) (*model.Progress, error) {
	f.calls++
	return f.progress, f.err
}
