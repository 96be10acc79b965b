package ai_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"subtitle-translate/internal/domain/ports/adapter"
	ai "subtitle-translate/internal/infra/adapters/ai"
)

type stubAI struct {
	name          string
	ctN           int
	chatN         int
	lastModelCT   string
	lastModelChat string
}

func (s *stubAI) ListModels(ctx context.Context) ([]string, error) {
	return []string{s.name + "-model"}, nil
}
func (s *stubAI) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	s.ctN++
	s.lastModelCT = model
	return 1, nil
}
func (s *stubAI) Chat(ctx context.Context, req adapter.ChatRequest) (string, adapter.Usage, error) {
	s.chatN++
	s.lastModelChat = req.Model
	return "ok", adapter.Usage{PromptTokens: 1, CompletionTokens: 1}, nil
}

func TestRouting_ExplicitMap_Heuristics_And_Fallback(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	open := &stubAI{name: "openai"}
	gem := &stubAI{name: "gemini"}

	m := ai.NewMultiAIAdapter(
		"openai",
		map[string]adapter.AIServiceAdapter{"openai": open, "gemini": gem},
		map[string]string{"custom-x": "gemini"},
	)

	// explicit map wins
	_, _ = m.CountTokens(ctx, "custom-x", nil)
	if gem.ctN != 1 || open.ctN != 0 {
		t.Fatalf("explicit map should route to gemini, got open:%d gem:%d", open.ctN, gem.ctN)
	}
	open.ctN, gem.ctN = 0, 0

	// gpt-* -> openai
	_, _, _ = m.Chat(ctx, adapter.ChatRequest{Model: "gpt-4o-mini"})
	if open.chatN != 1 || gem.chatN != 0 {
		t.Fatalf("heuristic gpt-* should go openai")
	}
	open.chatN, gem.chatN = 0, 0

	// gemini-* -> gemini
	_, _, _ = m.Chat(ctx, adapter.ChatRequest{Model: "gemini-1.5-flash"})
	if gem.chatN != 1 || open.chatN != 0 {
		t.Fatalf("heuristic gemini-* should go gemini")
	}

	// unknown -> default provider (openai)
	open.ctN, gem.ctN = 0, 0
	_, _ = m.CountTokens(ctx, "unknown", nil)
	if open.ctN != 1 || gem.ctN != 0 {
		t.Fatalf("unknown model should go to default provider (openai)")
	}

	models, _ := m.ListModels(ctx)
	if len(models) != 3 {
		t.Fatalf("expected mapped model plus one per provider, got %v", models)
	}
}

func TestRouting_NoProvider(t *testing.T) {
	m := ai.NewMultiAIAdapter("openai", map[string]adapter.AIServiceAdapter{}, nil)
	if _, _, err := m.Chat(context.Background(), adapter.ChatRequest{Model: "gpt-4o"}); !errors.Is(err, ai.ErrNoProvider) {
		t.Fatalf("expected ErrNoProvider, got %v", err)
	}
}

type slowAI struct {
	stubAI
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (s *slowAI) Chat(ctx context.Context, req adapter.ChatRequest) (string, adapter.Usage, error) {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(10 * time.Millisecond)
	return "ok", adapter.Usage{}, nil
}

func TestLimitedAI_CapsConcurrency(t *testing.T) {
	inner := &slowAI{}
	limited := ai.NewLimitedAI(inner, 3)

	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = limited.Chat(context.Background(), adapter.ChatRequest{})
		}()
	}
	wg.Wait()
	if p := inner.peak.Load(); p > 3 {
		t.Fatalf("expected at most 3 concurrent calls, saw %d", p)
	}
}

func TestLimitedAI_HonoursCancellation(t *testing.T) {
	release := make(chan struct{})
	blocker := &blockingAI{started: make(chan struct{}), release: release}
	limited := ai.NewLimitedAI(blocker, 1)
	go func() { _, _, _ = limited.Chat(context.Background(), adapter.ChatRequest{}) }()
	<-blocker.started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := limited.Chat(ctx, adapter.ChatRequest{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled while waiting for a slot, got %v", err)
	}
	close(release)
}

type blockingAI struct {
	stubAI
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func (b *blockingAI) Chat(ctx context.Context, req adapter.ChatRequest) (string, adapter.Usage, error) {
	b.once.Do(func() { close(b.started) })
	<-b.release
	return "ok", adapter.Usage{}, nil
}
