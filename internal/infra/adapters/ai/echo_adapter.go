package ai

import (
	"context"
	"strings"
	"time"

	"subtitle-translate/internal/domain/ports/adapter"
)

var _ adapter.AIServiceAdapter = (*EchoAdapter)(nil)

// EchoAdapter implements adapter.AIServiceAdapter for local/dev runs without a
// vendor. It answers with the final paragraph of the last message, tagged
// with the configured suffix.
type EchoAdapter struct {
	Suffix string
	Delay  time.Duration
	tokens *TokenCounter
}

func NewEchoAdapter(suffix string, delay time.Duration) *EchoAdapter {
	return &EchoAdapter{Suffix: suffix, Delay: delay, tokens: &TokenCounter{
		encoders: map[string]encoder{},
		load:     func(string) (encoder, error) { return nil, errNoEncoder },
	}}
}

func (a *EchoAdapter) ListModels(ctx context.Context) ([]string, error) {
	return []string{"echo"}, nil
}

func (a *EchoAdapter) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	return a.tokens.CountMessages(model, messages), nil
}

func (a *EchoAdapter) Chat(ctx context.Context, req adapter.ChatRequest) (string, adapter.Usage, error) {
	if a.Delay > 0 {
		select {
		case <-time.After(a.Delay):
		case <-ctx.Done():
			return "", adapter.Usage{}, ctx.Err()
		}
	}
	if len(req.Messages) == 0 {
		return "", adapter.Usage{}, nil
	}
	content := req.Messages[len(req.Messages)-1].Content
	if i := strings.LastIndex(content, "\n\n"); i >= 0 {
		content = content[i+2:]
	}
	return content + a.Suffix, adapter.Usage{}, nil
}
