// File: internal/usecase/translator_uc.go
package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"subtitle-translate/internal/domain"
	"subtitle-translate/internal/domain/ports/adapter"
	"subtitle-translate/internal/domain/srt"
	"subtitle-translate/internal/infra/logging"
)

// Compile-time check
var _ TranslatorUseCase = (*translatorUC)(nil)

// TranslatorUseCase translates a single cue text. It never retries.
type TranslatorUseCase interface {
	TranslateOne(ctx context.Context, text, targetLanguage, note string) (string, error)
}

// PromptBuilder wraps a cue in the fixed translation instruction.
type PromptBuilder interface {
	TranslationPrompt(text, targetLanguage, note string) string
}

// TokenEstimator counts tokens locally without a vendor round trip.
type TokenEstimator interface {
	Count(model, text string) int
}

const minCompletionTokens = 64

type translatorUC struct {
	ai        adapter.AIServiceAdapter
	prompts   PromptBuilder
	tokens    TokenEstimator
	model     string
	maxTokens int
	log       *zerolog.Logger
}

func NewTranslatorUseCase(
	ai adapter.AIServiceAdapter,
	prompts PromptBuilder,
	tokens TokenEstimator,
	model string,
	maxCompletionTokens int,
	log *zerolog.Logger,
) *translatorUC {
	if maxCompletionTokens < minCompletionTokens {
		maxCompletionTokens = minCompletionTokens
	}
	return &translatorUC{
		ai:        ai,
		prompts:   prompts,
		tokens:    tokens,
		model:     model,
		maxTokens: maxCompletionTokens,
		log:       log,
	}
}

func (t *translatorUC) TranslateOne(ctx context.Context, text, targetLanguage, note string) (string, error) {
	defer logging.TraceDuration(t.log, "TranslatorUC.TranslateOne")()

	prompt := t.prompts.TranslationPrompt(text, targetLanguage, note)
	reply, _, err := t.ai.Chat(ctx, adapter.ChatRequest{
		Model:               t.model,
		Messages:            []adapter.Message{{Role: "user", Content: prompt}},
		MaxCompletionTokens: t.budget(text),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrTranslationFailed, err)
	}
	// One cue is one block: a blank line in the reply would split it.
	reply = srt.CompactText(strings.TrimSpace(reply))
	if reply == "" {
		return "", fmt.Errorf("%w: empty reply", domain.ErrTranslationFailed)
	}
	return reply, nil
}

// budget allows roughly three output tokens per input token plus headroom,
// clamped to [64, maxTokens].
func (t *translatorUC) budget(text string) int {
	n := 3*t.tokens.Count(t.model, text) + minCompletionTokens
	if n > t.maxTokens {
		n = t.maxTokens
	}
	return n
}
