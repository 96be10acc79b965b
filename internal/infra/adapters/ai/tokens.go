package ai

import (
	"errors"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
	"golang.org/x/sync/singleflight"

	"subtitle-translate/internal/domain/ports/adapter"
)

const fallbackEncoding = "cl100k_base"

var errNoEncoder = errors.New("no tokenizer available")

type encoder interface {
	Encode(text string, allowedSpecial []string, disallowedSpecial []string) []int
}

// TokenCounter counts prompt tokens with tiktoken. Encoders are loaded once
// per model; when none can be loaded the count falls back to a rune-based
// estimate. A load never holds mu, so models already cached stay readable
// while another one is fetched.
type TokenCounter struct {
	mu       sync.RWMutex
	encoders map[string]encoder
	load     func(model string) (encoder, error)
	loads    singleflight.Group
}

func NewTokenCounter() *TokenCounter {
	return &TokenCounter{encoders: make(map[string]encoder), load: loadEncoding}
}

func loadEncoding(model string) (encoder, error) {
	if enc, err := tiktoken.EncodingForModel(model); err == nil {
		return enc, nil
	}
	return tiktoken.GetEncoding(fallbackEncoding)
}

func (c *TokenCounter) encoderFor(model string) encoder {
	c.mu.RLock()
	enc, ok := c.encoders[model]
	c.mu.RUnlock()
	if ok {
		return enc
	}

	v, _, _ := c.loads.Do(model, func() (any, error) {
		enc, err := c.load(model)
		if err != nil {
			enc = nil
		}
		// nil is cached too so a missing encoding is not refetched per call.
		c.mu.Lock()
		c.encoders[model] = enc
		c.mu.Unlock()
		return enc, nil
	})
	enc, _ = v.(encoder)
	return enc
}

// Warm loads the encoder for model ahead of the first count. tiktoken
// fetches its BPE ranks over the network on first use.
func (c *TokenCounter) Warm(model string) {
	c.encoderFor(model)
}

// Count returns the token count of text for model.
func (c *TokenCounter) Count(model, text string) int {
	if text == "" {
		return 0
	}
	if enc := c.encoderFor(model); enc != nil {
		return len(enc.Encode(text, nil, nil))
	}
	return estimateTokens(text)
}

// CountMessages adds a small per-message overhead the way chat formats do.
func (c *TokenCounter) CountMessages(model string, messages []adapter.Message) int {
	total := 3
	for _, m := range messages {
		total += 4 + c.Count(model, m.Content)
	}
	return total
}

// estimateTokens assumes about four ASCII characters per token and one
// token per non-ASCII rune.
func estimateTokens(text string) int {
	ascii, wide := 0, 0
	for _, r := range text {
		if r < utf8.RuneSelf {
			ascii++
		} else {
			wide++
		}
	}
	n := (ascii+3)/4 + wide
	if n < 1 {
		n = 1
	}
	return n
}
