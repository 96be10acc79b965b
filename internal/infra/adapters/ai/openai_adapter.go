package ai

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"subtitle-translate/internal/domain/ports/adapter"
	"subtitle-translate/internal/infra/metrics"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.AIServiceAdapter = (*OpenAIAdapter)(nil)

const defaultOpenAIBase = "https://api.openai.com/v1"

// OpenAIAdapter implements adapter.AIServiceAdapter against any
// OpenAI-compatible Chat Completions endpoint. The SDK's retry loop is
// disabled; a failed call is reported as is. Calls are bounded only by the
// caller's context.
type OpenAIAdapter struct {
	client openai.Client
	model  string
	tokens *TokenCounter
}

func NewOpenAIAdapter(apiKey, model, base string, tokens *TokenCounter) (*OpenAIAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key empty")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	if base == "" {
		base = defaultOpenAIBase
	}
	if tokens == nil {
		tokens = NewTokenCounter()
	}
	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(strings.TrimRight(base, "/")+"/"),
		option.WithMaxRetries(0),
	)
	return &OpenAIAdapter{client: client, model: model, tokens: tokens}, nil
}

func (o *OpenAIAdapter) ListModels(ctx context.Context) ([]string, error) {
	return []string{o.model}, nil
}

func (o *OpenAIAdapter) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	return o.tokens.CountMessages(modelOrDefault(model, o.model), messages), nil
}

type chatMessage struct {
	Role    string         `json:"role"`
	Content MessageContent `json:"content"`
}

type chatCompletionRequest struct {
	Model               string        `json:"model"`
	Messages            []chatMessage `json:"messages"`
	MaxCompletionTokens int           `json:"max_completion_tokens,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

func (o *OpenAIAdapter) Chat(ctx context.Context, req adapter.ChatRequest) (string, adapter.Usage, error) {
	model := modelOrDefault(req.Model, o.model)
	body := chatCompletionRequest{
		Model:               model,
		Messages:            make([]chatMessage, 0, len(req.Messages)),
		MaxCompletionTokens: req.MaxCompletionTokens,
	}
	for _, m := range req.Messages {
		body.Messages = append(body.Messages, chatMessage{Role: m.Role, Content: TextContent(m.Content)})
	}

	start := time.Now()
	var res chatCompletionResponse
	err := o.client.Post(ctx, "chat/completions", body, &res)
	latency := int(time.Since(start).Milliseconds())
	if err != nil {
		metrics.ObserveChatUsage("openai", model, 0, 0, 0, latency, false)
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", adapter.Usage{}, &StatusError{Provider: "openai", StatusCode: apiErr.StatusCode, Body: vendorBody(apiErr)}
		}
		return "", adapter.Usage{}, err
	}

	u := adapter.Usage{
		PromptTokens:     res.Usage.PromptTokens,
		CompletionTokens: res.Usage.CompletionTokens,
		TotalTokens:      res.Usage.TotalTokens,
	}
	metrics.ObserveChatUsage("openai", model, u.PromptTokens, u.CompletionTokens, u.TotalTokens, latency, true)

	for _, c := range res.Choices {
		if text := c.Message.Content.String(); text != "" {
			return text, u, nil
		}
	}
	return "", u, errors.New("openai: no choice content")
}

// vendorBody is the vendor's own error payload, without the SDK's request
// line and status prefix.
func vendorBody(apiErr *openai.Error) string {
	if raw := apiErr.RawJSON(); raw != "" {
		return raw
	}
	return apiErr.Message
}

func modelOrDefault(model, def string) string {
	if strings.TrimSpace(model) != "" {
		return model
	}
	return def
}
