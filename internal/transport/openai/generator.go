package openai

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/encounterhq/discovery/internal/domain"
	"github.com/encounterhq/discovery/internal/metrics"
)

// Generator produces structured JSON via chat completions. Used for query
// expansion and "no results" suggestions only; callers degrade on failure.
type Generator struct {
	client   *openai.Client
	model    string
	provider string
	logger   *zap.Logger
}

// NewGenerator creates an OpenAI-compatible chat generator.
func NewGenerator(cfg *Config) *Generator {
	return &Generator{
		client:   newClient(cfg),
		model:    cfg.ChatModel,
		provider: cfg.Provider,
		logger:   cfg.Logger,
	}
}

// Generate implements domain.Generator. The prompt must instruct the model to
// answer with a single JSON object; JSON mode enforces the shape.
func (g *Generator) Generate(ctx context.Context, prompt string) ([]byte, error) {
	req := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, req)
	duration := time.Since(start)

	if err != nil {
		metrics.ProviderErrorsTotal.WithLabelValues(g.provider, "generation").Inc()
		return nil, parseAPIError("generation", err)
	}

	metrics.ProviderRequestDuration.WithLabelValues(g.provider, "generate").Observe(duration.Seconds())

	if len(resp.Choices) == 0 {
		metrics.ProviderErrorsTotal.WithLabelValues(g.provider, "generation_empty").Inc()
		return nil, fmt.Errorf("empty generation response: %w", domain.ErrProviderUnavailable)
	}

	return []byte(resp.Choices[0].Message.Content), nil
}
