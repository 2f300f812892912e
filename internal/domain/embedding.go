package domain

import "context"

// EmbeddingResult is the output of vectorizing one text.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// Generator produces structured JSON from a prompt (query expansion and
// no-results suggestions).
type Generator interface {
	Generate(ctx context.Context, prompt string) ([]byte, error)
}
