package domain

import "context"

// Embedder turns text into a fixed-length vector. Implementations must be
// safe for concurrent use and must honor context cancellation; the policy
// retriever bounds every call with a caller-supplied timeout.
type Embedder interface {
	// Embed returns the embedding for the given text.
	// The returned slice length must equal Dim for every call.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dim is the fixed embedding dimension.
	Dim() int
}

// EmbedderConfig holds configuration for embedder initialization.
type EmbedderConfig struct {
	// Type is the embedder type: "local" or "gemini"
	Type string `yaml:"type"`

	// Local hashing embedder dimension
	LocalDim int `yaml:"local_dim"`

	// Gemini REST settings
	GeminiModel  string `yaml:"gemini_model"`
	GeminiAPIKey string `yaml:"gemini_api_key"`
	GeminiDim    int    `yaml:"gemini_dim"`
}
