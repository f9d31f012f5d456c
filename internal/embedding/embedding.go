// Package embedding provides text embedders and similarity scoring for the
// local memory backend.
package embedding

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"
)

// Vector is a float32 embedding vector.
type Vector = []float32

// Embedder generates embedding vectors from text.
type Embedder interface {
	Embed(ctx context.Context, text string) (Vector, error)
	Dims() int
}

// Config selects an embedding provider. An empty Provider disables
// embeddings.
type Config struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	URL      string `yaml:"url"`
	APIKey   string `yaml:"api_key"`
}

// New creates the embedder described by cfg, or nil when disabled.
func New(cfg Config, timeout time.Duration) (Embedder, error) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	switch cfg.Provider {
	case "":
		return nil, nil
	case "ollama":
		return NewOllamaEmbedder(cfg.URL, cfg.Model, timeout), nil
	case "openai":
		return NewOpenAIEmbedder(cfg.URL, cfg.APIKey, cfg.Model, 0, timeout), nil
	}
	return nil, fmt.Errorf("unknown embedding provider %q (valid: ollama, openai)", cfg.Provider)
}

// CosineSimilarity computes cosine similarity between two vectors.
func CosineSimilarity(a, b Vector) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// LexicalSimilarity is the fraction of distinct query terms that occur in
// text, in [0,1]. It stands in for semantic similarity when no embedder is
// configured.
func LexicalSimilarity(query, text string) float64 {
	terms := Terms(query)
	if len(terms) == 0 {
		return 0
	}
	have := map[string]bool{}
	for _, t := range Terms(text) {
		have[t] = true
	}
	hits := 0
	for _, t := range terms {
		if have[t] {
			hits++
		}
	}
	return float64(hits) / float64(len(terms))
}

// Terms lowercases text and splits it into distinct alphanumeric terms,
// preserving first-seen order.
func Terms(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := map[string]bool{}
	var out []string
	for _, f := range fields {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}
