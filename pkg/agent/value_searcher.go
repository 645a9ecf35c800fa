package agent

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/askdb-ai/askdb-engine/pkg/llm"
)

// ValueSearcher finds the stored value most semantically similar to a term.
type ValueSearcher interface {
	// BestMatch returns the candidate closest to the term along with its
	// cosine similarity in [0,1].
	BestMatch(ctx context.Context, term string, candidates []string) (string, float64, error)
}

// EmbeddingValueSearcher implements ValueSearcher by embedding the term and
// the candidate values in one batch and comparing cosine similarity.
type EmbeddingValueSearcher struct {
	embedder llm.LLMClient
	model    string
	logger   *zap.Logger
}

// NewEmbeddingValueSearcher creates a searcher backed by the given embedding
// client.
func NewEmbeddingValueSearcher(embedder llm.LLMClient, model string, logger *zap.Logger) *EmbeddingValueSearcher {
	return &EmbeddingValueSearcher{
		embedder: embedder,
		model:    model,
		logger:   logger.Named("value_search"),
	}
}

// BestMatch implements ValueSearcher.
func (s *EmbeddingValueSearcher) BestMatch(ctx context.Context, term string, candidates []string) (string, float64, error) {
	if len(candidates) == 0 {
		return "", 0, fmt.Errorf("no candidate values")
	}

	inputs := make([]string, 0, len(candidates)+1)
	inputs = append(inputs, term)
	inputs = append(inputs, candidates...)

	embeddings, err := s.embedder.CreateEmbeddings(ctx, inputs, s.model)
	if err != nil {
		return "", 0, fmt.Errorf("embedding values: %w", err)
	}
	if len(embeddings) != len(inputs) {
		return "", 0, fmt.Errorf("expected %d embeddings, got %d", len(inputs), len(embeddings))
	}

	termVec := embeddings[0]
	var best string
	var bestScore float64
	for i, candidate := range candidates {
		score := cosineSimilarity(termVec, embeddings[i+1])
		if score > bestScore {
			best = candidate
			bestScore = score
		}
	}

	return best, bestScore, nil
}

// cosineSimilarity returns the cosine of the angle between two vectors,
// clamped to [0,1]. Mismatched or zero vectors score 0.
func cosineSimilarity(a, b []float32) float64 {
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

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}

// Ensure the implementation satisfies the interface at compile time.
var _ ValueSearcher = (*EmbeddingValueSearcher)(nil)
