// Package embedding wraps langchaingo's embeddings.Embedder with retry
// and the unit-norm guarantee the vector index depends on.
package embedding

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	lcopenai "github.com/tmc/langchaingo/llms/openai"

	"github.com/spacevault/ragcore/internal/ragerr"
)

// Embedder is the interface the rest of the app depends on.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// LangChainEmbedder wraps langchaingo's embeddings.EmbedderImpl and adds the
// backoff and L2-normalization the raw wrapper does not guarantee.
type LangChainEmbedder struct {
	inner    *embeddings.EmbedderImpl
	attempts int
	backoff  time.Duration
}

// New creates an embedder backed by an OpenAI-compatible embedding model
// via langchaingo.
func New(apiKey, model string) (*LangChainEmbedder, error) {
	llm, err := lcopenai.New(
		lcopenai.WithToken(apiKey),
		lcopenai.WithEmbeddingModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("embedding: build client: %w", err)
	}

	inner, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("embedding: build embedder: %w", err)
	}

	return &LangChainEmbedder{inner: inner, attempts: 3, backoff: time.Second}, nil
}

// EmbedQuery embeds a single string, failing with KindEmpty on blank input.
func (e *LangChainEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ragerr.New("EmbedQuery", ragerr.KindEmpty, fmt.Errorf("empty input"))
	}

	vec, err := withBackoff(ctx, e.attempts, e.backoff, func() ([]float32, error) {
		return e.inner.EmbedQuery(ctx, text)
	})
	if err != nil {
		return nil, err
	}
	return normalize(vec), nil
}

// EmbedBatch embeds every text or fails atomically; positions in the
// result correspond to positions in texts.
func (e *LangChainEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	for _, t := range texts {
		if t == "" {
			return nil, ragerr.New("EmbedBatch", ragerr.KindEmpty, fmt.Errorf("empty input in batch"))
		}
	}

	vecs, err := withBackoff(ctx, e.attempts, e.backoff, func() ([][]float32, error) {
		return e.inner.EmbedDocuments(ctx, texts)
	})
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(texts) {
		return nil, ragerr.New("EmbedBatch", ragerr.KindInternal, fmt.Errorf("got %d vectors for %d inputs", len(vecs), len(texts)))
	}
	for i, v := range vecs {
		vecs[i] = normalize(v)
	}
	return vecs, nil
}

// withBackoff retries fn up to attempts times with a doubling delay,
// aborting early on context cancellation.
func withBackoff[T any](ctx context.Context, attempts int, delay time.Duration, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	wait := delay
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return zero, ragerr.New("withBackoff", ragerr.KindDeadlineExceeded, ctx.Err())
			case <-time.After(wait):
			}
			wait *= 2
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, ragerr.New("withBackoff", ragerr.KindDeadlineExceeded, ctx.Err())
		}
	}
	return zero, ragerr.New("withBackoff", ragerr.KindBackendUnavailable, lastErr)
}

// normalize returns v scaled to unit L2 norm. A near-zero vector is left
// unscaled rather than dividing by a near-zero magnitude.
func normalize(v []float32) []float32 {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	norm := math.Sqrt(sumSq)
	if norm < 1e-12 {
		return v
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}
