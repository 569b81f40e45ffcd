// Package ratelimit provides a client-side rate-limiting decorator for
// ai.Embedder. Embedding providers are typically quota-limited; wrapping
// the embedder keeps the search path itself free of throttling concerns.
package ratelimit

import (
	"context"
	"errors"

	"github.com/pulsemed/protosearch/ai"
	"golang.org/x/time/rate"
)

// ErrEmbedderRequired is returned when no inner embedder is provided.
var ErrEmbedderRequired = errors.New("embedder required")

// Embedder wraps an ai.Embedder with a token-bucket rate limiter.
// A batch call consumes a single token regardless of batch size, matching
// how OpenAI-compatible APIs meter embedding requests.
type Embedder struct {
	inner   ai.Embedder
	limiter *rate.Limiter
}

var _ ai.Embedder = (*Embedder)(nil)

// NewEmbedder wraps inner with a limiter allowing requestsPerSecond
// sustained calls and the given burst. A non-positive requestsPerSecond
// returns the inner embedder unchanged.
func NewEmbedder(inner ai.Embedder, requestsPerSecond float64, burst int) (ai.Embedder, error) {
	if inner == nil {
		return nil, ErrEmbedderRequired
	}
	if requestsPerSecond <= 0 {
		return inner, nil
	}
	if burst < 1 {
		burst = 1
	}
	return &Embedder{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}, nil
}

// EmbedText waits for rate-limit clearance, then delegates.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return e.inner.EmbedText(ctx, text)
}

// EmbedTexts waits for rate-limit clearance, then delegates.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return e.inner.EmbedTexts(ctx, texts)
}
