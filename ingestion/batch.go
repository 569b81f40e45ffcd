package ingestion

import (
	"context"
	"fmt"

	"github.com/pulsemed/protosearch/ai"
	"github.com/pulsemed/protosearch/core"
	"github.com/pulsemed/protosearch/embcache"
	"github.com/pulsemed/protosearch/storage"
)

// BatchProcessor embeds and stores one batch of protocol chunks.
type BatchProcessor struct {
	repo     storage.ChunkRepository
	embedder ai.Embedder
	policy   embcache.RetryPolicy
}

// NewBatchProcessor creates a new batch processor. Embedding calls are
// retried according to the given policy.
func NewBatchProcessor(repo storage.ChunkRepository, embedder ai.Embedder, policy embcache.RetryPolicy) *BatchProcessor {
	return &BatchProcessor{
		repo:     repo,
		embedder: embedder,
		policy:   policy,
	}
}

// Process validates the batch, generates embeddings for chunks that don't
// carry one yet, and writes everything to storage. Vectors are normalized
// to unit length so cosine similarity reduces to a dot product.
func (bp *BatchProcessor) Process(ctx context.Context, chunks []*core.ProtocolChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	for _, chunk := range chunks {
		if err := core.ValidateProtocolChunk(chunk); err != nil {
			return err
		}
	}

	var missing []*core.ProtocolChunk
	for _, chunk := range chunks {
		if len(chunk.Embedding) == 0 {
			missing = append(missing, chunk)
		}
	}

	if len(missing) > 0 {
		texts := make([]string, len(missing))
		for i, chunk := range missing {
			texts[i] = chunk.Text
		}

		var embeddings [][]float32
		err := bp.policy.Do(ctx, func() error {
			var err error
			embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
			return err
		})
		if err != nil {
			return fmt.Errorf("%w: embedding batch: %w", core.ErrProvider, err)
		}
		if len(embeddings) != len(missing) {
			return fmt.Errorf("%w: expected %d embeddings, got %d",
				core.ErrMalformedEmbedding, len(missing), len(embeddings))
		}

		for i, chunk := range missing {
			chunk.Embedding = NormalizeVector(embeddings[i])
		}
	}

	if _, err := bp.repo.AddChunks(ctx, chunks...); err != nil {
		return fmt.Errorf("storing chunk batch: %w", err)
	}
	return nil
}
