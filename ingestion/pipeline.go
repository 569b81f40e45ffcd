package ingestion

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/pulsemed/protosearch/ai"
	"github.com/pulsemed/protosearch/core"
	"github.com/pulsemed/protosearch/embcache"
	"github.com/pulsemed/protosearch/storage"
)

const defaultBatchSize = 32

// Pipeline loads protocol chunks into the search index. Batches are
// embedded and stored concurrently on a worker pool; chunks that already
// carry an embedding skip the provider round trip.
type Pipeline struct {
	chunks    storage.ChunkRepository
	embedder  ai.Embedder
	pool      *ants.Pool
	processor *BatchProcessor
	batchSize int
	policy    embcache.RetryPolicy
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithBatchSize sets how many chunks are embedded per provider call.
// Default is 32.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		p.batchSize = size
		return nil
	}
}

// WithRetryPolicy sets the retry policy for embedding calls.
// Default is embcache.DefaultRetryPolicy().
func WithRetryPolicy(policy embcache.RetryPolicy) Option {
	return func(p *Pipeline) error {
		p.policy = policy
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	chunks storage.ChunkRepository,
	embedder ai.Embedder,
	opts ...Option,
) (*Pipeline, error) {
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		chunks:    chunks,
		embedder:  embedder,
		pool:      pool,
		batchSize: defaultBatchSize,
		policy:    embcache.DefaultRetryPolicy(),
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	p.logger = p.logger.With("component", "ingestion")
	p.processor = NewBatchProcessor(chunks, embedder, p.policy)

	return p, nil
}

// Load ingests all chunks, blocking until every batch has been processed.
// Batches run concurrently; failures are collected and joined, and a
// failed batch never blocks the remaining ones. The tracker may be nil.
func (p *Pipeline) Load(ctx context.Context, chunks []*core.ProtocolChunk, tracker *ProgressTracker) error {
	if len(chunks) == 0 {
		return nil
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	for start := 0; start < len(chunks); start += p.batchSize {
		end := min(start+p.batchSize, len(chunks))
		batch := chunks[start:end]

		wg.Add(1)
		submitErr := p.pool.Submit(func() {
			defer wg.Done()

			if err := p.processor.Process(ctx, batch); err != nil {
				p.logger.Error("error processing chunk batch", "size", len(batch), "err", err)
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				return
			}
			if tracker != nil {
				tracker.Increment(len(batch))
			}
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			errs = append(errs, submitErr)
			mu.Unlock()
		}
	}

	wg.Wait()
	return errors.Join(errs...)
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
