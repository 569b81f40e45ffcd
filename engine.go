// Copyright 2026 PulseMed Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package protosearch

import (
	"context"
	"log/slog"

	"github.com/pulsemed/protosearch/ai"
	"github.com/pulsemed/protosearch/ai/openai"
	"github.com/pulsemed/protosearch/ai/ratelimit"
	"github.com/pulsemed/protosearch/core"
	"github.com/pulsemed/protosearch/embcache"
	"github.com/pulsemed/protosearch/ingestion"
	"github.com/pulsemed/protosearch/ranking"
	"github.com/pulsemed/protosearch/retrieval"
	"github.com/pulsemed/protosearch/storage"
	"github.com/pulsemed/protosearch/storage/badger"
)

// Engine is the top-level entry point: it owns the storage backend, the
// embedding cache, and the search orchestrator, and hands out ingestion
// pipelines bound to the same index.
type Engine struct {
	backend      *badger.Backend
	chunks       storage.ChunkRepository
	embedder     ai.Embedder
	cache        *embcache.Cache
	orchestrator *retrieval.Orchestrator
	logger       *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	aiConfig *ai.Config
	embedder ai.Embedder
	weights  ranking.Weights
	gapSink  retrieval.GapSink
	inMemory bool
	logger   *slog.Logger
}

// WithAIConfig sets the embedding provider configuration.
func WithAIConfig(config *ai.Config) EngineOption {
	return func(o *engineOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithEmbedder injects an embedder directly, bypassing the provider
// configuration. Intended for tests and custom transports.
func WithEmbedder(embedder ai.Embedder) EngineOption {
	return func(o *engineOptions) {
		o.embedder = embedder
	}
}

// WithWeights sets the ranking weights.
// Default is ranking.DefaultWeights().
func WithWeights(weights ranking.Weights) EngineOption {
	return func(o *engineOptions) {
		o.weights = weights
	}
}

// WithGapSink sets the sink receiving content gap signals.
// Default logs gaps through the engine's logger.
func WithGapSink(sink retrieval.GapSink) EngineOption {
	return func(o *engineOptions) {
		o.gapSink = sink
	}
}

// WithInMemory keeps the whole index in memory. Intended for tests.
func WithInMemory() EngineOption {
	return func(o *engineOptions) {
		o.inMemory = true
	}
}

// WithEngineLogger sets a custom logger.
// Default is slog.Default().
func WithEngineLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Open creates an Engine backed by the index at filePath.
func Open(filePath string, opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{
		aiConfig: ai.DefaultConfig(),
		weights:  ranking.DefaultWeights(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	chunks := badger.NewChunkRepository(backend)
	entries := badger.NewEmbeddingStore(backend)

	embedder := options.embedder
	if embedder == nil {
		embedder, err = openai.NewEmbedder(options.aiConfig)
		if err != nil {
			backend.Close()
			return nil, err
		}
		embedder, err = ratelimit.NewEmbedder(embedder,
			options.aiConfig.RequestsPerSecond, options.aiConfig.Burst)
		if err != nil {
			backend.Close()
			return nil, err
		}
	}

	cache, err := embcache.New(entries, embedder, embcache.WithLogger(options.logger))
	if err != nil {
		backend.Close()
		return nil, err
	}

	ranker, err := ranking.NewEngine(options.weights, options.logger)
	if err != nil {
		backend.Close()
		return nil, err
	}

	gapSink := options.gapSink
	if gapSink == nil {
		gapSink = retrieval.NewLogSink(options.logger)
	}

	orchestrator, err := retrieval.NewOrchestrator(chunks, cache, ranker,
		retrieval.WithLogger(options.logger),
		retrieval.WithGapSink(gapSink))
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &Engine{
		backend:      backend,
		chunks:       chunks,
		embedder:     embedder,
		cache:        cache,
		orchestrator: orchestrator,
		logger:       options.logger,
	}, nil
}

// Search runs a protocol search within the given scope.
func (e *Engine) Search(ctx context.Context, rawQuery string, scope *core.ScopeFilter, limit int) (*retrieval.Response, error) {
	return e.orchestrator.Search(ctx, rawQuery, scope, limit)
}

// SearchWithMonitor runs a search with per-stage monitoring callbacks.
func (e *Engine) SearchWithMonitor(ctx context.Context, rawQuery string, scope *core.ScopeFilter, limit int, monitor retrieval.SearchMonitor) (*retrieval.Response, error) {
	return e.orchestrator.SearchWithMonitor(ctx, rawQuery, scope, limit, monitor)
}

// EstimateCost reports how many provider calls a query would issue.
func (e *Engine) EstimateCost(rawQuery string) int {
	return e.orchestrator.EstimateCost(rawQuery)
}

// ChunkRepository exposes the underlying chunk index.
func (e *Engine) ChunkRepository() storage.ChunkRepository {
	return e.chunks
}

// NewIngestionPipeline creates a pipeline that loads chunks into this
// engine's index. Caller must Release the pipeline when done.
func (e *Engine) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	base := []ingestion.Option{ingestion.WithLogger(e.logger)}
	return ingestion.NewPipeline(e.chunks, e.embedder, append(base, opts...)...)
}

// Close closes the engine and releases storage resources.
func (e *Engine) Close() error {
	if err := e.chunks.Close(); err != nil {
		e.logger.Error("error closing chunk repository", "err", err)
		return err
	}
	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}
