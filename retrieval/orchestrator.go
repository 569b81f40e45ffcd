package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pulsemed/protosearch/core"
	"github.com/pulsemed/protosearch/normalize"
	"github.com/pulsemed/protosearch/ranking"
	"github.com/pulsemed/protosearch/storage"
)

// Stage identifies a step of the search pipeline, used in timeout reporting.
type Stage string

const (
	StageNormalize     Stage = "normalization"
	StageEmbedding     Stage = "embedding lookup"
	StageVectorSearch  Stage = "vector search"
	StageKeywordSearch Stage = "keyword search"
	StageRanking       Stage = "ranking"
)

const (
	// DefaultLimit is used when the caller passes a non-positive limit.
	DefaultLimit = 10

	// Candidate sets are oversized relative to the requested limit so the
	// ranking signals have enough material to reorder.
	candidateMultiplier = 5
	minCandidates       = 20

	// gapRecordTimeout bounds the fire-and-forget gap emission.
	gapRecordTimeout = 5 * time.Second
)

// EmbeddingCache supplies query vectors, deduplicating concurrent requests
// for the same text.
type EmbeddingCache interface {
	GetOrCompute(ctx context.Context, canonicalText string) ([]float32, error)
	Contains(canonicalText string) bool
}

// GapSink receives content gap signals. Recording is fire-and-forget;
// failures are logged and never surface to the caller.
type GapSink interface {
	Record(ctx context.Context, signal *core.ContentGapSignal) error
}

// Response is the outcome of one search request.
type Response struct {
	RequestId uuid.UUID
	Results   []core.RankedResult
	Mode      core.SearchMode
	Degraded  bool
}

// Orchestrator runs the search pipeline: normalization, embedding lookup,
// scoped candidate retrieval, and ranking. When the embedding provider or
// the vector path fails it degrades to keyword-only search instead of
// failing the request.
type Orchestrator struct {
	chunks storage.ChunkRepository
	cache  EmbeddingCache
	engine *ranking.Engine
	gaps   GapSink
	logger *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// WithGapSink sets the sink that receives content gap signals.
// Default is no sink.
func WithGapSink(sink GapSink) Option {
	return func(o *Orchestrator) error {
		o.gaps = sink
		return nil
	}
}

// NewOrchestrator creates a new search orchestrator.
func NewOrchestrator(
	chunks storage.ChunkRepository,
	cache EmbeddingCache,
	engine *ranking.Engine,
	opts ...Option,
) (*Orchestrator, error) {
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if cache == nil {
		return nil, ErrEmbeddingCacheRequired
	}
	if engine == nil {
		return nil, ErrRankingEngineRequired
	}

	o := &Orchestrator{
		chunks: chunks,
		cache:  cache,
		engine: engine,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	o.logger = o.logger.With("component", "retrieval")
	return o, nil
}

// Search runs a protocol search within the given scope.
// Returns up to limit results, ranked by composite relevance.
func (o *Orchestrator) Search(ctx context.Context, rawQuery string, scope *core.ScopeFilter, limit int) (*Response, error) {
	return o.SearchWithMonitor(ctx, rawQuery, scope, limit, nil)
}

// SearchWithMonitor runs a search with per-stage monitoring callbacks.
func (o *Orchestrator) SearchWithMonitor(ctx context.Context, rawQuery string, scope *core.ScopeFilter, limit int, monitor SearchMonitor) (*Response, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if err := core.ValidateScopeFilter(scope); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	requestId := uuid.New()
	logger := o.logger.With("request_id", requestId)

	monitor.Start(rawQuery)

	query := normalize.Normalize(rawQuery)
	monitor.AfterNormalize(&query)
	if query.Empty() {
		// Nothing searchable: empty result, never an error. The provider
		// and the index are not touched.
		logger.Debug("query empty after normalization")
		monitor.Finish(nil)
		return &Response{RequestId: requestId, Mode: core.ModeVector}, nil
	}

	k := max(limit*candidateMultiplier, minCandidates)
	mode := core.ModeVector

	var candidates []core.ChunkMatch
	vector, err := o.cache.GetOrCompute(ctx, query.CanonicalText)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &TimeoutError{Stage: StageEmbedding, Err: err}
		}
		logger.Warn("embedding unavailable, degrading to keyword search", "err", err)
		monitor.Degrading(err)
		mode = core.ModeKeyword
	} else {
		monitor.AfterEmbedding(true)
		candidates, err = o.chunks.NearestNeighbors(ctx, vector, scope, k)
		if err != nil {
			if ctx.Err() != nil {
				return nil, &TimeoutError{Stage: StageVectorSearch, Err: err}
			}
			logger.Warn("vector search failed, degrading to keyword search", "err", err)
			monitor.Degrading(err)
			mode = core.ModeKeyword
		} else {
			monitor.AfterVectorSearch(candidates)
		}
	}

	if mode == core.ModeKeyword {
		candidates, err = o.chunks.KeywordMatch(ctx, query.ExpandedTerms, scope, k)
		if err != nil {
			if ctx.Err() != nil {
				return nil, &TimeoutError{Stage: StageKeywordSearch, Err: err}
			}
			return nil, fmt.Errorf("%w: keyword search: %w", core.ErrIndex, err)
		}
		monitor.AfterKeywordSearch(candidates)
	}

	results, gap := o.engine.Rank(&query, candidates, scope, mode)
	if gap && mode == core.ModeVector {
		o.recordGap(ctx, logger, &query, scope, monitor)
	}

	if len(results) > limit {
		results = results[:limit]
	}
	monitor.Finish(results)

	logger.Debug("search complete",
		"mode", mode.String(),
		"candidates", len(candidates),
		"results", len(results),
		"gap", gap)

	return &Response{
		RequestId: requestId,
		Results:   results,
		Mode:      mode,
		Degraded:  mode == core.ModeKeyword,
	}, nil
}

// EstimateCost reports how many embedding provider calls a query would
// issue: zero for empty or already-cached queries, one otherwise.
func (o *Orchestrator) EstimateCost(rawQuery string) int {
	query := normalize.Normalize(rawQuery)
	if query.Empty() {
		return 0
	}
	if o.cache.Contains(query.CanonicalText) {
		return 0
	}
	return 1
}

// recordGap emits a content gap signal without blocking the request.
// The detached context keeps the write alive after the caller returns.
func (o *Orchestrator) recordGap(ctx context.Context, logger *slog.Logger, query *core.NormalizedQuery, scope *core.ScopeFilter, monitor SearchMonitor) {
	signal := &core.ContentGapSignal{Query: *query, Scope: *scope}
	monitor.ContentGap(signal)

	if o.gaps == nil {
		return
	}

	gapCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), gapRecordTimeout)
	go func() {
		defer cancel()
		if err := o.gaps.Record(gapCtx, signal); err != nil {
			logger.Warn("failed to record content gap", "err", err)
		}
	}()
}
