package retrieval

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsemed/protosearch/ai/mock"
	"github.com/pulsemed/protosearch/core"
	"github.com/pulsemed/protosearch/embcache"
	"github.com/pulsemed/protosearch/ranking"
	"github.com/pulsemed/protosearch/storage"
	"github.com/pulsemed/protosearch/storage/badger"
)

type fixture struct {
	orchestrator *Orchestrator
	chunks       storage.ChunkRepository
	embedder     *mock.MockEmbedder
	gaps         *recordingGapSink
}

type recordingGapSink struct {
	mu      sync.Mutex
	signals []*core.ContentGapSignal
}

func (s *recordingGapSink) Record(ctx context.Context, signal *core.ContentGapSignal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signals = append(s.signals, signal)
	return nil
}

func (s *recordingGapSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.signals)
}

func newFixture(t *testing.T, embedder *mock.MockEmbedder) *fixture {
	t.Helper()

	chunkRepo, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	cache, err := embcache.New(embcache.NewMemoryStore(), embedder,
		embcache.WithRetryPolicy(embcache.ZeroDelayPolicy(1)))
	require.NoError(t, err)

	engine, err := ranking.NewEngine(ranking.DefaultWeights(), nil)
	require.NoError(t, err)

	gaps := &recordingGapSink{}
	orchestrator, err := NewOrchestrator(chunkRepo, cache, engine, WithGapSink(gaps))
	require.NoError(t, err)

	return &fixture{
		orchestrator: orchestrator,
		chunks:       chunkRepo,
		embedder:     embedder,
		gaps:         gaps,
	}
}

func seedProtocols(t *testing.T, f *fixture) {
	t.Helper()

	chunks := []*core.ProtocolChunk{
		{
			Id:             1,
			AgencyId:       42,
			CountyId:       7,
			StateCode:      "CA",
			ProtocolNumber: "M-12",
			Title:          "Anaphylaxis",
			Section:        "Adult Treatment",
			Text:           "Epinephrine auto-injector 0.3 mg IM for adults with anaphylaxis.",
			Embedding:      []float32{1, 0, 0},
			Year:           2024,
		},
		{
			Id:             2,
			AgencyId:       7,
			CountyId:       7,
			StateCode:      "CA",
			ProtocolNumber: "A-3",
			Title:          "Allergic Reaction",
			Section:        "Adult Treatment",
			Text:           "Epinephrine auto-injector 0.3 mg IM for severe allergic reaction.",
			Embedding:      []float32{0.95, 0.05, 0},
			Year:           2023,
		},
		{
			Id:             3,
			AgencyId:       42,
			CountyId:       7,
			StateCode:      "CA",
			ProtocolNumber: "T-1",
			Title:          "Trauma Triage",
			Section:        "Assessment",
			Text:           "Transport decisions for multi-system trauma.",
			Embedding:      []float32{0, 0, 1},
			Year:           2024,
		},
	}

	_, err := f.chunks.AddChunks(context.Background(), chunks...)
	require.NoError(t, err)
}

func caScope() *core.ScopeFilter {
	return &core.ScopeFilter{StateCode: "CA", CountyId: 7, AgencyId: 42}
}

func TestNewOrchestrator_Validation(t *testing.T) {
	f := newFixture(t, mock.NewMockEmbedder())

	cache, err := embcache.New(embcache.NewMemoryStore(), mock.NewMockEmbedder())
	require.NoError(t, err)
	engine, err := ranking.NewEngine(ranking.DefaultWeights(), nil)
	require.NoError(t, err)

	_, err = NewOrchestrator(nil, cache, engine)
	assert.ErrorIs(t, err, ErrChunkRepositoryRequired)

	_, err = NewOrchestrator(f.chunks, nil, engine)
	assert.ErrorIs(t, err, ErrEmbeddingCacheRequired)

	_, err = NewOrchestrator(f.chunks, cache, nil)
	assert.ErrorIs(t, err, ErrRankingEngineRequired)
}

func TestSearch_VectorPath(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0, 0}, nil
	}

	f := newFixture(t, embedder)
	seedProtocols(t, f)

	resp, err := f.orchestrator.Search(context.Background(), "Epi Pen dose", caScope(), 10)
	require.NoError(t, err)

	assert.Equal(t, core.ModeVector, resp.Mode)
	assert.False(t, resp.Degraded)
	require.NotEmpty(t, resp.Results)

	// The agency's own anaphylaxis protocol outranks the neighboring
	// agency's near-identical chunk, which still appears.
	assert.Equal(t, core.ID(1), resp.Results[0].Chunk.Id)
	assert.Equal(t, 1, resp.Results[0].Rank)

	var sawNeighbor bool
	for _, r := range resp.Results {
		if r.Chunk.Id == 2 {
			sawNeighbor = true
			assert.Greater(t, resp.Results[0].CompositeScore, r.CompositeScore)
		}
	}
	assert.True(t, sawNeighbor, "county-level chunk should remain in results")

	assert.Equal(t, 1, f.embedder.CallCount())
	assert.Zero(t, f.gaps.count())
}

func TestSearch_CachedQuerySkipsProvider(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0, 0}, nil
	}

	f := newFixture(t, embedder)
	seedProtocols(t, f)

	ctx := context.Background()
	_, err := f.orchestrator.Search(ctx, "epi pen dose", caScope(), 5)
	require.NoError(t, err)

	// Different surface form, same canonical text: served from cache.
	_, err = f.orchestrator.Search(ctx, "  EPI PEN   DOSE  ", caScope(), 5)
	require.NoError(t, err)

	assert.Equal(t, 1, f.embedder.CallCount())
}

func TestSearch_DegradesWhenProviderFails(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("provider unreachable")
	}

	f := newFixture(t, embedder)
	seedProtocols(t, f)

	resp, err := f.orchestrator.Search(context.Background(), "epi pen dose", caScope(), 10)
	require.NoError(t, err)

	assert.Equal(t, core.ModeKeyword, resp.Mode)
	assert.True(t, resp.Degraded)
	require.NotEmpty(t, resp.Results)

	for _, r := range resp.Results {
		assert.True(t, r.Degraded)
		assert.Zero(t, r.SimilarityScore)
	}

	// Keyword-first: the anaphylaxis chunks match the expanded terms,
	// the trauma chunk does not.
	for _, r := range resp.Results {
		assert.NotEqual(t, core.ID(3), r.Chunk.Id)
	}

	// No gap signal in degraded mode
	assert.Zero(t, f.gaps.count())
}

func TestSearch_EmptyQuery(t *testing.T) {
	f := newFixture(t, mock.NewMockEmbedder())
	seedProtocols(t, f)

	for _, raw := range []string{"", "   ", "!!!", "?!?"} {
		resp, err := f.orchestrator.Search(context.Background(), raw, caScope(), 10)
		require.NoError(t, err, "query %q", raw)
		assert.Empty(t, resp.Results, "query %q", raw)
		assert.Equal(t, core.ModeVector, resp.Mode, "query %q", raw)
		assert.False(t, resp.Degraded, "query %q", raw)
		assert.NotEqual(t, uuid.Nil, resp.RequestId)
	}

	// The fast path never touches the provider or the index
	assert.Zero(t, f.embedder.CallCount())
	assert.Zero(t, f.gaps.count())
}

func TestSearch_InvalidScope(t *testing.T) {
	f := newFixture(t, mock.NewMockEmbedder())

	_, err := f.orchestrator.Search(context.Background(), "epi pen dose", nil, 10)
	assert.ErrorIs(t, err, core.ErrInvalidScope)

	_, err = f.orchestrator.Search(context.Background(), "epi pen dose", &core.ScopeFilter{}, 10)
	assert.ErrorIs(t, err, core.ErrMissingStateCode)
}

func TestSearch_GapSignal(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{0, 1, 0}, nil
	}

	f := newFixture(t, embedder)
	// Empty corpus: vector search finds nothing relevant

	resp, err := f.orchestrator.Search(context.Background(), "pediatric burn dosing", caScope(), 10)
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.Equal(t, core.ModeVector, resp.Mode)

	// Gap emission is asynchronous
	require.Eventually(t, func() bool {
		return f.gaps.count() == 1
	}, time.Second, 10*time.Millisecond)

	f.gaps.mu.Lock()
	signal := f.gaps.signals[0]
	f.gaps.mu.Unlock()
	assert.Equal(t, "CA", signal.Scope.StateCode)
	assert.Contains(t, signal.Query.Tokens, "pediatric")
}

func TestSearch_LimitTruncation(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0, 0}, nil
	}

	f := newFixture(t, embedder)
	seedProtocols(t, f)

	resp, err := f.orchestrator.Search(context.Background(), "epinephrine", caScope(), 1)
	require.NoError(t, err)
	assert.Len(t, resp.Results, 1)
	assert.Equal(t, 1, resp.Results[0].Rank)
}

func TestSearch_DeadlineDuringEmbedding(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	f := newFixture(t, embedder)
	seedProtocols(t, f)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := f.orchestrator.Search(ctx, "epi pen dose", caScope(), 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrTimeout)

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, StageEmbedding, timeoutErr.Stage)
}

func TestEstimateCost(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0, 0}, nil
	}

	f := newFixture(t, embedder)
	seedProtocols(t, f)

	assert.Equal(t, 0, f.orchestrator.EstimateCost(""))
	assert.Equal(t, 0, f.orchestrator.EstimateCost("!!!"))
	assert.Equal(t, 1, f.orchestrator.EstimateCost("epi pen dose"))

	_, err := f.orchestrator.Search(context.Background(), "epi pen dose", caScope(), 5)
	require.NoError(t, err)

	assert.Equal(t, 0, f.orchestrator.EstimateCost("epi pen dose"))
	assert.Equal(t, 0, f.orchestrator.EstimateCost("EPI PEN dose"))
}

func TestSearchWithMonitor(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0, 0}, nil
	}

	f := newFixture(t, embedder)
	seedProtocols(t, f)

	monitor := &testMonitor{}
	resp, err := f.orchestrator.SearchWithMonitor(context.Background(), "epi pen dose", caScope(), 5, monitor)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)

	assert.Equal(t, "epi pen dose", monitor.started)
	assert.NotNil(t, monitor.normalized)
	assert.True(t, monitor.vectorSearched)
	assert.Equal(t, len(resp.Results), monitor.finished)
}

type testMonitor struct {
	started        string
	normalized     *core.NormalizedQuery
	vectorSearched bool
	finished       int
}

func (m *testMonitor) Start(rawQuery string) {
	m.started = rawQuery
}

func (m *testMonitor) AfterNormalize(query *core.NormalizedQuery) {
	m.normalized = query
}

func (m *testMonitor) AfterEmbedding(cached bool) {}

func (m *testMonitor) AfterVectorSearch(candidates []core.ChunkMatch) {
	m.vectorSearched = true
}

func (m *testMonitor) Degrading(reason error) {}

func (m *testMonitor) AfterKeywordSearch(candidates []core.ChunkMatch) {}

func (m *testMonitor) ContentGap(signal *core.ContentGapSignal) {}

func (m *testMonitor) Finish(results []core.RankedResult) {
	m.finished = len(results)
}
