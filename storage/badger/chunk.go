package badger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/pulsemed/protosearch/core"
	"github.com/pulsemed/protosearch/storage"
)

// ChunkRepository implements storage.ChunkRepository for BadgerDB.
type ChunkRepository struct {
	backend *Backend
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a new ChunkRepository.
func NewChunkRepository(backend *Backend) *ChunkRepository {
	return &ChunkRepository{backend: backend}
}

// Close is a no-op; the backend owns the database handle.
func (r *ChunkRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *ChunkRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddChunks adds one or more protocol chunks to storage.
// Chunks with Id=0 get a content-based ID, so re-ingesting the same
// source material overwrites in place instead of duplicating.
func (r *ChunkRepository) AddChunks(ctx context.Context, chunks ...*core.ProtocolChunk) ([]*core.ProtocolChunk, error) {
	for _, chunk := range chunks {
		if err := core.ValidateProtocolChunk(chunk); err != nil {
			return nil, err
		}
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, chunk := range chunks {
			if chunk.Id == 0 {
				chunk.Id = chunk.ContentID()
			}

			key := makeChunkKey(chunk.StateCode, chunk.Id)
			value := storage.MarshalProtocolChunk(chunk)
			if err := tx.Set(key, value); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return chunks, err
}

// GetChunk retrieves a single chunk by ID within a state.
func (r *ChunkRepository) GetChunk(ctx context.Context, stateCode string, id core.ID) (*core.ProtocolChunk, error) {
	var chunk *core.ProtocolChunk

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		chunk, err = r.readChunk(tx, makeChunkKey(stateCode, id))
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	if chunk == nil {
		return nil, storage.ErrNotFound
	}

	return chunk, nil
}

// GetChunks retrieves multiple chunks by their IDs within a state.
// Missing chunks are skipped.
func (r *ChunkRepository) GetChunks(ctx context.Context, stateCode string, ids ...core.ID) ([]*core.ProtocolChunk, error) {
	var chunks []*core.ProtocolChunk

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			chunk, err := r.readChunk(tx, makeChunkKey(stateCode, id))
			if err != nil {
				return err
			}
			if chunk != nil {
				chunks = append(chunks, chunk)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	return chunks, nil
}

// NearestNeighbors finds the k chunks in the scope's state whose embeddings
// are most similar to the given vector.
func (r *ChunkRepository) NearestNeighbors(ctx context.Context, vector []float32, scope *core.ScopeFilter, k int) ([]core.ChunkMatch, error) {
	if err := validateScope(scope); err != nil {
		return nil, err
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", storage.ErrInvalidQuery)
	}

	var matches []core.ChunkMatch

	err := r.scanScope(scope, func(chunk *core.ProtocolChunk) {
		// Chunks without embeddings cannot participate in vector search
		if len(chunk.Embedding) == 0 {
			return
		}
		matches = append(matches, core.ChunkMatch{
			Chunk: chunk,
			Score: cosineSimilarity(vector, chunk.Embedding),
		})
	})
	if err != nil {
		return nil, err
	}

	sortMatches(matches)
	return truncate(matches, k), nil
}

// KeywordMatch finds chunks in the scope's state that contain the given
// terms. Each term contributes 1/N of the score when found in the text,
// 2/N when found in the title or protocol number, clamped to 1.0.
func (r *ChunkRepository) KeywordMatch(ctx context.Context, terms []string, scope *core.ScopeFilter, k int) ([]core.ChunkMatch, error) {
	if err := validateScope(scope); err != nil {
		return nil, err
	}
	if len(terms) == 0 {
		return nil, fmt.Errorf("%w: no search terms", storage.ErrInvalidQuery)
	}

	lowered := make([]string, len(terms))
	for i, term := range terms {
		lowered[i] = strings.ToLower(term)
	}

	var matches []core.ChunkMatch

	err := r.scanScope(scope, func(chunk *core.ProtocolChunk) {
		score := keywordScore(lowered, chunk)
		if score > 0 {
			matches = append(matches, core.ChunkMatch{Chunk: chunk, Score: score})
		}
	})
	if err != nil {
		return nil, err
	}

	sortMatches(matches)
	return truncate(matches, k), nil
}

// scanScope iterates all eligible chunks within the scope's state. The key
// prefix narrows the scan; scope.Matches is the eligibility check on the
// decoded chunk.
func (r *ChunkRepository) scanScope(scope *core.ScopeFilter, visit func(chunk *core.ProtocolChunk)) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeStatePrefix(scope.StateCode)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var chunk *core.ProtocolChunk
			err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalProtocolChunk(val)
				return err
			})
			if err != nil {
				return err
			}
			if chunk != nil && scope.Matches(chunk) {
				visit(chunk)
			}
		}
		return nil
	}, false)
}

func (r *ChunkRepository) readChunk(tx *badger.Txn, key []byte) (*core.ProtocolChunk, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var chunk *core.ProtocolChunk
	err = item.Value(func(val []byte) error {
		var err error
		chunk, err = storage.UnmarshalProtocolChunk(val)
		return err
	})
	return chunk, err
}

func validateScope(scope *core.ScopeFilter) error {
	if scope == nil || strings.TrimSpace(scope.StateCode) == "" {
		return fmt.Errorf("%w: scope requires a state code", storage.ErrInvalidQuery)
	}
	return nil
}

func keywordScore(terms []string, chunk *core.ProtocolChunk) float32 {
	text := strings.ToLower(chunk.Text)
	title := strings.ToLower(chunk.Title)
	number := strings.ToLower(chunk.ProtocolNumber)

	var credit float32
	for _, term := range terms {
		switch {
		case strings.Contains(title, term) || strings.Contains(number, term):
			credit += 2
		case strings.Contains(text, term):
			credit += 1
		}
	}

	score := credit / float32(len(terms))
	if score > 1 {
		score = 1
	}
	return score
}

// sortMatches orders by score descending, ties broken by ascending ID so
// repeated searches over the same data return identical orderings.
func sortMatches(matches []core.ChunkMatch) {
	slices.SortFunc(matches, func(a, b core.ChunkMatch) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		if a.Chunk.Id < b.Chunk.Id {
			return -1
		}
		if a.Chunk.Id > b.Chunk.Id {
			return 1
		}
		return 0
	})
}

func truncate(matches []core.ChunkMatch, k int) []core.ChunkMatch {
	if k > 0 && len(matches) > k {
		return matches[:k]
	}
	return matches
}

// cosineSimilarity calculates the cosine of the angle between two vectors.
func cosineSimilarity(a, b []float32) float32 {
	minLen := min(len(a), len(b))
	var dot, normA, normB float64
	for i := 0; i < minLen; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
