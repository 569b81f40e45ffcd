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


package storage

import (
	"context"

	"github.com/pulsemed/protosearch/core"
)

// ChunkRepository provides operations for managing protocol chunks.
// Implementations must be thread-safe and support concurrent access.
type ChunkRepository interface {
	// AddChunks adds one or more protocol chunks to storage.
	// For chunks with Id=0, derives a content-based ID from the chunk text.
	// Returns the chunks with IDs populated.
	AddChunks(ctx context.Context, chunks ...*core.ProtocolChunk) ([]*core.ProtocolChunk, error)

	// GetChunk retrieves a single chunk by ID within a state.
	// Returns ErrNotFound if the chunk doesn't exist.
	GetChunk(ctx context.Context, stateCode string, id core.ID) (*core.ProtocolChunk, error)

	// GetChunks retrieves multiple chunks by their IDs within a state.
	// Returns only the chunks that exist (no error for missing chunks).
	GetChunks(ctx context.Context, stateCode string, ids ...core.ID) ([]*core.ProtocolChunk, error)

	// NearestNeighbors finds chunks inside the scope's state whose embeddings
	// are most similar to the given vector. Returns up to k matches ordered
	// by similarity score (highest first), ties broken by ascending ID.
	NearestNeighbors(ctx context.Context, vector []float32, scope *core.ScopeFilter, k int) ([]core.ChunkMatch, error)

	// KeywordMatch finds chunks inside the scope's state that contain the
	// given terms. The score is the fraction of terms present, with matches
	// in the title or protocol number counted double, clamped to 1.0.
	// Returns up to k matches ordered by score (highest first), ties broken
	// by ascending ID.
	KeywordMatch(ctx context.Context, terms []string, scope *core.ScopeFilter, k int) ([]core.ChunkMatch, error)

	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}
