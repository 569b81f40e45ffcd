package embcache

import (
	"context"
	"sync"
	"time"

	"github.com/pulsemed/protosearch/core"
)

// EntryStore persists cache entries. Implementations must be safe for
// concurrent use. Get returns (nil, nil) when no live entry exists;
// expired entries are treated as absent.
type EntryStore interface {
	Get(ctx context.Context, key core.CacheKey) (*core.CacheEntry, error)
	Put(ctx context.Context, entry *core.CacheEntry) error
}

const memoryStoreShards = 16

// MemoryStore is an in-process EntryStore backed by a sharded mutex table,
// so unrelated queries never serialize on one lock.
type MemoryStore struct {
	shards [memoryStoreShards]memoryShard
}

type memoryShard struct {
	mu      sync.RWMutex
	entries map[core.CacheKey]*core.CacheEntry
}

var _ EntryStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory entry store.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{}
	for i := range s.shards {
		s.shards[i].entries = make(map[core.CacheKey]*core.CacheEntry)
	}
	return s
}

func (s *MemoryStore) shard(key core.CacheKey) *memoryShard {
	if len(key) == 0 {
		return &s.shards[0]
	}
	return &s.shards[int(key[0])%memoryStoreShards]
}

// Get returns the live entry for key, or nil when absent or expired.
// Expired entries are removed lazily.
func (s *MemoryStore) Get(_ context.Context, key core.CacheKey) (*core.CacheEntry, error) {
	shard := s.shard(key)

	shard.mu.RLock()
	entry := shard.entries[key]
	shard.mu.RUnlock()

	if entry == nil {
		return nil, nil
	}
	if entry.Expired(time.Now().UTC()) {
		shard.mu.Lock()
		// Recheck under the write lock; another goroutine may have
		// replaced the entry with a fresh one.
		if current := shard.entries[key]; current != nil && current.Expired(time.Now().UTC()) {
			delete(shard.entries, key)
		}
		shard.mu.Unlock()
		return nil, nil
	}
	return entry, nil
}

// Put stores an entry. An existing live entry for the same key is kept
// untouched; entries are write-once until they expire.
func (s *MemoryStore) Put(_ context.Context, entry *core.CacheEntry) error {
	shard := s.shard(entry.Key)

	shard.mu.Lock()
	defer shard.mu.Unlock()

	if current := shard.entries[entry.Key]; current != nil && !current.Expired(time.Now().UTC()) {
		return nil
	}
	shard.entries[entry.Key] = entry
	return nil
}

// Len reports the number of stored entries, counting expired ones not yet
// reaped. Intended for tests and diagnostics.
func (s *MemoryStore) Len() int {
	total := 0
	for i := range s.shards {
		s.shards[i].mu.RLock()
		total += len(s.shards[i].entries)
		s.shards[i].mu.RUnlock()
	}
	return total
}
