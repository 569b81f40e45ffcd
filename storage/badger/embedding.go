package badger

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/pulsemed/protosearch/core"
	"github.com/pulsemed/protosearch/embcache"
	"github.com/pulsemed/protosearch/storage"
)

// EmbeddingStore persists embedding cache entries in BadgerDB so cached
// vectors survive process restarts. Entries use BadgerDB's native TTL in
// addition to the entry's own expiry check.
type EmbeddingStore struct {
	backend *Backend
}

var _ embcache.EntryStore = (*EmbeddingStore)(nil)

// NewEmbeddingStore creates a new EmbeddingStore.
func NewEmbeddingStore(backend *Backend) *EmbeddingStore {
	return &EmbeddingStore{backend: backend}
}

// Get returns the live entry for key, or nil when absent or expired.
func (s *EmbeddingStore) Get(ctx context.Context, key core.CacheKey) (*core.CacheEntry, error) {
	var entry *core.CacheEntry

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeCacheEntryKey(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var err error
			entry, err = storage.UnmarshalCacheEntry(val)
			return err
		})
	}, false)
	if err != nil {
		return nil, err
	}

	if entry == nil || entry.Expired(time.Now()) {
		return nil, nil
	}
	return entry, nil
}

// Put stores an entry. An existing live entry for the same key is kept
// untouched, so the first stored vector wins for a key's lifetime.
func (s *EmbeddingStore) Put(ctx context.Context, entry *core.CacheEntry) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		key := makeCacheEntryKey(entry.Key)

		item, err := tx.Get(key)
		if err == nil {
			var existing *core.CacheEntry
			err = item.Value(func(val []byte) error {
				var err error
				existing, err = storage.UnmarshalCacheEntry(val)
				return err
			})
			if err != nil {
				return err
			}
			if existing != nil && !existing.Expired(time.Now()) {
				return nil
			}
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		e := badger.NewEntry(key, storage.MarshalCacheEntry(entry))
		if entry.TTL > 0 {
			e = e.WithTTL(entry.TTL)
		}
		if err := tx.SetEntry(e); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}
