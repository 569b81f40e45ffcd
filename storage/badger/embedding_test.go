package badger

import (
	"context"
	"testing"
	"time"

	"github.com/pulsemed/protosearch/core"
)

func TestEmbeddingStoreBasics(t *testing.T) {
	_, store, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()
	key := core.CacheKeyFromText("epinephrine dosage")

	got, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil {
		t.Fatal("Expected nil for missing entry")
	}

	entry := &core.CacheEntry{
		Key:       key,
		Vector:    []float32{0.1, 0.2, 0.3},
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
		TTL:       time.Hour,
	}
	if err := store.Put(ctx, entry); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err = store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected stored entry")
	}
	if len(got.Vector) != 3 || got.Vector[0] != 0.1 {
		t.Fatalf("Unexpected vector: %v", got.Vector)
	}
}

func TestEmbeddingStoreWriteOnce(t *testing.T) {
	_, store, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()
	key := core.CacheKeyFromText("naloxone dose")

	first := &core.CacheEntry{
		Key:       key,
		Vector:    []float32{1, 0},
		CreatedAt: time.Now().UTC(),
		TTL:       time.Hour,
	}
	if err := store.Put(ctx, first); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	second := &core.CacheEntry{
		Key:       key,
		Vector:    []float32{0, 1},
		CreatedAt: time.Now().UTC(),
		TTL:       time.Hour,
	}
	if err := store.Put(ctx, second); err != nil {
		t.Fatalf("Second put failed: %v", err)
	}

	got, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected stored entry")
	}
	if got.Vector[0] != 1 {
		t.Fatal("Expected first write to win for a live entry")
	}
}

func TestEmbeddingStoreExpiry(t *testing.T) {
	_, store, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()
	key := core.CacheKeyFromText("cervical spine")

	entry := &core.CacheEntry{
		Key:       key,
		Vector:    []float32{0.5},
		CreatedAt: time.Now().UTC().Add(-2 * time.Hour),
		TTL:       time.Hour,
	}
	if err := store.Put(ctx, entry); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil {
		t.Fatal("Expected expired entry to read as absent")
	}

	// An expired entry must not block a fresh write
	fresh := &core.CacheEntry{
		Key:       key,
		Vector:    []float32{0.9},
		CreatedAt: time.Now().UTC(),
		TTL:       time.Hour,
	}
	if err := store.Put(ctx, fresh); err != nil {
		t.Fatalf("Fresh put failed: %v", err)
	}

	got, err = store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil || got.Vector[0] != 0.9 {
		t.Fatal("Expected fresh entry to replace the expired one")
	}
}
