package embcache

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/pulsemed/protosearch/ai"
	"github.com/pulsemed/protosearch/core"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultTTL is how long a cached embedding stays live.
	DefaultTTL = 24 * time.Hour

	// DefaultComputeTimeout bounds a single provider computation,
	// independent of any waiter's deadline.
	DefaultComputeTimeout = 30 * time.Second
)

// Cache is a content-addressed embedding cache with single-flight
// deduplication. The entry store is the only shared mutable state; the
// cache itself is safe for concurrent use.
type Cache struct {
	store          EntryStore
	embedder       ai.Embedder
	policy         RetryPolicy
	ttl            time.Duration
	computeTimeout time.Duration
	group          singleflight.Group
	logger         *slog.Logger
}

// Option configures a Cache.
type Option func(*Cache) error

// WithTTL sets the entry time-to-live. Default is DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) error {
		c.ttl = ttl
		return nil
	}
}

// WithRetryPolicy sets the provider retry policy.
// Default is DefaultRetryPolicy().
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(c *Cache) error {
		if policy.MaxAttempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		c.policy = policy
		return nil
	}
}

// WithComputeTimeout bounds each underlying provider computation.
// Default is DefaultComputeTimeout.
func WithComputeTimeout(timeout time.Duration) Option {
	return func(c *Cache) error {
		c.computeTimeout = timeout
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// New creates a new embedding cache over the given store and embedder.
func New(store EntryStore, embedder ai.Embedder, opts ...Option) (*Cache, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	c := &Cache{
		store:          store,
		embedder:       embedder,
		policy:         DefaultRetryPolicy(),
		ttl:            DefaultTTL,
		computeTimeout: DefaultComputeTimeout,
		logger:         slog.Default().With("component", "embcache"),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// GetOrCompute returns the embedding for a canonical query text.
//
// A live cached entry is returned without a provider call. Otherwise the
// caller attaches to the single in-flight computation for this key, or
// starts one. The waiter honors ctx independently of the underlying
// provider call: on deadline expiry it detaches and returns, while the
// computation keeps running and may still populate the cache for later
// requests.
//
// Returns an error wrapping core.ErrProvider when the provider is
// unreachable and no cached or in-flight result is available in time.
func (c *Cache) GetOrCompute(ctx context.Context, canonicalText string) ([]float32, error) {
	key := core.CacheKeyFromText(canonicalText)

	if entry, err := c.store.Get(ctx, key); err != nil {
		c.logger.Warn("entry store read failed", "err", err)
	} else if entry != nil {
		return slices.Clone(entry.Vector), nil
	}

	ch := c.group.DoChan(string(key), func() (any, error) {
		// Detached from the waiter's cancellation: a waiter giving up
		// must not abort the computation for everyone else.
		return c.compute(context.WithoutCancel(ctx), key, canonicalText)
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: awaiting embedding: %w", core.ErrProvider, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return slices.Clone(res.Val.([]float32)), nil
	}
}

// Contains reports whether a live cached embedding exists for the
// canonical text. Used as the cost hint for quota accounting: a hit means
// a search costs no provider call.
func (c *Cache) Contains(canonicalText string) bool {
	entry, err := c.store.Get(context.Background(), core.CacheKeyFromText(canonicalText))
	return err == nil && entry != nil
}

// compute runs the provider call under the retry policy and writes the
// result to the store. Nothing is written on failure.
func (c *Cache) compute(ctx context.Context, key core.CacheKey, canonicalText string) ([]float32, error) {
	var vector []float32
	err := c.policy.Do(ctx, func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, c.computeTimeout)
		defer cancel()

		result, err := c.embedder.EmbedText(attemptCtx, canonicalText)
		if err != nil {
			return err
		}
		if len(result) == 0 {
			return core.ErrMalformedEmbedding
		}
		vector = result
		return nil
	})
	if err != nil {
		c.logger.Warn("embedding computation failed", "key", string(key), "err", err)
		return nil, fmt.Errorf("%w: %w", core.ErrProvider, err)
	}

	entry := &core.CacheEntry{
		Key:       key,
		Vector:    vector,
		CreatedAt: time.Now().UTC(),
		TTL:       c.ttl,
	}
	if err := c.store.Put(ctx, entry); err != nil {
		// The vector is still good; serving it beats failing the request.
		c.logger.Warn("entry store write failed", "key", string(key), "err", err)
	}

	// Entries are write-once: if another writer got there first, every
	// caller observes the stored vector, not this computation's.
	if stored, err := c.store.Get(ctx, key); err == nil && stored != nil {
		return stored.Vector, nil
	}
	return vector, nil
}
