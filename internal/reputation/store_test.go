package reputation

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LinkSentry/internal/domain"
)

// fakeDomainStore is an in-memory ports.DomainStore with call accounting.
type fakeDomainStore struct {
	mu      sync.Mutex
	data    map[string]domain.Verdict
	getErr  error
	gets    int
	upserts int
}

func newFakeDomainStore() *fakeDomainStore {
	return &fakeDomainStore{data: map[string]domain.Verdict{}}
}

func (f *fakeDomainStore) Get(_ context.Context, key string) (domain.Verdict, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.getErr != nil {
		return domain.VerdictUnknown, false, f.getErr
	}
	v, ok := f.data[key]
	if !ok {
		return domain.VerdictUnknown, false, nil
	}
	return v, true, nil
}

func (f *fakeDomainStore) Upsert(_ context.Context, key string, v domain.Verdict) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	f.data[key] = v
	return nil
}

type countingMetrics struct {
	mu     sync.Mutex
	counts map[string]int64
}

func (c *countingMetrics) Increment(metric string, delta int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts == nil {
		c.counts = map[string]int64{}
	}
	c.counts[metric] += delta
}

func (c *countingMetrics) get(metric string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[metric]
}

func TestLookup_ReadThrough(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	backing := newFakeDomainStore()
	backing.data["example.com"] = domain.VerdictSafe
	metrics := &countingMetrics{}
	store := New(backing, WithMetrics(metrics))

	// First lookup misses the cache and hits the persistent store.
	assert.Equal(t, domain.VerdictSafe, store.Lookup(ctx, "example.com"))
	assert.Equal(t, 1, backing.gets)
	assert.EqualValues(t, 0, metrics.get("cache_hit"))

	// Second lookup is served from cache.
	assert.Equal(t, domain.VerdictSafe, store.Lookup(ctx, "example.com"))
	assert.Equal(t, 1, backing.gets, "cache hit must not touch the persistent store")
	assert.EqualValues(t, 1, metrics.get("cache_hit"))
}

func TestLookup_MissReturnsUnknownAndIsNotCached(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	backing := newFakeDomainStore()
	store := New(backing)

	assert.Equal(t, domain.VerdictUnknown, store.Lookup(ctx, "nowhere.test"))

	// A miss is not cached: the next lookup queries the backing again, so a
	// later reputation write is not masked.
	backing.data["nowhere.test"] = domain.VerdictUnsafe
	assert.Equal(t, domain.VerdictUnsafe, store.Lookup(ctx, "nowhere.test"))
}

func TestLookup_StoreUnavailable(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	backing := newFakeDomainStore()
	backing.getErr = errors.New("connection refused")
	store := New(backing)

	assert.Equal(t, domain.VerdictUnknown, store.Lookup(ctx, "example.com"))

	// Nil backing behaves the same way.
	assert.Equal(t, domain.VerdictUnknown, New(nil).Lookup(ctx, "example.com"))
}

func TestRecord_WriteThrough(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	backing := newFakeDomainStore()
	store := New(backing)

	store.Record(ctx, "example.com", domain.VerdictUnsafe)
	require.Equal(t, domain.VerdictUnsafe, backing.data["example.com"])

	// Served from cache afterwards.
	gets := backing.gets
	assert.Equal(t, domain.VerdictUnsafe, store.Lookup(ctx, "example.com"))
	assert.Equal(t, gets, backing.gets)
}

func TestRecord_Idempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	backing := newFakeDomainStore()
	store := New(backing)

	store.Record(ctx, "example.com", domain.VerdictSafe)
	store.Record(ctx, "example.com", domain.VerdictSafe)

	assert.Equal(t, domain.VerdictSafe, store.Lookup(ctx, "example.com"))
	assert.Equal(t, domain.VerdictSafe, backing.data["example.com"])
}

func TestRecord_UnknownIsNeverPersisted(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	backing := newFakeDomainStore()
	store := New(backing)

	store.Record(ctx, "example.com", domain.VerdictUnknown)
	assert.Zero(t, backing.upserts)
	assert.Empty(t, backing.data)
}

func TestEviction_StrictLRUByAccessOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	// Nil backing so cache behavior is observable in isolation: an evicted
	// key looks like a miss and resolves to unknown.
	store := New(nil, WithCapacity(2))

	store.Record(ctx, "a.test", domain.VerdictSafe)
	store.Record(ctx, "b.test", domain.VerdictSafe)

	// Touch a so that b becomes the least recently used entry.
	require.Equal(t, domain.VerdictSafe, store.Lookup(ctx, "a.test"))

	store.Record(ctx, "c.test", domain.VerdictUnsafe)

	assert.Equal(t, domain.VerdictUnknown, store.Lookup(ctx, "b.test"), "b was LRU and must be evicted")
	assert.Equal(t, domain.VerdictSafe, store.Lookup(ctx, "a.test"))
	assert.Equal(t, domain.VerdictUnsafe, store.Lookup(ctx, "c.test"))
}

func TestConcurrentAccess(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	backing := newFakeDomainStore()
	store := New(backing, WithCapacity(8))

	keys := []string{"a.test", "b.test", "c.test", "d.test", "e.test"}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := keys[(i+j)%len(keys)]
				store.Record(ctx, key, domain.VerdictSafe)
				store.Lookup(ctx, key)
			}
		}(i)
	}
	wg.Wait()

	for _, key := range keys {
		assert.Equal(t, domain.VerdictSafe, store.Lookup(ctx, key))
	}
}
