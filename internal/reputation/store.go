package reputation

import (
	"container/list"
	"context"
	"log/slog"
	"sync"

	"LinkSentry/internal/domain"
	"LinkSentry/internal/ports"
)

const defaultCapacity = 1000

// Store is the two-tier reputation map: a bounded strict-LRU cache in front
// of a persistent domain store. The persistent store is the source of truth;
// the cache only accelerates reads and is never authoritative on its own.
type Store struct {
	backing ports.DomainStore
	metrics ports.MetricsSink
	logger  *slog.Logger

	mu       sync.Mutex
	capacity int
	entries  map[string]*list.Element
	recency  *list.List // front = most recently used
}

var _ ports.ReputationStore = (*Store)(nil)

type cacheEntry struct {
	key     string
	verdict domain.Verdict
}

// Option customizes a Store.
type Option func(*Store)

// WithCapacity overrides the default cache capacity of 1000 entries.
func WithCapacity(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// WithMetrics wires a counter sink for cache-hit accounting.
func WithMetrics(m ports.MetricsSink) Option {
	return func(s *Store) { s.metrics = m }
}

// WithLogger attaches a logger for degraded-mode events.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New builds a Store over the given persistent backing. A nil backing is
// allowed and behaves as a permanently unavailable store.
func New(backing ports.DomainStore, opts ...Option) *Store {
	s := &Store{
		backing:  backing,
		capacity: defaultCapacity,
		entries:  make(map[string]*list.Element),
		recency:  list.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Lookup resolves a domain key to a verdict. Cache hits return immediately
// and count a cache_hit metric; cache misses fall through to the persistent
// store, populating the cache on a hit. Persistent misses and store
// unavailability both yield VerdictUnknown; unavailability is never treated
// as unsafe. Misses are not cached, so a later reputation write is not masked.
func (s *Store) Lookup(ctx context.Context, key string) domain.Verdict {
	if v, ok := s.cacheGet(key); ok {
		if s.metrics != nil {
			s.metrics.Increment("cache_hit", 1)
		}
		return v
	}

	if s.backing == nil {
		return domain.VerdictUnknown
	}

	verdict, found, err := s.backing.Get(ctx, key)
	if err != nil {
		s.warn("reputation lookup degraded", "domain", key, "error", err)
		return domain.VerdictUnknown
	}
	if !found || !verdict.Known() {
		return domain.VerdictUnknown
	}

	s.cachePut(key, verdict)
	return verdict
}

// Record upserts a verdict, persistent store first so the cache never holds a
// value the storage was not at least asked to keep. The cache update still
// happens when persistence fails, keeping in-process behavior consistent for
// the rest of the run.
func (s *Store) Record(ctx context.Context, key string, verdict domain.Verdict) {
	if !verdict.Known() {
		return
	}

	if s.backing != nil {
		if err := s.backing.Upsert(ctx, key, verdict); err != nil {
			s.warn("reputation write degraded", "domain", key, "error", err)
		}
	}
	s.cachePut(key, verdict)
}

// cacheGet returns the cached verdict and refreshes its recency.
func (s *Store) cacheGet(key string) (domain.Verdict, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.entries[key]
	if !ok {
		return domain.VerdictUnknown, false
	}
	s.recency.MoveToFront(elem)
	return elem.Value.(*cacheEntry).verdict, true
}

// cachePut inserts or refreshes an entry, evicting the least recently used
// one when over capacity. Map mutation and recency bookkeeping happen under a
// single critical section.
func (s *Store) cachePut(key string, verdict domain.Verdict) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if elem, ok := s.entries[key]; ok {
		elem.Value.(*cacheEntry).verdict = verdict
		s.recency.MoveToFront(elem)
		return
	}

	s.entries[key] = s.recency.PushFront(&cacheEntry{key: key, verdict: verdict})

	if s.recency.Len() > s.capacity {
		oldest := s.recency.Back()
		if oldest != nil {
			s.recency.Remove(oldest)
			delete(s.entries, oldest.Value.(*cacheEntry).key)
		}
	}
}

func (s *Store) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
