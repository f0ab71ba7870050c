// Package loader coalesces per-key lookups made while resolving one request
// into bulk fetches.
//
// Keys are collected with Prime and fetched together by Flush, which is the
// batch barrier: the caller decides when a unit of work has enqueued all its
// keys. Load on a key that was never primed falls back to a flush of
// whatever is pending, so it still costs one query for the whole queue.
// A Loader caches everything it fetched and must not outlive its request.
package loader

import (
	"context"
	"sync"
)

// BatchFunc fetches the values for keys. Keys missing from the returned map
// resolve to the zero value of V.
type BatchFunc[K comparable, V any] func(ctx context.Context, keys []K) (map[K]V, error)

type Loader[K comparable, V any] struct {
	batch BatchFunc[K, V]

	mu      sync.Mutex
	cache   map[K]V
	pending []K
	queued  map[K]struct{}
}

func New[K comparable, V any](batch BatchFunc[K, V]) *Loader[K, V] {
	return &Loader[K, V]{
		batch:  batch,
		cache:  make(map[K]V),
		queued: make(map[K]struct{}),
	}
}

// Prime enqueues keys for the next Flush. Keys already fetched or queued are
// skipped.
func (l *Loader[K, V]) Prime(keys ...K) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enqueueLocked(keys)
}

// Flush fetches every queued key with one call to the batch function.
func (l *Loader[K, V]) Flush(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.flushLocked(ctx)
}

// Load returns the value for key, fetching it together with anything else
// queued if it has not been fetched yet.
func (l *Loader[K, V]) Load(ctx context.Context, key K) (V, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if v, ok := l.cache[key]; ok {
		return v, nil
	}
	l.enqueueLocked([]K{key})
	if err := l.flushLocked(ctx); err != nil {
		var zero V
		return zero, err
	}
	return l.cache[key], nil
}

// LoadMany returns values in the order of keys. Duplicate keys are fetched
// once.
func (l *Loader[K, V]) LoadMany(ctx context.Context, keys []K) ([]V, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.enqueueLocked(keys)
	if err := l.flushLocked(ctx); err != nil {
		return nil, err
	}

	out := make([]V, len(keys))
	for i, key := range keys {
		out[i] = l.cache[key]
	}
	return out, nil
}

func (l *Loader[K, V]) enqueueLocked(keys []K) {
	for _, key := range keys {
		if _, ok := l.cache[key]; ok {
			continue
		}
		if _, ok := l.queued[key]; ok {
			continue
		}
		l.queued[key] = struct{}{}
		l.pending = append(l.pending, key)
	}
}

func (l *Loader[K, V]) flushLocked(ctx context.Context) error {
	if len(l.pending) == 0 {
		return nil
	}
	keys := l.pending
	l.pending = nil
	l.queued = make(map[K]struct{})

	found, err := l.batch(ctx, keys)
	if err != nil {
		return err
	}
	for _, key := range keys {
		// Misses are cached as the zero value so they are not fetched again.
		l.cache[key] = found[key]
	}
	return nil
}
