package cache

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// ReadThrough caches per-user query results. Keys are always scoped by user
// id so one user's entries can be dropped without touching others.
//
// Each user carries a generation counter bumped by Invalidate. A load that
// started before an invalidation never stores its result, so a read racing a
// write cannot resurrect stale data.
type ReadThrough struct {
	store *LRUCache[any]
	group singleflight.Group

	mu   sync.Mutex
	gens map[string]uint64
}

func NewReadThrough(store *LRUCache[any]) *ReadThrough {
	return &ReadThrough{store: store, gens: make(map[string]uint64)}
}

func userPrefix(userID string) string { return userID + "|" }

func (r *ReadThrough) generation(userID string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gens[userID]
}

// storeIfCurrent sets key only when no Invalidate ran since gen was read.
// Holding r.mu orders the Set against the generation bump in Invalidate.
func (r *ReadThrough) storeIfCurrent(userID string, gen uint64, key string, val any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gens[userID] == gen {
		r.store.Set(key, val)
	}
}

// Invalidate drops every cached entry of userID.
func (r *ReadThrough) Invalidate(userID string) int {
	r.mu.Lock()
	r.gens[userID]++
	r.mu.Unlock()
	return r.store.DeletePrefix(userPrefix(userID))
}

// Store exposes the backing cache for sweeping and stats.
func (r *ReadThrough) Store() *LRUCache[any] { return r.store }

// Load returns the cached value for (userID, key) or calls load. Concurrent
// loads of the same key within a generation share one call.
func Load[T any](ctx context.Context, r *ReadThrough, userID, key string, load func(context.Context) (T, error)) (T, error) {
	full := userPrefix(userID) + key
	if v, ok := r.store.Get(full); ok {
		if t, ok := v.(T); ok {
			return t, nil
		}
	}

	gen := r.generation(userID)
	v, err, _ := r.group.Do(fmt.Sprintf("%s#%d", full, gen), func() (any, error) {
		val, err := load(ctx)
		if err != nil {
			return nil, err
		}
		r.storeIfCurrent(userID, gen, full, val)
		return val, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
