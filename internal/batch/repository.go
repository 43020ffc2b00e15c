package batch

import (
	"container/heap"
	"sync"
	"time"

	"github.com/rickgao/lastprice/internal/clock"
	"github.com/rickgao/lastprice/internal/model"
	"github.com/rickgao/lastprice/internal/sequence"
)

// Repository is a thread-safe store of live batch runs.
//
// A single sync.RWMutex guards the id index and the eviction queue together.
// Every mutating method serializes on the write lock, including writes to
// different ids. Get and Size take the read lock.
type Repository struct {
	clock clock.Clock
	ids   sequence.Generator

	mu      sync.RWMutex
	entries map[int64]*entry
	queue   evictionQueue
}

// NewRepository creates an empty repository.
func NewRepository(clk clock.Clock, ids sequence.Generator) *Repository {
	return &Repository{
		clock:   clk,
		ids:     ids,
		entries: make(map[int64]*entry),
	}
}

// Create allocates a new empty batch stamped with the current time.
func (r *Repository) Create() *Batch {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := newBatch(r.ids.Next())
	e := &entry{batch: b, lastUpdate: r.clock.NowMillis()}
	r.entries[b.id] = e
	heap.Push(&r.queue, e)
	return b
}

// Get returns the live batch with the given id (read-locked).
func (r *Repository) Get(id int64) (*Batch, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	return e.batch, true
}

// Remove detaches the batch and its eviction entry. The caller owns the returned batch.
func (r *Repository) Remove(id int64) (*Batch, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.removeLocked(id)
}

// Update stages records into the batch under the write lock and re-stamps its
// last update time. Returns false if the id is unknown.
func (r *Repository) Update(id int64, records []model.PriceRecord) (*Batch, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return nil, false
	}

	e.batch.apply(records)

	e.lastUpdate = r.clock.NowMillis()
	heap.Fix(&r.queue, e.index)
	return e.batch, true
}

// Size returns the number of live batches (read-locked).
func (r *Repository) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// RemoveOutdated removes, oldest first, batches whose last update is at or
// before now-maxAge. It stops at the first batch that is still fresh or after
// limit removals. A limit <= 0 means no limit. Returns the number removed.
func (r *Repository) RemoveOutdated(maxAge time.Duration, limit int) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	lastAllowed := r.clock.NowMillis() - maxAge.Milliseconds()

	removed := 0
	for limit <= 0 || removed < limit {
		oldest := r.queue.peek()
		if oldest == nil || oldest.lastUpdate > lastAllowed {
			break
		}
		r.removeLocked(oldest.batch.id)
		removed++
	}
	return removed
}

// RemoveAll unconditionally empties the repository.
func (r *Repository) RemoveAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.queue {
		e.index = -1
	}
	r.entries = make(map[int64]*entry)
	r.queue = nil
}

// removeLocked drops id from both the index and the queue (caller must hold write lock).
func (r *Repository) removeLocked(id int64) (*Batch, bool) {
	e, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	delete(r.entries, id)
	heap.Remove(&r.queue, e.index)
	return e.batch, true
}
