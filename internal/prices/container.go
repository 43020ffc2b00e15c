package prices

import (
	"sync"

	"github.com/rickgao/lastprice/internal/model"
)

// Container holds the latest PriceRecord per instrument.
type Container struct {
	mu      sync.RWMutex
	records map[string]model.PriceRecord
}

// NewContainer creates an empty container.
func NewContainer() *Container {
	return &Container{
		records: make(map[string]model.PriceRecord),
	}
}

// Get returns the record for an instrument (read-locked).
func (c *Container) Get(instrument string) (model.PriceRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	r, ok := c.records[instrument]
	return r, ok
}

// Len returns the number of instruments with a record (read-locked).
func (c *Container) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// BulkUpdate applies records in order as one critical section (write-locked).
// Readers observe either none or all of the records.
func (c *Container) BulkUpdate(records []model.PriceRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, r := range records {
		c.putLocked(r)
	}
}

// ForEach calls fn once per instrument while holding the read lock.
// fn must not call back into c with a write.
func (c *Container) ForEach(fn func(model.PriceRecord)) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, r := range c.records {
		fn(r)
	}
}

// Snapshot returns a copy of all current records (read-locked).
func (c *Container) Snapshot() []model.PriceRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]model.PriceRecord, 0, len(c.records))
	for _, r := range c.records {
		result = append(result, r)
	}
	return result
}

// MergeInto copies every record of c into target using the keep-or-replace rule.
// Lock order is target write, then c read. Merging a container into itself is a no-op.
func (c *Container) MergeInto(target *Container) {
	if target == c {
		return
	}

	target.mu.Lock()
	defer target.mu.Unlock()

	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, r := range c.records {
		target.putLocked(r)
	}
}

// putLocked stores r unless the current record is newer (caller must hold write lock).
func (c *Container) putLocked(r model.PriceRecord) {
	existing, ok := c.records[r.Instrument]
	if !ok || r.NewerOrEqual(existing) {
		c.records[r.Instrument] = r
	}
}
