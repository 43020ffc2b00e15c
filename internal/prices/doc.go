// Package prices implements the thread-safe price container.
//
// A Container maps instrument to its most recent PriceRecord. Each container
// owns a single sync.RWMutex:
//   - Get, ForEach, Snapshot, Len take the read lock
//   - BulkUpdate takes the write lock for the whole slice of records
//   - MergeInto takes the target's write lock, then the source's read lock
//
// Merges only ever flow from a batch into the market container, so the
// target-then-source order can never form a cycle.
package prices
