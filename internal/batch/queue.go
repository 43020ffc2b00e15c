package batch

import "container/heap"

// entry tracks when a batch was last touched.
type entry struct {
	batch      *Batch
	lastUpdate int64 // ms since epoch
	index      int   // position in evictionQueue, -1 once removed
}

// evictionQueue is a min-heap of entries ordered by lastUpdate, then id.
type evictionQueue []*entry

var _ heap.Interface = (*evictionQueue)(nil)

func (q evictionQueue) Len() int { return len(q) }

func (q evictionQueue) Less(i, j int) bool {
	if q[i].lastUpdate != q[j].lastUpdate {
		return q[i].lastUpdate < q[j].lastUpdate
	}
	return q[i].batch.id < q[j].batch.id
}

func (q evictionQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *evictionQueue) Push(x any) {
	e := x.(*entry)
	e.index = len(*q)
	*q = append(*q, e)
}

func (q *evictionQueue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil // Clear reference for GC
	e.index = -1
	*q = old[:n-1]
	return e
}

// peek returns the oldest entry without removing it.
func (q evictionQueue) peek() *entry {
	if len(q) == 0 {
		return nil
	}
	return q[0]
}
