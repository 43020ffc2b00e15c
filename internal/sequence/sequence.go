// Package sequence generates unique, ascending batch identifiers.
package sequence

import "sync/atomic"

// Generator yields unique identifiers in ascending order.
type Generator interface {
	Next() int64
}

// Counter is a lock-free Generator.
type Counter struct {
	next atomic.Int64
}

// NewCounter returns a Counter whose first value is seed.
func NewCounter(seed int64) *Counter {
	c := &Counter{}
	c.next.Store(seed)
	return c
}

// Next returns the current value and advances the counter.
func (c *Counter) Next() int64 {
	return c.next.Add(1) - 1
}
