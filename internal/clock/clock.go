// Package clock provides the wall-clock time source used for batch eviction.
package clock

import (
	"sync/atomic"
	"time"
)

// Clock yields milliseconds since the Unix epoch.
type Clock interface {
	NowMillis() int64
}

// System reads the operating system clock.
type System struct{}

// NowMillis returns time.Now in milliseconds.
func (System) NowMillis() int64 {
	return time.Now().UnixMilli()
}

// Manual is a Clock whose time only moves when told to. Safe for concurrent use.
type Manual struct {
	now atomic.Int64
}

// NewManual creates a Manual clock set to startMillis.
func NewManual(startMillis int64) *Manual {
	m := &Manual{}
	m.now.Store(startMillis)
	return m
}

// NowMillis returns the current manual time.
func (m *Manual) NowMillis() int64 {
	return m.now.Load()
}

// Set moves the clock to an absolute time.
func (m *Manual) Set(millis int64) {
	m.now.Store(millis)
}

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) {
	m.now.Add(d.Milliseconds())
}
