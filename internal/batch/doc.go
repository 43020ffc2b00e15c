// Package batch implements batch runs and their in-memory repository.
//
// A Batch is one client upload session: an id plus a private price container
// holding the records uploaded so far. The Repository owns every live Batch
// from creation until it is removed by cancel, complete or eviction.
//
// Eviction ordering is an indexed min-heap keyed by last update time, so
// re-stamping a batch moves its single heap entry instead of leaving a stale
// one behind.
package batch
