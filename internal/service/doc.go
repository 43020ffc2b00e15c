// Package service implements the last price service.
//
// Batch run lifecycle:
//
//	StartBatchRun -> ACTIVE -> CompleteBatchRun -> COMPLETED (merged into market prices)
//	                        -> CancelBatchRun   -> CANCELED  (discarded)
//	                        -> abandonment sweep -> EVICTED  (discarded)
//
// Terminal batch runs are forgotten: any later call with their id fails with
// ErrBatchNotFound, exactly like an id that was never issued.
//
// The active batch run limit is checked before creation without holding a
// lock across both steps, so concurrent starts may briefly exceed it.
package service
