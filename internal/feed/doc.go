// Package feed delivers completed batch runs to downstream sinks.
//
// CompleteBatchRun must not wait on I/O, so completions are pushed into a
// growable in-memory Queue and a Dispatcher goroutine hands each one to every
// registered Sink in order:
//   - price history writer (PostgreSQL/TimescaleDB)
//   - Redis last price mirror
//   - WebSocket stream hub
//
// A failing sink is logged and skipped; it never blocks the others.
package feed
