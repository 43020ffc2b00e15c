// Package stream pushes completed batch runs to WebSocket subscribers.
//
// A single hub goroutine owns the client set. Each client has a bounded send
// channel drained by its own write pump; a client whose channel is full when a
// message arrives is disconnected rather than allowed to stall the hub.
package stream
