// Package model defines the shared data types of the last price service.
//
// Conventions:
//   - Instruments: plain symbol strings (e.g. "AIR", "VOW")
//   - AsOf: int64 logical or physical timestamp, higher is newer
//   - Payload: opaque bytes, never inspected by the service
//   - Completion IDs: uuid.UUID (v7), batch run IDs: int64
package model
