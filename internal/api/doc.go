// Package api carries the price service over HTTP/JSON.
//
// Server endpoints:
//   - GET    /v1/prices/{instrument}
//   - POST   /v1/batches
//   - POST   /v1/batches/{id}/chunks
//   - DELETE /v1/batches/{id}
//   - POST   /v1/batches/{id}/complete
//   - GET    /health
//
// Every response body has a status field. Domain outcomes such as an unknown
// batch run are reported as HTTP 200 with a non-SUCCESS status; only malformed
// requests get a 4xx. Payloads are base64 in JSON.
//
// Client wraps the same endpoints and retries transport failures (5xx, 429)
// with jittered exponential backoff. Domain statuses are never retried.
package api
