// Package database provides the PostgreSQL/TimescaleDB connection pool for price history.
//
// The pool is only opened when database.enabled is set. The service never reads
// from it: completed batch runs are appended for audit and analytics.
package database
