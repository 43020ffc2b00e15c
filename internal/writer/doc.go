// Package writer implements the price history writer.
//
// Completed batch runs arrive from the feed dispatcher, are flattened into one
// row per instrument and inserted in batches into the price_history table.
// Inserts are append-only with ON CONFLICT DO NOTHING, so redelivery is harmless.
package writer
