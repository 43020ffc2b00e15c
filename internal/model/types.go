package model

import "github.com/google/uuid"

// PriceRecord is the latest known price payload for an instrument at a point in time.
// Records are treated as immutable once created.
type PriceRecord struct {
	Instrument string `json:"instrument"` // Instrument symbol
	AsOf       int64  `json:"as_of"`      // Freshness, higher is newer
	Payload    []byte `json:"payload"`    // Opaque price data
}

// NewerOrEqual reports whether r should replace existing under the
// keep-or-replace rule: ties go to the incoming record.
func (r PriceRecord) NewerOrEqual(existing PriceRecord) bool {
	return r.AsOf >= existing.AsOf
}

// Completion describes a batch run whose records were merged into the market prices.
type Completion struct {
	ID          uuid.UUID     // Unique per completion (uuid v7, time ordered)
	BatchID     int64         // Batch run id
	CompletedAt int64         // ms since epoch
	Records     []PriceRecord // Records of the batch as merged
}
