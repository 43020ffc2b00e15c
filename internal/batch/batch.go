package batch

import (
	"github.com/rickgao/lastprice/internal/model"
	"github.com/rickgao/lastprice/internal/prices"
)

// Batch is a staging area for one batch run.
type Batch struct {
	id     int64
	prices *prices.Container
}

func newBatch(id int64) *Batch {
	return &Batch{
		id:     id,
		prices: prices.NewContainer(),
	}
}

// ID returns the batch run identifier.
func (b *Batch) ID() int64 {
	return b.id
}

// Get returns the staged record for an instrument.
func (b *Batch) Get(instrument string) (model.PriceRecord, bool) {
	return b.prices.Get(instrument)
}

// Len returns the number of staged instruments.
func (b *Batch) Len() int {
	return b.prices.Len()
}

// Records returns a copy of the staged records.
func (b *Batch) Records() []model.PriceRecord {
	return b.prices.Snapshot()
}

// apply stages records into the batch. Repository.Update is the only caller,
// so every mutation re-stamps the eviction time.
func (b *Batch) apply(records []model.PriceRecord) {
	b.prices.BulkUpdate(records)
}

// MergeInto merges the staged records into target.
func (b *Batch) MergeInto(target *prices.Container) {
	b.prices.MergeInto(target)
}
