package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rickgao/lastprice/internal/model"
)

// LookupFunc returns the market's current record for an instrument.
type LookupFunc func(instrument string) (model.PriceRecord, bool)

// Config controls key layout and expiry.
type Config struct {
	KeyPrefix string
	TTL       time.Duration // 0 = no expiry
}

// Mirror is a feed sink writing last prices to Redis.
type Mirror struct {
	rdb    redis.UniversalClient
	lookup LookupFunc
	cfg    Config
	logger *slog.Logger

	writes atomic.Int64
	errors atomic.Int64
}

// Stats reports mirror counters.
type Stats struct {
	Writes int64 `json:"writes"`
	Errors int64 `json:"errors"`
}

// New creates a Mirror. lookup must not be nil.
func New(rdb redis.UniversalClient, lookup LookupFunc, cfg Config, logger *slog.Logger) *Mirror {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mirror{
		rdb:    rdb,
		lookup: lookup,
		cfg:    cfg,
		logger: logger,
	}
}

// Connect opens a Redis client and pings it.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// Name identifies the mirror in dispatcher logs.
func (m *Mirror) Name() string {
	return "mirror"
}

// Key returns the Redis key for an instrument.
func (m *Mirror) Key(instrument string) string {
	return m.cfg.KeyPrefix + instrument
}

// HandleCompletion writes the current market value of every instrument in c
// in a single pipeline.
func (m *Mirror) HandleCompletion(ctx context.Context, c model.Completion) error {
	seen := make(map[string]struct{}, len(c.Records))
	pipe := m.rdb.Pipeline()
	queued := 0

	for _, r := range c.Records {
		if _, ok := seen[r.Instrument]; ok {
			continue
		}
		seen[r.Instrument] = struct{}{}

		current, ok := m.lookup(r.Instrument)
		if !ok {
			continue
		}
		b, err := json.Marshal(current)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", r.Instrument, err)
		}
		pipe.Set(ctx, m.Key(r.Instrument), b, m.cfg.TTL)
		queued++
	}

	if queued == 0 {
		return nil
	}

	if _, err := pipe.Exec(ctx); err != nil {
		m.errors.Add(1)
		return fmt.Errorf("redis pipeline: %w", err)
	}
	m.writes.Add(int64(queued))

	m.logger.Debug("mirrored last prices", "batch_id", c.BatchID, "count", queued)
	return nil
}

// Get reads a mirrored record back.
func (m *Mirror) Get(ctx context.Context, instrument string) (model.PriceRecord, bool, error) {
	b, err := m.rdb.Get(ctx, m.Key(instrument)).Bytes()
	if err == redis.Nil {
		return model.PriceRecord{}, false, nil
	}
	if err != nil {
		return model.PriceRecord{}, false, fmt.Errorf("redis get: %w", err)
	}
	var r model.PriceRecord
	if err := json.Unmarshal(b, &r); err != nil {
		return model.PriceRecord{}, false, fmt.Errorf("unmarshal %s: %w", instrument, err)
	}
	return r, true, nil
}

// Stats returns current counters.
func (m *Mirror) Stats() Stats {
	return Stats{Writes: m.writes.Load(), Errors: m.errors.Load()}
}
