package writer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/rickgao/lastprice/internal/model"
)

const insertHistory = `
	INSERT INTO price_history (completion_id, batch_id, instrument, as_of, payload, completed_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (completion_id, instrument) DO NOTHING
`

// HistoryWriter appends completed batch runs to the price_history table.
type HistoryWriter struct {
	cfg    WriterConfig
	db     Batcher
	logger *slog.Logger

	// Batching
	batch       []historyRow
	batchMu     sync.Mutex
	flushTicker *time.Ticker

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	metrics WriterMetrics
}

// NewHistoryWriter creates a new HistoryWriter.
func NewHistoryWriter(cfg WriterConfig, db Batcher, logger *slog.Logger) *HistoryWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryWriter{
		cfg:    cfg,
		db:     db,
		logger: logger,
		batch:  make([]historyRow, 0, cfg.BatchSize),
	}
}

// Name identifies the writer in dispatcher logs.
func (w *HistoryWriter) Name() string {
	return "history"
}

// Start begins periodic flushing.
func (w *HistoryWriter) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.flushTicker = time.NewTicker(w.cfg.FlushInterval)

	w.wg.Add(1)
	go w.flushLoop()

	w.logger.Info("history writer started",
		"batch_size", w.cfg.BatchSize,
		"flush_interval", w.cfg.FlushInterval,
	)
	return nil
}

// Stop halts periodic flushing and writes whatever is still batched.
func (w *HistoryWriter) Stop(ctx context.Context) error {
	w.logger.Info("stopping history writer")

	if w.cancel != nil {
		w.cancel()
	}
	if w.flushTicker != nil {
		w.flushTicker.Stop()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		w.logger.Warn("history writer stop timed out")
	}

	// Final flush
	w.flush(ctx)

	w.logger.Info("history writer stopped")
	return nil
}

// Stats returns current metrics.
func (w *HistoryWriter) Stats() WriterMetrics {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	return w.metrics
}

// HandleCompletion batches the completion's records, flushing when the batch is full.
func (w *HistoryWriter) HandleCompletion(ctx context.Context, c model.Completion) error {
	rows := w.transform(c)

	w.batchMu.Lock()
	w.batch = append(w.batch, rows...)
	shouldFlush := len(w.batch) >= w.cfg.BatchSize
	w.batchMu.Unlock()

	if shouldFlush {
		w.flush(ctx)
	}
	return nil
}

// flushLoop periodically flushes the batch.
func (w *HistoryWriter) flushLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.flushTicker.C:
			w.flush(w.ctx)
		}
	}
}

// transform flattens a completion into one row per record.
func (w *HistoryWriter) transform(c model.Completion) []historyRow {
	rows := make([]historyRow, 0, len(c.Records))
	id := c.ID.String()
	for _, r := range c.Records {
		payload := r.Payload
		if payload == nil {
			payload = []byte{}
		}
		rows = append(rows, historyRow{
			CompletionID: id,
			BatchID:      c.BatchID,
			Instrument:   r.Instrument,
			AsOf:         r.AsOf,
			Payload:      payload,
			CompletedAt:  c.CompletedAt,
		})
	}
	return rows
}

// flush writes the current batch to the database.
func (w *HistoryWriter) flush(ctx context.Context) {
	w.batchMu.Lock()
	if len(w.batch) == 0 {
		w.batchMu.Unlock()
		return
	}

	// Take ownership of current batch
	batch := w.batch
	w.batch = make([]historyRow, 0, w.cfg.BatchSize)
	w.batchMu.Unlock()

	start := time.Now()

	conflicts, err := w.batchInsert(ctx, batch)
	if err != nil {
		w.logger.Error("batch insert failed", "error", err, "count", len(batch))
		w.batchMu.Lock()
		w.metrics.Errors++
		w.batchMu.Unlock()
		return
	}

	w.batchMu.Lock()
	w.metrics.Inserts += int64(len(batch) - conflicts)
	w.metrics.Conflicts += int64(conflicts)
	w.metrics.Flushes++
	w.batchMu.Unlock()

	w.logger.Debug("flushed price history",
		"count", len(batch),
		"conflicts", conflicts,
		"duration", time.Since(start),
	)
}

// batchInsert inserts rows using pgx.Batch with ON CONFLICT DO NOTHING.
func (w *HistoryWriter) batchInsert(ctx context.Context, rows []historyRow) (conflicts int, err error) {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(insertHistory, r.CompletionID, r.BatchID, r.Instrument, r.AsOf, r.Payload, r.CompletedAt)
	}

	results := w.db.SendBatch(ctx, batch)
	defer results.Close()

	for range rows {
		ct, err := results.Exec()
		if err != nil {
			return 0, err
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		}
	}

	return conflicts, nil
}
