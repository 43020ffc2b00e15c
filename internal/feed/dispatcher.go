package feed

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rickgao/lastprice/internal/model"
)

// Sink consumes completed batch runs.
type Sink interface {
	Name() string
	HandleCompletion(ctx context.Context, c model.Completion) error
}

// Dispatcher queues completions and fans them out to sinks on its own goroutine.
// It implements service.Notifier.
type Dispatcher struct {
	queue  *GrowableBuffer[model.Completion]
	sinks  []Sink
	logger *slog.Logger

	dropped   atomic.Int64
	delivered atomic.Int64
	failed    atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// DispatcherStats reports queue and delivery counters.
type DispatcherStats struct {
	Queue     BufferStats `json:"queue"`
	Delivered int64       `json:"delivered"`
	Failed    int64       `json:"failed"`
	Dropped   int64       `json:"dropped"`
}

// NewDispatcher creates a Dispatcher with the given initial queue capacity.
func NewDispatcher(bufferSize int, sinks []Sink, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		queue:  NewGrowableBuffer[model.Completion](bufferSize),
		sinks:  sinks,
		logger: logger,
	}
}

// Notify enqueues a completion without blocking. Completions arriving after Stop are dropped.
func (d *Dispatcher) Notify(c model.Completion) {
	if !d.queue.Send(c) {
		d.dropped.Add(1)
		d.logger.Warn("completion dropped, dispatcher closed", "batch_id", c.BatchID)
	}
}

// Start begins delivering queued completions.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.ctx, d.cancel = context.WithCancel(ctx)

	d.wg.Add(1)
	go d.run()

	d.logger.Info("completion dispatcher started", "sinks", len(d.sinks))
	return nil
}

// Stop closes the queue and waits for buffered completions to be delivered.
// If ctx expires first, in-flight deliveries are canceled.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.queue.Close()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("completion dispatcher stopped", "delivered", d.delivered.Load())
		if d.cancel != nil {
			d.cancel()
		}
		return nil
	case <-ctx.Done():
		if d.cancel != nil {
			d.cancel()
		}
		return ctx.Err()
	}
}

// Stats returns dispatcher counters.
func (d *Dispatcher) Stats() DispatcherStats {
	return DispatcherStats{
		Queue:     d.queue.Stats(),
		Delivered: d.delivered.Load(),
		Failed:    d.failed.Load(),
		Dropped:   d.dropped.Load(),
	}
}

// run delivers completions until the queue is closed and drained.
func (d *Dispatcher) run() {
	defer d.wg.Done()

	for {
		c, ok := d.queue.Receive()
		if !ok {
			return
		}
		d.deliver(c)
	}
}

// deliver hands c to every sink in order.
func (d *Dispatcher) deliver(c model.Completion) {
	for _, sink := range d.sinks {
		start := time.Now()
		if err := sink.HandleCompletion(d.ctx, c); err != nil {
			d.failed.Add(1)
			d.logger.Error("sink failed",
				"sink", sink.Name(),
				"batch_id", c.BatchID,
				"err", err,
			)
			continue
		}
		d.logger.Debug("completion delivered",
			"sink", sink.Name(),
			"batch_id", c.BatchID,
			"duration", time.Since(start),
		)
	}
	d.delivered.Add(1)
}
