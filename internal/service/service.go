package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/lastprice/internal/batch"
	"github.com/rickgao/lastprice/internal/clock"
	"github.com/rickgao/lastprice/internal/model"
	"github.com/rickgao/lastprice/internal/prices"
)

// Config holds service configuration.
type Config struct {
	SupportedInstruments []string
	MaxActiveBatchRuns   int           // Soft cap checked by StartBatchRun
	CleanupInterval      time.Duration // Delay between abandonment sweeps
	AbandonedTimeout     time.Duration // Idle time after which a batch run is evicted
	CleanupLimit         int           // Max evictions per sweep, 0 = unlimited
}

// Notifier receives completed batch runs. Notify must not block.
type Notifier interface {
	Notify(c model.Completion)
}

// NotifierFunc is a function adapter for Notifier.
type NotifierFunc func(model.Completion)

func (f NotifierFunc) Notify(c model.Completion) {
	f(c)
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier sets the receiver of completion events.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithClock sets the clock used to stamp completions.
func WithClock(c clock.Clock) Option {
	return func(s *Service) {
		s.clock = c
	}
}

// Stats counts batch run transitions since start.
type Stats struct {
	Started   int64 `json:"started"`
	Completed int64 `json:"completed"`
	Canceled  int64 `json:"canceled"`
	Evicted   int64 `json:"evicted"`
	Active    int   `json:"active"`
}

// Service orchestrates price lookups and batch runs.
type Service struct {
	cfg       Config
	supported map[string]struct{}
	repo      *batch.Repository
	market    *prices.Container
	notifier  Notifier
	clock     clock.Clock
	logger    *slog.Logger

	started   atomic.Int64
	completed atomic.Int64
	canceled  atomic.Int64
	evicted   atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Service. The abandonment sweep runs once Start is called.
func New(cfg Config, repo *batch.Repository, market *prices.Container, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	supported := make(map[string]struct{}, len(cfg.SupportedInstruments))
	for _, instrument := range cfg.SupportedInstruments {
		supported[instrument] = struct{}{}
	}

	s := &Service{
		cfg:       cfg,
		supported: supported,
		repo:      repo,
		market:    market,
		clock:     clock.System{},
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FindLastPrice returns the market's latest record for a supported instrument.
// The bool is false when no record has been completed for it yet.
func (s *Service) FindLastPrice(instrument string) (model.PriceRecord, bool, error) {
	if err := s.checkSupported(instrument); err != nil {
		return model.PriceRecord{}, false, err
	}
	r, ok := s.market.Get(instrument)
	return r, ok, nil
}

// StartBatchRun opens a new batch run and returns its id.
func (s *Service) StartBatchRun() (int64, error) {
	if s.repo.Size() >= s.cfg.MaxActiveBatchRuns {
		return 0, &TooManyActiveBatchesError{Limit: s.cfg.MaxActiveBatchRuns}
	}
	// Not atomic with the check above: concurrent callers may all pass it and
	// push the count past MaxActiveBatchRuns. That overshoot is accepted.
	b := s.repo.Create()
	s.started.Add(1)

	s.logger.Debug("batch run started", "batch_id", b.ID())
	return b.ID(), nil
}

// UploadChunk stages records into a batch run. The whole chunk is rejected if
// any record names an unsupported instrument.
func (s *Service) UploadChunk(id int64, records []model.PriceRecord) error {
	for _, r := range records {
		if err := s.checkSupported(r.Instrument); err != nil {
			return err
		}
	}

	if _, ok := s.repo.Update(id, records); !ok {
		return &BatchNotFoundError{ID: id}
	}

	s.logger.Debug("chunk uploaded", "batch_id", id, "records", len(records))
	return nil
}

// CancelBatchRun discards a batch run without merging it.
func (s *Service) CancelBatchRun(id int64) error {
	if _, ok := s.repo.Remove(id); !ok {
		return &BatchNotFoundError{ID: id}
	}
	s.canceled.Add(1)

	s.logger.Debug("batch run canceled", "batch_id", id)
	return nil
}

// CompleteBatchRun merges a batch run into the market prices and discards it.
func (s *Service) CompleteBatchRun(id int64) error {
	b, ok := s.repo.Remove(id)
	if !ok {
		return &BatchNotFoundError{ID: id}
	}

	b.MergeInto(s.market)
	s.completed.Add(1)

	s.logger.Debug("batch run completed", "batch_id", id, "instruments", b.Len())

	if s.notifier != nil {
		s.notifier.Notify(model.Completion{
			ID:          newCompletionID(),
			BatchID:     id,
			CompletedAt: s.clock.NowMillis(),
			Records:     b.Records(),
		})
	}
	return nil
}

// ActiveBatchRuns returns the number of live batch runs.
func (s *Service) ActiveBatchRuns() int {
	return s.repo.Size()
}

// Stats returns transition counters.
func (s *Service) Stats() Stats {
	return Stats{
		Started:   s.started.Load(),
		Completed: s.completed.Load(),
		Canceled:  s.canceled.Load(),
		Evicted:   s.evicted.Load(),
		Active:    s.repo.Size(),
	}
}

func (s *Service) checkSupported(instrument string) error {
	if _, ok := s.supported[instrument]; !ok {
		return &UnsupportedInstrumentError{Instrument: instrument}
	}
	return nil
}

func newCompletionID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}
