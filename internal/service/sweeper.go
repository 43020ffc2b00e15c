package service

import (
	"context"
	"time"
)

// Start begins the periodic abandonment sweep.
func (s *Service) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.sweepLoop()

	s.logger.Info("abandonment sweep started",
		"interval", s.cfg.CleanupInterval,
		"timeout", s.cfg.AbandonedTimeout,
	)
	return nil
}

// Stop halts the sweep and waits for an in-flight run to finish.
func (s *Service) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("abandonment sweep stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// sweepLoop waits CleanupInterval after each run finishes (fixed delay, not fixed rate).
func (s *Service) sweepLoop() {
	defer s.wg.Done()

	timer := time.NewTimer(s.cfg.CleanupInterval)
	defer timer.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-timer.C:
			s.sweep()
			timer.Reset(s.cfg.CleanupInterval)
		}
	}
}

// sweep evicts abandoned batch runs. Evicted runs are discarded, never merged.
// A panic is logged so the next run still happens.
func (s *Service) sweep() (removed int) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("abandonment sweep failed", "panic", r)
		}
	}()

	start := time.Now()
	removed = s.repo.RemoveOutdated(s.cfg.AbandonedTimeout, s.cfg.CleanupLimit)
	s.evicted.Add(int64(removed))

	if removed > 0 {
		s.logger.Info("evicted abandoned batch runs",
			"removed", removed,
			"active", s.repo.Size(),
			"duration", time.Since(start),
		)
	} else {
		s.logger.Debug("abandonment sweep complete", "duration", time.Since(start))
	}
	return removed
}
