// ABOUTME: Periodic analytics refresh driven by a gocron scheduler
// ABOUTME: Ticks are skipped while a fetch is in flight and never overlap
package store

import (
	"errors"
	"time"

	"github.com/go-co-op/gocron/v2"
)

var ErrDisposed = errors.New("store has been disposed")

// StartRealTimeUpdates arms the refresh loop. Starting a running loop is a
// no-op.
func (s *Store) StartRealTimeUpdates() error {
	s.rtMu.Lock()
	defer s.rtMu.Unlock()
	return s.startLocked()
}

// StopRealTimeUpdates disarms the refresh loop and waits for a running
// tick to finish.
func (s *Store) StopRealTimeUpdates() error {
	s.rtMu.Lock()
	defer s.rtMu.Unlock()
	return s.stopLocked()
}

// ConfigureRealTimeUpdates sets the interval and starts or stops the loop
// in one step. A non-positive interval keeps the current one.
func (s *Store) ConfigureRealTimeUpdates(enabled bool, interval time.Duration) error {
	s.rtMu.Lock()
	defer s.rtMu.Unlock()

	if err := s.stopLocked(); err != nil {
		return err
	}
	if interval > 0 {
		s.interval = interval
	}
	if !enabled {
		return nil
	}
	return s.startLocked()
}

// IsRealTimeActive reports whether the refresh loop is armed.
func (s *Store) IsRealTimeActive() bool {
	s.rtMu.Lock()
	defer s.rtMu.Unlock()
	return s.scheduler != nil
}

func (s *Store) RefreshInterval() time.Duration {
	s.rtMu.Lock()
	defer s.rtMu.Unlock()
	return s.interval
}

func (s *Store) startLocked() error {
	if s.disposed {
		return ErrDisposed
	}
	if s.scheduler != nil {
		return nil
	}

	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return err
	}

	job, err := scheduler.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() { s.refreshTick() }),
		gocron.WithName("activity-refresh"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return err
	}

	scheduler.Start()
	s.scheduler = scheduler
	s.job = job
	s.logger.WithField("interval", s.interval.String()).Debug("real-time updates started")
	return nil
}

func (s *Store) stopLocked() error {
	if s.scheduler == nil {
		return nil
	}
	err := s.scheduler.Shutdown()
	s.scheduler = nil
	s.job = nil
	s.logger.Debug("real-time updates stopped")
	return err
}

// refreshTick recalculates analytics unless a fetch is in flight. It
// reports whether it did any work.
func (s *Store) refreshTick() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusLoading {
		s.logger.Debug("skipping refresh tick while loading")
		return false
	}
	s.calculateLocked(true)
	return true
}

// NextRefresh returns when the next tick is due, if the loop is armed.
func (s *Store) NextRefresh() (time.Time, bool) {
	s.rtMu.Lock()
	defer s.rtMu.Unlock()
	if s.job == nil {
		return time.Time{}, false
	}
	next, err := s.job.NextRun()
	if err != nil {
		return time.Time{}, false
	}
	return next, true
}
