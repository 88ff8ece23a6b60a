package monitor

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"stockwatch/internal/models"
)

// DefaultInterval is how often the scheduler runs a check.
const DefaultInterval = 6 * time.Second

// Ticker delivers ticks until stopped.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Clock abstracts time for the scheduler.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) NewTicker(d time.Duration) Ticker { return realTicker{time.NewTicker(d)} }

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// RealClock is the wall clock.
var RealClock Clock = realClock{}

// Checker runs one monitoring pass.
type Checker interface {
	Check(ctx context.Context) ([]models.Alert, error)
}

// Scheduler runs a Checker on a fixed interval. Checks never overlap: a tick
// that arrives while a check is running is coalesced, and RunOnce waits for
// any scheduled check to finish.
type Scheduler struct {
	Checker  Checker
	Interval time.Duration
	Clock    Clock
	Logger   *log.Logger
	// AfterCheck, when set, is called after every scheduled check.
	AfterCheck func(alerts []models.Alert, err error)

	runMu sync.Mutex

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler returns a scheduler on the wall clock.
func NewScheduler(c Checker, interval time.Duration, logger *log.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{Checker: c, Interval: interval, Clock: RealClock, Logger: logger}
}

func (s *Scheduler) logf(format string, args ...any) {
	if s.Logger != nil {
		s.Logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}

// RunOnce runs a check immediately.
func (s *Scheduler) RunOnce(ctx context.Context) ([]models.Alert, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	return s.Checker.Check(ctx)
}

// Run checks on every tick until ctx is cancelled. A failing check is logged
// and the next tick proceeds normally.
func (s *Scheduler) Run(ctx context.Context) error {
	clock := s.Clock
	if clock == nil {
		clock = RealClock
	}
	interval := s.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C():
			start := clock.Now()
			alerts, err := s.RunOnce(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				s.logf("monitor: check failed: %v", err)
			}
			s.logf("monitor: check complete: %d alerts in %s", len(alerts), clock.Now().Sub(start))
			if s.AfterCheck != nil {
				s.AfterCheck(alerts, err)
			}
		}
	}
}

// Start runs the scheduler in the background. It is a no-op if already started.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go func(done chan struct{}) {
		defer close(done)
		_ = s.Run(ctx)
	}(s.done)
}

// Stop cancels a started scheduler and waits for the running check to end.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}
