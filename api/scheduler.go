/*
scheduler.go - Automated year-end depreciation scheduler

PURPOSE:
  Periodically posts any depreciation owed for December 31st closes that
  have passed. The check runs often (hourly by default) but posts only once
  per close: the planner compares closes crossed with closes already
  applied, so a tick after a completed posting finds nothing to do.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Posting date is always today
  - Each tick that posts something records an AccrualRun with trigger
    "scheduler"; ticks with nothing owed record nothing

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewYearEndScheduler(poster, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: PostAccruals endpoint (manual posting)
  - accrual/poster.go: PostYearEnd
*/
package api

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/warp/asset-engine/accrual"
	"github.com/warp/asset-engine/generic"
)

// YearEndScheduler handles automated year-end depreciation posting.
type YearEndScheduler struct {
	Poster        *accrual.Poster
	Logger        *slog.Logger
	CheckInterval time.Duration
	Enabled       bool
	// Today returns the posting date; defaults to generic.Today.
	Today func() generic.TimePoint

	ticker *time.Ticker
	stop   chan struct{}
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewYearEndScheduler creates a new scheduler.
func NewYearEndScheduler(poster *accrual.Poster, logger *slog.Logger) *YearEndScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &YearEndScheduler{
		Poster:        poster,
		Logger:        logger,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		Today:         generic.Today,
	}
}

// Start begins the scheduler.
func (s *YearEndScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Enabled {
		s.Logger.Info("scheduler disabled, not starting")
		return
	}
	if s.ticker != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.ticker = time.NewTicker(s.CheckInterval)
	s.stop = make(chan struct{})
	s.wg.Add(1)

	go s.run(ctx, s.ticker.C, s.stop)

	s.Logger.Info("scheduler started", slog.Duration("interval", s.CheckInterval))
}

// Stop stops the scheduler and cancels a posting in flight.
func (s *YearEndScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker != nil {
		s.ticker.Stop()
		s.cancel()
		close(s.stop)
		s.wg.Wait()
		s.ticker = nil
		s.Logger.Info("scheduler stopped")
	}
}

func (s *YearEndScheduler) run(ctx context.Context, tick <-chan time.Time, stop <-chan struct{}) {
	defer s.wg.Done()

	// Run immediately on start
	s.checkAndPost(ctx)

	for {
		select {
		case <-tick:
			s.checkAndPost(ctx)
		case <-stop:
			return
		}
	}
}

func (s *YearEndScheduler) checkAndPost(ctx context.Context) (*generic.AccrualRun, accrual.RunSummary, error) {
	postingDate := s.Today()

	run, summary, err := s.Poster.PostYearEnd(ctx, postingDate, "scheduler")
	if err != nil {
		s.Logger.Error("scheduled year-end posting",
			slog.String("posting_date", postingDate.String()),
			slog.Any("error", err))
		return run, summary, err
	}
	for _, f := range summary.Failures {
		s.Logger.Warn("asset skipped",
			slog.String("asset_id", string(f.AssetID)),
			slog.Any("error", f.Err))
	}
	if run == nil {
		s.Logger.Debug("nothing owed", slog.String("posting_date", postingDate.String()))
	}
	return run, summary, nil
}

// RunNow triggers an immediate check (for testing/admin).
func (s *YearEndScheduler) RunNow(ctx context.Context) (*generic.AccrualRun, accrual.RunSummary, error) {
	return s.checkAndPost(ctx)
}
