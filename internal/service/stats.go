package service

import (
	"context"
	"sync"
	"time"

	"gamestore-api/internal/metrics"
	"gamestore-api/internal/repository"
	"gamestore-api/pkg/logger"
)

// SessionCounter reports how many sessions are live.
type SessionCounter interface {
	Count(ctx context.Context) (int64, error)
}

// StatsReporter periodically publishes store row counts and the live session
// count as Prometheus gauges.
type StatsReporter struct {
	repo     repository.StatsRepository
	sessions SessionCounter
	interval time.Duration
	log      *logger.Logger

	ticker    *time.Ticker
	stopCh    chan struct{}
	stopOnce  sync.Once
	isRunning bool
	mu        sync.Mutex
}

// NewStatsReporter creates a reporter. A zero interval defaults to one minute.
func NewStatsReporter(repo repository.StatsRepository, sessions SessionCounter, interval time.Duration, log *logger.Logger) *StatsReporter {
	if interval <= 0 {
		interval = time.Minute
	}
	return &StatsReporter{
		repo:     repo,
		sessions: sessions,
		interval: interval,
		log:      log,
		stopCh:   make(chan struct{}),
	}
}

// Start begins periodic reporting. Calling Start twice is a no-op.
func (s *StatsReporter) Start() {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.ticker = time.NewTicker(s.interval)
	s.mu.Unlock()

	s.log.Info("stats reporter started", "interval", s.interval)

	go s.run()
}

func (s *StatsReporter) run() {
	s.report()
	for {
		select {
		case <-s.ticker.C:
			s.report()
		case <-s.stopCh:
			s.log.Info("stats reporter stopped")
			return
		}
	}
}

func (s *StatsReporter) report() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.RunNow(ctx); err != nil {
		s.log.Warn("stats report failed", "error", err)
	}
}

// RunNow refreshes the gauges immediately.
func (s *StatsReporter) RunNow(ctx context.Context) error {
	stats, err := s.repo.GetStats(ctx)
	if err != nil {
		return err
	}
	for table, v := range stats {
		if n, ok := v.(int64); ok && table != "db_size_bytes" {
			metrics.SetStoreRows(table, n)
		}
	}

	if s.sessions != nil {
		n, err := s.sessions.Count(ctx)
		if err != nil {
			return err
		}
		metrics.SetActiveSessions(n)
	}
	return nil
}

// Stop stops the reporter.
func (s *StatsReporter) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.ticker != nil {
			s.ticker.Stop()
		}
		close(s.stopCh)
		s.isRunning = false
	})
}
