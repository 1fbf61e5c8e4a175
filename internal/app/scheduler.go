package app

import (
	"context"
	"sync"
	"time"

	"github.com/okian/boardsync/pkg/logger"
)

// Default scheduler configuration constants.
const (
	defaultPollTick = time.Second
)

// Runner runs one export cycle and reports whether it succeeded.
type Runner interface {
	RunCycle(ctx context.Context) bool
}

// Scheduler is a cooperative poll loop: every tick it checks whether the
// next run is due and, if so, runs the cycle synchronously. The next-run
// timer belongs to the Scheduler value.
type Scheduler struct {
	runner   Runner
	interval time.Duration
	tick     time.Duration
	now      func() time.Time
	logger   logger.Logger

	mu   sync.RWMutex
	next time.Time
	runs int
}

// NewScheduler runs r every interval.
func NewScheduler(r Runner, interval time.Duration, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		runner:   r,
		interval: interval,
		tick:     defaultPollTick,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Named("scheduler")
	}
	return s
}

// Run executes a cycle immediately and then every interval until ctx is
// cancelled. A cycle already running is not interrupted: it gets a context
// that ignores cancellation, and the loop observes ctx only between cycles.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info(ctx, "running initial update")
	s.runDue(ctx)

	s.logger.Info(ctx, "scheduler started", logger.Duration("interval", s.interval))

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "automation stopped", logger.Int("runs", s.Runs()))
			return nil
		case <-ticker.C:
			if !s.now().Before(s.Next()) {
				s.runDue(ctx)
			}
		}
	}
}

func (s *Scheduler) runDue(ctx context.Context) {
	ok := s.runner.RunCycle(context.WithoutCancel(ctx))

	s.mu.Lock()
	s.runs++
	s.next = s.now().Add(s.interval)
	next := s.next
	s.mu.Unlock()

	s.logger.Debug(ctx, "cycle complete", logger.Bool("ok", ok), logger.String("next_run", next.Format(time.RFC3339)))
}

// Next returns when the next cycle is due.
func (s *Scheduler) Next() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.next
}

// Runs returns how many cycles the scheduler has started.
func (s *Scheduler) Runs() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runs
}

// GetStats returns scheduler statistics, merged with the runner's own when
// it provides them.
func (s *Scheduler) GetStats() map[string]interface{} {
	stats := map[string]interface{}{}
	if p, ok := s.runner.(interface{ GetStats() map[string]interface{} }); ok {
		for k, v := range p.GetStats() {
			stats[k] = v
		}
	}
	stats["interval"] = s.interval.String()
	stats["runs"] = s.Runs()
	if next := s.Next(); !next.IsZero() {
		stats["nextRun"] = next.Format(time.RFC3339)
	}
	return stats
}
