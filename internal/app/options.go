package app

import (
	"context"
	"time"

	"github.com/okian/boardsync/pkg/logger"
)

// Option applies a configuration option to the Exporter.
type Option func(*Exporter)

// WithContest sets the contest slug recorded in the metadata sidecar.
func WithContest(slug string) Option {
	return func(e *Exporter) {
		e.contest = slug
	}
}

// WithPageSize sets the limit requested per page.
func WithPageSize(size int) Option {
	return func(e *Exporter) {
		if size > 0 {
			e.pageSize = size
		}
	}
}

// WithPageDelay sets the courtesy pause between page requests.
func WithPageDelay(d time.Duration) Option {
	return func(e *Exporter) {
		if d >= 0 {
			e.pageDelay = d
		}
	}
}

// WithLogger sets a custom logger for the exporter.
func WithLogger(l logger.Logger) Option {
	return func(e *Exporter) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Exporter) {
		if now != nil {
			e.now = now
		}
	}
}

// WithSleeper replaces the context-aware pause used between pages.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(e *Exporter) {
		if sleep != nil {
			e.sleep = sleep
		}
	}
}

// SchedulerOption applies a configuration option to the Scheduler.
type SchedulerOption func(*Scheduler)

// WithPollTick sets how often the loop checks whether a run is due.
func WithPollTick(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 {
			s.tick = d
		}
	}
}

// WithSchedulerClock replaces time.Now, mostly for tests.
func WithSchedulerClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSchedulerLogger sets a custom logger for the scheduler.
func WithSchedulerLogger(l logger.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}
