package app_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/okian/boardsync/internal/app"
	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/goleak"
)

// fakeClock is advanced by the test.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// countingRunner records cycles and alternates success.
type countingRunner struct {
	mu    sync.Mutex
	calls int
	ctxs  []context.Context
	ran   chan struct{}
}

func (r *countingRunner) RunCycle(ctx context.Context) bool {
	r.mu.Lock()
	r.calls++
	r.ctxs = append(r.ctxs, ctx)
	ok := r.calls%2 == 1
	r.mu.Unlock()
	select {
	case r.ran <- struct{}{}:
	default:
	}
	return ok
}

func (r *countingRunner) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func (r *countingRunner) GetStats() map[string]interface{} {
	return map[string]interface{}{"state": "idle"}
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return false
}

func TestScheduler_Run(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	Convey("Given a scheduler with a 15 minute interval and a fake clock", t, func() {
		clock := &fakeClock{now: time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)}
		runner := &countingRunner{ran: make(chan struct{}, 16)}
		s := app.NewScheduler(runner, 15*time.Minute,
			app.WithPollTick(time.Millisecond),
			app.WithSchedulerClock(clock.Now),
		)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- s.Run(ctx) }()

		var once sync.Once
		var runErr error
		stop := func() error {
			once.Do(func() {
				cancel()
				runErr = <-done
			})
			return runErr
		}

		Convey("Then one cycle runs immediately and the next is scheduled", func() {
			So(waitFor(func() bool { return runner.Calls() == 1 }), ShouldBeTrue)
			So(waitFor(func() bool { return s.Next().Equal(clock.Now().Add(15 * time.Minute)) }), ShouldBeTrue)

			Convey("And nothing runs before the interval elapses", func() {
				clock.Advance(14 * time.Minute)
				time.Sleep(20 * time.Millisecond)
				So(runner.Calls(), ShouldEqual, 1)

				Convey("And a cycle runs once the interval elapses", func() {
					clock.Advance(time.Minute)
					So(waitFor(func() bool { return runner.Calls() == 2 }), ShouldBeTrue)
					So(waitFor(func() bool { return s.Runs() == 2 }), ShouldBeTrue)

					So(stop(), ShouldBeNil)
				})
			})
		})

		Convey("Then cycles keep running after a failed one", func() {
			So(waitFor(func() bool { return runner.Calls() == 1 }), ShouldBeTrue)
			for i := 0; i < 3; i++ {
				clock.Advance(15 * time.Minute)
				want := i + 2
				So(waitFor(func() bool { return runner.Calls() == want }), ShouldBeTrue)
				So(waitFor(func() bool { return s.Runs() == want }), ShouldBeTrue)
			}
		})

		Convey("Then cycles get a context that ignores cancellation", func() {
			So(waitFor(func() bool { return runner.Calls() == 1 }), ShouldBeTrue)
			So(stop(), ShouldBeNil)
			runner.mu.Lock()
			cycleCtx := runner.ctxs[0]
			runner.mu.Unlock()
			So(cycleCtx.Err(), ShouldBeNil)
		})

		Convey("Then stats merge the runner's view with the schedule", func() {
			So(waitFor(func() bool { return s.Runs() == 1 }), ShouldBeTrue)
			stats := s.GetStats()
			So(stats["state"], ShouldEqual, "idle")
			So(stats["interval"], ShouldEqual, "15m0s")
			So(stats["runs"], ShouldEqual, 1)
			So(stats["nextRun"], ShouldEqual, "2026-10-19T08:15:00Z")
		})

		Reset(func() {
			_ = stop()
		})
	})
}
