package animation

import "time"

// FrameFunc is invoked once per display refresh with the refresh timestamp,
// measured from an arbitrary origin that never moves backwards.
type FrameFunc func(ts time.Duration)

// Scheduler requests frame callbacks from the host, like a browser's
// requestAnimationFrame. A driver keeps at most one callback pending.
// Callbacks must run on the goroutine that owns the driver.
type Scheduler interface {
	// Schedule queues fn for the next refresh, replacing any pending callback.
	Schedule(fn FrameFunc)
	// Cancel drops the pending callback, if any.
	Cancel()
}

// ManualScheduler holds the pending callback until Fire is called. Offline
// rendering, terminal previews and tests use it to drive frames from their
// own clock.
type ManualScheduler struct {
	pending FrameFunc
}

// Schedule implements Scheduler.
func (s *ManualScheduler) Schedule(fn FrameFunc) { s.pending = fn }

// Cancel implements Scheduler.
func (s *ManualScheduler) Cancel() { s.pending = nil }

// Pending reports whether a callback is waiting.
func (s *ManualScheduler) Pending() bool { return s.pending != nil }

// Fire runs the pending callback with timestamp ts. The callback is removed
// before it runs, so it may schedule itself again. Fire reports whether a
// callback ran.
func (s *ManualScheduler) Fire(ts time.Duration) bool {
	fn := s.pending
	if fn == nil {
		return false
	}
	s.pending = nil
	fn(ts)
	return true
}
