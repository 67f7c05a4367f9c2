package player

import (
	"sync"
	"time"
)

// saver is the debounced remote-write scheduler: a single pending timer
// handle per profile with cancel-and-reschedule semantics. Each Schedule call
// within the delay window cancels the previous timer and starts a new one, so
// a burst of mutations collapses into one trailing-edge write carrying the
// latest snapshot.
type saver struct {
	mu      sync.Mutex
	delay   time.Duration
	fire    func()
	timer   *time.Timer
	pending bool
	stopped bool
}

func newSaver(delay time.Duration, fire func()) *saver {
	return &saver{
		delay: delay,
		fire:  fire,
	}
}

// Schedule arms (or re-arms) the write timer. A timer that is already
// pending is cancelled and replaced, pushing the write out by the full delay.
func (s *saver) Schedule() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.pending = true
	s.timer = time.AfterFunc(s.delay, s.run)
}

func (s *saver) run() {
	s.mu.Lock()
	if s.stopped || !s.pending {
		s.mu.Unlock()
		return
	}
	s.pending = false
	s.timer = nil
	s.mu.Unlock()

	s.fire()
}

// Flush cancels any pending timer and fires the write immediately. A no-op
// when nothing is pending.
func (s *saver) Flush() {
	s.mu.Lock()
	if s.stopped || !s.pending {
		s.mu.Unlock()
		return
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.pending = false
	s.mu.Unlock()

	s.fire()
}

// Stop cancels any pending timer and prevents future scheduling. It reports
// whether a write was still pending, so the caller can decide to run one
// final synchronous write.
func (s *saver) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	wasPending := s.pending
	s.pending = false
	return wasPending
}
