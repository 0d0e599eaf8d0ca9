package supervisor

import (
	"context"
	"time"
)

// awaitReady polls the health endpoint until it answers healthy, the
// deadline passes, the process handle disappears, or ctx is cancelled.
// The deadline is measured against the monotonic clock, so wall-clock
// adjustments while waiting never extend or shorten the window.
func (s *Supervisor) awaitReady(ctx context.Context, origin string, timeout time.Duration) bool {
	start := time.Now()

	for {
		s.mu.Lock()
		state := s.state
		handleGone := s.cmd == nil
		s.mu.Unlock()

		// An async transition (crash handler, concurrent Stop) ends the
		// wait, the poller never resurrects a dead startup.
		if state != StateStarting || handleGone {
			return false
		}

		if s.probe(ctx, origin) {
			return true
		}

		if time.Since(start) >= timeout {
			return false
		}

		select {
		case <-ctx.Done():
			return false
		case <-s.after(s.pollInterval):
		}
	}
}
