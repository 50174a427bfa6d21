package trigger

import (
	"fmt"
	"time"
)

// Elapsed is a pausable stopwatch that fires once its elapsed time reaches
// Target. Elapsed time is measured from a wall-clock baseline, not by
// counting ticks.
type Elapsed struct {
	Target time.Duration

	baseline time.Time
	frozen   time.Duration
	running  bool
	fired    bool
}

// NewElapsed returns a threshold trigger for target.
func NewElapsed(target time.Duration) *Elapsed {
	return &Elapsed{Target: target}
}

// Validate implements Trigger.
func (e *Elapsed) Validate() error {
	if e.Target <= 0 {
		return fmt.Errorf("%w: timer target must be positive", ErrInvalidConfiguration)
	}
	return nil
}

// Arm resets the stopwatch to zero and starts it at now.
func (e *Elapsed) Arm(now time.Time) {
	e.fired = false
	e.frozen = 0
	e.baseline = now
	e.running = true
}

// Pause freezes elapsed time at its value at now.
func (e *Elapsed) Pause(now time.Time) {
	if !e.running {
		return
	}
	e.frozen = now.Sub(e.baseline)
	e.running = false
}

// Resume restarts accumulation from the frozen value.
func (e *Elapsed) Resume(now time.Time) {
	if e.running {
		return
	}
	e.baseline = now.Add(-e.frozen)
	e.running = true
}

// Reset stops the stopwatch and zeroes it.
func (e *Elapsed) Reset() {
	e.running = false
	e.frozen = 0
	e.fired = false
	e.baseline = time.Time{}
}

// Running reports whether time is accumulating.
func (e *Elapsed) Running() bool {
	return e.running
}

// Elapsed returns accumulated time as of now.
func (e *Elapsed) Elapsed(now time.Time) time.Duration {
	if !e.running {
		return e.frozen
	}
	d := now.Sub(e.baseline)
	if d < 0 {
		return 0
	}
	return d
}

// Remaining returns time left until Target, never negative.
func (e *Elapsed) Remaining(now time.Time) time.Duration {
	return max(0, e.Target-e.Elapsed(now))
}

// Evaluate fires once when elapsed time reaches Target. A paused stopwatch
// never fires.
func (e *Elapsed) Evaluate(now time.Time) bool {
	if !e.running || e.fired {
		return false
	}
	if e.Elapsed(now) < e.Target {
		return false
	}
	e.fired = true
	return true
}
