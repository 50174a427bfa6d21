package trigger

import (
	"time"

	"github.com/jwulff/chime/internal/clock"
)

// WallClock fires when the wall clock reaches Hour:Minute. With a Date it
// fires on that day only; without one it fires at the next occurrence.
type WallClock struct {
	Hour   int
	Minute int
	Date   clock.Date

	due   time.Time
	fired bool
	armed bool
}

// NewWallClock returns a daily wall-clock trigger.
func NewWallClock(hour, minute int) *WallClock {
	return &WallClock{Hour: hour, Minute: minute}
}

// NewDated returns a trigger for hour:minute on date.
func NewDated(date clock.Date, hour, minute int) *WallClock {
	return &WallClock{Hour: hour, Minute: minute, Date: date}
}

// Validate implements Trigger.
func (w *WallClock) Validate() error {
	return validateClock(w.Hour, w.Minute)
}

// Arm computes the due minute relative to now. If now is already inside
// the target minute the trigger is due immediately.
func (w *WallClock) Arm(now time.Time) {
	w.fired = false
	w.armed = true
	if !w.Date.IsZero() {
		w.due = w.Date.At(w.Hour, w.Minute, now.Location())
		return
	}
	minute := now.Truncate(time.Minute)
	due := clock.DateOf(now).At(w.Hour, w.Minute, now.Location())
	if due.Before(minute) {
		due = clock.DateOf(now).AddDays(1).At(w.Hour, w.Minute, now.Location())
	}
	w.due = due
}

// Evaluate fires once when now, truncated to the minute, reaches the due
// minute. A late poll still fires exactly once.
func (w *WallClock) Evaluate(now time.Time) bool {
	if !w.armed || w.fired {
		return false
	}
	if now.Truncate(time.Minute).Before(w.due) {
		return false
	}
	w.fired = true
	return true
}

// Due returns the instant the trigger is waiting for. Zero before Arm.
func (w *WallClock) Due() time.Time {
	return w.due
}

// Fired reports whether the trigger fired in the current armed period.
func (w *WallClock) Fired() bool {
	return w.fired
}

// String renders the target as HH:MM, prefixed by the date when set.
func (w *WallClock) String() string {
	if w.Date.IsZero() {
		return FormatClock(w.Hour, w.Minute)
	}
	return w.Date.String() + " " + FormatClock(w.Hour, w.Minute)
}
