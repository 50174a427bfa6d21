package engine

import (
	"context"
	"time"

	"github.com/jwulff/chime/internal/feature"
	"github.com/jwulff/chime/internal/trigger"
)

// AlarmStatus describes the alarm controller.
type AlarmStatus struct {
	Armed  bool      `json:"armed"`
	Time   string    `json:"time,omitempty"`
	Due    time.Time `json:"due,omitempty"`
	Custom bool      `json:"custom"`
}

// TimerStatus describes the timer controller.
type TimerStatus struct {
	Armed     bool          `json:"armed"`
	Paused    bool          `json:"paused"`
	Target    time.Duration `json:"target"`
	Elapsed   time.Duration `json:"elapsed"`
	Remaining time.Duration `json:"remaining"`
	Custom    bool          `json:"custom"`
}

// Status is a snapshot of every feature.
type Status struct {
	Now              time.Time   `json:"now"`
	Alarm            AlarmStatus `json:"alarm"`
	Timer            TimerStatus `json:"timer"`
	PendingReminders int         `json:"pendingReminders"`
	TotalReminders   int         `json:"totalReminders"`
}

// Status returns a snapshot taken on the loop.
func (e *Engine) Status(ctx context.Context) (Status, error) {
	var st Status
	err := e.call(ctx, func() error {
		st = e.snapshot()
		total, err := e.book.Store().Count(ctx)
		st.TotalReminders = total
		return err
	})
	return st, err
}

func (e *Engine) snapshot() Status {
	now := e.clock.Now()
	st := Status{Now: now, PendingReminders: e.book.Pending()}

	if e.alarm.Armed() {
		st.Alarm.Armed = true
		st.Alarm.Custom = e.alarm.Asset() != nil
		if wc, ok := e.alarm.Trigger().(*trigger.WallClock); ok {
			st.Alarm.Time = trigger.FormatClock(wc.Hour, wc.Minute)
			st.Alarm.Due = wc.Due()
		}
	}

	if e.timer.State() == feature.StateArmed {
		st.Timer.Armed = true
		st.Timer.Paused = e.timer.Paused()
		st.Timer.Custom = e.timer.Asset() != nil
		if el, ok := e.timer.Trigger().(*trigger.Elapsed); ok {
			st.Timer.Target = el.Target
			st.Timer.Elapsed = el.Elapsed(now)
			st.Timer.Remaining = el.Remaining(now)
		}
	}
	return st
}
