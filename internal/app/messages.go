package app

import (
	"time"

	"github.com/jwulff/chime/internal/audio"
	"github.com/jwulff/chime/internal/clock"
	"github.com/jwulff/chime/internal/reminder"
)

// captureTarget names the feature a capture session records for.
type captureTarget int

const (
	captureAlarm captureTarget = iota
	captureTimer
	captureReminder
)

func (t captureTarget) String() string {
	switch t {
	case captureAlarm:
		return "alarm"
	case captureTimer:
		return "timer"
	}
	return "reminder"
}

// ClockTickMsg drives the header clock, the alarm and the reminders.
type ClockTickMsg struct {
	At time.Time
}

// TimerTickMsg drives the running timer. Ticks from an older generation
// are dropped.
type TimerTickMsg struct {
	Gen int
}

// CaptureStartedMsg reports the result of acquiring the microphone.
type CaptureStartedMsg struct {
	Target captureTarget
	Err    error
}

// CaptureStoppedMsg carries the finished recording.
type CaptureStoppedMsg struct {
	Target captureTarget
	Asset  *audio.Asset
	Err    error
}

// PlaybackDoneMsg reports an on-demand playback.
type PlaybackDoneMsg struct {
	What string
	Err  error
}

// RemindersLoadedMsg carries the reminders for the selected date and the
// per-day counts for its month.
type RemindersLoadedMsg struct {
	Date      clock.Date
	Reminders []reminder.Reminder
	Marks     map[clock.Date]int
	Err       error
}

// ClearToastMsg clears the toast with the given id after a timeout.
type ClearToastMsg struct {
	ID int
}
