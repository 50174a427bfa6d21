package control

import (
	"fmt"
	"strings"
	"time"

	"github.com/jwulff/chime/internal/engine"
	"github.com/jwulff/chime/internal/feature"
	"github.com/jwulff/chime/internal/reminder"
)

// FromStatus converts an engine snapshot to its wire form.
func FromStatus(st engine.Status) Response {
	alarm := AlarmInfo{Armed: st.Alarm.Armed, Time: st.Alarm.Time, Custom: st.Alarm.Custom}
	if !st.Alarm.Due.IsZero() {
		alarm.Due = st.Alarm.Due.Format(time.RFC3339)
	}
	timer := TimerInfo{
		Armed:       st.Timer.Armed,
		Paused:      st.Timer.Paused,
		TargetMs:    st.Timer.Target.Milliseconds(),
		ElapsedMs:   st.Timer.Elapsed.Milliseconds(),
		RemainingMs: st.Timer.Remaining.Milliseconds(),
		Custom:      st.Timer.Custom,
	}
	return Response{
		Status:  Summary(st),
		Alarm:   &alarm,
		Timer:   &timer,
		Pending: IntPtr(st.PendingReminders),
	}
}

// Summary renders a one-line description of st.
func Summary(st engine.Status) string {
	var parts []string
	if st.Alarm.Armed {
		parts = append(parts, "alarm "+st.Alarm.Time)
	} else {
		parts = append(parts, "alarm off")
	}
	switch {
	case st.Timer.Armed && st.Timer.Paused:
		parts = append(parts, fmt.Sprintf("timer paused %s/%s", st.Timer.Elapsed.Truncate(time.Second), st.Timer.Target))
	case st.Timer.Armed:
		parts = append(parts, fmt.Sprintf("timer running %s/%s", st.Timer.Elapsed.Truncate(time.Second), st.Timer.Target))
	default:
		parts = append(parts, "timer off")
	}
	parts = append(parts, fmt.Sprintf("%d pending reminders", st.PendingReminders))
	return strings.Join(parts, ", ")
}

// FromReminder converts a stored reminder to its wire form.
func FromReminder(r reminder.Reminder, pending bool) ReminderInfo {
	info := ReminderInfo{
		ID:      r.ID,
		Date:    r.Date.String(),
		Time:    r.Time,
		Note:    r.Note,
		Pending: pending,
	}
	if r.Asset != nil {
		info.AssetID = r.Asset.ID
		info.Bytes = r.Asset.Size()
	}
	return info
}

// FromEvent converts a controller event to its wire form.
func FromEvent(ev feature.Event) Event {
	out := Event{
		Event:   string(ev.Type),
		Kind:    string(ev.Kind),
		Name:    ev.Name,
		AssetID: ev.AssetID,
		At:      ev.At.Format(time.RFC3339),
	}
	if ev.Err != nil {
		out.Message = ev.Err.Error()
	}
	return out
}
