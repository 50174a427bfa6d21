package control

import (
	"encoding/json"
	"testing"
)

func TestCommandMarshalStartTimer(t *testing.T) {
	cmd := Command{
		Cmd:     CmdStartTimer,
		Seconds: IntPtr(90),
		Sound:   "/tmp/ding.wav",
	}

	data, err := json.Marshal(cmd)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got Command
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if got.Cmd != "start_timer" {
		t.Errorf("cmd = %q, want %q", got.Cmd, "start_timer")
	}
	if got.Seconds == nil || *got.Seconds != 90 {
		t.Errorf("seconds = %v, want 90", got.Seconds)
	}
	if got.Sound != "/tmp/ding.wav" {
		t.Errorf("sound = %q", got.Sound)
	}
}

func TestCommandOmitsEmptyFields(t *testing.T) {
	data, err := json.Marshal(Command{Cmd: CmdCancelAlarm})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal raw: %v", err)
	}

	for _, key := range []string{"time", "seconds", "date", "note", "sound", "events"} {
		if _, ok := raw[key]; ok {
			t.Errorf("cancel_alarm should omit %s", key)
		}
	}
}

func TestResponseStatus(t *testing.T) {
	j := `{"ok":true,"status":"alarm 07:30","alarm":{"armed":true,"time":"07:30","custom":true},"timer":{"armed":false,"paused":false,"targetMs":0,"elapsedMs":0,"remainingMs":0,"custom":false},"pending":2}`

	var resp Response
	if err := json.Unmarshal([]byte(j), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if !resp.OK {
		t.Error("ok = false, want true")
	}
	if resp.Alarm == nil || !resp.Alarm.Armed || resp.Alarm.Time != "07:30" {
		t.Errorf("alarm = %+v", resp.Alarm)
	}
	if resp.Timer == nil || resp.Timer.Armed {
		t.Errorf("timer = %+v", resp.Timer)
	}
	if resp.Pending == nil || *resp.Pending != 2 {
		t.Errorf("pending = %v, want 2", resp.Pending)
	}
}

func TestResponseError(t *testing.T) {
	j := `{"ok":false,"error":"invalid configuration: alarm needs a recorded message"}`

	var resp Response
	if err := json.Unmarshal([]byte(j), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if resp.OK {
		t.Error("ok = true, want false")
	}
	if resp.Error != "invalid configuration: alarm needs a recorded message" {
		t.Errorf("error = %q", resp.Error)
	}
}

func TestResponseReminders(t *testing.T) {
	j := `{"ok":true,"reminders":[{"id":"a","date":"2026-10-20","time":"09:00","note":"Dentist","bytes":12,"pending":true},{"id":"b","date":"2026-10-20","time":"08:00","bytes":3,"pending":false}]}`

	var resp Response
	if err := json.Unmarshal([]byte(j), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if len(resp.Reminders) != 2 {
		t.Fatalf("reminders len = %d, want 2", len(resp.Reminders))
	}
	if resp.Reminders[0].Note != "Dentist" || !resp.Reminders[0].Pending {
		t.Errorf("reminders[0] = %+v", resp.Reminders[0])
	}
}

func TestEventPlaybackFailed(t *testing.T) {
	j := `{"event":"playback_failed","kind":"timer","at":"2026-10-19T12:00:00Z","message":"playback failed: no player"}`

	var ev Event
	if err := json.Unmarshal([]byte(j), &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if ev.Event != "playback_failed" || ev.Kind != "timer" {
		t.Errorf("event = %+v", ev)
	}
	if ev.Message != "playback failed: no player" {
		t.Errorf("message = %q", ev.Message)
	}
}

func TestIntPtr(t *testing.T) {
	p := IntPtr(5)
	if p == nil || *p != 5 {
		t.Error("IntPtr(5) should return pointer to 5")
	}
}
