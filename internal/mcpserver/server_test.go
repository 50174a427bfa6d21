package mcpserver

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/jwulff/chime/internal/audio"
	"github.com/jwulff/chime/internal/clock"
	"github.com/jwulff/chime/internal/control"
	"github.com/jwulff/chime/internal/engine"
	"github.com/jwulff/chime/internal/reminder"
)

type nopPlayer struct{}

func (nopPlayer) Play(ctx context.Context, asset *audio.Asset) error { return nil }

func newTestServer(t *testing.T) (*Server, *clock.Manual) {
	t.Helper()
	store, err := reminder.OpenMemory()
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	clk := clock.NewManual(time.Date(2026, time.October, 19, 6, 0, 0, 0, time.Local))
	e := engine.New(engine.Options{Clock: clk, Player: nopPlayer{}, Store: store, Ticks: make(chan time.Time)})
	e.Start()
	t.Cleanup(e.Stop)
	return New(e, "test", nil), clk
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatal("empty result")
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content = %T, want TextContent", res.Content[0])
	}
	return tc.Text
}

func soundFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "msg.wav")
	if err := os.WriteFile(path, []byte("RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSetAlarmRequiresSound(t *testing.T) {
	s, _ := newTestServer(t)

	res, err := s.setAlarm(context.Background(), call(map[string]any{"time": "07:30"}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !res.IsError || !strings.Contains(text(t, res), "sound is required") {
		t.Errorf("result = %+v", res)
	}
}

func TestSetAlarmAndStatus(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestServer(t)

	res, err := s.setAlarm(ctx, call(map[string]any{"time": "07:30", "sound": soundFile(t)}))
	if err != nil || res.IsError {
		t.Fatalf("set_alarm: %v %+v", err, res)
	}
	if got := text(t, res); got != "Alarm set for 07:30" {
		t.Errorf("text = %q", got)
	}

	res, err = s.status(ctx, call(nil))
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	var resp control.Response
	if err := json.Unmarshal([]byte(text(t, res)), &resp); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if resp.Alarm == nil || !resp.Alarm.Armed || resp.Alarm.Time != "07:30" {
		t.Errorf("alarm = %+v", resp.Alarm)
	}

	res, _ = s.setAlarm(ctx, call(map[string]any{"time": "08:00", "sound": soundFile(t)}))
	if !res.IsError {
		t.Error("arming an armed alarm should fail")
	}
	if res, _ := s.cancelAlarm(ctx, call(nil)); res.IsError {
		t.Errorf("cancel_alarm: %s", text(t, res))
	}
}

func TestTimerTools(t *testing.T) {
	ctx := context.Background()
	s, clk := newTestServer(t)

	res, _ := s.startTimer(ctx, call(map[string]any{"seconds": float64(90)}))
	if res.IsError {
		t.Fatalf("start_timer: %s", text(t, res))
	}
	clk.Advance(10 * time.Second)
	if res, _ := s.pauseTimer(ctx, call(nil)); res.IsError {
		t.Fatalf("pause_timer: %s", text(t, res))
	}
	if res, _ := s.pauseTimer(ctx, call(nil)); !res.IsError {
		t.Error("second pause should fail")
	}
	if res, _ := s.resumeTimer(ctx, call(nil)); res.IsError {
		t.Fatalf("resume_timer: %s", text(t, res))
	}
	if res, _ := s.resetTimer(ctx, call(nil)); res.IsError {
		t.Fatalf("reset_timer: %s", text(t, res))
	}
	if res, _ := s.startTimer(ctx, call(map[string]any{"seconds": float64(0)})); !res.IsError {
		t.Error("zero-second timer should fail")
	}
	if res, _ := s.startTimer(ctx, call(map[string]any{"seconds": float64(1e12)})); !res.IsError {
		t.Error("timer beyond a day should fail")
	}
}

func TestReminderTools(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestServer(t)

	res, _ := s.addReminder(ctx, call(map[string]any{"date": "2026-10-20", "time": "09:00", "note": "dentist", "sound": soundFile(t)}))
	if res.IsError {
		t.Fatalf("add_reminder: %s", text(t, res))
	}
	res, _ = s.addReminder(ctx, call(map[string]any{"date": "2026-10-20", "time": "09:00"}))
	if !res.IsError {
		t.Error("reminder without sound should fail")
	}

	res, _ = s.listReminders(ctx, call(map[string]any{"date": "2026-10-20"}))
	var infos []control.ReminderInfo
	if err := json.Unmarshal([]byte(text(t, res)), &infos); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(infos) != 1 || infos[0].Note != "dentist" || !infos[0].Pending {
		t.Errorf("infos = %+v", infos)
	}

	res, _ = s.listReminders(ctx, call(map[string]any{"date": "2026-10-21"}))
	if got := text(t, res); got != "No reminders on 2026-10-21" {
		t.Errorf("text = %q", got)
	}
}
