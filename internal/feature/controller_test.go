package feature

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jwulff/chime/internal/audio"
	"github.com/jwulff/chime/internal/clock"
	"github.com/jwulff/chime/internal/trigger"
)

type recordingPlayer struct {
	played []*audio.Asset
	err    error
}

func (p *recordingPlayer) Play(ctx context.Context, asset *audio.Asset) error {
	p.played = append(p.played, asset)
	return p.err
}

func morning(hour, minute, second int) time.Time {
	return time.Date(2026, time.October, 19, hour, minute, second, 0, time.UTC)
}

func drain(ch <-chan Event) []EventType {
	var types []EventType
	for {
		select {
		case ev := <-ch:
			types = append(types, ev.Type)
		default:
			return types
		}
	}
}

func TestAlarmScenario(t *testing.T) {
	player := &recordingPlayer{}
	c := New(KindAlarm, player, Options{})
	clk := clock.NewManual(morning(7, 29, 0))
	asset := audio.NewAsset("audio/wav", []byte("A"))

	if err := c.Arm(clk.Now(), trigger.NewWallClock(7, 30), asset); err != nil {
		t.Fatalf("Arm: %v", err)
	}
	if _, fired := c.Tick(context.Background(), clk.Now()); fired {
		t.Fatal("fired at 07:29")
	}

	ev, fired := c.Tick(context.Background(), clk.Advance(time.Minute))
	if !fired {
		t.Fatal("did not fire at 07:30")
	}
	if len(player.played) != 1 || player.played[0] != asset {
		t.Fatalf("played = %v, want asset A", player.played)
	}
	if ev.AssetID != asset.ID || ev.Kind != KindAlarm {
		t.Errorf("event = %+v", ev)
	}
	if c.State() != StateDisarmed {
		t.Errorf("state = %s, want disarmed", c.State())
	}

	for s := 1; s < 60; s++ {
		if _, fired := c.Tick(context.Background(), clk.Advance(time.Second)); fired {
			t.Fatalf("fired again %ds later", s)
		}
	}
}

func TestTimerScenario(t *testing.T) {
	player := &recordingPlayer{}
	c := New(KindTimer, player, Options{})
	clk := clock.NewManual(morning(12, 0, 0))
	ctx := context.Background()

	if err := c.Arm(clk.Now(), trigger.NewElapsed(60*time.Second), nil); err != nil {
		t.Fatalf("Arm: %v", err)
	}
	tickFor := func(d time.Duration) bool {
		fired := false
		for end := clk.Now().Add(d); clk.Now().Before(end); {
			if _, ok := c.Tick(ctx, clk.Advance(10*time.Millisecond)); ok {
				fired = true
			}
		}
		return fired
	}

	if tickFor(30 * time.Second) {
		t.Fatal("fired before pause")
	}
	if !c.Pause(clk.Now()) {
		t.Fatal("Pause refused")
	}
	if tickFor(10 * time.Second) {
		t.Fatal("fired while paused")
	}
	if got := c.Elapsed(clk.Now()); got != 30*time.Second {
		t.Errorf("elapsed while paused = %v", got)
	}
	if got := c.Remaining(clk.Now()); got != 30*time.Second {
		t.Errorf("remaining while paused = %v", got)
	}
	if !c.Resume(clk.Now()) {
		t.Fatal("Resume refused")
	}
	if tickFor(29 * time.Second) {
		t.Fatal("fired at 59s")
	}
	if !c.Armed() {
		t.Fatal("should still be armed at 59s")
	}
	if !tickFor(time.Second) {
		t.Fatal("did not fire at 60s")
	}
	if len(player.played) != 1 || player.played[0] != nil {
		t.Errorf("timer without recording should play the default sound, played %v", player.played)
	}
}

func TestArmRequiresAsset(t *testing.T) {
	for _, kind := range []Kind{KindAlarm, KindReminder} {
		c := New(kind, &recordingPlayer{}, Options{})
		err := c.Arm(morning(7, 0, 0), trigger.NewWallClock(7, 30), nil)
		if !errors.Is(err, ErrInvalidConfiguration) {
			t.Errorf("%s: err = %v, want ErrInvalidConfiguration", kind, err)
		}
		if c.State() != StateDisarmed {
			t.Errorf("%s: state = %s", kind, c.State())
		}
	}
}

func TestArmRequiresTarget(t *testing.T) {
	asset := audio.NewAsset("", []byte("x"))
	cases := []struct {
		kind Kind
		trig trigger.Trigger
	}{
		{KindAlarm, nil},
		{KindAlarm, trigger.NewWallClock(25, 0)},
		{KindTimer, trigger.NewElapsed(0)},
		{KindTimer, trigger.NewElapsed(-time.Second)},
	}
	for _, tc := range cases {
		c := New(tc.kind, &recordingPlayer{}, Options{})
		if err := c.Arm(morning(7, 0, 0), tc.trig, asset); !errors.Is(err, ErrInvalidConfiguration) {
			t.Errorf("%s %v: err = %v", tc.kind, tc.trig, err)
		}
		if c.State() != StateDisarmed {
			t.Errorf("%s: state = %s", tc.kind, c.State())
		}
	}
}

func TestArmTwiceRejected(t *testing.T) {
	c := New(KindTimer, &recordingPlayer{}, Options{})
	now := morning(7, 0, 0)
	if err := c.Arm(now, trigger.NewElapsed(time.Minute), nil); err != nil {
		t.Fatal(err)
	}
	if err := c.Arm(now, trigger.NewElapsed(time.Hour), nil); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("err = %v", err)
	}
}

func TestFireSequenceDespitePlaybackFailure(t *testing.T) {
	player := &recordingPlayer{err: audio.ErrPlaybackFailed}
	c := New(KindAlarm, player, Options{})
	events := c.Subscribe(10)
	asset := audio.NewAsset("", []byte("A"))

	if err := c.Arm(morning(7, 29, 0), trigger.NewWallClock(7, 30), asset); err != nil {
		t.Fatal(err)
	}
	ev, fired := c.Tick(context.Background(), morning(7, 30, 0))
	if !fired {
		t.Fatal("did not fire")
	}
	if !errors.Is(ev.Err, audio.ErrPlaybackFailed) {
		t.Errorf("fire event err = %v", ev.Err)
	}
	if c.State() != StateDisarmed {
		t.Errorf("state = %s, want disarmed after failed playback", c.State())
	}

	got := drain(events)
	want := []EventType{EventArmed, EventFired, EventPlaybackFailed, EventDisarmed}
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("events[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestFireWithoutPlayer(t *testing.T) {
	c := New(KindTimer, nil, Options{})
	if err := c.Arm(morning(9, 0, 0), trigger.NewElapsed(5*time.Second), nil); err != nil {
		t.Fatal(err)
	}
	ev, fired := c.Tick(context.Background(), morning(9, 0, 5))
	if !fired {
		t.Fatal("did not fire")
	}
	if !errors.Is(ev.Err, audio.ErrPlaybackFailed) {
		t.Errorf("fire event err = %v, want ErrPlaybackFailed", ev.Err)
	}
	if c.State() != StateDisarmed {
		t.Errorf("state = %s, want disarmed", c.State())
	}
}

func TestDisarmCancelsWithoutFiring(t *testing.T) {
	player := &recordingPlayer{}
	c := New(KindAlarm, player, Options{})
	asset := audio.NewAsset("", []byte("A"))
	if err := c.Arm(morning(7, 29, 0), trigger.NewWallClock(7, 30), asset); err != nil {
		t.Fatal(err)
	}
	c.Disarm(morning(7, 29, 30))
	if c.State() != StateDisarmed {
		t.Fatalf("state = %s", c.State())
	}
	if _, fired := c.Tick(context.Background(), morning(7, 30, 0)); fired {
		t.Error("disarmed alarm fired")
	}
	if len(player.played) != 0 {
		t.Error("disarmed alarm played")
	}

	// Re-arm after cancel.
	if err := c.Arm(morning(7, 29, 40), trigger.NewWallClock(7, 30), asset); err != nil {
		t.Fatalf("re-Arm: %v", err)
	}
	if _, fired := c.Tick(context.Background(), morning(7, 30, 0)); !fired {
		t.Error("re-armed alarm did not fire")
	}
}

func TestPauseOnlyForTimers(t *testing.T) {
	c := New(KindAlarm, &recordingPlayer{}, Options{})
	asset := audio.NewAsset("", []byte("A"))
	now := morning(7, 0, 0)
	if err := c.Arm(now, trigger.NewWallClock(8, 0), asset); err != nil {
		t.Fatal(err)
	}
	if c.Pause(now) {
		t.Error("alarm should not pause")
	}
}

func TestCloseClosesSubscribers(t *testing.T) {
	c := New(KindTimer, &recordingPlayer{}, Options{})
	ch := c.Subscribe(1)
	c.Close()
	if _, ok := <-ch; ok {
		t.Error("channel should be closed")
	}
}
