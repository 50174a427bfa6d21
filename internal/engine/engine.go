// Package engine hosts the alarm, timer and reminder features behind a
// single scheduling loop.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jwulff/chime/internal/audio"
	"github.com/jwulff/chime/internal/clock"
	"github.com/jwulff/chime/internal/feature"
	"github.com/jwulff/chime/internal/reminder"
	"github.com/jwulff/chime/internal/trigger"
)

var (
	ErrStopped         = errors.New("engine stopped")
	ErrTimerNotRunning = errors.New("timer is not running")
	ErrTimerNotPaused  = errors.New("timer is not paused")
)

// Options configures an Engine.
type Options struct {
	Clock        clock.Clock
	Player       feature.Player
	Store        *reminder.Store
	TickInterval time.Duration
	// Ticks replaces the internal ticker when set. The tick time is ignored;
	// the loop reads Clock instead.
	Ticks  <-chan time.Time
	Logger *slog.Logger
}

// Engine owns every feature controller. All state is touched only by the
// loop goroutine started by Start.
type Engine struct {
	clock    clock.Clock
	player   feature.Player
	logger   *slog.Logger
	interval time.Duration
	ticks    <-chan time.Time

	alarm       *feature.Controller
	timer       *feature.Controller
	book        *reminder.Book
	alarmEvents <-chan feature.Event
	timerEvents <-chan feature.Event

	cmds     chan func()
	stopCh   chan struct{}
	done     chan struct{}
	started  bool
	stopOnce sync.Once

	mu   sync.Mutex
	subs []chan feature.Event
}

// New creates a stopped engine.
func New(opts Options) *Engine {
	if opts.Clock == nil {
		opts.Clock = clock.System{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = 100 * time.Millisecond
	}

	e := &Engine{
		clock:    opts.Clock,
		player:   opts.Player,
		logger:   opts.Logger,
		interval: opts.TickInterval,
		ticks:    opts.Ticks,
		alarm:    feature.New(feature.KindAlarm, opts.Player, feature.Options{Logger: opts.Logger}),
		timer:    feature.New(feature.KindTimer, opts.Player, feature.Options{Logger: opts.Logger}),
		book:     reminder.NewBook(opts.Store, opts.Player, opts.Logger),
		cmds:     make(chan func()),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	e.alarmEvents = e.alarm.Subscribe(16)
	e.timerEvents = e.timer.Subscribe(16)
	return e
}

// Start launches the loop. It is a no-op when already started.
func (e *Engine) Start() {
	if e.started {
		return
	}
	e.started = true
	go e.run()
}

func (e *Engine) run() {
	defer close(e.done)

	ticks := e.ticks
	if ticks == nil {
		ticker := time.NewTicker(e.interval)
		defer ticker.Stop()
		ticks = ticker.C
	}

	for {
		select {
		case <-e.stopCh:
			e.shutdown()
			return
		case <-ticks:
			e.tick()
		case fn := <-e.cmds:
			fn()
			e.forward()
		}
	}
}

func (e *Engine) tick() {
	ctx := context.Background()
	now := e.clock.Now()

	if ev, ok := e.alarm.Tick(ctx, now); ok {
		e.logFire(ev)
	}
	if ev, ok := e.timer.Tick(ctx, now); ok {
		e.logFire(ev)
	}
	for _, ev := range e.book.Tick(ctx, now) {
		e.logFire(ev)
	}
	e.forward()
}

func (e *Engine) logFire(ev feature.Event) {
	if ev.Err != nil {
		e.logger.Warn("fired with playback failure", "kind", ev.Kind, "name", ev.Name, "err", ev.Err)
		return
	}
	e.logger.Info("fired", "kind", ev.Kind, "name", ev.Name)
}

// forward drains controller events into subscribers: alarm and timer
// first, then reminders.
func (e *Engine) forward() {
	for done := false; !done; {
		select {
		case ev := <-e.alarmEvents:
			e.publish(ev)
		case ev := <-e.timerEvents:
			e.publish(ev)
		default:
			done = true
		}
	}
	for _, ev := range e.book.Drain() {
		e.publish(ev)
	}
}

func (e *Engine) shutdown() {
	now := e.clock.Now()
	e.alarm.Disarm(now)
	e.timer.Disarm(now)
	e.book.Cancel(now)
	e.forward()
	e.alarm.Close()
	e.timer.Close()

	e.mu.Lock()
	subs := e.subs
	e.subs = nil
	e.mu.Unlock()
	for _, ch := range subs {
		close(ch)
	}
	e.logger.Info("engine stopped")
}

// Stop disarms everything, stops the loop and closes subscribers.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		close(e.stopCh)
		if e.started {
			<-e.done
		}
	})
}

// Subscribe registers an observer for every feature event. Events are
// dropped when the buffer is full.
func (e *Engine) Subscribe(buffer int) <-chan feature.Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan feature.Event, buffer)
	e.mu.Lock()
	e.subs = append(e.subs, ch)
	e.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes ch.
func (e *Engine) Unsubscribe(ch <-chan feature.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, sub := range e.subs {
		if sub == ch {
			e.subs = append(e.subs[:i], e.subs[i+1:]...)
			close(sub)
			return
		}
	}
}

func (e *Engine) publish(ev feature.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, ch := range e.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Do runs fn on the loop goroutine and waits for it to finish.
func (e *Engine) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	wrapped := func() {
		defer close(finished)
		fn()
	}
	select {
	case e.cmds <- wrapped:
	case <-e.stopCh:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	<-finished
	return nil
}

// Tick runs one scheduling pass immediately.
func (e *Engine) Tick(ctx context.Context) error {
	return e.Do(ctx, e.tick)
}

func (e *Engine) call(ctx context.Context, fn func() error) error {
	var err error
	if doErr := e.Do(ctx, func() { err = fn() }); doErr != nil {
		return doErr
	}
	return err
}

// SetAlarm arms the alarm for the next hh:mm with a recorded message.
func (e *Engine) SetAlarm(ctx context.Context, hhmm string, asset *audio.Asset) error {
	hour, minute, err := trigger.ParseClock(hhmm)
	if err != nil {
		return err
	}
	return e.call(ctx, func() error {
		return e.alarm.Arm(e.clock.Now(), trigger.NewWallClock(hour, minute), asset)
	})
}

// CancelAlarm disarms the alarm.
func (e *Engine) CancelAlarm(ctx context.Context) error {
	return e.call(ctx, func() error {
		e.alarm.Disarm(e.clock.Now())
		return nil
	})
}

// MaxTimer is the longest timer target accepted.
const MaxTimer = 24 * time.Hour

// TimerTarget converts a client's seconds count into a timer target. Values
// outside (0, MaxTimer] fail with feature.ErrInvalidConfiguration.
func TimerTarget(seconds float64) (time.Duration, error) {
	if !(seconds > 0) || seconds > MaxTimer.Seconds() {
		return 0, fmt.Errorf("%w: timer must be between 0 and %d seconds", feature.ErrInvalidConfiguration, int(MaxTimer.Seconds()))
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// StartTimer arms the timer for target. A nil asset plays the default
// sound.
func (e *Engine) StartTimer(ctx context.Context, target time.Duration, asset *audio.Asset) error {
	if target > MaxTimer {
		return fmt.Errorf("%w: timer longer than %s", feature.ErrInvalidConfiguration, MaxTimer)
	}
	return e.call(ctx, func() error {
		return e.timer.Arm(e.clock.Now(), trigger.NewElapsed(target), asset)
	})
}

// PauseTimer freezes a running timer.
func (e *Engine) PauseTimer(ctx context.Context) error {
	return e.call(ctx, func() error {
		if !e.timer.Pause(e.clock.Now()) {
			return ErrTimerNotRunning
		}
		return nil
	})
}

// ResumeTimer continues a paused timer.
func (e *Engine) ResumeTimer(ctx context.Context) error {
	return e.call(ctx, func() error {
		if !e.timer.Resume(e.clock.Now()) {
			return ErrTimerNotPaused
		}
		return nil
	})
}

// ResetTimer stops and zeroes the timer.
func (e *Engine) ResetTimer(ctx context.Context) error {
	return e.call(ctx, func() error {
		e.timer.Disarm(e.clock.Now())
		return nil
	})
}

// AddReminder stores and arms a reminder.
func (e *Engine) AddReminder(ctx context.Context, date clock.Date, hhmm, note string, asset *audio.Asset) (reminder.Reminder, error) {
	var r reminder.Reminder
	err := e.call(ctx, func() error {
		var err error
		r, err = e.book.Add(ctx, e.clock.Now(), date, hhmm, note, asset)
		return err
	})
	return r, err
}

// ReminderEntry is a stored reminder plus whether it is still waiting to
// fire.
type ReminderEntry struct {
	reminder.Reminder
	Pending bool
}

// Reminders lists the reminders on date in insertion order.
func (e *Engine) Reminders(ctx context.Context, date clock.Date) ([]ReminderEntry, error) {
	var entries []ReminderEntry
	err := e.call(ctx, func() error {
		list, err := e.book.ForDate(ctx, date)
		if err != nil {
			return err
		}
		for _, r := range list {
			entries = append(entries, ReminderEntry{Reminder: r, Pending: e.book.IsPending(r.ID)})
		}
		return nil
	})
	return entries, err
}

// PlayReminder replays a stored reminder.
func (e *Engine) PlayReminder(ctx context.Context, id string) error {
	return e.call(ctx, func() error {
		return e.book.Play(ctx, id)
	})
}

// Preview plays asset, or the default sound for nil, without touching any
// controller.
func (e *Engine) Preview(ctx context.Context, asset *audio.Asset) error {
	if e.player == nil {
		return fmt.Errorf("%w: no player", audio.ErrPlaybackFailed)
	}
	return e.player.Play(ctx, asset)
}
