// Package feature wires a trigger, an audio asset and a playback actuator
// into the alarm, timer and reminder features.
package feature

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jwulff/chime/internal/audio"
	"github.com/jwulff/chime/internal/trigger"
)

// ErrInvalidConfiguration is returned when Arm is missing a target or a
// required recording.
var ErrInvalidConfiguration = trigger.ErrInvalidConfiguration

// Kind selects a feature's arming rules.
type Kind string

const (
	KindAlarm    Kind = "alarm"
	KindTimer    Kind = "timer"
	KindReminder Kind = "reminder"
)

// RequiresAsset reports whether the feature can only be armed with a
// recording.
func (k Kind) RequiresAsset() bool {
	return k == KindAlarm || k == KindReminder
}

// Player plays an asset, or a default sound for nil.
type Player interface {
	Play(ctx context.Context, asset *audio.Asset) error
}

// Options configures a Controller.
type Options struct {
	// Name labels events and log lines, e.g. a reminder ID.
	Name   string
	Logger *slog.Logger
}

// Controller is the per-feature state machine. It is driven by Tick calls
// from a single scheduling loop.
type Controller struct {
	kind    Kind
	name    string
	player  Player
	logger  *slog.Logger
	state   State
	trigger trigger.Trigger
	asset   *audio.Asset
	paused  bool

	mu     sync.Mutex
	events []chan Event
}

// New creates a disarmed controller.
func New(kind Kind, player Player, opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Name == "" {
		opts.Name = string(kind)
	}
	return &Controller{
		kind:   kind,
		name:   opts.Name,
		player: player,
		logger: opts.Logger.With("feature", string(kind), "name", opts.Name),
		state:  StateDisarmed,
	}
}

// Kind returns the feature kind.
func (c *Controller) Kind() Kind { return c.kind }

// State returns the current state.
func (c *Controller) State() State { return c.state }

// Armed reports whether the controller is waiting for its trigger.
func (c *Controller) Armed() bool { return c.state == StateArmed }

// Paused reports whether an armed timer is paused.
func (c *Controller) Paused() bool { return c.paused }

// Trigger returns the most recently armed trigger.
func (c *Controller) Trigger() trigger.Trigger { return c.trigger }

// Asset returns the asset that will play on fire. Nil means the default
// sound.
func (c *Controller) Asset() *audio.Asset { return c.asset }

// Arm validates the configuration and moves Disarmed → Armed. On error the
// controller is unchanged.
func (c *Controller) Arm(now time.Time, t trigger.Trigger, asset *audio.Asset) error {
	if c.state != StateDisarmed {
		return fmt.Errorf("%w: %s already armed", ErrInvalidConfiguration, c.kind)
	}
	if t == nil {
		return fmt.Errorf("%w: %s has no target", ErrInvalidConfiguration, c.kind)
	}
	if err := t.Validate(); err != nil {
		return err
	}
	if c.kind.RequiresAsset() && !asset.Valid() {
		return fmt.Errorf("%w: %s needs a recorded message", ErrInvalidConfiguration, c.kind)
	}

	t.Arm(now)
	c.trigger = t
	c.asset = asset
	c.paused = false
	c.state = StateArmed

	c.logger.Info("armed", "trigger", describe(t))
	c.emit(Event{Type: EventArmed, State: StateArmed, AssetID: assetID(asset), At: now})
	return nil
}

// Disarm cancels an armed controller without firing. It is a no-op when
// already disarmed.
func (c *Controller) Disarm(now time.Time) {
	if c.state != StateArmed {
		return
	}
	c.reset()
	c.logger.Info("disarmed")
	c.emit(Event{Type: EventDisarmed, State: StateDisarmed, At: now})
}

// Pause freezes an armed timer.
func (c *Controller) Pause(now time.Time) bool {
	elapsed, ok := c.trigger.(*trigger.Elapsed)
	if c.state != StateArmed || !ok || c.paused {
		return false
	}
	elapsed.Pause(now)
	c.paused = true
	c.emit(Event{Type: EventPaused, State: StateArmed, At: now})
	return true
}

// Resume continues a paused timer.
func (c *Controller) Resume(now time.Time) bool {
	elapsed, ok := c.trigger.(*trigger.Elapsed)
	if c.state != StateArmed || !ok || !c.paused {
		return false
	}
	elapsed.Resume(now)
	c.paused = false
	c.emit(Event{Type: EventResumed, State: StateArmed, At: now})
	return true
}

// Elapsed returns the timer's elapsed time, or zero for other triggers.
func (c *Controller) Elapsed(now time.Time) time.Duration {
	if elapsed, ok := c.trigger.(*trigger.Elapsed); ok {
		return elapsed.Elapsed(now)
	}
	return 0
}

// Remaining returns the time left on the timer, or zero for other triggers.
func (c *Controller) Remaining(now time.Time) time.Duration {
	if elapsed, ok := c.trigger.(*trigger.Elapsed); ok {
		return elapsed.Remaining(now)
	}
	return 0
}

// Tick evaluates the trigger. When it fires the asset is played and the
// controller passes through Fired back to Disarmed. The returned event is
// the fire (with any playback error attached); ok is false when nothing
// fired.
func (c *Controller) Tick(ctx context.Context, now time.Time) (Event, bool) {
	if c.state != StateArmed || c.paused {
		return Event{}, false
	}
	if !c.trigger.Evaluate(now) {
		return Event{}, false
	}

	asset := c.asset
	playErr := c.play(ctx, asset)

	c.state = StateFired
	fired := Event{Type: EventFired, State: StateFired, AssetID: assetID(asset), Err: playErr, At: now}
	c.logger.Info("fired", "asset", fired.AssetID)
	c.emit(fired)

	if playErr != nil {
		c.logger.Warn("playback failed", "err", playErr)
		c.emit(Event{Type: EventPlaybackFailed, State: StateFired, AssetID: fired.AssetID, Err: playErr, At: now})
	}

	// Firing always disarms; a failed sound is not a reason to ring again.
	c.reset()
	c.emit(Event{Type: EventDisarmed, State: StateDisarmed, At: now})

	fired.Kind = c.kind
	fired.Name = c.name
	return fired, true
}

func (c *Controller) play(ctx context.Context, asset *audio.Asset) error {
	if c.player == nil {
		return fmt.Errorf("%w: no player", audio.ErrPlaybackFailed)
	}
	return c.player.Play(ctx, asset)
}

func (c *Controller) reset() {
	c.state = StateDisarmed
	c.paused = false
	if elapsed, ok := c.trigger.(*trigger.Elapsed); ok {
		elapsed.Reset()
	}
}

// Subscribe registers an observer channel. Events are dropped rather than
// block when the buffer is full.
func (c *Controller) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	c.mu.Lock()
	c.events = append(c.events, ch)
	c.mu.Unlock()
	return ch
}

// Close closes every observer channel.
func (c *Controller) Close() {
	c.mu.Lock()
	events := c.events
	c.events = nil
	c.mu.Unlock()
	for _, ch := range events {
		close(ch)
	}
}

func (c *Controller) emit(event Event) {
	event.Kind = c.kind
	event.Name = c.name
	c.mu.Lock()
	events := append([]chan Event(nil), c.events...)
	c.mu.Unlock()
	for _, ch := range events {
		select {
		case ch <- event:
		default:
		}
	}
}

func assetID(asset *audio.Asset) string {
	if asset == nil {
		return ""
	}
	return asset.ID
}

func describe(t trigger.Trigger) string {
	switch v := t.(type) {
	case *trigger.WallClock:
		return v.String()
	case *trigger.Elapsed:
		return v.Target.String()
	}
	return fmt.Sprintf("%T", t)
}
