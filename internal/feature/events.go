package feature

import "time"

// State is the controller's position in the Disarmed → Armed → Fired →
// Disarmed cycle.
type State string

const (
	StateDisarmed State = "disarmed"
	StateArmed    State = "armed"
	StateFired    State = "fired"
)

// EventType defines the type of controller event.
type EventType string

const (
	EventArmed          EventType = "armed"
	EventFired          EventType = "fired"
	EventDisarmed       EventType = "disarmed"
	EventPaused         EventType = "paused"
	EventResumed        EventType = "resumed"
	EventPlaybackFailed EventType = "playback_failed"
)

// Event reports a controller transition to observers.
type Event struct {
	Type    EventType
	Kind    Kind
	Name    string
	State   State
	AssetID string
	Err     error
	At      time.Time
}
