// Package control serves the engine over a Unix socket using NDJSON, and
// provides the matching client.
package control

// Command names.
const (
	CmdStatus        = "status"
	CmdSetAlarm      = "set_alarm"
	CmdCancelAlarm   = "cancel_alarm"
	CmdStartTimer    = "start_timer"
	CmdPauseTimer    = "pause_timer"
	CmdResumeTimer   = "resume_timer"
	CmdResetTimer    = "reset_timer"
	CmdAddReminder   = "add_reminder"
	CmdListReminders = "list_reminders"
	CmdPlayReminder  = "play_reminder"
	CmdSubscribe     = "subscribe"
)

// Command is sent from a client to the server.
type Command struct {
	Cmd     string   `json:"cmd"`
	Time    string   `json:"time,omitempty"`
	Seconds *int     `json:"seconds,omitempty"`
	Date    string   `json:"date,omitempty"`
	Note    string   `json:"note,omitempty"`
	Sound   string   `json:"sound,omitempty"`
	ID      string   `json:"id,omitempty"`
	Events  []string `json:"events,omitempty"`
}

// AlarmInfo describes the alarm.
type AlarmInfo struct {
	Armed  bool   `json:"armed"`
	Time   string `json:"time,omitempty"`
	Due    string `json:"due,omitempty"`
	Custom bool   `json:"custom"`
}

// TimerInfo describes the timer. Durations are milliseconds.
type TimerInfo struct {
	Armed       bool  `json:"armed"`
	Paused      bool  `json:"paused"`
	TargetMs    int64 `json:"targetMs"`
	ElapsedMs   int64 `json:"elapsedMs"`
	RemainingMs int64 `json:"remainingMs"`
	Custom      bool  `json:"custom"`
}

// ReminderInfo describes one reminder.
type ReminderInfo struct {
	ID      string `json:"id"`
	Date    string `json:"date"`
	Time    string `json:"time"`
	Note    string `json:"note,omitempty"`
	AssetID string `json:"assetId,omitempty"`
	Bytes   int    `json:"bytes"`
	Pending bool   `json:"pending"`
}

// Response is returned by the server after processing a command.
type Response struct {
	OK        bool           `json:"ok"`
	Error     string         `json:"error,omitempty"`
	Status    string         `json:"status,omitempty"`
	Alarm     *AlarmInfo     `json:"alarm,omitempty"`
	Timer     *TimerInfo     `json:"timer,omitempty"`
	Reminder  *ReminderInfo  `json:"reminder,omitempty"`
	Reminders []ReminderInfo `json:"reminders,omitempty"`
	Pending   *int           `json:"pending,omitempty"`
}

// Event is streamed from the server to subscribed clients.
type Event struct {
	Event   string `json:"event"`
	Kind    string `json:"kind,omitempty"`
	Name    string `json:"name,omitempty"`
	AssetID string `json:"assetId,omitempty"`
	At      string `json:"at,omitempty"`
	Message string `json:"message,omitempty"`
}

// IntPtr returns a pointer to an int value. Convenience for building commands.
func IntPtr(n int) *int { return &n }
