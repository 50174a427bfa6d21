// Package reminder keeps the calendar's voice reminders and fires them at
// their date and time.
package reminder

import (
	"time"

	"github.com/jwulff/chime/internal/audio"
	"github.com/jwulff/chime/internal/clock"
)

// Reminder is a voice message scheduled for a date and time. It is never
// modified after it is added.
type Reminder struct {
	ID        string
	Date      clock.Date
	Time      string // HH:MM
	Note      string
	Asset     *audio.Asset
	CreatedAt time.Time
}
