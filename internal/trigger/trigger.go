// Package trigger decides, tick by tick, when an alarm, timer or reminder
// is due.
package trigger

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidConfiguration means a trigger (or the feature using it) was
// armed with a missing or out-of-range target.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// Trigger is a time condition evaluated once per tick.
type Trigger interface {
	// Validate checks the configured target.
	Validate() error

	// Arm starts a new armed period at now, clearing any previous fire.
	Arm(now time.Time)

	// Evaluate reports whether the condition became true at now. It
	// returns true at most once per armed period.
	Evaluate(now time.Time) bool
}

// ParseClock parses an "HH:MM" time of day.
func ParseClock(s string) (hour, minute int, err error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(hh) == 0 || len(hh) > 2 || len(mm) != 2 {
		return 0, 0, fmt.Errorf("%w: time %q is not HH:MM", ErrInvalidConfiguration, s)
	}
	hour, err = strconv.Atoi(hh)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: time %q is not HH:MM", ErrInvalidConfiguration, s)
	}
	minute, err = strconv.Atoi(mm)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: time %q is not HH:MM", ErrInvalidConfiguration, s)
	}
	if err := validateClock(hour, minute); err != nil {
		return 0, 0, err
	}
	return hour, minute, nil
}

// FormatClock renders hour and minute as "HH:MM".
func FormatClock(hour, minute int) string {
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

func validateClock(hour, minute int) error {
	if hour < 0 || hour > 23 {
		return fmt.Errorf("%w: hour %d out of range", ErrInvalidConfiguration, hour)
	}
	if minute < 0 || minute > 59 {
		return fmt.Errorf("%w: minute %d out of range", ErrInvalidConfiguration, minute)
	}
	return nil
}
