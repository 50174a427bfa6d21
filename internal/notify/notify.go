// Package notify delivers short user-facing messages.
package notify

import "log/slog"

// Severity tells a notifier how to present a message.
type Severity int

const (
	Info Severity = iota
	Destructive
)

func (s Severity) String() string {
	if s == Destructive {
		return "destructive"
	}
	return "info"
}

// Notifier shows a message. Delivery is fire-and-forget: implementations
// swallow their own failures.
type Notifier interface {
	Notify(title, body string, severity Severity)
}

// Func adapts a function to Notifier.
type Func func(title, body string, severity Severity)

func (f Func) Notify(title, body string, severity Severity) {
	if f != nil {
		f(title, body, severity)
	}
}

// Log writes notifications as log records.
type Log struct {
	Logger *slog.Logger
}

func (l Log) Notify(title, body string, severity Severity) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if severity == Destructive {
		logger.Warn(title, "body", body)
		return
	}
	logger.Info(title, "body", body)
}

// Multi fans a message out to several notifiers.
type Multi []Notifier

func (m Multi) Notify(title, body string, severity Severity) {
	for _, n := range m {
		if n != nil {
			n.Notify(title, body, severity)
		}
	}
}

// Discard drops every message.
var Discard Notifier = Func(nil)
