// Package notify decouples user-facing notifications from the call sites
// that produce them. The transport layer reports surfaced errors through a
// Sink; the UI (the CLI here) decides how to render them.
package notify

// Severity grades a notification for presentation purposes.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Sink receives user-facing messages. Implementations must be safe for
// concurrent use and must not block.
type Sink interface {
	Notify(message string, severity Severity)
}

// Nop discards all notifications. Useful as a default and in tests.
type Nop struct{}

func (Nop) Notify(string, Severity) {}

// Func adapts a function to the Sink interface.
type Func func(message string, severity Severity)

func (f Func) Notify(message string, severity Severity) { f(message, severity) }
