// Package alert raises user-facing dose alerts. An alert offers exactly two
// actions, acknowledge-taken and dismiss, and auto-dismisses after a
// bounded timeout when nobody acts on it.
package alert

import (
	"sync"
	"time"

	"github.com/robibiruk/meditrack/internal/model"
)

// DefaultTimeout is how long an unacknowledged alert stays up.
const DefaultTimeout = 45 * time.Second

// Action is the outcome of an alert.
type Action int

const (
	// ActionTimeout means the alert auto-dismissed without user input.
	ActionTimeout Action = iota
	// ActionAck means the user confirmed the dose was taken.
	ActionAck
	// ActionDismiss means the user dismissed the alert without taking the
	// dose. Dismissing does not suppress future matches.
	ActionDismiss
)

func (a Action) String() string {
	switch a {
	case ActionAck:
		return "taken"
	case ActionDismiss:
		return "dismissed"
	default:
		return "timeout"
	}
}

// Alerter raises one alert surface per due reminder.
type Alerter interface {
	Raise(r *model.Reminder) (*Handle, error)
}

// Handle is a single raised alert. It resolves exactly once, through Ack,
// Dismiss, the timeout, or Cancel.
type Handle struct {
	Reminder *model.Reminder

	once   sync.Once
	result chan Action
	timer  *time.Timer
}

// NewHandle creates a handle that auto-dismisses after the given timeout.
// A zero timeout uses DefaultTimeout.
func NewHandle(r *model.Reminder, timeout time.Duration) *Handle {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	h := &Handle{
		Reminder: r,
		result:   make(chan Action, 1),
	}
	h.timer = time.AfterFunc(timeout, func() {
		h.resolve(ActionTimeout)
	})
	return h
}

// Ack resolves the alert as acknowledged-taken.
func (h *Handle) Ack() {
	h.resolve(ActionAck)
}

// Dismiss resolves the alert without any state change.
func (h *Handle) Dismiss() {
	h.resolve(ActionDismiss)
}

// Cancel tears the alert down, e.g. when the store it references is being
// detached. It resolves as a dismissal and is safe to call at any time.
func (h *Handle) Cancel() {
	h.resolve(ActionDismiss)
}

// Done delivers the single resolution of this alert.
func (h *Handle) Done() <-chan Action {
	return h.result
}

func (h *Handle) resolve(a Action) {
	h.once.Do(func() {
		h.timer.Stop()
		h.result <- a
	})
}
