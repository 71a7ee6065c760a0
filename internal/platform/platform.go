// Package platform defines the OS-neutral contracts for timer and
// notification management. Two backends implement them: systemd (Linux
// desktop) and android (mobile packaging). All durable scheduling state
// lives in the OS primitives behind these interfaces — implementations
// must not keep timer registries in process memory.
package platform

import (
	"context"
	"errors"

	"github.com/claroapp/claro-notify/internal/schedule"
)

// ErrUnsupported marks operations a backend deliberately does not
// implement, so callers cannot mistake "not supported" for success.
var ErrUnsupported = errors.New("operation not supported")

// TimerManager arms OS-native timers that run commands.
type TimerManager interface {
	// ScheduleTimer arms a one-shot timer for the occurrence and returns
	// an opaque handle usable only with CancelTimer for the lifetime of
	// this process. When the occurrence carries a window, the backend
	// picks the concrete instant inside it.
	ScheduleTimer(ctx context.Context, occ schedule.Occurrence) (string, error)

	// ScheduleDaily installs (if absent) and (re)activates a recurring
	// daily timer running command with args at the given time of day.
	// Idempotent: repeated calls never create duplicate OS objects.
	ScheduleDaily(ctx context.Context, command string, args []string, at schedule.TimeOfDay) error

	// CancelTimer stops and removes a live timer. A handle that no
	// longer corresponds to a live timer is not an error — the timer
	// may simply have fired already.
	CancelTimer(ctx context.Context, handle string) error
}

// Notification is a user-visible message with interaction callbacks.
// At most one of the callbacks is invoked, at most once; neither fires
// if the process exits first.
type Notification struct {
	Title       string
	Body        string
	OnClicked   func()
	OnDismissed func()
}

// NotificationManager shows notifications and reports interactions.
type NotificationManager interface {
	// CreateNotification shows the notification and blocks until the
	// user clicks or dismisses it, or ctx is cancelled (fire-and-forget
	// past that point).
	CreateNotification(ctx context.Context, n Notification) error
}
