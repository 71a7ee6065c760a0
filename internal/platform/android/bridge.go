// Package android implements the mobile backend on top of the platform
// alarm and notification services. The services themselves are bound by
// the mobile shell at process start and handed in as interfaces; all
// scheduling and dispatch logic lives on this side of the bridge so it
// runs (and tests) as ordinary Go code.
package android

import (
	"fmt"
	"sync"
	"time"
)

// PendingIntent describes an app-targeted broadcast the OS delivers
// later. Arming two intents with the same request code and action
// replaces the earlier one — that property is what makes the daily
// alarm idempotent.
type PendingIntent struct {
	RequestCode int
	Action      string
	Extras      map[string]string
}

// AlarmService is the slice of the platform alarm manager the backend
// uses.
type AlarmService interface {
	// SetExactAndAllowWhileIdle arms a one-shot alarm that fires at the
	// given instant even in doze.
	SetExactAndAllowWhileIdle(at time.Time, intent PendingIntent) error
	// SetRepeating arms a repeating alarm starting at the given instant.
	SetRepeating(start time.Time, interval time.Duration, intent PendingIntent) error
	// Cancel removes an armed alarm matching the intent.
	Cancel(intent PendingIntent) error
}

// ChannelSpec describes a notification channel created once per app.
type ChannelSpec struct {
	ID          string
	Name        string
	Description string
}

// Posted is a notification handed to the platform notification service.
type Posted struct {
	ChannelID     string
	Title         string
	Body          string
	ContentIntent PendingIntent
	DeleteIntent  PendingIntent
}

// NotificationService is the slice of the platform notification manager
// the backend uses.
type NotificationService interface {
	CreateChannel(spec ChannelSpec) error
	Post(tag string, n Posted) error
}

// Broadcast is an OS-delivered intent handed back into the process.
type Broadcast struct {
	Action string
	Extras map[string]string
}

// Dispatcher routes OS-delivered broadcasts to in-process handlers.
// The mobile shell constructs exactly one and forwards every broadcast
// its receiver gets; components register for the actions they own.
type Dispatcher struct {
	mu       sync.Mutex
	handlers map[string]func(Broadcast)
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]func(Broadcast))}
}

// Register installs the handler for an action string. Registering an
// action twice is a programming error.
func (d *Dispatcher) Register(action string, h func(Broadcast)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.handlers[action]; ok {
		return fmt.Errorf("action %q already registered", action)
	}
	d.handlers[action] = h
	return nil
}

// Dispatch routes a broadcast to its handler and reports whether one
// was registered.
func (d *Dispatcher) Dispatch(b Broadcast) bool {
	d.mu.Lock()
	h, ok := d.handlers[b.Action]
	d.mu.Unlock()
	if !ok {
		return false
	}
	h(b)
	return true
}

// Host bundles the platform services the mobile shell binds before any
// backend is constructed.
type Host struct {
	Alarms        AlarmService
	Notifications NotificationService
	Dispatcher    *Dispatcher
}
