package systemd

import (
	"context"
	"fmt"

	"github.com/esiqveland/notify"
	"github.com/godbus/dbus/v5"

	"github.com/claroapp/claro-notify/internal/platform"
)

// clickActionKey is the freedesktop action key a notification server
// invokes when the notification body itself is activated.
const clickActionKey = "default"

// interaction is a click or close signal reduced to what the wait loop
// needs.
type interaction struct {
	id      uint32
	clicked bool
}

// Notifier shows desktop notifications through the session notification
// daemon and reports click/dismiss interactions.
type Notifier struct {
	appName string
}

// NewNotifier creates a desktop notifier for the given application name.
func NewNotifier(appName string) *Notifier {
	return &Notifier{appName: appName}
}

// CreateNotification sends the notification and blocks until the user
// clicks or dismisses it, or ctx is cancelled. At most one callback is
// invoked, at most once.
func (n *Notifier) CreateNotification(ctx context.Context, pn platform.Notification) error {
	conn, err := dbus.SessionBusPrivate()
	if err != nil {
		return fmt.Errorf("create notification: connect session bus: %w", err)
	}
	defer conn.Close()

	if err := conn.Auth(nil); err != nil {
		return fmt.Errorf("create notification: authenticate session bus: %w", err)
	}
	if err := conn.Hello(); err != nil {
		return fmt.Errorf("create notification: session bus hello: %w", err)
	}

	// Buffered so a signal arriving between SendNotification returning
	// and the wait loop starting is not lost.
	events := make(chan interaction, 8)

	notifier, err := notify.New(conn,
		notify.WithOnAction(func(s *notify.ActionInvokedSignal) {
			events <- interaction{id: s.ID, clicked: s.ActionKey == clickActionKey}
		}),
		notify.WithOnClosed(func(s *notify.NotificationClosedSignal) {
			events <- interaction{id: s.ID, clicked: false}
		}),
	)
	if err != nil {
		return fmt.Errorf("create notification: init notifier: %w", err)
	}
	defer notifier.Close()

	id, err := notifier.SendNotification(notify.Notification{
		AppName:       n.appName,
		Summary:       pn.Title,
		Body:          pn.Body,
		Actions:       []notify.Action{{Key: clickActionKey, Label: "Open"}},
		ExpireTimeout: notify.ExpireTimeoutSetByNotificationServer,
	})
	if err != nil {
		return fmt.Errorf("create notification: send: %w", err)
	}

	waitInteraction(ctx, id, events, pn)
	return nil
}

// waitInteraction blocks until the notification with the given id is
// clicked or closed, dispatching the matching callback exactly once.
// A click is followed by a close signal from the server; returning on
// the first matching event is what guarantees single dispatch. Context
// cancellation abandons the wait without invoking either callback.
func waitInteraction(ctx context.Context, id uint32, events <-chan interaction, pn platform.Notification) {
	for {
		select {
		case e := <-events:
			if e.id != id {
				continue
			}
			if e.clicked {
				if pn.OnClicked != nil {
					pn.OnClicked()
				}
			} else {
				if pn.OnDismissed != nil {
					pn.OnDismissed()
				}
			}
			return
		case <-ctx.Done():
			return
		}
	}
}
