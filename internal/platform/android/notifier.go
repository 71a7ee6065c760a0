package android

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/claroapp/claro-notify/internal/platform"
)

const (
	actionClicked   = "app.claro.notify.NOTIFICATION_CLICKED"
	actionDismissed = "app.claro.notify.NOTIFICATION_DISMISSED"

	// extraNotificationID carries the per-notification identifier
	// through both pending intents.
	extraNotificationID = "notification_id"

	channelID = "claro_notifications"
)

// Notifier posts notifications through the platform notification
// service. The service has no callback notion of its own, so the
// notifier synthesizes one: two pending intents (content click and
// dismissal) carry a unique id, and a receiver scoped to the two action
// strings routes the delivered broadcast to the matching waiter.
type Notifier struct {
	svc NotificationService

	channelOnce sync.Once
	channelErr  error

	mu      sync.Mutex
	waiting map[string]chan bool // id -> clicked
}

// NewNotifier creates the notifier and registers its interaction
// receiver on the dispatcher.
func NewNotifier(svc NotificationService, dispatcher *Dispatcher) (*Notifier, error) {
	n := &Notifier{
		svc:     svc,
		waiting: make(map[string]chan bool),
	}
	if err := dispatcher.Register(actionClicked, n.onInteraction(true)); err != nil {
		return nil, fmt.Errorf("register click receiver: %w", err)
	}
	if err := dispatcher.Register(actionDismissed, n.onInteraction(false)); err != nil {
		return nil, fmt.Errorf("register dismiss receiver: %w", err)
	}
	return n, nil
}

// onInteraction pops the waiter for the broadcast's notification id.
// Popping under the lock is what guarantees at-most-once dispatch even
// if the OS delivers both intents.
func (n *Notifier) onInteraction(clicked bool) func(Broadcast) {
	return func(b Broadcast) {
		id := b.Extras[extraNotificationID]
		n.mu.Lock()
		ch, ok := n.waiting[id]
		delete(n.waiting, id)
		n.mu.Unlock()
		if ok {
			ch <- clicked
		}
	}
}

// CreateNotification posts the notification and blocks until the user
// clicks or dismisses it, or ctx is cancelled.
func (n *Notifier) CreateNotification(ctx context.Context, pn platform.Notification) error {
	n.channelOnce.Do(func() {
		n.channelErr = n.svc.CreateChannel(ChannelSpec{
			ID:          channelID,
			Name:        "Claro",
			Description: "Scheduled check-ins from your assistant",
		})
	})
	if n.channelErr != nil {
		return fmt.Errorf("create notification: create channel: %w", n.channelErr)
	}

	id := uuid.NewString()
	done := make(chan bool, 1)
	n.mu.Lock()
	n.waiting[id] = done
	n.mu.Unlock()

	posted := Posted{
		ChannelID: channelID,
		Title:     pn.Title,
		Body:      pn.Body,
		ContentIntent: PendingIntent{
			RequestCode: int(uuid.New().ID() & 0x7fffffff),
			Action:      actionClicked,
			Extras:      map[string]string{extraNotificationID: id},
		},
		DeleteIntent: PendingIntent{
			RequestCode: int(uuid.New().ID() & 0x7fffffff),
			Action:      actionDismissed,
			Extras:      map[string]string{extraNotificationID: id},
		},
	}

	if err := n.svc.Post(id, posted); err != nil {
		n.mu.Lock()
		delete(n.waiting, id)
		n.mu.Unlock()
		return fmt.Errorf("create notification: post: %w", err)
	}

	select {
	case clicked := <-done:
		if clicked {
			if pn.OnClicked != nil {
				pn.OnClicked()
			}
		} else {
			if pn.OnDismissed != nil {
				pn.OnDismissed()
			}
		}
	case <-ctx.Done():
		// Abandoned wait: drop the waiter so a late broadcast is a no-op.
		n.mu.Lock()
		delete(n.waiting, id)
		n.mu.Unlock()
	}
	return nil
}
