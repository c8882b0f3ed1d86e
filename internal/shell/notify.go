package shell

import (
	"go.uber.org/zap"

	"github.com/sells-group/leadscrape/internal/events"
)

// Notifier shows a short titled message to the user.
type Notifier interface {
	Notify(title, message string)
}

// Notification is the payload of a notification event.
type Notification struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

type hubNotifier struct {
	hub *events.Hub
}

// NewNotifier returns a Notifier that logs each message and publishes it as
// a notification event on hub. hub may be nil.
func NewNotifier(hub *events.Hub) Notifier {
	return &hubNotifier{hub: hub}
}

func (n *hubNotifier) Notify(title, message string) {
	zap.L().Info("shell: notification", zap.String("title", title), zap.String("message", message))
	if n.hub != nil {
		n.hub.Publish(events.Make("", events.TypeNotification, Notification{Title: title, Message: message}))
	}
}
