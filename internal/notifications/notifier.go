package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bissquit/adboard/internal/domain"
)

// Enqueuer accepts notifications for asynchronous delivery.
type Enqueuer interface {
	Enqueue(destination Destination, payload NotificationPayload) error
}

// Notifier announces new accounts to every administrator destination.
type Notifier struct {
	queue        Enqueuer
	destinations []Destination
}

// NewNotifier creates a new Notifier.
func NewNotifier(queue Enqueuer, destinations ...Destination) *Notifier {
	return &Notifier{
		queue:        queue,
		destinations: destinations,
	}
}

// OnUserRegistered enqueues a user_registered notification per destination.
// It never blocks on delivery.
func (n *Notifier) OnUserRegistered(ctx context.Context, user *domain.User) error {
	if len(n.destinations) == 0 {
		slog.DebugContext(ctx, "no admin destinations configured", "component", "notifications")
		return nil
	}

	payload := NewUserRegisteredPayload(user)

	var errs []error
	for _, dest := range n.destinations {
		if err := n.queue.Enqueue(dest, payload); err != nil {
			errs = append(errs, fmt.Errorf("enqueue %s notification: %w", dest.Type, err))
		}
	}

	return errors.Join(errs...)
}

// Destinations returns the configured administrator destinations.
func (n *Notifier) Destinations() []Destination {
	return n.destinations
}
