package notifications

import (
	"context"

	"github.com/bissquit/adboard/internal/domain"
)

// Notification is a rendered message addressed to one destination.
type Notification struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers notifications over one channel type.
type Sender interface {
	Type() domain.ChannelType
	Send(ctx context.Context, notification Notification) error
}

// Destination is an administrator endpoint that receives notifications.
type Destination struct {
	Type   domain.ChannelType
	Target string
}
