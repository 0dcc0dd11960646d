package notifications

import (
	"context"
	"fmt"

	"github.com/bissquit/adboard/internal/domain"
)

// Dispatcher routes notifications to the sender for their channel type.
type Dispatcher struct {
	senders map[domain.ChannelType]Sender
}

// NewDispatcher creates a new notification dispatcher.
func NewDispatcher(senders ...Sender) *Dispatcher {
	senderMap := make(map[domain.ChannelType]Sender)
	for _, s := range senders {
		senderMap[s.Type()] = s
	}
	return &Dispatcher{senders: senderMap}
}

// SendToChannel sends a notification through the sender for channelType.
func (d *Dispatcher) SendToChannel(ctx context.Context, channelType domain.ChannelType, notification Notification) error {
	sender, ok := d.senders[channelType]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoSender, channelType)
	}
	return sender.Send(ctx, notification)
}
