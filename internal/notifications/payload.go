package notifications

import (
	"time"

	"github.com/bissquit/adboard/internal/domain"
)

// MessageType defines the type of notification.
type MessageType string

// Message types.
const (
	MessageTypeUserRegistered MessageType = "user_registered"
)

// NotificationPayload contains data for rendering a notification.
type NotificationPayload struct {
	MessageType MessageType `json:"message_type"`
	User        UserData    `json:"user"`
	GeneratedAt time.Time   `json:"generated_at"`
}

// UserData contains account information for notification.
type UserData struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	RegisteredAt time.Time `json:"registered_at"`
}

// NewUserRegisteredPayload creates a payload announcing a new account.
func NewUserRegisteredPayload(user *domain.User) NotificationPayload {
	return NotificationPayload{
		MessageType: MessageTypeUserRegistered,
		User: UserData{
			ID:           user.ID,
			Name:         user.Name,
			Email:        user.Email,
			Phone:        user.Phone,
			RegisteredAt: user.CreatedAt,
		},
		GeneratedAt: time.Now(),
	}
}
