package identity

import (
	"context"

	"github.com/bissquit/adboard/internal/domain"
)

// Repository defines the interface for user storage.
type Repository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	// UpdateUser writes email, phone, name and password hash. Role and
	// verified are left as stored.
	UpdateUser(ctx context.Context, user *domain.User) error
	DeleteUser(ctx context.Context, id string) error
	// SetVerified flips an unverified user to verified. It returns
	// ErrAlreadyVerified when the user is verified already.
	SetVerified(ctx context.Context, id string) error
	// PromoteAdmin grants the admin role and marks the user verified.
	PromoteAdmin(ctx context.Context, id string) error
}
