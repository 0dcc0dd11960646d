package identity

import (
	"errors"

	"github.com/bissquit/adboard/internal/access"
)

// Identity errors.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAlreadyVerified    = errors.New("user is already verified")
	ErrInvalidToken       = access.ErrInvalidToken
)
