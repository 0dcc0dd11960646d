package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bissquit/adboard/internal/pkg/ctxlog"
)

// VerifyCommand handles the "/verify <email>" chat command sent by an administrator.
type VerifyCommand struct {
	service *Service
}

// NewVerifyCommand creates a verify command bound to the service.
func NewVerifyCommand(service *Service) *VerifyCommand {
	return &VerifyCommand{service: service}
}

// Name returns the command name without the leading slash.
func (c *VerifyCommand) Name() string {
	return "verify"
}

// Handle verifies the account named by args and returns the reply text.
func (c *VerifyCommand) Handle(ctx context.Context, args string) string {
	email := strings.TrimSpace(args)
	if email == "" {
		return "Usage: /verify <email>"
	}

	_, err := c.service.VerifyByEmail(ctx, email)
	switch {
	case err == nil:
		return fmt.Sprintf("User %s has been verified.", email)
	case errors.Is(err, ErrUserNotFound):
		return fmt.Sprintf("User %s not found.", email)
	case errors.Is(err, ErrAlreadyVerified):
		return fmt.Sprintf("User %s is already verified.", email)
	default:
		ctxlog.FromContext(ctx).Error("verify user failed", "error", err)
		return "Error verifying user."
	}
}
