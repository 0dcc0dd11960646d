// Package identity provides account registration, login and management.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/bissquit/adboard/internal/access"
	"github.com/bissquit/adboard/internal/domain"
	"github.com/bissquit/adboard/internal/pkg/ctxlog"
	"github.com/bissquit/adboard/internal/pkg/validation"
	"github.com/go-playground/validator/v10"
)

// dummyPassword is hashed once and compared against on unknown-email logins.
const dummyPassword = "adboard-dummy-password"

// Authenticator issues and validates session tokens.
type Authenticator interface {
	IssueToken(ctx context.Context, userID string, role domain.Role) (string, error)
	ValidateToken(ctx context.Context, token string) (userID string, role domain.Role, err error)
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

// UserRegisteredHandler is called after a user has been registered.
type UserRegisteredHandler interface {
	OnUserRegistered(ctx context.Context, user *domain.User) error
}

// Service implements account lifecycle business logic.
type Service struct {
	repo         Repository
	auth         Authenticator
	hasher       PasswordHasher
	onRegistered UserRegisteredHandler
	validate     *validator.Validate

	dummyOnce sync.Once
	dummyHash string
}

// NewService creates a new identity service. onRegistered may be nil.
func NewService(repo Repository, auth Authenticator, hasher PasswordHasher, onRegistered UserRegisteredHandler) *Service {
	return &Service{
		repo:         repo,
		auth:         auth,
		hasher:       hasher,
		onRegistered: onRegistered,
		validate:     validation.New(),
	}
}

// RegisterInput contains data for registration.
type RegisterInput struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Phone    string `json:"phone" validate:"required,max=64"`
	Name     string `json:"name" validate:"required,max=255"`
	Password string `json:"password" validate:"required,min=6,maxbytes=72"`
}

// LoginInput contains data for login.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateUserInput contains optional user changes. Role and verification
// status cannot be changed here.
type UpdateUserInput struct {
	Email    *string `json:"email" validate:"omitnil,email,max=255"`
	Phone    *string `json:"phone" validate:"omitnil,min=1,max=64"`
	Name     *string `json:"name" validate:"omitnil,min=1,max=255"`
	Password *string `json:"password" validate:"omitnil,min=6,maxbytes=72"`
}

// Register creates a new unverified user account.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	input.Email = normalizeEmail(input.Email)
	input.Phone = strings.TrimSpace(input.Phone)
	input.Name = strings.TrimSpace(input.Name)
	if err := s.validate.Struct(input); err != nil {
		return nil, err
	}

	_, err := s.repo.GetUserByEmail(ctx, input.Email)
	if err == nil {
		return nil, ErrEmailExists
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:        input.Email,
		Phone:        input.Phone,
		Name:         input.Name,
		Role:         domain.RoleUser,
		Verified:     false,
		PasswordHash: hash,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	logger := ctxlog.FromContext(ctx)
	logger.Info("user registered", "user_id", user.ID)

	if s.onRegistered != nil {
		if err := s.onRegistered.OnUserRegistered(ctx, user); err != nil {
			logger.Warn("user registered hook failed", "user_id", user.ID, "error", err)
		}
	}

	return user, nil
}

// Login checks credentials and returns a session token together with the user.
func (s *Service) Login(ctx context.Context, input LoginInput) (string, *domain.User, error) {
	input.Email = normalizeEmail(input.Email)
	if err := s.validate.Struct(input); err != nil {
		return "", nil, err
	}

	user, err := s.repo.GetUserByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.hasher.Verify(input.Password, s.dummyPasswordHash())
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("get user by email: %w", err)
	}

	if !s.hasher.Verify(input.Password, user.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.auth.IssueToken(ctx, user.ID, user.Role)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}

	return token, user, nil
}

// GetSelf returns the principal's own account.
func (s *Service) GetSelf(ctx context.Context, p *domain.Principal) (*domain.User, error) {
	if err := access.CanReadSelf(p); err != nil {
		return nil, err
	}
	return s.repo.GetUserByID(ctx, p.UserID)
}

// ListUsers returns all accounts. Admin only.
func (s *Service) ListUsers(ctx context.Context, p *domain.Principal) ([]domain.User, error) {
	if err := access.CanListUsers(p); err != nil {
		return nil, err
	}

	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

// UpdateUser applies a partial update to the account with the given id.
func (s *Service) UpdateUser(ctx context.Context, p *domain.Principal, id string, input UpdateUserInput) (*domain.User, error) {
	if err := access.CanMutateUser(p, id); err != nil {
		return nil, err
	}

	if input.Email != nil {
		email := normalizeEmail(*input.Email)
		input.Email = &email
	}
	input.Phone = trimmed(input.Phone)
	input.Name = trimmed(input.Name)
	if err := s.validate.Struct(input); err != nil {
		return nil, err
	}

	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Email != nil && *input.Email != user.Email {
		existing, err := s.repo.GetUserByEmail(ctx, *input.Email)
		switch {
		case err == nil && existing.ID != user.ID:
			return nil, ErrEmailExists
		case err != nil && !errors.Is(err, ErrUserNotFound):
			return nil, fmt.Errorf("check email: %w", err)
		}
		user.Email = *input.Email
	}
	if input.Phone != nil {
		user.Phone = *input.Phone
	}
	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.Password != nil {
		hash, err := s.hasher.Hash(*input.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	// Role and verified are never written here, so a concurrent /verify survives.
	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, err
	}

	ctxlog.FromContext(ctx).Info("user updated", "user_id", user.ID, "actor_id", p.UserID)
	return user, nil
}

// DeleteUser removes the account with the given id. Ads created by the
// account are left in place.
func (s *Service) DeleteUser(ctx context.Context, p *domain.Principal, id string) error {
	if err := access.CanMutateUser(p, id); err != nil {
		return err
	}

	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return err
	}

	ctxlog.FromContext(ctx).Info("user deleted", "user_id", id, "actor_id", p.UserID)
	return nil
}

// VerifyByEmail marks the account with the given email as verified.
func (s *Service) VerifyByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user.Verified {
		return user, ErrAlreadyVerified
	}

	// SetVerified only flips an unverified row, so of two concurrent
	// calls exactly one succeeds.
	if err := s.repo.SetVerified(ctx, user.ID); err != nil {
		if errors.Is(err, ErrAlreadyVerified) {
			user.Verified = true
			return user, err
		}
		return nil, err
	}
	user.Verified = true

	ctxlog.FromContext(ctx).Info("user verified", "user_id", user.ID)
	return user, nil
}

// Admit resolves a bearer token to an admitted principal. It fails with
// access.ErrInvalidToken, access.ErrPrincipalNotFound or access.ErrNotValidated.
func (s *Service) Admit(ctx context.Context, token string) (*domain.Principal, error) {
	userID, _, err := s.auth.ValidateToken(ctx, token)
	if err != nil {
		if !errors.Is(err, access.ErrInvalidToken) {
			err = fmt.Errorf("%w: %v", access.ErrInvalidToken, err)
		}
		return nil, err
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, access.ErrPrincipalNotFound
		}
		return nil, fmt.Errorf("load principal: %w", err)
	}

	if err := access.Admit(user); err != nil {
		return nil, err
	}

	return domain.PrincipalFromUser(user), nil
}

// EnsureAdmin makes sure a verified admin account with the given email
// exists, creating it or promoting an existing account.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) (*domain.User, error) {
	email = normalizeEmail(email)
	logger := ctxlog.FromContext(ctx)

	user, err := s.repo.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		if user.IsAdmin() && user.Verified {
			return user, nil
		}
		if err := s.repo.PromoteAdmin(ctx, user.ID); err != nil {
			return nil, fmt.Errorf("promote admin: %w", err)
		}
		user.Role = domain.RoleAdmin
		user.Verified = true
		logger.Info("existing user promoted to admin", "user_id", user.ID)
		return user, nil

	case !errors.Is(err, ErrUserNotFound):
		return nil, fmt.Errorf("get admin: %w", err)
	}

	if len(password) < 6 || len(password) > 72 {
		return nil, errors.New("bootstrap admin password must be 6 to 72 bytes long")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user = &domain.User{
		Email:        email,
		Name:         "Administrator",
		Role:         domain.RoleAdmin,
		Verified:     true,
		PasswordHash: hash,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}

	logger.Info("admin user created", "user_id", user.ID)
	return user, nil
}

func (s *Service) dummyPasswordHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash(dummyPassword)
		if err == nil {
			s.dummyHash = hash
		}
	})
	return s.dummyHash
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
