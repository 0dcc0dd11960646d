// Package jwt issues and validates stateless session tokens.
package jwt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bissquit/adboard/internal/access"
	"github.com/bissquit/adboard/internal/domain"
	gojwt "github.com/golang-jwt/jwt/v5"
)

const (
	defaultTokenTTL = time.Hour
	issuer          = "adboard"
)

// Config contains token settings.
type Config struct {
	SecretKey string
	TokenTTL  time.Duration
}

// Claims is the token payload.
type Claims struct {
	Role domain.Role `json:"role"`
	gojwt.RegisteredClaims
}

// Authenticator signs and verifies HS256 tokens.
type Authenticator struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewAuthenticator creates a new token authenticator.
func NewAuthenticator(cfg Config) *Authenticator {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &Authenticator{
		secret: []byte(cfg.SecretKey),
		ttl:    ttl,
		now:    time.Now,
	}
}

// IssueToken returns a signed token for the user.
func (a *Authenticator) IssueToken(_ context.Context, userID string, role domain.Role) (string, error) {
	if userID == "" {
		return "", errors.New("issue token: empty user id")
	}

	now := a.now()
	claims := Claims{
		Role: role,
		RegisteredClaims: gojwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(a.ttl)),
		},
	}

	signed, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken verifies signature, algorithm and expiry and returns the
// token subject and role. Every failure wraps access.ErrInvalidToken.
func (a *Authenticator) ValidateToken(_ context.Context, token string) (string, domain.Role, error) {
	claims := &Claims{}

	parsed, err := gojwt.ParseWithClaims(token, claims,
		func(_ *gojwt.Token) (interface{}, error) {
			return a.secret, nil
		},
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
		gojwt.WithExpirationRequired(),
		gojwt.WithIssuer(issuer),
		gojwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", access.ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return "", "", access.ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", "", fmt.Errorf("%w: missing subject", access.ErrInvalidToken)
	}

	return claims.Subject, claims.Role, nil
}

// TokenTTL returns the configured token lifetime.
func (a *Authenticator) TokenTTL() time.Duration {
	return a.ttl
}
