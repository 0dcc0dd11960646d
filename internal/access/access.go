// Package access holds the authorization rules: the account verification gate
// decision and the per-resource ownership/role policy. Everything here is pure;
// callers fetch the principal and the resource before asking.
package access

import (
	"errors"

	"github.com/bissquit/adboard/internal/domain"
)

// Gate errors.
var (
	ErrInvalidToken      = errors.New("invalid or expired token")
	ErrPrincipalNotFound = errors.New("user not found")
	ErrNotValidated      = errors.New("user is not validated")
)

// Policy errors.
var (
	ErrForbidden = errors.New("access denied")
	// ErrNotFoundOrUnauthorized is returned for resources whose existence must
	// not be revealed to callers that may not touch them.
	ErrNotFoundOrUnauthorized = errors.New("resource not found")
)

// Admit decides whether an authenticated account may act.
// A nil user means the token subject no longer exists.
func Admit(u *domain.User) error {
	if u == nil {
		return ErrPrincipalNotFound
	}
	if !u.CanAct() {
		return ErrNotValidated
	}
	return nil
}

// CanReadAds allows everyone, including anonymous callers.
func CanReadAds(*domain.Principal) error {
	return nil
}

// CanReadSelf allows any admitted principal.
func CanReadSelf(p *domain.Principal) error {
	if p == nil {
		return ErrForbidden
	}
	return nil
}

// CanCreateAd allows any admitted principal.
func CanCreateAd(p *domain.Principal) error {
	if p == nil {
		return ErrForbidden
	}
	return nil
}

// CanMutateAd allows the creator or an admin to update or delete an ad.
func CanMutateAd(p *domain.Principal, ad *domain.Ad) error {
	if p == nil || ad == nil {
		return ErrNotFoundOrUnauthorized
	}
	if ad.CreatorID == p.UserID || p.IsAdmin() {
		return nil
	}
	return ErrNotFoundOrUnauthorized
}

// CanListUsers allows admins only.
func CanListUsers(p *domain.Principal) error {
	if p != nil && p.IsAdmin() {
		return nil
	}
	return ErrForbidden
}

// CanMutateUser allows a principal to change or remove its own account, and
// admins to change or remove any account.
func CanMutateUser(p *domain.Principal, targetID string) error {
	if p == nil {
		return ErrForbidden
	}
	if p.UserID == targetID || p.IsAdmin() {
		return nil
	}
	return ErrForbidden
}
