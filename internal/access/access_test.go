package access

import (
	"testing"

	"github.com/bissquit/adboard/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestAdmit(t *testing.T) {
	tests := []struct {
		name    string
		user    *domain.User
		wantErr error
	}{
		{name: "missing user", user: nil, wantErr: ErrPrincipalNotFound},
		{name: "unverified user", user: &domain.User{Role: domain.RoleUser}, wantErr: ErrNotValidated},
		{name: "verified user", user: &domain.User{Role: domain.RoleUser, Verified: true}},
		{name: "unverified admin", user: &domain.User{Role: domain.RoleAdmin}},
		{name: "verified admin", user: &domain.User{Role: domain.RoleAdmin, Verified: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Admit(tt.user)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCanMutateAd(t *testing.T) {
	ad := &domain.Ad{ID: "ad-1", CreatorID: "owner"}

	tests := []struct {
		name      string
		principal *domain.Principal
		allowed   bool
	}{
		{name: "creator", principal: &domain.Principal{UserID: "owner", Role: domain.RoleUser}, allowed: true},
		{name: "admin", principal: &domain.Principal{UserID: "admin", Role: domain.RoleAdmin}, allowed: true},
		{name: "admin and creator", principal: &domain.Principal{UserID: "owner", Role: domain.RoleAdmin}, allowed: true},
		{name: "stranger", principal: &domain.Principal{UserID: "other", Role: domain.RoleUser}},
		{name: "no principal", principal: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanMutateAd(tt.principal, ad)
			if tt.allowed {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrNotFoundOrUnauthorized)
		})
	}
}

func TestCanMutateAd_NilAd(t *testing.T) {
	err := CanMutateAd(&domain.Principal{UserID: "admin", Role: domain.RoleAdmin}, nil)
	assert.ErrorIs(t, err, ErrNotFoundOrUnauthorized)
}

func TestCanMutateUser(t *testing.T) {
	tests := []struct {
		name      string
		principal *domain.Principal
		target    string
		allowed   bool
	}{
		{name: "self", principal: &domain.Principal{UserID: "u1", Role: domain.RoleUser}, target: "u1", allowed: true},
		{name: "admin on other", principal: &domain.Principal{UserID: "a1", Role: domain.RoleAdmin}, target: "u1", allowed: true},
		{name: "user on other", principal: &domain.Principal{UserID: "u2", Role: domain.RoleUser}, target: "u1"},
		{name: "no principal", principal: nil, target: "u1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanMutateUser(tt.principal, tt.target)
			if tt.allowed {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrForbidden)
		})
	}
}

func TestCanListUsers(t *testing.T) {
	assert.NoError(t, CanListUsers(&domain.Principal{Role: domain.RoleAdmin}))
	assert.ErrorIs(t, CanListUsers(&domain.Principal{Role: domain.RoleUser, Verified: true}), ErrForbidden)
	assert.ErrorIs(t, CanListUsers(nil), ErrForbidden)
}

func TestCanCreateAd(t *testing.T) {
	assert.NoError(t, CanCreateAd(&domain.Principal{UserID: "u1", Verified: true}))
	assert.ErrorIs(t, CanCreateAd(nil), ErrForbidden)
}

func TestCanReadAds(t *testing.T) {
	assert.NoError(t, CanReadAds(nil))
	assert.NoError(t, CanReadAds(&domain.Principal{UserID: "u1"}))
}

func TestCanReadSelf(t *testing.T) {
	assert.NoError(t, CanReadSelf(&domain.Principal{UserID: "u1", Verified: true}))
	assert.ErrorIs(t, CanReadSelf(nil), ErrForbidden)
}
