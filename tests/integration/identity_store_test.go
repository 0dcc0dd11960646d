//go:build integration

package integration

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/bissquit/adboard/internal/identity"
	identitypg "github.com/bissquit/adboard/internal/identity/postgres"
	"github.com/bissquit/adboard/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityStore_ProfileUpdateKeepsVerification(t *testing.T) {
	ctx := context.Background()
	repo := identitypg.NewRepository(testDB)
	registered := registerUser(t, testutil.RandomEmail())

	stale, err := repo.GetUserByID(ctx, registered.ID)
	require.NoError(t, err)
	require.False(t, stale.Verified)

	require.NoError(t, repo.SetVerified(ctx, registered.ID))

	stale.Name = "renamed"
	require.NoError(t, repo.UpdateUser(ctx, stale))

	stored, err := repo.GetUserByID(ctx, registered.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", stored.Name)
	assert.True(t, stored.Verified)
}

func TestIdentityStore_SetVerifiedFlipsOnce(t *testing.T) {
	ctx := context.Background()
	repo := identitypg.NewRepository(testDB)
	registered := registerUser(t, testutil.RandomEmail())

	const callers = 8
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = repo.SetVerified(ctx, registered.ID)
		}()
	}
	wg.Wait()

	var succeeded int
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, identity.ErrAlreadyVerified)
	}
	assert.Equal(t, 1, succeeded)

	assert.ErrorIs(t, repo.SetVerified(ctx, "00000000-0000-0000-0000-000000000000"), identity.ErrUserNotFound)
}

func TestIdentityStore_PromoteAdmin(t *testing.T) {
	ctx := context.Background()
	repo := identitypg.NewRepository(testDB)
	registered := registerUser(t, testutil.RandomEmail())

	require.NoError(t, repo.PromoteAdmin(ctx, registered.ID))

	stored, err := repo.GetUserByID(ctx, registered.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsAdmin())
	assert.True(t, stored.Verified)
}

func TestAuth_Register_OverlongInputIsValidationError(t *testing.T) {
	client := newTestClient(t)

	tests := []struct {
		name  string
		field string
		body  map[string]string
	}{
		{"password over 72 bytes", "password", map[string]string{
			"email": testutil.RandomEmail(), "phone": "+1", "name": "n", "password": strings.Repeat("p", 80),
		}},
		{"phone over column size", "phone", map[string]string{
			"email": testutil.RandomEmail(), "phone": strings.Repeat("1", 70), "name": "n", "password": testPassword,
		}},
		{"name over column size", "name", map[string]string{
			"email": testutil.RandomEmail(), "phone": "+1", "name": strings.Repeat("n", 300), "password": testPassword,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := client.POST("/api/v1/auth/register", tt.body)
			require.NoError(t, err)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var result struct {
				Error struct {
					Message string `json:"message"`
					Details []struct {
						Field string `json:"field"`
					} `json:"details"`
				} `json:"error"`
			}
			testutil.DecodeJSON(t, resp, &result)
			assert.Equal(t, "validation error", result.Error.Message)
			require.Len(t, result.Error.Details, 1)
			assert.Equal(t, tt.field, result.Error.Details[0].Field)
		})
	}
}

func TestAds_Create_OverlongTitleIsValidationError(t *testing.T) {
	client, _ := verifiedClient(t)

	resp, err := client.POST("/api/v1/ads", map[string]any{
		"title":       strings.Repeat("t", 300),
		"description": "d",
		"price":       1,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation error", testutil.ErrorMessage(t, resp))
}
