//go:build integration

package integration

import (
	"context"
	"net/http"
	"testing"

	"github.com/bissquit/adboard/internal/testutil"
	"github.com/stretchr/testify/require"
)

const testPassword = "password123"

type userResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Verified bool   `json:"verified"`
}

type adResponse struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	CreatorID   string  `json:"creator_id"`
}

// registerUser registers a new account and returns it.
func registerUser(t *testing.T, email string) userResponse {
	t.Helper()
	client := newTestClient(t)

	resp, err := client.POST("/api/v1/auth/register", map[string]string{
		"email":    email,
		"phone":    "+15550100",
		"name":     "test user",
		"password": testPassword,
	})
	require.NoError(t, err)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected status %d: %s", resp.StatusCode, testutil.ReadBody(t, resp))
	}

	var result struct {
		Data userResponse `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &result)
	return result.Data
}

// verifyUser flips the verified flag directly in the database.
func verifyUser(t *testing.T, userID string) {
	t.Helper()
	tag, err := testDB.Exec(context.Background(),
		`UPDATE users SET verified = TRUE WHERE id = $1`, userID)
	require.NoError(t, err)
	require.Equal(t, int64(1), tag.RowsAffected())
}

// verifiedClient registers, verifies and logs in a fresh user.
func verifiedClient(t *testing.T) (*testutil.Client, userResponse) {
	t.Helper()
	email := testutil.RandomEmail()
	user := registerUser(t, email)
	verifyUser(t, user.ID)

	client := newTestClient(t)
	client.LoginAs(t, email, testPassword)
	return client, user
}

// adminClient logs in as the bootstrap admin.
func adminClient(t *testing.T) *testutil.Client {
	t.Helper()
	client := newTestClient(t)
	client.LoginAs(t, adminEmail, adminPassword)
	return client
}

// createAd creates an ad as client and returns it.
func createAd(t *testing.T, client *testutil.Client, title string, price interface{}) adResponse {
	t.Helper()

	resp, err := client.POST("/api/v1/ads", map[string]interface{}{
		"title":       title,
		"description": "description of " + title,
		"price":       price,
	})
	require.NoError(t, err)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected status %d: %s", resp.StatusCode, testutil.ReadBody(t, resp))
	}

	var result struct {
		Data adResponse `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &result)
	return result.Data
}
