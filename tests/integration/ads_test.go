//go:build integration

package integration

import (
	"context"
	"net/http"
	"testing"

	"github.com/bissquit/adboard/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAds_CRUD(t *testing.T) {
	client, user := verifiedClient(t)

	ad := createAd(t, client, "bicycle", 120.5)
	assert.NotEmpty(t, ad.ID)
	assert.Equal(t, "bicycle", ad.Title)
	assert.Equal(t, 120.5, ad.Price)
	assert.Equal(t, user.ID, ad.CreatorID)

	public := newTestClient(t)
	resp, err := public.GET("/api/v1/ads/" + ad.ID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp, err = client.PUT("/api/v1/ads/"+ad.ID, map[string]interface{}{"price": "99.99"})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated struct {
		Data adResponse `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &updated)
	assert.Equal(t, 99.99, updated.Data.Price)
	assert.Equal(t, "bicycle", updated.Data.Title)
	assert.Equal(t, user.ID, updated.Data.CreatorID)

	resp, err = client.DELETE("/api/v1/ads/" + ad.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = public.GET("/api/v1/ads/" + ad.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "ad not found", testutil.ErrorMessage(t, resp))
}

func TestAds_ListInCreationOrder(t *testing.T) {
	client, _ := verifiedClient(t)
	first := createAd(t, client, testutil.RandomName("first"), 1)
	second := createAd(t, client, testutil.RandomName("second"), "2")

	public := newTestClient(t)
	resp, err := public.GET("/api/v1/ads")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Data []adResponse `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &result)

	firstIdx, secondIdx := -1, -1
	for i, ad := range result.Data {
		switch ad.ID {
		case first.ID:
			firstIdx = i
		case second.ID:
			secondIdx = i
		}
	}
	require.NotEqual(t, -1, firstIdx)
	require.NotEqual(t, -1, secondIdx)
	assert.Less(t, firstIdx, secondIdx)
}

func TestAds_CreateValidation(t *testing.T) {
	client, user := verifiedClient(t)

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing title", map[string]interface{}{"description": "d", "price": 1}},
		{"blank description", map[string]interface{}{"title": "t", "description": "   ", "price": 1}},
		{"negative price", map[string]interface{}{"title": "t", "description": "d", "price": -1}},
		{"non-numeric price", map[string]interface{}{"title": "t", "description": "d", "price": "cheap"}},
		{"missing price", map[string]interface{}{"title": "t", "description": "d"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client.SetT(t)
			resp, err := client.POST("/api/v1/ads", tt.body)
			require.NoError(t, err)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, "validation error", testutil.ErrorMessage(t, resp))
		})
	}

	var count int
	err := testDB.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM ads WHERE creator_id = $1`, user.ID).Scan(&count)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestAds_AnonymousCannotCreate(t *testing.T) {
	client := newTestClient(t)

	resp, err := client.POST("/api/v1/ads", map[string]interface{}{
		"title":       "t",
		"description": "d",
		"price":       1,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestAds_NonOwnerSeesNotFound(t *testing.T) {
	owner, _ := verifiedClient(t)
	other, _ := verifiedClient(t)
	ad := createAd(t, owner, "lamp", 15)

	resp, err := other.PUT("/api/v1/ads/"+ad.ID, map[string]interface{}{"title": "stolen"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "ad not found", testutil.ErrorMessage(t, resp))

	resp, err = other.DELETE("/api/v1/ads/" + ad.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()

	public := newTestClient(t)
	resp, err = public.GET("/api/v1/ads/" + ad.ID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Data adResponse `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &result)
	assert.Equal(t, "lamp", result.Data.Title)
}

func TestAds_AdminCanModifyAnyAd(t *testing.T) {
	owner, user := verifiedClient(t)
	ad := createAd(t, owner, "sofa", 300)

	admin := adminClient(t)
	resp, err := admin.PUT("/api/v1/ads/"+ad.ID, map[string]interface{}{"title": "moderated"})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Data adResponse `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &result)
	assert.Equal(t, "moderated", result.Data.Title)
	assert.Equal(t, user.ID, result.Data.CreatorID)

	resp, err = admin.DELETE("/api/v1/ads/" + ad.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestAds_UnknownID(t *testing.T) {
	client := newTestClient(t)

	for _, id := range []string{"00000000-0000-0000-0000-000000000000", "not-a-uuid"} {
		resp, err := client.GET("/api/v1/ads/" + id)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, id)
		_ = resp.Body.Close()
	}
}
