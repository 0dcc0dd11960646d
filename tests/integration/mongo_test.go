//go:build integration

package integration

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bissquit/adboard/internal/app"
	"github.com/bissquit/adboard/internal/config"
	"github.com/bissquit/adboard/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TestMongoBackend runs the main account and ad flow against the MongoDB store.
func TestMongoBackend(t *testing.T) {
	ctx := context.Background()

	mongoInstance, err := testutil.StartMongo(ctx)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := mongoInstance.Terminate(ctx); err != nil {
			t.Logf("terminate mongodb: %v", err)
		}
	})

	cfg := baseConfig(config.DriverMongoDB, mongoInstance.URL)
	require.NoError(t, cfg.Validate())

	application, err := app.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = application.Shutdown(shutdownCtx)
	})

	server := httptest.NewServer(application.Router())
	t.Cleanup(server.Close)

	mc, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoInstance.URL))
	require.NoError(t, err)
	t.Cleanup(func() { _ = mc.Disconnect(ctx) })
	users := mc.Database(cfg.Database.Name).Collection("users")

	newClient := func() *testutil.Client {
		c := testutil.NewClient(server.URL, testValidator)
		c.SetT(t)
		return c
	}

	email := testutil.RandomEmail()
	resp, err := newClient().POST("/api/v1/auth/register", map[string]string{
		"email":    email,
		"phone":    "+15550199",
		"name":     "mongo user",
		"password": testPassword,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var registered struct {
		Data userResponse `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &registered)

	client := newClient()
	client.LoginAs(t, email, testPassword)

	resp, err = client.GET("/api/v1/users/me")
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	_ = resp.Body.Close()

	res, err := users.UpdateOne(ctx, bson.M{"_id": registered.Data.ID}, bson.M{"$set": bson.M{"verified": true}})
	require.NoError(t, err)
	require.Equal(t, int64(1), res.ModifiedCount)

	ad := createAd(t, client, "mongo ad", "42.5")
	assert.Equal(t, 42.5, ad.Price)
	assert.Equal(t, registered.Data.ID, ad.CreatorID)

	other := newClient()
	other.LoginAs(t, adminEmail, adminPassword)
	resp, err = other.PUT("/api/v1/ads/"+ad.ID, map[string]interface{}{"title": "moderated"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp, err = newClient().GET("/api/v1/ads/" + ad.ID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var fetched struct {
		Data adResponse `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &fetched)
	assert.Equal(t, "moderated", fetched.Data.Title)

	resp, err = client.DELETE("/api/v1/users/" + registered.Data.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = newClient().GET("/api/v1/ads/" + ad.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()
}
