package testutil

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Instance is a running dependency container.
type Instance struct {
	// URL is a connection string for postgres and mongodb, host:port for redis.
	URL       string
	container testcontainers.Container
}

// Terminate stops and removes the container.
func (i *Instance) Terminate(ctx context.Context) error {
	return i.container.Terminate(ctx)
}

// StartPostgres runs postgres:16-alpine with an empty testdb database.
func StartPostgres(ctx context.Context) (*Instance, error) {
	c, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			// postgres restarts once after init; wait for the second ready line.
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("start postgres: %w", err)
	}

	url, err := c.ConnectionString(ctx, "sslmode=disable")
	return finish(ctx, c, url, err)
}

// StartMongo runs a single-node mongo:7.
func StartMongo(ctx context.Context) (*Instance, error) {
	c, err := mongodb.Run(ctx, "mongo:7")
	if err != nil {
		return nil, fmt.Errorf("start mongodb: %w", err)
	}

	url, err := c.ConnectionString(ctx)
	return finish(ctx, c, url, err)
}

// StartRedis runs redis:7-alpine.
func StartRedis(ctx context.Context) (*Instance, error) {
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("start redis: %w", err)
	}

	addr, err := c.Endpoint(ctx, "")
	return finish(ctx, c, addr, err)
}

func finish(ctx context.Context, c testcontainers.Container, url string, err error) (*Instance, error) {
	if err != nil {
		_ = c.Terminate(ctx)
		return nil, fmt.Errorf("container endpoint: %w", err)
	}
	return &Instance{URL: url, container: c}, nil
}
