package app

import (
	"context"
	"fmt"

	"github.com/bissquit/adboard/internal/ads"
	adsmongo "github.com/bissquit/adboard/internal/ads/mongo"
	adspostgres "github.com/bissquit/adboard/internal/ads/postgres"
	"github.com/bissquit/adboard/internal/config"
	"github.com/bissquit/adboard/internal/identity"
	identitymongo "github.com/bissquit/adboard/internal/identity/mongo"
	identitypostgres "github.com/bissquit/adboard/internal/identity/postgres"
	"github.com/bissquit/adboard/internal/pkg/metrics"
	"github.com/bissquit/adboard/internal/pkg/mongodb"
	"github.com/bissquit/adboard/internal/pkg/postgres"
	"github.com/bissquit/adboard/migrations"
)

// store bundles the repositories of the configured backend.
type store struct {
	users identity.Repository
	ads   ads.Repository

	ping  func(ctx context.Context) error
	close func(ctx context.Context) error
}

func openStore(ctx context.Context, cfg config.DatabaseConfig) (*store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return openPostgres(ctx, cfg)
	case config.DriverMongoDB:
		return openMongo(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func openPostgres(ctx context.Context, cfg config.DatabaseConfig) (*store, error) {
	db, err := postgres.Connect(ctx, postgres.Config{
		URL:             cfg.URL,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnectTimeout:  cfg.ConnectTimeout,
		ConnectAttempts: cfg.ConnectAttempts,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if cfg.AutoMigrate {
		if err := postgres.Migrate(migrations.FS, cfg.URL); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}
	}

	unregister, err := metrics.RegisterPool(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("register pool metrics: %w", err)
	}

	return &store{
		users: identitypostgres.NewRepository(db),
		ads:   adspostgres.NewRepository(db),
		ping:  db.Ping,
		close: func(context.Context) error {
			unregister()
			db.Close()
			return nil
		},
	}, nil
}

func openMongo(ctx context.Context, cfg config.DatabaseConfig) (*store, error) {
	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:             cfg.URL,
		Database:        cfg.Name,
		MaxPoolSize:     uint64(max(cfg.MaxOpenConns, 0)),
		ConnectTimeout:  cfg.ConnectTimeout,
		ConnectAttempts: cfg.ConnectAttempts,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	users, err := identitymongo.NewRepository(ctx, db)
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("init users collection: %w", err)
	}
	adsRepo, err := adsmongo.NewRepository(ctx, db)
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("init ads collection: %w", err)
	}

	return &store{
		users: users,
		ads:   adsRepo,
		ping: func(ctx context.Context) error {
			return client.Ping(ctx, nil)
		},
		close: client.Disconnect,
	}, nil
}
