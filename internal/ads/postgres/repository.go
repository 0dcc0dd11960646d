// Package postgres provides PostgreSQL implementation of the ads repository.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/bissquit/adboard/internal/ads"
	"github.com/bissquit/adboard/internal/domain"
	pgutil "github.com/bissquit/adboard/internal/pkg/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository implements the ads.Repository interface using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateAd inserts an ad and fills its generated fields.
func (r *Repository) CreateAd(ctx context.Context, ad *domain.Ad) error {
	query := `
		INSERT INTO ads (title, description, price, creator_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		ad.Title,
		ad.Description,
		ad.Price,
		ad.CreatorID,
	).Scan(&ad.ID, &ad.CreatedAt, &ad.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create ad: %w", err)
	}
	return nil
}

// GetAd retrieves an ad by ID.
func (r *Repository) GetAd(ctx context.Context, id string) (*domain.Ad, error) {
	query := `
		SELECT id, title, description, price, creator_id, created_at, updated_at
		FROM ads
		WHERE id = $1
	`
	var ad domain.Ad
	err := r.db.QueryRow(ctx, query, id).Scan(
		&ad.ID,
		&ad.Title,
		&ad.Description,
		&ad.Price,
		&ad.CreatorID,
		&ad.CreatedAt,
		&ad.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || pgutil.IsInvalidText(err) {
			return nil, ads.ErrAdNotFound
		}
		return nil, fmt.Errorf("get ad: %w", err)
	}
	return &ad, nil
}

// ListAds retrieves all ads in insertion order.
func (r *Repository) ListAds(ctx context.Context) ([]domain.Ad, error) {
	query := `
		SELECT id, title, description, price, creator_id, created_at, updated_at
		FROM ads
		ORDER BY created_at, id
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list ads: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Ad, 0)
	for rows.Next() {
		var ad domain.Ad
		err := rows.Scan(
			&ad.ID,
			&ad.Title,
			&ad.Description,
			&ad.Price,
			&ad.CreatorID,
			&ad.CreatedAt,
			&ad.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan ad: %w", err)
		}
		result = append(result, ad)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ads: %w", err)
	}
	return result, nil
}

// UpdateAd overwrites title, description and price. creator_id is never written.
func (r *Repository) UpdateAd(ctx context.Context, ad *domain.Ad) error {
	query := `
		UPDATE ads
		SET title = $2, description = $3, price = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query,
		ad.ID,
		ad.Title,
		ad.Description,
		ad.Price,
	).Scan(&ad.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || pgutil.IsInvalidText(err) {
			return ads.ErrAdNotFound
		}
		return fmt.Errorf("update ad: %w", err)
	}
	return nil
}

// DeleteAd removes an ad.
func (r *Repository) DeleteAd(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM ads WHERE id = $1`, id)
	if err != nil {
		if pgutil.IsInvalidText(err) {
			return ads.ErrAdNotFound
		}
		return fmt.Errorf("delete ad: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ads.ErrAdNotFound
	}
	return nil
}
