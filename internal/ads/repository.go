package ads

import (
	"context"

	"github.com/bissquit/adboard/internal/domain"
)

// Repository defines the interface for ad storage.
type Repository interface {
	CreateAd(ctx context.Context, ad *domain.Ad) error
	GetAd(ctx context.Context, id string) (*domain.Ad, error)
	ListAds(ctx context.Context) ([]domain.Ad, error)
	UpdateAd(ctx context.Context, ad *domain.Ad) error
	DeleteAd(ctx context.Context, id string) error
}
