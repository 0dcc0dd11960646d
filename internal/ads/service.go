// Package ads provides the ad listing lifecycle.
package ads

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bissquit/adboard/internal/access"
	"github.com/bissquit/adboard/internal/domain"
	"github.com/bissquit/adboard/internal/pkg/ctxlog"
	"github.com/bissquit/adboard/internal/pkg/validation"
	"github.com/go-playground/validator/v10"
)

// Service implements ad business logic.
type Service struct {
	repo     Repository
	validate *validator.Validate
}

// NewService creates a new ads service.
func NewService(repo Repository) *Service {
	return &Service{
		repo:     repo,
		validate: validation.New(),
	}
}

// CreateAdInput contains data for creating an ad.
type CreateAdInput struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description" validate:"required"`
	Price       Price  `json:"price" validate:"required,decimal,nonnegative"`
}

// UpdateAdInput contains optional ad changes. A nil field is left unchanged;
// an empty title or description is rejected.
type UpdateAdInput struct {
	Title       *string `json:"title" validate:"omitnil,min=1,max=255"`
	Description *string `json:"description" validate:"omitnil,min=1"`
	Price       *Price  `json:"price" validate:"omitnil,decimal,nonnegative"`
}

// ListAds returns all ads in insertion order.
func (s *Service) ListAds(ctx context.Context) ([]domain.Ad, error) {
	if err := access.CanReadAds(nil); err != nil {
		return nil, err
	}

	ads, err := s.repo.ListAds(ctx)
	if err != nil {
		return nil, err
	}
	if ads == nil {
		ads = []domain.Ad{}
	}
	return ads, nil
}

// GetAd returns a single ad.
func (s *Service) GetAd(ctx context.Context, id string) (*domain.Ad, error) {
	if err := access.CanReadAds(nil); err != nil {
		return nil, err
	}
	return s.repo.GetAd(ctx, id)
}

// CreateAd creates an ad owned by the principal.
func (s *Service) CreateAd(ctx context.Context, p *domain.Principal, input CreateAdInput) (*domain.Ad, error) {
	if err := access.CanCreateAd(p); err != nil {
		return nil, err
	}

	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	if err := s.validate.Struct(input); err != nil {
		return nil, err
	}

	price, err := input.Price.Float()
	if err != nil {
		return nil, fmt.Errorf("parse price: %w", err)
	}

	ad := &domain.Ad{
		Title:       input.Title,
		Description: input.Description,
		Price:       price,
		CreatorID:   p.UserID,
	}
	if err := s.repo.CreateAd(ctx, ad); err != nil {
		return nil, err
	}

	ctxlog.FromContext(ctx).Info("ad created", "ad_id", ad.ID)
	return ad, nil
}

// UpdateAd applies a partial update. Callers that are neither the creator
// nor an admin get ErrAdNotFound.
func (s *Service) UpdateAd(ctx context.Context, p *domain.Principal, id string, input UpdateAdInput) (*domain.Ad, error) {
	ad, err := s.authorize(ctx, p, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		input.Title = &title
	}
	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		input.Description = &description
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, err
	}

	patch := domain.AdPatch{Title: input.Title, Description: input.Description}
	if input.Price != nil {
		price, err := input.Price.Float()
		if err != nil {
			return nil, fmt.Errorf("parse price: %w", err)
		}
		patch.Price = &price
	}

	if patch.IsEmpty() {
		return ad, nil
	}

	patch.Apply(ad)
	if err := s.repo.UpdateAd(ctx, ad); err != nil {
		return nil, err
	}

	ctxlog.FromContext(ctx).Info("ad updated", "ad_id", ad.ID)
	return ad, nil
}

// DeleteAd removes an ad. Callers that are neither the creator nor an admin
// get ErrAdNotFound.
func (s *Service) DeleteAd(ctx context.Context, p *domain.Principal, id string) error {
	if _, err := s.authorize(ctx, p, id); err != nil {
		return err
	}

	if err := s.repo.DeleteAd(ctx, id); err != nil {
		return err
	}

	ctxlog.FromContext(ctx).Info("ad deleted", "ad_id", id)
	return nil
}

func (s *Service) authorize(ctx context.Context, p *domain.Principal, id string) (*domain.Ad, error) {
	ad, err := s.repo.GetAd(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := access.CanMutateAd(p, ad); err != nil {
		if errors.Is(err, access.ErrNotFoundOrUnauthorized) {
			ctxlog.FromContext(ctx).Debug("ad mutation denied", "ad_id", id)
			return nil, ErrAdNotFound
		}
		return nil, err
	}
	return ad, nil
}
