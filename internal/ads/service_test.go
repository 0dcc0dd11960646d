package ads

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bissquit/adboard/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRepository implements Repository for testing.
type mockRepository struct {
	ads         map[string]*domain.Ad
	order       []string
	createErr   error
	updateCalls int
}

func newMockRepository() *mockRepository {
	return &mockRepository{ads: make(map[string]*domain.Ad)}
}

func (m *mockRepository) CreateAd(_ context.Context, ad *domain.Ad) error {
	if m.createErr != nil {
		return m.createErr
	}
	ad.ID = fmt.Sprintf("ad-%d", len(m.order)+1)
	ad.CreatedAt = time.Now()
	ad.UpdatedAt = ad.CreatedAt
	cp := *ad
	m.ads[ad.ID] = &cp
	m.order = append(m.order, ad.ID)
	return nil
}

func (m *mockRepository) GetAd(_ context.Context, id string) (*domain.Ad, error) {
	if ad, ok := m.ads[id]; ok {
		cp := *ad
		return &cp, nil
	}
	return nil, ErrAdNotFound
}

func (m *mockRepository) ListAds(_ context.Context) ([]domain.Ad, error) {
	var result []domain.Ad
	for _, id := range m.order {
		if ad, ok := m.ads[id]; ok {
			result = append(result, *ad)
		}
	}
	return result, nil
}

func (m *mockRepository) UpdateAd(_ context.Context, ad *domain.Ad) error {
	m.updateCalls++
	stored, ok := m.ads[ad.ID]
	if !ok {
		return ErrAdNotFound
	}
	stored.Title = ad.Title
	stored.Description = ad.Description
	stored.Price = ad.Price
	return nil
}

func (m *mockRepository) DeleteAd(_ context.Context, id string) error {
	if _, ok := m.ads[id]; !ok {
		return ErrAdNotFound
	}
	delete(m.ads, id)
	return nil
}

var (
	owner    = &domain.Principal{UserID: "owner", Role: domain.RoleUser, Verified: true}
	stranger = &domain.Principal{UserID: "stranger", Role: domain.RoleUser, Verified: true}
	admin    = &domain.Principal{UserID: "admin", Role: domain.RoleAdmin, Verified: true}
)

func strPtr(s string) *string { return &s }

func pricePtr(s string) *Price {
	p := Price(s)
	return &p
}

func seedAd(t *testing.T, svc *Service) *domain.Ad {
	t.Helper()
	ad, err := svc.CreateAd(context.Background(), owner, CreateAdInput{
		Title:       "Bike",
		Description: "Red bike",
		Price:       "100",
	})
	require.NoError(t, err)
	return ad
}

func fieldsOf(t *testing.T, err error) []string {
	t.Helper()
	var ve validator.ValidationErrors
	require.True(t, errors.As(err, &ve), "expected validation errors, got %v", err)
	fields := make([]string, 0, len(ve))
	for _, e := range ve {
		fields = append(fields, e.Field())
	}
	return fields
}

func TestCreateAd_SetsCreator(t *testing.T) {
	svc := NewService(newMockRepository())

	ad, err := svc.CreateAd(context.Background(), owner, CreateAdInput{
		Title:       "Bike",
		Description: "Red bike",
		Price:       "99.5",
	})

	require.NoError(t, err)
	assert.Equal(t, "owner", ad.CreatorID)
	assert.Equal(t, 99.5, ad.Price)
	assert.NotEmpty(t, ad.ID)
}

func TestCreateAd_ValidationListsEveryField(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	_, err := svc.CreateAd(context.Background(), owner, CreateAdInput{
		Title:       "   ",
		Description: "",
		Price:       "abc",
	})

	require.Error(t, err)
	assert.ElementsMatch(t, []string{"title", "description", "price"}, fieldsOf(t, err))
	assert.Empty(t, repo.ads, "nothing should be persisted")
}

func TestCreateAd_Price(t *testing.T) {
	tests := []struct {
		price Price
		valid bool
	}{
		{"0", true},
		{"12.30", true},
		{"1e3", true},
		{"-1", false},
		{"Inf", false},
		{"NaN", false},
		{"", false},
		{"ten", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.price), func(t *testing.T) {
			svc := NewService(newMockRepository())
			_, err := svc.CreateAd(context.Background(), owner, CreateAdInput{
				Title:       "t",
				Description: "d",
				Price:       tt.price,
			})
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Equal(t, []string{"price"}, fieldsOf(t, err))
			}
		})
	}
}

func TestCreateAd_ExponentPrice(t *testing.T) {
	svc := NewService(newMockRepository())

	ad, err := svc.CreateAd(context.Background(), owner, CreateAdInput{
		Title:       "Bike",
		Description: "Red bike",
		Price:       "1e3",
	})

	require.NoError(t, err)
	assert.Equal(t, 1000.0, ad.Price)
}

func TestCreateAd_TitleLongerThanColumn(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	_, err := svc.CreateAd(context.Background(), owner, CreateAdInput{
		Title:       strings.Repeat("a", 256),
		Description: "d",
		Price:       "1",
	})

	require.Error(t, err)
	assert.Equal(t, []string{"title"}, fieldsOf(t, err))
	assert.Empty(t, repo.ads)

	_, err = svc.CreateAd(context.Background(), owner, CreateAdInput{
		Title:       strings.Repeat("é", 255),
		Description: "d",
		Price:       "1",
	})
	assert.NoError(t, err, "limit counts characters like VARCHAR does")
}

func TestUpdateAd_TitleLongerThanColumn(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)
	ad := seedAd(t, svc)

	_, err := svc.UpdateAd(context.Background(), owner, ad.ID, UpdateAdInput{Title: strPtr(strings.Repeat("a", 300))})

	require.Error(t, err)
	assert.Equal(t, []string{"title"}, fieldsOf(t, err))
	assert.Equal(t, "Bike", repo.ads[ad.ID].Title)
}

func TestListAds_InsertionOrderAndNeverNil(t *testing.T) {
	svc := NewService(newMockRepository())

	empty, err := svc.ListAds(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	first := seedAd(t, svc)
	second := seedAd(t, svc)

	list, err := svc.ListAds(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)
}

func TestGetAd_NotFound(t *testing.T) {
	svc := NewService(newMockRepository())

	_, err := svc.GetAd(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrAdNotFound)
}

func TestUpdateAd_Policy(t *testing.T) {
	tests := []struct {
		name      string
		principal *domain.Principal
		wantErr   error
	}{
		{"creator", owner, nil},
		{"admin", admin, nil},
		{"stranger", stranger, ErrAdNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepository()
			svc := NewService(repo)
			ad := seedAd(t, svc)

			updated, err := svc.UpdateAd(context.Background(), tt.principal, ad.ID, UpdateAdInput{Title: strPtr("Blue bike")})

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, "Bike", repo.ads[ad.ID].Title)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Blue bike", updated.Title)
			assert.Equal(t, "owner", updated.CreatorID)
		})
	}
}

func TestUpdateAd_DeniedLooksLikeMissing(t *testing.T) {
	svc := NewService(newMockRepository())
	ad := seedAd(t, svc)

	_, denied := svc.UpdateAd(context.Background(), stranger, ad.ID, UpdateAdInput{Title: strPtr("x")})
	_, missing := svc.UpdateAd(context.Background(), stranger, "missing", UpdateAdInput{Title: strPtr("x")})

	assert.ErrorIs(t, denied, ErrAdNotFound)
	assert.ErrorIs(t, missing, ErrAdNotFound)
	assert.Equal(t, denied.Error(), missing.Error())
}

func TestUpdateAd_ZeroPriceIsApplied(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)
	ad := seedAd(t, svc)

	updated, err := svc.UpdateAd(context.Background(), owner, ad.ID, UpdateAdInput{Price: pricePtr("0")})

	require.NoError(t, err)
	assert.Equal(t, 0.0, updated.Price)
	assert.Equal(t, 0.0, repo.ads[ad.ID].Price)
	assert.Equal(t, "Bike", updated.Title)
}

func TestUpdateAd_EmptyTitleRejected(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)
	ad := seedAd(t, svc)

	_, err := svc.UpdateAd(context.Background(), owner, ad.ID, UpdateAdInput{Title: strPtr(""), Price: pricePtr("-5")})

	require.Error(t, err)
	assert.ElementsMatch(t, []string{"title", "price"}, fieldsOf(t, err))
	assert.Equal(t, "Bike", repo.ads[ad.ID].Title)
}

func TestUpdateAd_EmptyPatchDoesNotWrite(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)
	ad := seedAd(t, svc)

	updated, err := svc.UpdateAd(context.Background(), owner, ad.ID, UpdateAdInput{})

	require.NoError(t, err)
	assert.Equal(t, ad.ID, updated.ID)
	assert.Equal(t, 0, repo.updateCalls)
}

func TestDeleteAd_Policy(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)
	ad := seedAd(t, svc)

	err := svc.DeleteAd(context.Background(), stranger, ad.ID)
	assert.ErrorIs(t, err, ErrAdNotFound)
	assert.Contains(t, repo.ads, ad.ID)

	err = svc.DeleteAd(context.Background(), admin, ad.ID)
	require.NoError(t, err)
	assert.NotContains(t, repo.ads, ad.ID)

	err = svc.DeleteAd(context.Background(), admin, ad.ID)
	assert.ErrorIs(t, err, ErrAdNotFound)
}
