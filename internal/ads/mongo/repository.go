// Package mongo provides MongoDB implementation of the ads repository.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bissquit/adboard/internal/ads"
	"github.com/bissquit/adboard/internal/domain"
	"github.com/bissquit/adboard/internal/pkg/mongodb"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionName = "ads"

type adDocument struct {
	ID          string    `bson:"_id"`
	Title       string    `bson:"title"`
	Description string    `bson:"description"`
	Price       float64   `bson:"price"`
	CreatorID   string    `bson:"creator_id"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

func (d *adDocument) toDomain() domain.Ad {
	return domain.Ad{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Price:       d.Price,
		CreatorID:   d.CreatorID,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// Repository implements the ads.Repository interface using MongoDB.
type Repository struct {
	col *mongo.Collection
}

// NewRepository creates the repository and ensures its indexes.
func NewRepository(ctx context.Context, db *mongo.Database) (*Repository, error) {
	col := db.Collection(collectionName)

	_, err := col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}},
		{Keys: bson.D{{Key: "creator_id", Value: 1}}},
	})
	if err != nil {
		return nil, fmt.Errorf("create ad indexes: %w", err)
	}

	return &Repository{col: col}, nil
}

// CreateAd inserts an ad and fills its generated fields.
func (r *Repository) CreateAd(ctx context.Context, ad *domain.Ad) error {
	now := mongodb.Now()
	doc := adDocument{
		ID:          uuid.NewString(),
		Title:       ad.Title,
		Description: ad.Description,
		Price:       ad.Price,
		CreatorID:   ad.CreatorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("create ad: %w", err)
	}

	ad.ID = doc.ID
	ad.CreatedAt = doc.CreatedAt
	ad.UpdatedAt = doc.UpdatedAt
	return nil
}

// GetAd retrieves an ad by ID.
func (r *Repository) GetAd(ctx context.Context, id string) (*domain.Ad, error) {
	var doc adDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ads.ErrAdNotFound
		}
		return nil, fmt.Errorf("get ad: %w", err)
	}
	ad := doc.toDomain()
	return &ad, nil
}

// ListAds retrieves all ads in insertion order.
func (r *Repository) ListAds(ctx context.Context) ([]domain.Ad, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list ads: %w", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	result := make([]domain.Ad, 0)
	for cursor.Next(ctx) {
		var doc adDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode ad: %w", err)
		}
		result = append(result, doc.toDomain())
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate ads: %w", err)
	}
	return result, nil
}

// UpdateAd overwrites title, description and price. creator_id is never written.
func (r *Repository) UpdateAd(ctx context.Context, ad *domain.Ad) error {
	now := mongodb.Now()
	update := bson.M{"$set": bson.M{
		"title":       ad.Title,
		"description": ad.Description,
		"price":       ad.Price,
		"updated_at":  now,
	}}

	result, err := r.col.UpdateByID(ctx, ad.ID, update)
	if err != nil {
		return fmt.Errorf("update ad: %w", err)
	}
	if result.MatchedCount == 0 {
		return ads.ErrAdNotFound
	}

	ad.UpdatedAt = now
	return nil
}

// DeleteAd removes an ad.
func (r *Repository) DeleteAd(ctx context.Context, id string) error {
	result, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete ad: %w", err)
	}
	if result.DeletedCount == 0 {
		return ads.ErrAdNotFound
	}
	return nil
}
