// Package mongo provides MongoDB implementation of the identity repository.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bissquit/adboard/internal/domain"
	"github.com/bissquit/adboard/internal/identity"
	"github.com/bissquit/adboard/internal/pkg/mongodb"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionName = "users"

type userDocument struct {
	ID           string    `bson:"_id"`
	Email        string    `bson:"email"`
	Phone        string    `bson:"phone"`
	Name         string    `bson:"name"`
	Role         string    `bson:"role"`
	Verified     bool      `bson:"verified"`
	PasswordHash string    `bson:"password_hash"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func (d *userDocument) toDomain() *domain.User {
	return &domain.User{
		ID:           d.ID,
		Email:        d.Email,
		Phone:        d.Phone,
		Name:         d.Name,
		Role:         domain.Role(d.Role),
		Verified:     d.Verified,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// Repository implements the identity.Repository interface using MongoDB.
type Repository struct {
	col *mongo.Collection
}

// NewRepository creates the repository and ensures its indexes.
func NewRepository(ctx context.Context, db *mongo.Database) (*Repository, error) {
	col := db.Collection(collectionName)

	_, err := col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}},
	})
	if err != nil {
		return nil, fmt.Errorf("create user indexes: %w", err)
	}

	return &Repository{col: col}, nil
}

// CreateUser inserts a user and fills its generated fields.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	now := mongodb.Now()
	doc := userDocument{
		ID:           uuid.NewString(),
		Email:        user.Email,
		Phone:        user.Phone,
		Name:         user.Name,
		Role:         string(user.Role),
		Verified:     user.Verified,
		PasswordHash: user.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return identity.ErrEmailExists
		}
		return fmt.Errorf("create user: %w", err)
	}

	user.ID = doc.ID
	user.CreatedAt = doc.CreatedAt
	user.UpdatedAt = doc.UpdatedAt
	return nil
}

// GetUserByID retrieves a user by ID.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetUserByEmail retrieves a user by email.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

// ListUsers retrieves all users in creation order.
func (r *Repository) ListUsers(ctx context.Context) ([]domain.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	users := make([]domain.User, 0)
	for cursor.Next(ctx) {
		var doc userDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode user: %w", err)
		}
		users = append(users, *doc.toDomain())
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

// UpdateUser overwrites the profile fields of a user. Role and verified
// have their own updates.
func (r *Repository) UpdateUser(ctx context.Context, user *domain.User) error {
	now := mongodb.Now()
	update := bson.M{"$set": bson.M{
		"email":         user.Email,
		"phone":         user.Phone,
		"name":          user.Name,
		"password_hash": user.PasswordHash,
		"updated_at":    now,
	}}

	result, err := r.col.UpdateByID(ctx, user.ID, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return identity.ErrEmailExists
		}
		return fmt.Errorf("update user: %w", err)
	}
	if result.MatchedCount == 0 {
		return identity.ErrUserNotFound
	}

	user.UpdatedAt = now
	return nil
}

// DeleteUser removes a user. Ads created by the user are kept.
func (r *Repository) DeleteUser(ctx context.Context, id string) error {
	result, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if result.DeletedCount == 0 {
		return identity.ErrUserNotFound
	}
	return nil
}

// SetVerified marks an unverified user as verified.
func (r *Repository) SetVerified(ctx context.Context, id string) error {
	update := bson.M{"$set": bson.M{"verified": true, "updated_at": mongodb.Now()}}

	result, err := r.col.UpdateOne(ctx, bson.M{"_id": id, "verified": false}, update)
	if err != nil {
		return fmt.Errorf("set verified: %w", err)
	}
	if result.MatchedCount > 0 {
		return nil
	}

	count, err := r.col.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("check user: %w", err)
	}
	if count > 0 {
		return identity.ErrAlreadyVerified
	}
	return identity.ErrUserNotFound
}

// PromoteAdmin grants the admin role and marks the user verified.
func (r *Repository) PromoteAdmin(ctx context.Context, id string) error {
	update := bson.M{"$set": bson.M{
		"role":       string(domain.RoleAdmin),
		"verified":   true,
		"updated_at": mongodb.Now(),
	}}

	result, err := r.col.UpdateByID(ctx, id, update)
	if err != nil {
		return fmt.Errorf("promote admin: %w", err)
	}
	if result.MatchedCount == 0 {
		return identity.ErrUserNotFound
	}
	return nil
}

func (r *Repository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var doc userDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, identity.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toDomain(), nil
}
