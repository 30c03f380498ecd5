package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"technotes-api/internal/database"
	"technotes-api/internal/model"
)

// MongoTokenRepository relies on the TTL index on expiresAt for eventual
// cleanup; Validate still checks expiry since TTL deletion lags.
type MongoTokenRepository struct {
	tokens *mongo.Collection
}

func NewMongoTokenRepository(db *database.MongoDB) *MongoTokenRepository {
	return &MongoTokenRepository{tokens: db.Database.Collection(database.RefreshTokensCollection)}
}

func (r *MongoTokenRepository) Store(ctx context.Context, record model.RefreshTokenRecord) error {
	if _, err := r.tokens.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}
	return nil
}

func (r *MongoTokenRepository) Validate(ctx context.Context, tokenID string) (string, error) {
	var record model.RefreshTokenRecord
	err := r.tokens.FindOne(ctx, bson.D{
		{Key: "_id", Value: tokenID},
		{Key: "expiresAt", Value: bson.D{{Key: "$gt", Value: time.Now().UTC()}}},
	}).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", model.ErrTokenNotFound
	}
	if err != nil {
		return "", fmt.Errorf("validate refresh token: %w", err)
	}
	return record.UserID, nil
}

func (r *MongoTokenRepository) Revoke(ctx context.Context, tokenID string) error {
	res, err := r.tokens.DeleteOne(ctx, bson.D{{Key: "_id", Value: tokenID}})
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	if res.DeletedCount == 0 {
		return model.ErrTokenNotFound
	}
	return nil
}

func (r *MongoTokenRepository) RevokeAllForUser(ctx context.Context, userID string) error {
	if _, err := r.tokens.DeleteMany(ctx, bson.D{{Key: "userId", Value: userID}}); err != nil {
		return fmt.Errorf("revoke all refresh tokens: %w", err)
	}
	return nil
}

func (r *MongoTokenRepository) CleanExpired(ctx context.Context) (int64, error) {
	res, err := r.tokens.DeleteMany(ctx, bson.D{
		{Key: "expiresAt", Value: bson.D{{Key: "$lte", Value: time.Now().UTC()}}},
	})
	if err != nil {
		return 0, fmt.Errorf("clean expired tokens: %w", err)
	}
	return res.DeletedCount, nil
}
