package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"technotes-api/internal/database"
	"technotes-api/internal/model"
)

type MongoUserRepository struct {
	users *mongo.Collection
}

func NewMongoUserRepository(db *database.MongoDB) *MongoUserRepository {
	return &MongoUserRepository{users: db.Database.Collection(database.UsersCollection)}
}

func (r *MongoUserRepository) FindByID(ctx context.Context, id string) (model.User, error) {
	return r.findOne(ctx, bson.D{{Key: "_id", Value: id}})
}

func (r *MongoUserRepository) FindByUsername(ctx context.Context, username string) (model.User, error) {
	return r.findOne(ctx, bson.D{{Key: "username", Value: username}})
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.D) (model.User, error) {
	var u model.User
	err := r.users.FindOne(ctx, filter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

func (r *MongoUserRepository) ExistsByUsername(ctx context.Context, username string, excludeID string) (bool, error) {
	filter := bson.D{
		{Key: "username", Value: username},
		{Key: "_id", Value: bson.D{{Key: "$ne", Value: excludeID}}},
	}
	count, err := r.users.CountDocuments(ctx, filter, options.Count().SetCollation(caseInsensitive).SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("check username exists: %w", err)
	}
	return count > 0, nil
}

func (r *MongoUserRepository) List(ctx context.Context) ([]model.User, error) {
	cursor, err := r.users.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "username", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	users := make([]model.User, 0)
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

func (r *MongoUserRepository) Create(ctx context.Context, u model.User) error {
	_, err := r.users.InsertOne(ctx, u)
	return mongoWriteError("create user", err)
}

func (r *MongoUserRepository) Update(ctx context.Context, u model.User) error {
	res, err := r.users.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: u.ID}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "username", Value: u.Username},
			{Key: "passwordHash", Value: u.PasswordHash},
			{Key: "roles", Value: u.Roles},
			{Key: "active", Value: u.Active},
			{Key: "updatedAt", Value: u.UpdatedAt},
		}}})
	if err != nil {
		return mongoWriteError("update user", err)
	}
	if res.MatchedCount == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

func (r *MongoUserRepository) Delete(ctx context.Context, id string) error {
	res, err := r.users.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

func (r *MongoUserRepository) Count(ctx context.Context) (int, error) {
	count, err := r.users.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return int(count), nil
}
