package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

const (
	UsersCollection         = "users"
	NotesCollection         = "notes"
	CountersCollection      = "counters"
	RefreshTokensCollection = "refreshTokens"
)

type MongoDB struct {
	Client   *mongo.Client
	Database *mongo.Database
}

func NewMongo(ctx context.Context, uri string, database string) (*MongoDB, error) {
	client, err := mongo.Connect(options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(10 * time.Second))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	slog.Info("database connected", "driver", "mongo", "database", database)
	return &MongoDB{Client: client, Database: client.Database(database)}, nil
}

// EnsureIndexes creates the unique and lookup indexes the repositories rely on.
func (m *MongoDB) EnsureIndexes(ctx context.Context) error {
	caseInsensitive := &options.Collation{Locale: "en", Strength: 2}

	indexes := map[string][]mongo.IndexModel{
		UsersCollection: {{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).SetCollation(caseInsensitive),
		}},
		NotesCollection: {
			{
				Keys:    bson.D{{Key: "title", Value: 1}},
				Options: options.Index().SetUnique(true).SetCollation(caseInsensitive),
			},
			{Keys: bson.D{{Key: "user", Value: 1}}},
		},
		RefreshTokensCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}}},
			{
				Keys:    bson.D{{Key: "expiresAt", Value: 1}},
				Options: options.Index().SetExpireAfterSeconds(0),
			},
		},
	}

	for collection, models := range indexes {
		if _, err := m.Database.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", collection, err)
		}
	}

	slog.Info("mongo indexes ensured")
	return nil
}

func (m *MongoDB) Health(ctx context.Context) error {
	return m.Client.Ping(ctx, readpref.Primary())
}

func (m *MongoDB) Close(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}
