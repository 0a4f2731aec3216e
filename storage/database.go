package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store wraps the Mongo client so handlers receive an explicit dependency
// instead of reaching for a package global.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials Mongo and pings the primary.
func Connect(ctx context.Context, uri, dbName string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return nil, fmt.Errorf("pinging mongo: %w", err)
	}

	log.Info().Str("db", dbName).Msg("connected to mongo")
	return &Store{client: client, db: client.Database(dbName)}, nil
}

func (s *Store) Disconnect(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) Bootcamps() *mongo.Collection { return s.db.Collection("bootcamps") }
func (s *Store) Courses() *mongo.Collection   { return s.db.Collection("courses") }
func (s *Store) Reviews() *mongo.Collection   { return s.db.Collection("reviews") }
func (s *Store) Users() *mongo.Collection     { return s.db.Collection("users") }

// EnsureIndexes creates the uniqueness and geo indexes the handlers rely on:
// unique user emails, at most one review per (bootcamp, user) pair, and a
// 2dsphere index for radius search.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.Users().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("users email index: %w", err)
	}

	_, err = s.Reviews().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "bootcamp", Value: 1}, {Key: "user", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("bootcamp_1_user_1"),
	})
	if err != nil {
		return fmt.Errorf("reviews compound index: %w", err)
	}

	_, err = s.Bootcamps().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "location", Value: "2dsphere"}},
	})
	if err != nil {
		return fmt.Errorf("bootcamps geo index: %w", err)
	}

	return nil
}
