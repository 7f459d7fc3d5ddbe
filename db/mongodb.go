package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const connectTimeout = 10 * time.Second

// Collection names.
const (
	PagesCollection      = "pages"
	ProjectsCollection   = "projects"
	SettingsCollection   = "settings"
	NarrativesCollection = "narratives"
)

var (
	client   *mongo.Client
	database *mongo.Database
)

// InitMongoDB connects to uri, verifies the connection and selects dbName.
func InitMongoDB(ctx context.Context, uri, dbName string) error {
	if uri == "" {
		return errors.New("mongodb uri is not set")
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	c, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return fmt.Errorf("connect mongodb: %w", err)
	}

	if err := c.Ping(ctx, nil); err != nil {
		_ = c.Disconnect(context.Background())
		return fmt.Errorf("ping mongodb: %w", err)
	}

	client = c
	database = c.Database(dbName)
	return nil
}

// GetCollection returns a collection of the selected database.
func GetCollection(collectionName string) *mongo.Collection {
	return database.Collection(collectionName)
}

// GetClient returns the MongoDB client
func GetClient() *mongo.Client {
	return client
}

// Close closes the MongoDB connection
func Close() error {
	if client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		return client.Disconnect(ctx)
	}
	return nil
}
