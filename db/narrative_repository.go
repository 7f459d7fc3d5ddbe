package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	dbmodels "portfolio/db/models"
)

const writeAttempts = 3

// NarrativeStore keeps narrative cache keys in MongoDB, one document per key.
type NarrativeStore struct {
	collection *mongo.Collection
	backoff    time.Duration
}

func NewNarrativeStore(collection *mongo.Collection) *NarrativeStore {
	return &NarrativeStore{collection: collection, backoff: 100 * time.Millisecond}
}

func (s *NarrativeStore) Get(ctx context.Context, key string) (string, bool, error) {
	var doc dbmodels.NarrativeDocument
	err := s.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("find narrative key %s: %w", key, err)
	}
	return doc.Value, true, nil
}

// Set upserts key, retrying transient failures with a growing delay.
func (s *NarrativeStore) Set(ctx context.Context, key, value string) error {
	update := bson.M{"$set": bson.M{"value": value, "updated_at": time.Now().UTC()}}
	opts := options.Update().SetUpsert(true)

	err := withRetry(ctx, writeAttempts, s.backoff, waitContext, func(ctx context.Context) error {
		_, err := s.collection.UpdateOne(ctx, bson.M{"_id": key}, update, opts)
		return err
	})
	if err != nil {
		return fmt.Errorf("upsert narrative key %s: %w", key, err)
	}
	return nil
}

// withRetry runs op up to attempts times, waiting backoff*(i+1) between
// attempts. No wait follows the last attempt.
func withRetry(ctx context.Context, attempts int, backoff time.Duration,
	wait func(context.Context, time.Duration) error, op func(context.Context) error) error {
	var lastErr error
	for i := range attempts {
		if lastErr = op(ctx); lastErr == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		if err := wait(ctx, backoff*time.Duration(i+1)); err != nil {
			return err
		}
	}
	return lastErr
}

func waitContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
