// Package bootstrap builds the shared dependencies of the server and the
// terminal client from configuration.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"portfolio/config"
	"portfolio/content"
	"portfolio/db"
	"portfolio/logger"
	"portfolio/narrative"
)

// Resources owns the connections opened while bootstrapping.
type Resources struct {
	Mongo  bool
	Redis  *redis.Client
	Checks map[string]func(ctx context.Context) error
}

func NewResources() *Resources {
	return &Resources{Checks: make(map[string]func(ctx context.Context) error)}
}

// Close releases every connection.
func (r *Resources) Close() error {
	var firstErr error
	if r.Redis != nil {
		if err := r.Redis.Close(); err != nil {
			firstErr = err
		}
	}
	if r.Mongo {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Resources) ensureMongo(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	if r.Mongo {
		return nil
	}
	if err := db.InitMongoDB(ctx, cfg.Mongo.URI, cfg.Mongo.Database); err != nil {
		return err
	}
	r.Mongo = true
	r.Checks["mongo"] = func(ctx context.Context) error {
		return db.GetClient().Ping(ctx, nil)
	}
	log.Info("Connected to MongoDB", logger.String("database", cfg.Mongo.Database))
	return nil
}

// ContentStore opens the configured content source.
func ContentStore(ctx context.Context, cfg *config.Config, res *Resources, log logger.Logger) (content.Store, error) {
	switch cfg.Content.Source {
	case config.ContentMongo:
		if err := res.ensureMongo(ctx, cfg, log); err != nil {
			return nil, err
		}
		if err := db.CreateContentIndexes(ctx); err != nil {
			log.Warn("Failed to create content indexes", logger.Error(err))
		}
		return db.NewContentRepository(), nil
	default:
		store, err := content.LoadFile(cfg.Content.Path)
		if err != nil {
			return nil, err
		}
		log.Info("Loaded content file", logger.String("path", cfg.Content.Path))
		return store, nil
	}
}

// NarrativeKV opens the configured narrative cache backend.
func NarrativeKV(ctx context.Context, cfg *config.Config, res *Resources, log logger.Logger) (narrative.KV, error) {
	switch cfg.Narrative.Cache {
	case config.CacheRedis:
		client, err := narrative.DialRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		res.Redis = client
		res.Checks["redis"] = func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}
		log.Info("Narrative cache on Redis", logger.String("addr", cfg.Redis.Addr))
		return narrative.NewRedisKV(client, cfg.Redis.Prefix), nil
	case config.CacheMongo:
		if err := res.ensureMongo(ctx, cfg, log); err != nil {
			return nil, err
		}
		log.Info("Narrative cache on MongoDB")
		return db.NewNarrativeStore(db.GetCollection(db.NarrativesCollection)), nil
	default:
		return narrative.NewMemoryKV(), nil
	}
}

// Open builds the content store and the narrative cache together.
func Open(ctx context.Context, cfg *config.Config, log logger.Logger) (content.Store, *narrative.Cache, *Resources, error) {
	res := NewResources()

	store, err := ContentStore(ctx, cfg, res, log)
	if err != nil {
		_ = res.Close()
		return nil, nil, nil, fmt.Errorf("open content store: %w", err)
	}

	kv, err := NarrativeKV(ctx, cfg, res, log)
	if err != nil {
		_ = res.Close()
		return nil, nil, nil, fmt.Errorf("open narrative cache: %w", err)
	}

	return store, narrative.NewCache(kv, nil, cfg.Narrative.CacheTTL), res, nil
}
