package state

import (
	"context"
	"time"

	"eduglobe/pkg/config"
	"eduglobe/pkg/db"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

type StoreType string

const (
	StoreTypeMemory		StoreType	= "memory"
	StoreTypeSQL		StoreType	= "sql"
	StoreTypeRedis		StoreType	= "redis"
)

type StoreOption func(*storeConfig)

type storeConfig struct {
	db		*sqlx.DB
	ownDB		bool
	pollInterval	time.Duration
	redisClient	*redis.Client
	namespace	string
}

// WithDB sets the database for the SQL store. The store does not close it.
func WithDB(database *sqlx.DB) StoreOption {
	return func(c *storeConfig) {
		c.db = database
	}
}

func WithPollInterval(d time.Duration) StoreOption {
	return func(c *storeConfig) {
		c.pollInterval = d
	}
}

func WithRedisClient(client *redis.Client) StoreOption {
	return func(c *storeConfig) {
		c.redisClient = client
	}
}

func WithNamespace(ns string) StoreOption {
	return func(c *storeConfig) {
		c.namespace = ns
	}
}

func withOwnedDB(database *sqlx.DB) StoreOption {
	return func(c *storeConfig) {
		c.db = database
		c.ownDB = true
	}
}

func NewStore(ctx context.Context, storeType StoreType, opts ...StoreOption) (Store, error) {
	cfg := &storeConfig{namespace: "eduglobe"}
	for _, opt := range opts {
		opt(cfg)
	}

	switch storeType {
	case StoreTypeMemory:
		return newMemoryStore(), nil

	case StoreTypeSQL:
		if cfg.db == nil {
			return nil, ErrInvalidConfig
		}
		return newSQLStore(ctx, cfg.db, cfg.pollInterval, cfg.ownDB)

	case StoreTypeRedis:
		if cfg.redisClient == nil {
			return nil, ErrInvalidConfig
		}
		if err := cfg.redisClient.Ping(ctx).Err(); err != nil {
			return nil, err
		}
		return &redisStore{client: cfg.redisClient, namespace: cfg.namespace}, nil

	default:
		return nil, ErrInvalidStoreType
	}
}

// Open builds the store named by cfg.StateDriver: memory, sqlite, postgres
// or redis.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StateDriver {
	case "memory":
		return NewStore(ctx, StoreTypeMemory)

	case "sqlite":
		database, err := db.NewSQLiteDB(cfg.StatePath)
		if err != nil {
			return nil, err
		}
		return openSQL(ctx, database, cfg.StatePollInterval)

	case "postgres":
		database, err := db.NewPostgresDB(cfg)
		if err != nil {
			return nil, err
		}
		return openSQL(ctx, database, cfg.StatePollInterval)

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:		cfg.RedisAddr,
			Password:	cfg.RedisPassword,
		})
		store, err := NewStore(ctx, StoreTypeRedis, WithRedisClient(client), WithNamespace(cfg.StateNamespace))
		if err != nil {
			client.Close()
			return nil, err
		}
		return store, nil

	default:
		return nil, ErrInvalidStoreType
	}
}

func openSQL(ctx context.Context, database *sqlx.DB, poll time.Duration) (Store, error) {
	store, err := NewStore(ctx, StoreTypeSQL, withOwnedDB(database), WithPollInterval(poll))
	if err != nil {
		database.Close()
		return nil, err
	}
	return store, nil
}
