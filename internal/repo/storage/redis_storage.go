package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mkrupp/underwritepro/internal/infra/logging"
)

// RedisStorageConfig holds configuration for the Redis storage.
type RedisStorageConfig struct {
	// Addr is the host:port of the Redis server
	Addr     string `env:"ADDR" default:"127.0.0.1:6379"`
	Password string `env:"PASSWORD" default:""`
	DB       int    `env:"DB" default:"0"`

	// KeyPrefix namespaces the items, e.g. per user or per workstation
	KeyPrefix string `env:"KEY_PREFIX" default:"uwp:"`

	// TTL expires items after the given duration; zero keeps them until removed
	TTL time.Duration `env:"TTL" default:"0s"`
}

// RedisStorage implements Storage on a Redis server so that several clients can
// share one persisted session.
type RedisStorage struct {
	rdb redis.UniversalClient
	cfg RedisStorageConfig
	log logging.Logger
}

var _ Storage = (*RedisStorage)(nil)

// RedisStorageFactory creates a factory function that returns a new RedisStorage.
func RedisStorageFactory(cfg RedisStorageConfig) StorageFactory {
	return func(ctx context.Context) (Storage, error) {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		})

		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()

			return nil, fmt.Errorf("ping redis: %w", err)
		}

		return NewRedisStorage(rdb, cfg), nil
	}
}

// NewRedisStorage wraps an existing client.
func NewRedisStorage(rdb redis.UniversalClient, cfg RedisStorageConfig) *RedisStorage {
	return &RedisStorage{
		rdb: rdb,
		cfg: cfg,
		log: logging.GetLogger("repo.storage.redis_storage").With(
			logging.Group("redis", "addr", cfg.Addr, "prefix", cfg.KeyPrefix),
		),
	}
}

func (rs *RedisStorage) key(key string) string {
	return rs.cfg.KeyPrefix + key
}

func (rs *RedisStorage) GetItem(ctx context.Context, key string) (string, bool, error) {
	value, err := rs.rdb.Get(ctx, rs.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}

		return "", false, fmt.Errorf("redis get: %w", err)
	}

	return value, true, nil
}

func (rs *RedisStorage) SetItem(ctx context.Context, key, value string) error {
	if err := rs.rdb.Set(ctx, rs.key(key), value, rs.cfg.TTL).Err(); err != nil {
		rs.log.ErrorContext(ctx, "item store failed", "key", key, logging.Err(err))

		return fmt.Errorf("redis set: %w", err)
	}

	return nil
}

func (rs *RedisStorage) RemoveItem(ctx context.Context, key string) error {
	if err := rs.rdb.Del(ctx, rs.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}

	return nil
}

func (rs *RedisStorage) Close() error {
	if err := rs.rdb.Close(); err != nil {
		return fmt.Errorf("close redis: %w", err)
	}

	return nil
}
