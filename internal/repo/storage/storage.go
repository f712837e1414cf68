package storage

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrUnknownBackend is returned by Factory for an unsupported BACKEND value.
	ErrUnknownBackend = errors.New("unknown storage backend")
	// ErrInvalidKey is returned for keys that cannot be stored by a backend.
	ErrInvalidKey = errors.New("invalid storage key")
)

// Backend names accepted by StorageConfig.Backend.
const (
	BackendFileSystem = "filesystem"
	BackendSQLite     = "sqlite"
	BackendRedis      = "redis"
	BackendMemory     = "memory"
)

// Storage is a durable string key/value store with the semantics of browser
// local storage: reading a missing key is not an error.
type Storage interface {
	// GetItem returns the value stored under key and whether it exists.
	GetItem(ctx context.Context, key string) (string, bool, error)

	// SetItem stores value under key, replacing any previous value.
	SetItem(ctx context.Context, key, value string) error

	// RemoveItem deletes key. Removing a missing key succeeds.
	RemoveItem(ctx context.Context, key string) error

	// Close releases any resources held by the storage.
	Close() error
}

// StorageConfig selects and configures the storage backend.
type StorageConfig struct {
	// Backend is one of "filesystem", "sqlite", "redis" or "memory"
	Backend string `env:"BACKEND" default:"filesystem"`

	FileSystem FileSystemStorageConfig `envPrefix:"FS_"`
	SQLite     SQLiteStorageConfig     `envPrefix:"SQLITE_"`
	Redis      RedisStorageConfig      `envPrefix:"REDIS_"`
}

// StorageFactory is a function that creates a new Storage instance.
type StorageFactory func(ctx context.Context) (Storage, error)

// Factory returns the StorageFactory of the configured backend.
func Factory(cfg StorageConfig) (StorageFactory, error) {
	switch cfg.Backend {
	case BackendFileSystem, "":
		return FileSystemStorageFactory(cfg.FileSystem), nil
	case BackendSQLite:
		return SQLiteStorageFactory(cfg.SQLite), nil
	case BackendRedis:
		return RedisStorageFactory(cfg.Redis), nil
	case BackendMemory:
		return func(context.Context) (Storage, error) { return NewMemoryStorage(), nil }, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}
