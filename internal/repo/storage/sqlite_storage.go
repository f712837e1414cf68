package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/mkrupp/underwritepro/internal/infra/logging"
)

const sqliteBusyTimeoutMS = 5000

// SQLiteStorageConfig holds configuration for the SQLite storage.
type SQLiteStorageConfig struct {
	// DatabasePath is the filesystem path to the SQLite database file.
	// Empty means credentials.db inside the default per-user directory.
	DatabasePath string `env:"DATABASE_PATH" default:""`
}

// SQLiteStorage implements Storage using a single SQLite key/value table.
type SQLiteStorage struct {
	db        *sql.DB
	log       logging.Logger
	writeLock *sync.Mutex // go-sqlite does not support concurrent writes
}

var _ Storage = (*SQLiteStorage)(nil)

// SQLiteStorageFactory creates a factory function that returns a new SQLiteStorage.
func SQLiteStorageFactory(cfg SQLiteStorageConfig) StorageFactory {
	return func(ctx context.Context) (Storage, error) {
		return NewSQLiteStorage(ctx, cfg)
	}
}

// NewSQLiteStorage opens the database at cfg.DatabasePath and creates the schema if needed.
func NewSQLiteStorage(ctx context.Context, cfg SQLiteStorageConfig) (*SQLiteStorage, error) {
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = filepath.Join(DefaultBasedir(), "credentials.db")
	}

	log := logging.GetLogger("repo.storage.sqlite_storage").With(
		logging.Group("db", "path", cfg.DatabasePath),
	)

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), fileSystemDirMode); err != nil {
		return nil, fmt.Errorf("mkdir all: %w", err)
	}

	db, err := sql.Open("sqlite", sqliteDSN(cfg.DatabasePath))
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("ping db: %w", err)
	}

	// the file holds credentials; the driver creates it with the umask mode
	if err := os.Chmod(cfg.DatabasePath, fileSystemFileMode); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("chmod db: %w", err)
	}

	if err := initializeDB(ctx, db); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("initialize db: %w", err)
	}

	db.SetConnMaxLifetime(5 * time.Minute)

	log.DebugContext(ctx, "storage opened")

	return &SQLiteStorage{
		db:        db,
		log:       log,
		writeLock: new(sync.Mutex),
	}, nil
}

// sqliteDSN applies the connection pragmas through the DSN so that every
// pooled connection gets them, not only the first one.
func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}

	return path + sep + "_pragma=busy_timeout(" + strconv.Itoa(sqliteBusyTimeoutMS) + ")"
}

func initializeDB(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS items (
			key        TEXT    PRIMARY KEY,
			value      TEXT    NOT NULL,
			updated_at INTEGER NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	return nil
}

// GetItem implements Storage.GetItem using SQLite.
func (r *SQLiteStorage) GetItem(ctx context.Context, key string) (string, bool, error) {
	var value string

	err := r.db.QueryRowContext(ctx, "SELECT value FROM items WHERE key = ?", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}

		return "", false, fmt.Errorf("query item: %w", err)
	}

	return value, true, nil
}

// SetItem implements Storage.SetItem using SQLite.
func (r *SQLiteStorage) SetItem(ctx context.Context, key, value string) error {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO items (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key,
		value,
		time.Now().Unix(),
	)
	if err != nil {
		r.log.ErrorContext(ctx, "item store failed", "key", key, logging.Err(err))

		return fmt.Errorf("upsert item: %w", err)
	}

	return nil
}

// RemoveItem implements Storage.RemoveItem using SQLite.
func (r *SQLiteStorage) RemoveItem(ctx context.Context, key string) error {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	if _, err := r.db.ExecContext(ctx, "DELETE FROM items WHERE key = ?", key); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}

	return nil
}

// Close implements Storage.Close by closing the database connection.
func (r *SQLiteStorage) Close() error {
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}

	return nil
}
