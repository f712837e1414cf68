package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"syscall"

	"github.com/mkrupp/underwritepro/internal/infra/logging"
)

const (
	fileSystemDirMode  = 0o700
	fileSystemFileMode = 0o600
	fileSystemLockName = ".lock"
	fileSystemItemExt  = ".item"
)

//nolint:gochecknoglobals
var fileSystemKeyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// FileSystemStorageConfig holds configuration for the filesystem-based storage.
type FileSystemStorageConfig struct {
	// Basedir is the directory holding one file per key.
	// Empty means $XDG_CONFIG_HOME/underwritepro (or ~/.config/underwritepro).
	Basedir string `env:"BASEDIR" default:""`
}

// FileSystemStorageFactory creates a factory function that returns a new FileSystemStorage.
func FileSystemStorageFactory(cfg FileSystemStorageConfig) StorageFactory {
	return func(ctx context.Context) (Storage, error) {
		return NewFileSystemStorage(ctx, cfg)
	}
}

// DefaultBasedir returns the per-user directory used when no Basedir is configured.
func DefaultBasedir() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "underwritepro")
		}

		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "underwritepro")
}

// NewFileSystemStorage creates a FileSystemStorage rooted at cfg.Basedir, creating
// the directory (mode 0700) if needed. Item files are written with mode 0600 since
// they hold bearer tokens.
func NewFileSystemStorage(ctx context.Context, cfg FileSystemStorageConfig) (*FileSystemStorage, error) {
	if cfg.Basedir == "" {
		cfg.Basedir = DefaultBasedir()
	}

	fsStorage := &FileSystemStorage{
		cfg: cfg,
		log: logging.GetLogger("repo.storage.filesystem_storage").With(
			logging.Group("storage", "basedir", cfg.Basedir),
		),
	}

	if err := fsStorage.initStorage(ctx); err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	return fsStorage, nil
}

// FileSystemStorage implements Storage with one file per key. Concurrent processes
// are serialized through an flock on a lock file in the base directory.
type FileSystemStorage struct {
	cfg FileSystemStorageConfig
	log logging.Logger
}

var _ Storage = (*FileSystemStorage)(nil)

func (fsStorage *FileSystemStorage) GetItem(ctx context.Context, key string) (value string, ok bool, err error) {
	filename, err := fsStorage.getFilename(key)
	if err != nil {
		return "", false, err
	}

	release, err := fsStorage.flock(ctx, syscall.LOCK_SH)
	if err != nil {
		return "", false, fmt.Errorf("flock: %w", err)
	}
	defer release()

	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}

		return "", false, fmt.Errorf("read file: %w", err)
	}

	return string(data), true, nil
}

func (fsStorage *FileSystemStorage) SetItem(ctx context.Context, key, value string) (err error) {
	filename, err := fsStorage.getFilename(key)
	if err != nil {
		return err
	}

	defer func() {
		log := fsStorage.log.With(logging.Group("item", "key", key, "filename", filename))
		if err != nil {
			log.ErrorContext(ctx, "item store failed", logging.Err(err))
		} else {
			log.DebugContext(ctx, "item stored", "size", len(value))
		}
	}()

	release, err := fsStorage.flock(ctx, syscall.LOCK_EX)
	if err != nil {
		return fmt.Errorf("flock: %w", err)
	}
	defer release()

	if err := fsStorage.writeFile(filename, []byte(value)); err != nil {
		return fmt.Errorf("write file: %w", err)
	}

	return nil
}

func (fsStorage *FileSystemStorage) RemoveItem(ctx context.Context, key string) (err error) {
	filename, err := fsStorage.getFilename(key)
	if err != nil {
		return err
	}

	defer func() {
		log := fsStorage.log.With(logging.Group("item", "key", key, "filename", filename))
		if err != nil {
			log.ErrorContext(ctx, "item remove failed", logging.Err(err))
		} else {
			log.DebugContext(ctx, "item removed")
		}
	}()

	release, err := fsStorage.flock(ctx, syscall.LOCK_EX)
	if err != nil {
		return fmt.Errorf("flock: %w", err)
	}
	defer release()

	if err := os.Remove(filename); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove: %w", err)
	}

	return nil
}

func (fsStorage *FileSystemStorage) Close() error {
	return nil
}

func (fsStorage *FileSystemStorage) initStorage(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			fsStorage.log.ErrorContext(ctx, "init storage failed", logging.Err(err))
		} else {
			fsStorage.log.DebugContext(ctx, "init storage")
		}
	}()

	if err := os.MkdirAll(fsStorage.cfg.Basedir, fileSystemDirMode); err != nil {
		return fmt.Errorf("mkdir all: %w", err)
	}

	return nil
}

func (fsStorage *FileSystemStorage) getFilename(key string) (string, error) {
	if !fileSystemKeyPattern.MatchString(key) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	return filepath.Join(fsStorage.cfg.Basedir, key+fileSystemItemExt), nil
}

// writeFile replaces filename atomically: the data goes to a temp file in the
// same directory which is synced and then renamed over the target.
func (fsStorage *FileSystemStorage) writeFile(filename string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(filename), filepath.Base(filename)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}

	tmpName := tmp.Name()

	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if err := tmp.Chmod(fileSystemFileMode); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}

	if err := os.Rename(tmpName, filename); err != nil {
		return fmt.Errorf("rename: %w", err)
	}

	return nil
}

func (fsStorage *FileSystemStorage) flock(ctx context.Context, mode int) (release func(), err error) {
	lockfile := filepath.Join(fsStorage.cfg.Basedir, fileSystemLockName)
	log := fsStorage.log.With(logging.Group("item", "lockfile", lockfile))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "lock failed", logging.Err(err))
		}
	}()

	file, err := os.OpenFile(lockfile, os.O_CREATE|os.O_RDWR, fileSystemFileMode)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	if err := syscall.Flock(int(file.Fd()), mode); err != nil {
		_ = file.Close()

		return nil, fmt.Errorf("flock: %w", err)
	}

	return func() {
		_ = syscall.Flock(int(file.Fd()), syscall.LOCK_UN)
		_ = file.Close()
	}, nil
}
