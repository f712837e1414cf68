package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/underwritepro/internal/repo/storage"
)

type backend struct {
	name  string
	setup func(t *testing.T) storage.Storage
}

func backends() []backend {
	return []backend{
		{
			name: "memory",
			setup: func(t *testing.T) storage.Storage {
				t.Helper()

				return storage.NewMemoryStorage()
			},
		},
		{
			name: "filesystem",
			setup: func(t *testing.T) storage.Storage {
				t.Helper()

				s, err := storage.NewFileSystemStorage(context.Background(), storage.FileSystemStorageConfig{
					Basedir: filepath.Join(t.TempDir(), "creds"),
				})
				require.NoError(t, err)

				return s
			},
		},
		{
			name: "sqlite",
			setup: func(t *testing.T) storage.Storage {
				t.Helper()

				s, err := storage.NewSQLiteStorage(context.Background(), storage.SQLiteStorageConfig{
					DatabasePath: filepath.Join(t.TempDir(), "creds.db"),
				})
				require.NoError(t, err)

				return s
			},
		},
		{
			name: "redis",
			setup: func(t *testing.T) storage.Storage {
				t.Helper()

				mr := miniredis.RunT(t)
				rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

				return storage.NewRedisStorage(rdb, storage.RedisStorageConfig{Addr: mr.Addr(), KeyPrefix: "test:"})
			},
		},
	}
}

func TestStorageContract(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			t.Parallel()

			s := b.setup(t)
			t.Cleanup(func() { _ = s.Close() })

			_, ok, err := s.GetItem(ctx, "token")
			require.NoError(t, err)
			assert.False(t, ok, "missing key must not exist")

			require.NoError(t, s.SetItem(ctx, "token", "abc"))

			value, ok, err := s.GetItem(ctx, "token")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "abc", value)

			require.NoError(t, s.SetItem(ctx, "token", "def"))

			value, _, err = s.GetItem(ctx, "token")
			require.NoError(t, err)
			assert.Equal(t, "def", value, "set must overwrite")

			require.NoError(t, s.SetItem(ctx, "user", `{"full_name":"Jo"}`))
			require.NoError(t, s.RemoveItem(ctx, "token"))

			_, ok, err = s.GetItem(ctx, "token")
			require.NoError(t, err)
			assert.False(t, ok)

			value, ok, err = s.GetItem(ctx, "user")
			require.NoError(t, err)
			assert.True(t, ok, "removing one key must keep the others")
			assert.JSONEq(t, `{"full_name":"Jo"}`, value)

			require.NoError(t, s.RemoveItem(ctx, "token"), "removing a missing key succeeds")
		})
	}
}

func TestFileSystemStoragePermissions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "creds")

	s, err := storage.NewFileSystemStorage(ctx, storage.FileSystemStorageConfig{Basedir: dir})
	require.NoError(t, err)
	require.NoError(t, s.SetItem(ctx, "token", "secret"))

	dirInfo, err := os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), dirInfo.Mode().Perm())

	fileInfo, err := os.Stat(filepath.Join(dir, "token.item"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), fileInfo.Mode().Perm())

	matches, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches, "temp files must not be left behind")
}

func TestSQLiteStoragePermissions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "creds")
	path := filepath.Join(dir, "creds.db")

	s, err := storage.NewSQLiteStorage(ctx, storage.SQLiteStorageConfig{DatabasePath: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.SetItem(ctx, "token", "secret"))

	dirInfo, err := os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), dirInfo.Mode().Perm())

	fileInfo, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), fileInfo.Mode().Perm())
}

func TestFileSystemStorageRejectsInvalidKeys(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	s, err := storage.NewFileSystemStorage(ctx, storage.FileSystemStorageConfig{Basedir: t.TempDir()})
	require.NoError(t, err)

	for _, key := range []string{"", "../token", ".lock", "a/b"} {
		require.ErrorIs(t, s.SetItem(ctx, key, "x"), storage.ErrInvalidKey, key)
	}
}

func TestFileSystemStorageConcurrentWriters(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()

	var wg sync.WaitGroup

	for i := range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			s, err := storage.NewFileSystemStorage(ctx, storage.FileSystemStorageConfig{Basedir: dir})
			if !assert.NoError(t, err) {
				return
			}

			assert.NoError(t, s.SetItem(ctx, "token", string(rune('a'+i))))
		}()
	}

	wg.Wait()

	s, err := storage.NewFileSystemStorage(ctx, storage.FileSystemStorageConfig{Basedir: dir})
	require.NoError(t, err)

	value, ok, err := s.GetItem(ctx, "token")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, value, 1, "the file must hold exactly one complete write")
}

func TestFactory(t *testing.T) {
	t.Parallel()

	factory, err := storage.Factory(storage.StorageConfig{Backend: storage.BackendMemory})
	require.NoError(t, err)

	s, err := factory(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &storage.MemoryStorage{}, s)

	_, err = storage.Factory(storage.StorageConfig{Backend: "etcd"})
	require.ErrorIs(t, err, storage.ErrUnknownBackend)
}
