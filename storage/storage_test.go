package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/linreg/bucket"
	"github.com/arloliu/linreg/errs"
	"github.com/arloliu/linreg/format"
	"github.com/arloliu/linreg/shard"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "checkpoints.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func encodeTestShard(t *testing.T, buckets int, opts ...shard.EncoderOption) (*bucket.Store, []byte) {
	t.Helper()

	store, err := bucket.New(2)
	require.NoError(t, err)
	for i := range 10 * buckets {
		x := float64(i)
		require.NoError(t, store.Sample(uint64(i%buckets), []float64{x, x * x}, 3+2*x))
	}

	data, err := shard.Encode(store, opts...)
	require.NoError(t, err)

	return store, data
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoints.db")

	store, err := Open(path)
	require.NoError(t, err)
	require.Equal(t, path, store.Path())

	_, err = os.Stat(path)
	require.NoError(t, err, "database file must be created")

	require.NoError(t, store.Close())
	require.NoError(t, store.Close(), "second close is a no-op")
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "dir", "checkpoints.db"))
	require.Error(t, err)
}

func TestStore_PutGet(t *testing.T) {
	require := require.New(t)

	store := openTestStore(t)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	original, data := encodeTestShard(t, 3, shard.WithCompression(format.CompressionZstd))

	cp, err := store.Put("partition-0", data)
	require.NoError(err)
	require.NotEqual(uuid.Nil, cp.ID)
	require.Equal("partition-0", cp.Partition)
	require.Equal(fixed, cp.CreatedAt)
	require.Equal(len(data), cp.Size)
	require.Equal(2, cp.FeaturesCount)
	require.Equal(3, cp.BucketCount)
	require.Equal(format.CompressionZstd, cp.Compression)

	blob, got, err := store.Get("partition-0")
	require.NoError(err)
	require.Equal(data, blob)
	require.Equal(cp, got)

	loaded, _, err := store.Load("partition-0")
	require.NoError(err)
	require.True(original.Equal(loaded, 0))
}

func TestStore_PutReplaces(t *testing.T) {
	require := require.New(t)

	store := openTestStore(t)
	_, first := encodeTestShard(t, 2)
	_, second := encodeTestShard(t, 5)

	cp1, err := store.Put("p", first)
	require.NoError(err)
	cp2, err := store.Put("p", second)
	require.NoError(err)
	require.NotEqual(cp1.ID, cp2.ID)

	blob, cp, err := store.Get("p")
	require.NoError(err)
	require.Equal(second, blob)
	require.Equal(5, cp.BucketCount)

	list, err := store.List()
	require.NoError(err)
	require.Len(list, 1)
}

func TestStore_PutInvalid(t *testing.T) {
	store := openTestStore(t)
	_, data := encodeTestShard(t, 1)

	_, err := store.Put("", data)
	require.ErrorIs(t, err, errs.ErrInvalidArgument)

	_, err = store.Put("p", []byte("not a shard"))
	require.ErrorIs(t, err, errs.ErrInvalidHeaderSize)

	list, err := store.List()
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestStore_ListOrdered(t *testing.T) {
	store := openTestStore(t)
	_, data := encodeTestShard(t, 1)

	for _, p := range []string{"c", "a", "b"} {
		_, err := store.Put(p, data)
		require.NoError(t, err)
	}

	list, err := store.List()
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, "a", list[0].Partition)
	require.Equal(t, "b", list[1].Partition)
	require.Equal(t, "c", list[2].Partition)
}

func TestStore_Delete(t *testing.T) {
	require := require.New(t)

	store := openTestStore(t)
	_, data := encodeTestShard(t, 1)

	_, err := store.Put("p", data)
	require.NoError(err)
	require.NoError(store.Delete("p"))

	_, _, err = store.Get("p")
	require.ErrorIs(err, errs.ErrCheckpointNotFound)
	require.True(IsNotFound(err))

	err = store.Delete("p")
	require.ErrorIs(err, errs.ErrCheckpointNotFound)
}

func TestStore_Clear(t *testing.T) {
	require := require.New(t)

	store := openTestStore(t)
	removed, err := store.Clear()
	require.NoError(err)
	require.Zero(removed)

	_, data := encodeTestShard(t, 2)
	for _, name := range []string{"a", "b", "c"} {
		_, err := store.Put(name, data)
		require.NoError(err)
	}

	removed, err = store.Clear()
	require.NoError(err)
	require.Equal(3, removed)

	list, err := store.List()
	require.NoError(err)
	require.Empty(list)
	_, _, err = store.Get("a")
	require.True(IsNotFound(err))

	// the store stays usable after clearing
	_, err = store.Put("d", data)
	require.NoError(err)
	list, err = store.List()
	require.NoError(err)
	require.Len(list, 1)
}

func TestStore_NotFound(t *testing.T) {
	store := openTestStore(t)

	_, _, err := store.Get("missing")
	require.True(t, IsNotFound(err))

	_, _, err = store.Load("missing")
	require.True(t, IsNotFound(err))
}

func TestStore_Reopen(t *testing.T) {
	require := require.New(t)

	path := filepath.Join(t.TempDir(), "checkpoints.db")
	original, data := encodeTestShard(t, 4, shard.WithCompression(format.CompressionS2))

	store, err := Open(path)
	require.NoError(err)
	_, err = store.Put("p", data)
	require.NoError(err)
	require.NoError(store.Close())

	reopened, err := Open(path)
	require.NoError(err)
	defer reopened.Close()

	loaded, _, err := reopened.Load("p")
	require.NoError(err)
	require.True(original.Equal(loaded, 0))
}
