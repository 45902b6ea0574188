package feed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseBlobStore(t *testing.T, s BlobStore) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "absent.png")
	assert.ErrorIs(t, err, ErrBlobNotFound)

	link, err := s.Put(ctx, "a.png", []byte("one"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "http://feed.test/blobs/a.png", link)

	_, err = s.Put(ctx, "a.png", []byte("two"), "image/png")
	require.NoError(t, err)
	got, err := s.Get(ctx, "a.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), got)

	for _, bad := range []string{"", "..", "../x", "dir/x", `dir\x`} {
		_, err := s.Put(ctx, bad, []byte("x"), "")
		assert.ErrorIs(t, err, ErrInvalidKey, bad)
	}

	d, ok := s.(BlobDeleter)
	require.True(t, ok, "store should support deletion")
	_, err = s.Put(ctx, "b.png", []byte("gone"), "image/png")
	require.NoError(t, err)
	require.NoError(t, d.Delete(ctx, "b.png"))
	_, err = s.Get(ctx, "b.png")
	assert.ErrorIs(t, err, ErrBlobNotFound)
	assert.NoError(t, d.Delete(ctx, "b.png"), "deleting a missing blob")
}

func TestMemoryStore(t *testing.T) {
	exerciseBlobStore(t, NewMemoryStore("http://feed.test/"))
}

func TestFileStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "feed")
	s, err := NewFileStore(dir, "http://feed.test")
	require.NoError(t, err)
	exerciseBlobStore(t, s)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary files should be renamed away")
	assert.Equal(t, "a.png", entries[0].Name())
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("CAPSTAYSON_TEST_REDIS")
	if addr == "" {
		t.Skip("CAPSTAYSON_TEST_REDIS not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	prefix := "capstayson-test:" + t.Name() + ":"
	s := NewRedisStoreWithClient(client, prefix, "http://feed.test")
	t.Cleanup(func() {
		ctx := context.Background()
		keys, _ := client.Keys(ctx, prefix+"*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		_ = s.Close()
	})
	require.NoError(t, s.Ping(context.Background()))
	exerciseBlobStore(t, s)
}

func TestStoreOverFileStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(dir, "http://feed.test")
	require.NoError(t, err)
	ctx := context.Background()
	p, err := NewStore(fs).Publish(ctx, PublishRequest{PNG: []byte("img"), Handle: "carol"})
	require.NoError(t, err)

	reopened, err := NewFileStore(dir, "http://feed.test")
	require.NoError(t, err)
	got, err := NewStore(reopened).FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "carol", got.TwitterHandle)
}
