package feed

import (
	"context"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestStore(t *testing.T, opts ...StoreOption) (*Store, *MemoryStore) {
	t.Helper()
	blobs := NewMemoryStore("http://feed.test")
	clock := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	n := 0
	base := []StoreOption{
		WithClock(clock.now),
		WithPostIDs(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
	}
	return NewStore(blobs, append(base, opts...)...), blobs
}

var png = []byte("\x89PNG fake")

func TestReadAllMissingDocumentIsEmpty(t *testing.T) {
	s, _ := newTestStore(t)
	posts, err := s.ReadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestReadAllRejectsCorruptDocument(t *testing.T) {
	s, blobs := newTestStore(t)
	ctx := context.Background()
	_, err := blobs.Put(ctx, MetadataKey, []byte("{not json"), "application/json")
	require.NoError(t, err)
	_, err = s.ReadAll(ctx)
	assert.Error(t, err)
}

func TestPublishRemovesBlobWhenMetadataFails(t *testing.T) {
	s, blobs := newTestStore(t)
	ctx := context.Background()
	_, err := blobs.Put(ctx, MetadataKey, []byte("{not json"), "application/json")
	require.NoError(t, err)

	_, err = s.Publish(ctx, PublishRequest{PNG: png, Caps: 1})
	require.Error(t, err)
	for key := range blobs.blobs {
		assert.Equal(t, MetadataKey, key, "no image blob should remain")
	}
}

func TestPublishPrependsAndStoresBlob(t *testing.T) {
	s, blobs := newTestStore(t)
	ctx := context.Background()

	first, err := s.Publish(ctx, PublishRequest{PNG: png, Caps: 2, Handle: "@Alice"})
	require.NoError(t, err)
	second, err := s.Publish(ctx, PublishRequest{PNG: png, Caps: 1})
	require.NoError(t, err)

	assert.Equal(t, "Alice", first.TwitterHandle)
	assert.Equal(t, fmt.Sprintf("http://feed.test/blobs/cap-creation-%d.png", first.Timestamp.UnixMilli()), first.URL)
	stored, err := blobs.Get(ctx, first.BlobKey)
	require.NoError(t, err)
	assert.Equal(t, png, stored)

	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID, "most recent first")
	assert.Equal(t, first.ID, all[1].ID)
	assert.Equal(t, 0, all[0].Likes)
	assert.NotNil(t, all[0].Comments)
}

func TestPublishRejectsEmptyImage(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Publish(context.Background(), PublishRequest{})
	assert.ErrorIs(t, err, ErrEmptyImage)
}

func TestPublishCapsDocument(t *testing.T) {
	s, _ := newTestStore(t, WithMaxPosts(3))
	ctx := context.Background()
	var ids []string
	for i := 0; i < 5; i++ {
		p, err := s.Publish(ctx, PublishRequest{PNG: png, Caps: i})
		require.NoError(t, err)
		ids = append(ids, p.ID)
	}
	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{ids[4], ids[3], ids[2]}, []string{all[0].ID, all[1].ID, all[2].ID})
}

func TestDefaultCapIsHundred(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	posts := make([]Post, DefaultMaxPosts)
	for i := range posts {
		posts[i] = Post{ID: fmt.Sprintf("old-%d", i)}
	}
	require.NoError(t, s.WriteAll(ctx, posts))
	_, err := s.Publish(ctx, PublishRequest{PNG: png})
	require.NoError(t, err)
	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, DefaultMaxPosts)
	assert.Equal(t, "old-98", all[len(all)-1].ID)
}

func TestListRecent(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	for i := 0; i < 8; i++ {
		_, err := s.Publish(ctx, PublishRequest{PNG: png})
		require.NoError(t, err)
	}
	recent, err := s.ListRecent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, recent, DefaultRecent)
	recent, err = s.ListRecent(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, recent, 3)
	recent, err = s.ListRecent(ctx, 50)
	require.NoError(t, err)
	assert.Len(t, recent, 8)
}

func TestFindByID(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	p, err := s.Publish(ctx, PublishRequest{PNG: png, Caps: 3})
	require.NoError(t, err)

	got, err := s.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Caps)

	_, err = s.FindByID(ctx, "nope")
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestToggleLikeOnlyIncrements(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	p, err := s.Publish(ctx, PublishRequest{PNG: png})
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		got, err := s.ToggleLike(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, i, got.Likes)
	}
	_, err = s.ToggleLike(ctx, "missing")
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestAddComment(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	p, err := s.Publish(ctx, PublishRequest{PNG: png})
	require.NoError(t, err)

	c, err := s.AddComment(ctx, p.ID, "  nice cap  ", "")
	require.NoError(t, err)
	assert.Equal(t, "nice cap", c.Text)
	assert.Empty(t, c.Author)

	_, err = s.AddComment(ctx, p.ID, "second", "bob")
	require.NoError(t, err)

	got, err := s.FindByID(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, got.Comments, 2)
	assert.Equal(t, "bob", got.Comments[1].Author)

	_, err = s.AddComment(ctx, p.ID, "   ", "bob")
	assert.ErrorIs(t, err, ErrEmptyComment)
	_, err = s.AddComment(ctx, "missing", "hi", "")
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestProfileAndUsers(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	oldest, err := s.Publish(ctx, PublishRequest{PNG: png, Handle: "alice"})
	require.NoError(t, err)
	_, err = s.Publish(ctx, PublishRequest{PNG: png, Handle: "zed"})
	require.NoError(t, err)
	newest, err := s.Publish(ctx, PublishRequest{PNG: png, Handle: "@alice"})
	require.NoError(t, err)
	_, err = s.Publish(ctx, PublishRequest{PNG: png})
	require.NoError(t, err)
	_, err = s.ToggleLike(ctx, oldest.ID)
	require.NoError(t, err)
	_, err = s.ToggleLike(ctx, newest.ID)
	require.NoError(t, err)
	_, err = s.ToggleLike(ctx, newest.ID)
	require.NoError(t, err)

	prof, err := s.Profile(ctx, "@ALICE")
	require.NoError(t, err)
	assert.Equal(t, "ALICE", prof.Handle)
	assert.Equal(t, 2, prof.TotalCreations)
	assert.Equal(t, 3, prof.TotalLikes)
	assert.True(t, prof.JoinedDate.Equal(oldest.Timestamp))
	assert.Equal(t, newest.ID, prof.Posts[0].ID)

	_, err = s.Profile(ctx, "nobody")
	assert.ErrorIs(t, err, ErrProfileNotFound)

	users, err := s.Users(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "zed"}, users)
}

func TestNormalizeHandle(t *testing.T) {
	assert.Equal(t, "bob", NormalizeHandle(" @bob "))
	assert.Equal(t, "", NormalizeHandle("@"))
	assert.Equal(t, "b@b", NormalizeHandle("b@b"))
}

func TestShareURL(t *testing.T) {
	link := ShareURL("https://capstayson.fun/", "abc 1")
	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "twitter.com", u.Host)
	assert.Equal(t, "/intent/tweet", u.Path)
	assert.Equal(t, "#CapStaysOn - capstayson.fun", u.Query().Get("text"))
	assert.Equal(t, "https://capstayson.fun/post/abc%201", u.Query().Get("url"))
}
