package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// MetadataKey names the JSON document listing every post.
	MetadataKey = "feed-metadata.json"
	// DefaultMaxPosts caps the document; older posts fall off the end.
	DefaultMaxPosts = 100
	// DefaultRecent is how many posts ListRecent returns for n <= 0.
	DefaultRecent = 6
)

var (
	ErrPostNotFound    = errors.New("feed: post not found")
	ErrProfileNotFound = errors.New("feed: profile not found")
	ErrEmptyComment    = errors.New("feed: comment is empty")
	ErrEmptyImage      = errors.New("feed: image is empty")
)

// Store keeps the post list in a single metadata document inside a
// BlobStore. Read-modify-write cycles are serialised within a process;
// across processes the last writer wins.
type Store struct {
	blobs BlobStore
	log   *zap.Logger
	max   int
	now   func() time.Time
	newID func() string

	mu       sync.Mutex
	lastBlob int64
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithMaxPosts overrides DefaultMaxPosts.
func WithMaxPosts(n int) StoreOption {
	return func(s *Store) {
		if n > 0 {
			s.max = n
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) StoreOption { return func(s *Store) { s.now = now } }

// WithPostIDs replaces the uuid generator for post and comment ids.
func WithPostIDs(fn func() string) StoreOption { return func(s *Store) { s.newID = fn } }

// WithStoreLogger sets the logger.
func WithStoreLogger(l *zap.Logger) StoreOption { return func(s *Store) { s.log = l } }

// NewStore returns a Store over blobs.
func NewStore(blobs BlobStore, opts ...StoreOption) *Store {
	s := &Store{
		blobs: blobs,
		log:   zap.NewNop(),
		max:   DefaultMaxPosts,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Blobs returns the underlying blob store.
func (s *Store) Blobs() BlobStore { return s.blobs }

// ReadAll returns every post, most recent first. A missing document is an
// empty feed.
func (s *Store) ReadAll(ctx context.Context) ([]Post, error) {
	data, err := s.blobs.Get(ctx, MetadataKey)
	if errors.Is(err, ErrBlobNotFound) {
		return []Post{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read feed metadata: %w", err)
	}
	var posts []Post
	if err := json.Unmarshal(data, &posts); err != nil {
		return nil, fmt.Errorf("parse feed metadata: %w", err)
	}
	if posts == nil {
		posts = []Post{}
	}
	return posts, nil
}

// WriteAll replaces the document with posts.
func (s *Store) WriteAll(ctx context.Context, posts []Post) error {
	data, err := json.Marshal(posts)
	if err != nil {
		return fmt.Errorf("encode feed metadata: %w", err)
	}
	if _, err := s.blobs.Put(ctx, MetadataKey, data, "application/json"); err != nil {
		return fmt.Errorf("write feed metadata: %w", err)
	}
	return nil
}

// update runs fn over the current posts under the store lock and writes
// the result back.
func (s *Store) update(ctx context.Context, fn func([]Post) ([]Post, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLocked(ctx, fn)
}

func (s *Store) updateLocked(ctx context.Context, fn func([]Post) ([]Post, error)) error {
	posts, err := s.ReadAll(ctx)
	if err != nil {
		return err
	}
	posts, err = fn(posts)
	if err != nil {
		return err
	}
	return s.WriteAll(ctx, posts)
}

// Publish stores the PNG as a new blob and prepends a post for it. The
// document is truncated to the configured maximum.
func (s *Store) Publish(ctx context.Context, req PublishRequest) (Post, error) {
	if len(req.PNG) == 0 {
		return Post{}, ErrEmptyImage
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	// Blob names carry the publish time in milliseconds; two publishes in
	// the same millisecond get consecutive stamps instead of colliding.
	stamp := now.UnixMilli()
	if stamp <= s.lastBlob {
		stamp = s.lastBlob + 1
	}
	s.lastBlob = stamp
	key := fmt.Sprintf("cap-creation-%d.png", stamp)
	link, err := s.blobs.Put(ctx, key, req.PNG, "image/png")
	if err != nil {
		return Post{}, fmt.Errorf("store image: %w", err)
	}
	caps := req.Caps
	if caps < 0 {
		caps = 0
	}
	post := Post{
		ID:            s.newID(),
		URL:           link,
		BlobKey:       key,
		Timestamp:     now,
		Caps:          caps,
		Comments:      []Comment{},
		TwitterHandle: NormalizeHandle(req.Handle),
	}
	err = s.updateLocked(ctx, func(posts []Post) ([]Post, error) {
		posts = append([]Post{post}, posts...)
		if len(posts) > s.max {
			posts = posts[:s.max]
		}
		return posts, nil
	})
	if err != nil {
		s.dropBlob(ctx, key)
		return Post{}, err
	}
	s.log.Info("published post",
		zap.String("id", post.ID),
		zap.String("blob", key),
		zap.Int("caps", post.Caps),
		zap.String("handle", post.TwitterHandle))
	return post, nil
}

// dropBlob removes a blob no post refers to. Stores that cannot delete
// leave it behind and the key is logged.
func (s *Store) dropBlob(ctx context.Context, key string) {
	d, ok := s.blobs.(BlobDeleter)
	if !ok {
		s.log.Warn("orphaned blob", zap.String("blob", key))
		return
	}
	if err := d.Delete(context.WithoutCancel(ctx), key); err != nil {
		s.log.Warn("orphaned blob", zap.String("blob", key), zap.Error(err))
	}
}

// ListAll returns every post, most recent first.
func (s *Store) ListAll(ctx context.Context) ([]Post, error) { return s.ReadAll(ctx) }

// ListRecent returns at most n posts, DefaultRecent when n <= 0.
func (s *Store) ListRecent(ctx context.Context, n int) ([]Post, error) {
	if n <= 0 {
		n = DefaultRecent
	}
	posts, err := s.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(posts) > n {
		posts = posts[:n]
	}
	return posts, nil
}

// FindByID returns the post with id.
func (s *Store) FindByID(ctx context.Context, id string) (Post, error) {
	posts, err := s.ReadAll(ctx)
	if err != nil {
		return Post{}, err
	}
	for _, p := range posts {
		if p.ID == id {
			return p, nil
		}
	}
	return Post{}, fmt.Errorf("%w: %s", ErrPostNotFound, id)
}

func indexOf(posts []Post, id string) int {
	for i := range posts {
		if posts[i].ID == id {
			return i
		}
	}
	return -1
}

// ToggleLike adds one like to the post. Likes are never removed.
func (s *Store) ToggleLike(ctx context.Context, id string) (Post, error) {
	var out Post
	err := s.update(ctx, func(posts []Post) ([]Post, error) {
		i := indexOf(posts, id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrPostNotFound, id)
		}
		posts[i].Likes++
		out = posts[i]
		return posts, nil
	})
	return out, err
}

// AddComment appends a comment to the post. Text is trimmed and must not be
// empty; author is optional.
func (s *Store) AddComment(ctx context.Context, id, text, author string) (Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Comment{}, ErrEmptyComment
	}
	c := Comment{
		ID:        s.newID(),
		Text:      text,
		Author:    strings.TrimSpace(author),
		Timestamp: s.now().UTC(),
	}
	err := s.update(ctx, func(posts []Post) ([]Post, error) {
		i := indexOf(posts, id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrPostNotFound, id)
		}
		posts[i].Comments = append(posts[i].Comments, c)
		return posts, nil
	})
	if err != nil {
		return Comment{}, err
	}
	return c, nil
}

// Profile aggregates the posts whose handle matches, ignoring case.
func (s *Store) Profile(ctx context.Context, handle string) (Profile, error) {
	handle = NormalizeHandle(handle)
	posts, err := s.ReadAll(ctx)
	if err != nil {
		return Profile{}, err
	}
	p := Profile{Handle: handle, Posts: []Post{}}
	for _, post := range posts {
		if post.TwitterHandle == "" || !strings.EqualFold(post.TwitterHandle, handle) {
			continue
		}
		p.Posts = append(p.Posts, post)
		p.TotalLikes += post.Likes
	}
	if len(p.Posts) == 0 {
		return Profile{}, fmt.Errorf("%w: %s", ErrProfileNotFound, handle)
	}
	p.TotalCreations = len(p.Posts)
	p.JoinedDate = p.Posts[len(p.Posts)-1].Timestamp
	return p, nil
}

// Users returns the distinct handles that have posted, sorted.
func (s *Store) Users(ctx context.Context) ([]string, error) {
	posts, err := s.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	users := []string{}
	for _, p := range posts {
		if p.TwitterHandle == "" || seen[p.TwitterHandle] {
			continue
		}
		seen[p.TwitterHandle] = true
		users = append(users, p.TwitterHandle)
	}
	sort.Strings(users)
	return users, nil
}

// NormalizeHandle trims whitespace and a leading '@'.
func NormalizeHandle(h string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(h), "@"))
}

// ShareTag is the hashtag used in share links.
const ShareTag = "#CapStaysOn"

// ShareURL builds a tweet intent linking to the post's page on site.
func ShareURL(site, postID string) string {
	site = strings.TrimRight(site, "/")
	host := site
	if u, err := url.Parse(site); err == nil && u.Host != "" {
		host = u.Host
	}
	q := url.Values{}
	q.Set("text", ShareTag+" - "+host)
	q.Set("url", site+"/post/"+url.PathEscape(postID))
	return "https://twitter.com/intent/tweet?" + q.Encode()
}
