package main

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/example/capstayson/assets"
	"github.com/example/capstayson/internal/config"
	"github.com/example/capstayson/internal/feed"
	"github.com/example/capstayson/internal/imageio"
)

const defaultSite = "http://localhost:8080"

// site is the public origin for blob URLs and share links.
func (r *root) site() string {
	if r.config.Feed.Site != "" {
		return r.config.Feed.Site
	}
	return defaultSite
}

// openFeed builds the feed store described by the [feed] section: redis
// when an address is configured, otherwise a directory on disk.
func (r *root) openFeed(ctx context.Context) (*feed.Store, func(), error) {
	fc := r.config.Feed
	var (
		blobs   feed.BlobStore
		closeFn = func() {}
	)
	if fc.RedisAddr != "" {
		rs := feed.NewRedisStore(feed.RedisConfig{
			Addr:     fc.RedisAddr,
			Password: fc.RedisPassword,
			DB:       fc.RedisDB,
		}, r.site())
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rs.Ping(pingCtx); err != nil {
			_ = rs.Close()
			return nil, nil, fmt.Errorf("connect to redis %s: %w", fc.RedisAddr, err)
		}
		blobs = rs
		closeFn = func() { _ = rs.Close() }
		r.log.Debug("feed backend", zap.String("redis", fc.RedisAddr))
	} else {
		dir := fc.Dir
		if dir == "" {
			dir = filepath.Join(config.ConfigDir(), "feed")
		}
		fs, err := feed.NewFileStore(dir, r.site())
		if err != nil {
			return nil, nil, err
		}
		blobs = fs
		r.log.Debug("feed backend", zap.String("dir", fs.Dir()))
	}
	store := feed.NewStore(blobs,
		feed.WithMaxPosts(fc.MaxPosts),
		feed.WithStoreLogger(r.log.Named("feed")))
	return store, closeFn, nil
}

// capImage returns the configured cap artwork, or the embedded one.
func (r *root) capImage() (image.Image, error) {
	if p := r.config.Editor.CapPath; p != "" {
		img, err := imageio.DecodeFile(p)
		if err != nil {
			return nil, fmt.Errorf("load cap: %w", err)
		}
		return img, nil
	}
	return assets.Cap()
}
