package feed

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// RedisStore keeps blobs as plain redis strings under a key prefix so
// several feed processes can share one metadata document.
type RedisStore struct {
	client  *redis.Client
	prefix  string
	baseURL string
}

// RedisConfig configures NewRedisStore.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// NewRedisStore connects lazily to the server described by cfg.
func NewRedisStore(cfg RedisConfig, baseURL string) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return NewRedisStoreWithClient(client, cfg.Prefix, baseURL)
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, prefix, baseURL string) *RedisStore {
	if prefix == "" {
		prefix = "capstayson:"
	}
	return &RedisStore{client: client, prefix: prefix, baseURL: baseURL}
}

// Ping checks the connection.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := checkKey(key); err != nil {
		return "", err
	}
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, r.prefix+"blob:"+key, data, 0)
		if contentType != "" {
			p.Set(ctx, r.prefix+"type:"+key, contentType, 0)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return blobURL(r.baseURL, key), nil
}

func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	data, err := r.client.Get(ctx, r.prefix+"blob:"+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrBlobNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return data, nil
}

// Close releases the client's connections.
func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if err := r.client.Del(ctx, r.prefix+"blob:"+key, r.prefix+"type:"+key).Err(); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (r *RedisStore) Close() error { return r.client.Close() }
