package feed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	// ErrBlobNotFound is returned by BlobStore.Get for unknown keys.
	ErrBlobNotFound = errors.New("feed: blob not found")
	// ErrInvalidKey rejects keys that are empty or contain path elements.
	ErrInvalidKey = errors.New("feed: invalid blob key")
)

// BlobStore keeps opaque byte blobs under flat keys.
type BlobStore interface {
	// Put stores data under key and returns the public URL it is served at.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
}

// BlobDeleter is implemented by stores that can remove a blob. Deleting a
// missing key is not an error.
type BlobDeleter interface {
	Delete(ctx context.Context, key string) error
}

// ValidKey reports whether key is usable as a blob name.
func ValidKey(key string) bool {
	if key == "" || key == "." || key == ".." {
		return false
	}
	return !strings.ContainsAny(key, `/\`) && !strings.ContainsRune(key, 0)
}

func checkKey(key string) error {
	if !ValidKey(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

func blobURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/blobs/" + key
}

// MemoryStore is an in-process BlobStore.
type MemoryStore struct {
	baseURL string
	mu      sync.RWMutex
	blobs   map[string][]byte
}

// NewMemoryStore returns an empty store whose URLs start with baseURL.
func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{baseURL: baseURL, blobs: map[string][]byte{}}
}

func (m *MemoryStore) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	if err := checkKey(key); err != nil {
		return "", err
	}
	m.mu.Lock()
	m.blobs[key] = append([]byte(nil), data...)
	m.mu.Unlock()
	return blobURL(m.baseURL, key), nil
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.blobs[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBlobNotFound, key)
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.blobs, key)
	m.mu.Unlock()
	return nil
}

// FileStore keeps blobs as files in one directory.
type FileStore struct {
	dir     string
	baseURL string
}

// NewFileStore creates dir if needed and returns a store over it.
func NewFileStore(dir, baseURL string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create feed dir: %w", err)
	}
	return &FileStore{dir: dir, baseURL: baseURL}, nil
}

// Dir returns the directory blobs are written to.
func (f *FileStore) Dir() string { return f.dir }

// Put writes to a temporary file and renames it into place so readers never
// observe a partial blob.
func (f *FileStore) Put(ctx context.Context, key string, data []byte, _ string) (string, error) {
	if err := checkKey(key); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(f.dir, "."+key+".*")
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	if err := os.Rename(tmpName, filepath.Join(f.dir, key)); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return blobURL(f.baseURL, key), nil
}

func (f *FileStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(f.dir, key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrBlobNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return data, nil
}

func (f *FileStore) Delete(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(f.dir, key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
