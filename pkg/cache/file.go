package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const expirySuffix = ".expires"

// FileCache keeps artifacts as files under a directory.
//
// An entry is the file named by its key, holding the artifact bytes
// unchanged, so a cached PNG is itself a valid PNG. An entry stored with a
// TTL also has a "<key>.expires" sidecar holding the expiry time in
// RFC 3339 form. Files are written to a uniquely named temporary file and
// renamed into place, so a reader never observes a partial artifact.
type FileCache struct {
	dir string
}

// NewFileCache creates a file cache in dir, creating the directory if
// needed.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir}, nil
}

// Get returns the artifact stored under key. Expired entries, and entries
// whose sidecar cannot be parsed, are removed and reported as misses.
func (c *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if !ValidKey(key) {
		return nil, false, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	path := c.path(key)

	expired, err := c.expired(path)
	if err != nil {
		return nil, false, err
	}
	if expired {
		c.remove(path)
		return nil, false, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// expired reads the sidecar of path. A missing sidecar never expires.
func (c *FileCache) expired(path string) (bool, error) {
	raw, err := os.ReadFile(path + expirySuffix)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	at, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(string(raw)))
	if err != nil {
		return true, nil
	}
	return time.Now().After(at), nil
}

// Set stores data under key. A positive ttl writes an expiry sidecar; zero
// removes any previous one.
func (c *FileCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if !ValidKey(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	path := c.path(key)

	if ttl > 0 {
		at := time.Now().Add(ttl).UTC().Format(time.RFC3339Nano)
		if err := c.writeAtomic(path+expirySuffix, []byte(at+"\n")); err != nil {
			return err
		}
	} else if err := os.Remove(path + expirySuffix); err != nil && !os.IsNotExist(err) {
		return err
	}
	return c.writeAtomic(path, data)
}

func (c *FileCache) writeAtomic(path string, data []byte) error {
	tmp := filepath.Join(c.dir, fmt.Sprintf(".%s.tmp", uuid.NewString()))
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// Delete removes the artifact and its sidecar. Deleting a missing key is
// not an error.
func (c *FileCache) Delete(ctx context.Context, key string) error {
	if !ValidKey(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	path := c.path(key)
	for _, p := range []string{path, path + expirySuffix} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// Close does nothing for a file cache.
func (c *FileCache) Close() error {
	return nil
}

func (c *FileCache) path(key string) string {
	return filepath.Join(c.dir, key)
}

func (c *FileCache) remove(path string) {
	_ = os.Remove(path)
	_ = os.Remove(path + expirySuffix)
}

var _ Cache = (*FileCache)(nil)
