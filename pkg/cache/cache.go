// Package cache stores rendered graph artifacts so that re-rendering an
// unchanged graph does not go back to the layout engine.
//
// [FileCache] keeps each artifact as a plain file holding the rendered
// bytes, with an optional sidecar recording when it expires. Keys are
// produced by a [Keyer] from the graph's DOT source and the options that
// affect the output bytes. A nil [Cache] means caching is off.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Cache is a byte store with optional expiry.
//
// Get reports a miss as (nil, false, nil); an error is reserved for failures
// of the backend itself.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// ArtifactKeyOpts are the render options that change the output bytes.
type ArtifactKeyOpts struct {
	Format string
	Layout string
}

// Keyer derives cache keys.
type Keyer interface {
	// ArtifactKey returns the key for the artifact rendered from the DOT
	// source with opts.
	ArtifactKey(source []byte, opts ArtifactKeyOpts) string
}

// DefaultKeyer produces keys of the form "<sha256>.<format>", where the
// digest covers the source, the format and the layout.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ArtifactKey hashes source together with the options.
func (DefaultKeyer) ArtifactKey(source []byte, opts ArtifactKeyOpts) string {
	h := sha256.New()
	h.Write(source)
	h.Write([]byte{0})
	h.Write([]byte(opts.Format))
	h.Write([]byte{0})
	h.Write([]byte(opts.Layout))
	key := hex.EncodeToString(h.Sum(nil))
	if opts.Format != "" {
		key += "." + strings.ToLower(opts.Format)
	}
	return key
}
