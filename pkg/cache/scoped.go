package cache

// ScopedKeyer prefixes the keys of another Keyer, so that several exporters
// can share one cache directory without seeing each other's entries.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "docs-")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or a [DefaultKeyer] when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// ArtifactKey returns the inner key with the prefix prepended.
func (k *ScopedKeyer) ArtifactKey(source []byte, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(source, opts)
}
