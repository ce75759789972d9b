package cache

// ScopedKeyer wraps a Keyer with a prefix so separate contexts get
// separate cache namespaces. The main use is keeping distinct recipe
// search paths from sharing entries when backends are shared, e.g. one
// Redis instance serving several cook hosts.
//
// Example usage:
//
//	// Host-specific keys on a shared backend
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "host:build01:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// CatalogKey generates a prefixed key for a scanned catalog.
func (k *ScopedKeyer) CatalogKey(roots []string, opts CatalogKeyOpts) string {
	return k.prefix + k.inner.CatalogKey(roots, opts)
}

// ResolveKey generates a prefixed key for a resolve result.
func (k *ScopedKeyer) ResolveKey(request string, opts ResolveKeyOpts) string {
	return k.prefix + k.inner.ResolveKey(request, opts)
}
