// Package cache provides the caching layer used to avoid rescanning
// recipe trees and re-resolving unchanged requests. Backends share a
// small byte-oriented interface; keys are produced by a Keyer so every
// caller builds them the same way.
package cache

import (
	"context"
	"time"
)

// Default TTLs per cached object kind. Catalog scans go stale when
// recipes are added, so they expire quickly; resolve results are pure
// functions of the catalog and can live longer.
const (
	TTLCatalog = 15 * time.Minute
	TTLResolve = 24 * time.Hour
)

// Cache is the backend interface. Implementations must be safe for
// concurrent use.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key
	// was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL. A zero TTL means the entry
	// never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// CatalogKeyOpts captures everything that changes the result of a
// catalog scan besides the scanned roots.
type CatalogKeyOpts struct {
	// IncludeInstalled reports whether the installed-package tree was
	// merged into the scan.
	IncludeInstalled bool
}

// ResolveKeyOpts captures the inputs of a resolve besides the request
// itself.
type ResolveKeyOpts struct {
	// Constraints are the initial constraint strings, in request order.
	Constraints []string

	// CatalogHash fingerprints the catalog the resolve ran against, so
	// a rescanned catalog invalidates cached results.
	CatalogHash string
}

// Keyer generates cache keys. Implementations must be deterministic:
// the same inputs always produce the same key.
type Keyer interface {
	// CatalogKey generates a key for a scanned catalog.
	CatalogKey(roots []string, opts CatalogKeyOpts) string

	// ResolveKey generates a key for a resolve result.
	ResolveKey(request string, opts ResolveKeyOpts) string
}

// DefaultKeyer is the standard key generator. Keys are
// "<kind>:<sha256 of the inputs>".
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// CatalogKey generates a key for a scanned catalog.
func (k *DefaultKeyer) CatalogKey(roots []string, opts CatalogKeyOpts) string {
	return hashKey("catalog", roots, opts.IncludeInstalled)
}

// ResolveKey generates a key for a resolve result.
func (k *DefaultKeyer) ResolveKey(request string, opts ResolveKeyOpts) string {
	return hashKey("resolve", request, opts.Constraints, opts.CatalogHash)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
