package catalog

import (
	"context"

	"github.com/cooktop/cooktop/pkg/cache"
)

// LoadOptions configures cached catalog loading.
type LoadOptions struct {
	// Cache and Keyer select the backend; a nil Cache disables caching.
	Cache cache.Cache
	Keyer cache.Keyer

	// Roots and IncludeInstalled identify the scan for cache keying.
	// They must match what the provider will actually scan.
	Roots            []string
	IncludeInstalled bool

	// Refresh bypasses the cached copy but still stores the fresh scan.
	Refresh bool
}

// Load returns the catalog for the given provider, consulting the cache
// first. The second return reports whether the catalog came from cache.
//
// Cache failures never fail the load: a corrupt or unreachable cache
// falls back to a fresh scan.
func Load(ctx context.Context, p Provider, opts LoadOptions) (*Catalog, bool, error) {
	store := opts.Cache
	if store == nil {
		c, err := p.Scan(ctx)
		return c, false, err
	}
	keyer := opts.Keyer
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	key := keyer.CatalogKey(opts.Roots, cache.CatalogKeyOpts{
		IncludeInstalled: opts.IncludeInstalled,
	})

	if !opts.Refresh {
		if data, found, err := store.Get(ctx, key); err == nil && found {
			if c, err := Decode(data); err == nil {
				return c, true, nil
			}
			// Corrupt entry, drop it and rescan.
			_ = store.Delete(ctx, key)
		}
	}

	c, err := p.Scan(ctx)
	if err != nil {
		return nil, false, err
	}
	if data, err := c.Encode(); err == nil {
		_ = store.Set(ctx, key, data, cache.TTLCatalog)
	}
	return c, false, nil
}
