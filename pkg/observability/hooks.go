// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about resolution, cooking, and cache operations.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the core library dependency-free from observability frameworks
//   - Allows different backends (OpenTelemetry, Prometheus, DataDog, etc.)
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetResolveHooks(&myResolveHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Resolve().OnResolveStart(ctx, request)
//	// ... do resolution ...
//	observability.Resolve().OnResolveComplete(ctx, request, packageCount, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Resolve Hooks
// =============================================================================

// ResolveHooks receives events from dependency resolution.
type ResolveHooks interface {
	// Catalog events
	OnCatalogLoadStart(ctx context.Context, roots []string)
	OnCatalogLoadComplete(ctx context.Context, roots []string, recipeCount int, cached bool, duration time.Duration, err error)

	// Resolution events
	OnResolveStart(ctx context.Context, request string)
	OnResolveComplete(ctx context.Context, request string, packageCount int, duration time.Duration, err error)
}

// =============================================================================
// Cook Hooks
// =============================================================================

// CookHooks receives events from the build executor.
type CookHooks interface {
	// OnCookStart records the start of one recipe build.
	OnCookStart(ctx context.Context, pkg string)

	// OnCookComplete records the outcome of one recipe build.
	OnCookComplete(ctx context.Context, pkg string, duration time.Duration, err error)

	// OnFetch records a source download.
	OnFetch(ctx context.Context, url string, size int64, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopResolveHooks is a no-op implementation of ResolveHooks.
type NoopResolveHooks struct{}

func (NoopResolveHooks) OnCatalogLoadStart(context.Context, []string) {}
func (NoopResolveHooks) OnCatalogLoadComplete(context.Context, []string, int, bool, time.Duration, error) {
}
func (NoopResolveHooks) OnResolveStart(context.Context, string) {}
func (NoopResolveHooks) OnResolveComplete(context.Context, string, int, time.Duration, error) {
}

// NoopCookHooks is a no-op implementation of CookHooks.
type NoopCookHooks struct{}

func (NoopCookHooks) OnCookStart(context.Context, string)                          {}
func (NoopCookHooks) OnCookComplete(context.Context, string, time.Duration, error) {}
func (NoopCookHooks) OnFetch(context.Context, string, int64, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	resolveHooks ResolveHooks = NoopResolveHooks{}
	cookHooks    CookHooks    = NoopCookHooks{}
	cacheHooks   CacheHooks   = NoopCacheHooks{}
	hooksMu      sync.RWMutex
)

// SetResolveHooks registers custom resolve hooks.
// This should be called once at application startup before any resolution.
func SetResolveHooks(h ResolveHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		resolveHooks = h
	}
}

// SetCookHooks registers custom cook hooks.
// This should be called once at application startup before any builds.
func SetCookHooks(h CookHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cookHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Resolve returns the registered resolve hooks.
func Resolve() ResolveHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return resolveHooks
}

// Cook returns the registered cook hooks.
func Cook() CookHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cookHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	resolveHooks = NoopResolveHooks{}
	cookHooks = NoopCookHooks{}
	cacheHooks = NoopCacheHooks{}
}
