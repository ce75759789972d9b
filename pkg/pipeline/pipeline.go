// Package pipeline drives a full cook run: load the catalog, resolve
// the request, split the selection, and cook what is missing. Both the
// CLI and embedding callers use it so caching and instrumentation live
// in one place.
package pipeline

import (
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/cooktop/cooktop/pkg/dag"
	"github.com/cooktop/cooktop/pkg/errors"
	"github.com/cooktop/cooktop/pkg/recipe"
	"github.com/cooktop/cooktop/pkg/resolver"
)

// Options configures one pipeline run.
type Options struct {
	// Request is the package to resolve, e.g. "usd" or "usd-22.05".
	Request string

	// Constraints are extra requests narrowing the resolve, e.g.
	// "python-3.9". The platform defaults are appended unless already
	// constrained.
	Constraints []string

	// NoPlatformDefaults disables the implicit platform-<os> and
	// arch-<goarch> constraints.
	NoPlatformDefaults bool

	// RecipeRoots are the recipe repositories to scan.
	RecipeRoots []string

	// InstallRoot is the installed-packages tree. Installed packages
	// satisfy requirements without cooking.
	InstallRoot string

	// Refresh bypasses cached catalog scans and resolve results.
	Refresh bool

	// parsed forms, filled by ValidateAndSetDefaults.
	request     recipe.Request
	constraints *recipe.ConstraintSet
}

// ValidateAndSetDefaults parses the textual request and constraints and
// applies defaults. It must be called before Execute; Execute calls it
// for you.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Request == "" {
		return errors.New(errors.ErrCodeInvalidRequest, "no package requested")
	}
	req, err := recipe.ParseRequest(o.Request)
	if err != nil {
		return err
	}
	o.request = req

	texts := o.Constraints
	if !o.NoPlatformDefaults {
		texts = append(platformDefaults(), texts...)
	}
	set, err := recipe.ParseConstraintSet(texts...)
	if err != nil {
		return err
	}
	o.constraints = set

	if len(o.RecipeRoots) == 0 {
		if home, err := os.UserHomeDir(); err == nil {
			o.RecipeRoots = []string{filepath.Join(home, "recipes")}
		}
	}
	if o.InstallRoot == "" {
		if home, err := os.UserHomeDir(); err == nil {
			o.InstallRoot = filepath.Join(home, "packages")
		}
	}
	return nil
}

// platformDefaults seeds the requested variant with the host platform,
// mirroring what a recipe's variant tuple constrains on.
func platformDefaults() []string {
	return []string{
		"platform-" + runtime.GOOS,
		"arch-" + runtime.GOARCH,
	}
}

// Stats captures per-stage timing for logs and tooling.
type Stats struct {
	CatalogTime time.Duration
	ResolveTime time.Duration
	RecipeCount int // recipes in the catalog
}

// CacheInfo reports which stages were served from cache.
type CacheInfo struct {
	CatalogHit bool
	ResolveHit bool
}

// Result is a completed resolution, ready to display or cook.
type Result struct {
	// RunID uniquely identifies this run; it keys the staging area.
	RunID string

	// Resolution is the raw resolver output.
	Resolution *resolver.Result

	// Selection is the resolution split into installed and to-cook.
	Selection *resolver.Selection

	// Graph is the selection as a dependency graph, for export.
	Graph *dag.Graph

	Stats     Stats
	CacheInfo CacheInfo
}
