package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/cooktop/cooktop/pkg/build"
	"github.com/cooktop/cooktop/pkg/cache"
	"github.com/cooktop/cooktop/pkg/catalog"
	"github.com/cooktop/cooktop/pkg/observability"
	"github.com/cooktop/cooktop/pkg/recipe"
	"github.com/cooktop/cooktop/pkg/resolver"
)

// Runner executes the resolve pipeline with caching. It is stateless
// apart from the cache and logger; one Runner can serve many runs.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// A nil keyer gets the default keyer; a nil cache disables caching.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Execute loads the catalog, resolves the request, and splits the
// selection. Nothing is cooked; that is a separate, explicit step so
// callers can confirm the selection first.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{RunID: uuid.NewString()}

	// Stage 1: catalog.
	catalogStart := time.Now()
	observability.Resolve().OnCatalogLoadStart(ctx, opts.RecipeRoots)

	provider := &catalog.DirProvider{
		RecipeRoots: opts.RecipeRoots,
		InstallRoot: opts.InstallRoot,
	}
	cat, catalogHit, err := catalog.Load(ctx, provider, catalog.LoadOptions{
		Cache:            r.Cache,
		Keyer:            r.Keyer,
		Roots:            opts.RecipeRoots,
		IncludeInstalled: opts.InstallRoot != "",
		Refresh:          opts.Refresh,
	})
	result.Stats.CatalogTime = time.Since(catalogStart)
	observability.Resolve().OnCatalogLoadComplete(ctx, opts.RecipeRoots,
		catalogCount(cat), catalogHit, result.Stats.CatalogTime, err)
	if err != nil {
		return nil, err
	}
	result.Stats.RecipeCount = cat.Len()
	result.CacheInfo.CatalogHit = catalogHit
	noteCache(ctx, "catalog", catalogHit)

	r.Logger.Info("loaded catalog",
		"recipes", cat.Len(),
		"cached", catalogHit,
		"duration", result.Stats.CatalogTime)

	// Stage 2: resolve.
	resolveStart := time.Now()
	observability.Resolve().OnResolveStart(ctx, opts.Request)

	res, sel, resolveHit := r.cachedResolve(ctx, cat, opts)
	if res == nil {
		res, err = resolver.New(cat).Resolve(opts.request, opts.constraints)
		if err == nil {
			sel, err = resolver.Split(res)
		}
		if err == nil {
			r.storeResolve(ctx, cat, opts, res)
		}
	}
	result.Stats.ResolveTime = time.Since(resolveStart)
	observability.Resolve().OnResolveComplete(ctx, opts.Request,
		resolvedCount(res), result.Stats.ResolveTime, err)
	if err != nil {
		return nil, err
	}
	result.Resolution = res
	result.Selection = sel
	result.CacheInfo.ResolveHit = resolveHit
	noteCache(ctx, "resolve", resolveHit)

	result.Graph, err = resolver.Graph(res, sel)
	if err != nil {
		return nil, err
	}

	r.Logger.Info("resolved",
		"request", opts.Request,
		"packages", len(res.Names),
		"to_cook", len(sel.ToCook),
		"cached", resolveHit,
		"duration", result.Stats.ResolveTime)

	return result, nil
}

// CookAll cooks every to-cook recipe in selection order.
func (r *Runner) CookAll(ctx context.Context, result *Result, exec *build.Executor) error {
	for _, rec := range result.Selection.ToCook {
		start := time.Now()
		observability.Cook().OnCookStart(ctx, rec.Pkg.String())
		err := exec.Cook(ctx, rec, result.RunID)
		observability.Cook().OnCookComplete(ctx, rec.Pkg.String(), time.Since(start), err)
		if err != nil {
			return err
		}
		r.Logger.Info("cooked", "pkg", rec.Pkg.String(), "duration", time.Since(start))
	}
	return nil
}

// cachedResolveEntry is the serialized form of a resolve result. Only
// identities are stored; recipes are re-materialized from the catalog
// on load, so a catalog change invalidates entries via the key's hash.
type cachedResolveEntry struct {
	Names       []string     `json:"names"`
	Picks       []cachedPick `json:"picks"`
	Constraints []string     `json:"constraints"`
}

type cachedPick struct {
	Pkg       string   `json:"pkg"`
	Variant   []string `json:"variant,omitempty"`
	Installed bool     `json:"installed,omitempty"`
}

func (r *Runner) resolveKey(cat *catalog.Catalog, opts Options) string {
	texts := make([]string, 0, opts.constraints.Len())
	for _, req := range opts.constraints.Requests() {
		texts = append(texts, req.String())
	}
	return r.Keyer.ResolveKey(opts.Request, cache.ResolveKeyOpts{
		Constraints: texts,
		CatalogHash: cat.Hash(),
	})
}

// cachedResolve tries to rebuild a previous resolution. Any mismatch
// against the live catalog is treated as a miss.
func (r *Runner) cachedResolve(ctx context.Context, cat *catalog.Catalog, opts Options) (*resolver.Result, *resolver.Selection, bool) {
	if opts.Refresh {
		return nil, nil, false
	}
	data, found, err := r.Cache.Get(ctx, r.resolveKey(cat, opts))
	if err != nil || !found {
		return nil, nil, false
	}
	var entry cachedResolveEntry
	if json.Unmarshal(data, &entry) != nil {
		return nil, nil, false
	}

	constraints, err := recipe.ParseConstraintSet(entry.Constraints...)
	if err != nil {
		return nil, nil, false
	}
	res := &resolver.Result{
		Request:     opts.request,
		Candidates:  make(map[recipe.Name][]*recipe.Recipe, len(entry.Picks)),
		Constraints: constraints,
	}
	for i, pick := range entry.Picks {
		if i >= len(entry.Names) {
			return nil, nil, false
		}
		name := recipe.Name(entry.Names[i])
		rec := findRecipe(cat, name, pick)
		if rec == nil {
			return nil, nil, false
		}
		res.Names = append(res.Names, name)
		res.Candidates[name] = []*recipe.Recipe{rec}
	}

	sel, err := resolver.Split(res)
	if err != nil {
		return nil, nil, false
	}
	return res, sel, true
}

// storeResolve persists pick identities. The declared (catalog) form
// of each pick is stored, not the variant-expanded one the selection
// carries, so reconstruction can match recipes against the live
// catalog; Split re-expands the variants on load.
func (r *Runner) storeResolve(ctx context.Context, cat *catalog.Catalog, opts Options, res *resolver.Result) {
	entry := cachedResolveEntry{}
	for _, req := range res.Constraints.Requests() {
		entry.Constraints = append(entry.Constraints, req.String())
	}
	for _, name := range res.Names {
		var rec *recipe.Recipe
		for _, cand := range res.Candidates[name] {
			if cand.ConflictsWithSet(res.Constraints) == "" {
				rec = cand
				break
			}
		}
		if rec == nil {
			return
		}
		entry.Names = append(entry.Names, string(name))
		entry.Picks = append(entry.Picks, cachedPick{
			Pkg:       rec.Pkg.String(),
			Variant:   variantStrings(rec),
			Installed: rec.Installed,
		})
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	key := r.resolveKey(cat, opts)
	if r.Cache.Set(ctx, key, data, cache.TTLResolve) == nil {
		observability.Cache().OnCacheSet(ctx, "resolve", len(data))
	}
}

func findRecipe(cat *catalog.Catalog, name recipe.Name, pick cachedPick) *recipe.Recipe {
	want, err := recipe.ParseConstraintSet(pick.Variant...)
	if err != nil {
		return nil
	}
	for _, rec := range cat.Lookup(name) {
		if rec.Pkg.String() == pick.Pkg &&
			rec.Installed == pick.Installed &&
			rec.Variant.String() == want.String() {
			return rec
		}
	}
	return nil
}

func variantStrings(rec *recipe.Recipe) []string {
	reqs := rec.Variant.Requests()
	out := make([]string, len(reqs))
	for i, req := range reqs {
		out[i] = req.String()
	}
	return out
}

func noteCache(ctx context.Context, keyType string, hit bool) {
	if hit {
		observability.Cache().OnCacheHit(ctx, keyType)
	} else {
		observability.Cache().OnCacheMiss(ctx, keyType)
	}
}

func catalogCount(cat *catalog.Catalog) int {
	if cat == nil {
		return 0
	}
	return cat.Len()
}

func resolvedCount(res *resolver.Result) int {
	if res == nil {
		return 0
	}
	return len(res.Names)
}
