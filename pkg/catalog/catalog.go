// Package catalog indexes every recipe and installed package the
// resolver can choose from. A Catalog is built by a Provider (normally
// DirProvider scanning recipe and package trees) and is immutable once
// handed to the resolver.
package catalog

import (
	"encoding/json"
	"sort"

	"github.com/cooktop/cooktop/pkg/cache"
	"github.com/cooktop/cooktop/pkg/errors"
	"github.com/cooktop/cooktop/pkg/recipe"
	"github.com/cooktop/cooktop/pkg/version"
)

// Catalog holds all known recipes grouped by family name. Lookup order
// is the resolver's candidate preference: installed packages before
// cookable recipes, newer versions before older ones.
type Catalog struct {
	families map[recipe.Name][]*recipe.Recipe
	sorted   bool
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{families: make(map[recipe.Name][]*recipe.Recipe)}
}

// Add inserts a recipe into the catalog.
func (c *Catalog) Add(r *recipe.Recipe) {
	name := r.Name()
	c.families[name] = append(c.families[name], r)
	c.sorted = false
}

// Lookup returns every recipe of the family in candidate preference
// order. The returned slice is a read-only view; an unknown family
// yields nil.
func (c *Catalog) Lookup(name recipe.Name) []*recipe.Recipe {
	c.sort()
	return c.families[name]
}

// Families returns all family names in lexical order.
func (c *Catalog) Families() []recipe.Name {
	out := make([]recipe.Name, 0, len(c.families))
	for name := range c.families {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Len returns the total number of recipes across all families.
func (c *Catalog) Len() int {
	n := 0
	for _, rs := range c.families {
		n += len(rs)
	}
	return n
}

// sort orders each family installed-first, then by descending version.
// Ties keep insertion order, so scan order breaks exact-version ties.
func (c *Catalog) sort() {
	if c.sorted {
		return
	}
	for _, rs := range c.families {
		sort.SliceStable(rs, func(i, j int) bool {
			if rs[i].Installed != rs[j].Installed {
				return rs[i].Installed
			}
			vi, iok := rs[i].Pkg.Range.Lower()
			vj, jok := rs[j].Pkg.Range.Lower()
			if iok && jok {
				return vi.Compare(vj) > 0
			}
			return !iok && jok // unbounded ranges sort before bounded ones
		})
	}
	c.sorted = true
}

// record is the serialized form of one recipe, used for cache storage
// and catalog fingerprinting.
type record struct {
	Pkg           string        `json:"pkg"`
	Variant       []string      `json:"variant,omitempty"`
	Requires      []string      `json:"requires,omitempty"`
	BuildRequires []string      `json:"build_requires,omitempty"`
	Installed     bool          `json:"installed,omitempty"`
	Source        recipe.Source `json:"source,omitzero"`
	Build         recipe.Build  `json:"build,omitzero"`
	Dir           string        `json:"dir,omitempty"`
}

func setStrings(s *recipe.ConstraintSet) []string {
	reqs := s.Requests()
	out := make([]string, len(reqs))
	for i, req := range reqs {
		out[i] = req.String()
	}
	return out
}

// Encode serializes the catalog for cache storage. The encoding is
// deterministic: families in lexical order, recipes in lookup order.
func (c *Catalog) Encode() ([]byte, error) {
	c.sort()
	records := make([]record, 0, c.Len())
	for _, name := range c.Families() {
		for _, r := range c.families[name] {
			records = append(records, record{
				Pkg:           r.Pkg.String(),
				Variant:       setStrings(r.Variant),
				Requires:      setStrings(r.Requires),
				BuildRequires: setStrings(r.BuildRequires),
				Installed:     r.Installed,
				Source:        r.Source,
				Build:         r.BuildSpec,
				Dir:           r.Dir,
			})
		}
	}
	return json.Marshal(records)
}

// Decode rebuilds a catalog from Encode output.
func Decode(data []byte) (*Catalog, error) {
	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRecipe, err, "decoding cached catalog")
	}
	c := New()
	for _, rec := range records {
		pkg, err := recipe.ParseRequest(rec.Pkg)
		if err != nil {
			return nil, err
		}
		variant, err := recipe.ParseConstraintSet(rec.Variant...)
		if err != nil {
			return nil, err
		}
		requires, err := recipe.ParseConstraintSet(rec.Requires...)
		if err != nil {
			return nil, err
		}
		buildRequires, err := recipe.ParseConstraintSet(rec.BuildRequires...)
		if err != nil {
			return nil, err
		}
		r := recipe.New(pkg, variant, requires, buildRequires, rec.Installed)
		r.Source = rec.Source
		r.BuildSpec = rec.Build
		r.Dir = rec.Dir
		c.Add(r)
	}
	return c, nil
}

// Hash fingerprints the catalog contents. Resolve cache keys include it
// so a rescanned catalog invalidates stale results.
func (c *Catalog) Hash() string {
	data, err := c.Encode()
	if err != nil {
		return ""
	}
	return cache.Hash(data)
}

// HighestFor returns the first candidate of a family whose version
// range intersects rng, in lookup preference order. Display helper for
// catalog listings.
func (c *Catalog) HighestFor(name recipe.Name, rng version.Range) (*recipe.Recipe, bool) {
	for _, r := range c.Lookup(name) {
		if r.Pkg.Range.Intersects(rng) {
			return r, true
		}
	}
	return nil, false
}
