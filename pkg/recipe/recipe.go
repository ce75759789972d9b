package recipe

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Source describes where a recipe's sources come from. Exactly one of URL
// or Git is normally set; both empty means the build command fetches its
// own inputs.
type Source struct {
	URL      string // archive to download and unpack
	Checksum string // optional blake3 hex digest of the archive
	Git      string // repository to clone instead of an archive
	Branch   string // optional branch or tag for Git
}

// Build describes how a recipe is cooked once its sources are staged.
// Commands run through the shell with the cook environment applied.
type Build struct {
	PreCook string   // optional hook run in the staging root before the build
	Command string   // build command; runs in the build dir, installs to the install path
	Args    []string // extra arguments appended to Command
}

// Recipe is one concrete, resolvable unit: a specific package version
// together with one specific variant combination, its requirement sets,
// and whether it is already installed. Recipes are created by the catalog
// and immutable thereafter.
type Recipe struct {
	// Pkg is the recipe's own identity: family name plus the version
	// (or version range) this recipe provides.
	Pkg Request

	// Variant is the platform/toolchain tuple this recipe is specialized
	// for, e.g. [platform-linux, arch-x86_64, python-3.9].
	Variant *ConstraintSet

	// Requires are the runtime requirements.
	Requires *ConstraintSet

	// BuildRequires are the build-only requirements.
	BuildRequires *ConstraintSet

	// Installed marks a pre-existing artifact: no build needed, only a
	// compatibility check.
	Installed bool

	// Source and BuildSpec drive the build executor. Unset for installed
	// packages.
	Source    Source
	BuildSpec Build

	// Dir is the directory the recipe was loaded from, used to stage
	// auxiliary files next to the build.
	Dir string
}

// New builds a recipe, substituting empty constraint sets for nil ones so
// the conflict predicates never have to nil-check.
func New(pkg Request, variant, requires, buildRequires *ConstraintSet, installed bool) *Recipe {
	if variant == nil {
		variant = &ConstraintSet{}
	}
	if requires == nil {
		requires = &ConstraintSet{}
	}
	if buildRequires == nil {
		buildRequires = &ConstraintSet{}
	}
	return &Recipe{
		Pkg:           pkg,
		Variant:       variant,
		Requires:      requires,
		BuildRequires: buildRequires,
		Installed:     installed,
	}
}

// Name returns the recipe's family name.
func (r *Recipe) Name() Name { return r.Pkg.Name }

// ConflictsWithRequest reports whether the request is incompatible with
// this recipe: either it names the recipe's own family with a disjoint
// range, or it conflicts with the recipe's variant, runtime or build
// requirement sets.
func (r *Recipe) ConflictsWithRequest(req Request) bool {
	if r.Pkg.Name == req.Name && !r.Pkg.Range.Intersects(req.Range) {
		return true
	}
	if r.Variant.ConflictsWith(req) {
		return true
	}
	if r.Requires.ConflictsWith(req) {
		return true
	}
	return r.BuildRequires.ConflictsWith(req)
}

// ConflictsWithSet applies the same logic pairwise against every entry of
// the set. It returns a description of the first conflicting pair, or the
// empty string when the recipe is compatible with the whole set.
func (r *Recipe) ConflictsWithSet(set *ConstraintSet) string {
	for _, req := range set.Requests() {
		if r.Pkg.Name == req.Name && !r.Pkg.Range.Intersects(req.Range) {
			return fmt.Sprintf("%s <--!--> %s", r.Pkg, req)
		}
	}
	if mine, theirs, found := r.Variant.Conflicts(set); found {
		return fmt.Sprintf("variant %s <--!--> %s", mine, theirs)
	}
	if mine, theirs, found := r.Requires.Conflicts(set); found {
		return fmt.Sprintf("requires %s <--!--> %s", mine, theirs)
	}
	if mine, theirs, found := r.BuildRequires.Conflicts(set); found {
		return fmt.Sprintf("build_requires %s <--!--> %s", mine, theirs)
	}
	return ""
}

// WithVariantResolved returns a copy whose variant is expanded against
// the final constraint set: open members (a bare "python") pick up the
// resolved range, so install paths and manifests key on the concrete
// tuple rather than the declared one. Members the set never mentions
// pass through unchanged.
func (r *Recipe) WithVariantResolved(set *ConstraintSet) (*Recipe, error) {
	variant, err := r.Variant.MergedInto(set)
	if err != nil {
		return nil, err
	}
	out := *r
	out.Variant = variant
	return &out, nil
}

// SubPath returns the relative install path for this recipe under an
// install root: name/version/variant components.
func (r *Recipe) SubPath() string {
	parts := []string{string(r.Pkg.Name), r.Pkg.Range.String()}
	for _, req := range r.Variant.Requests() {
		parts = append(parts, req.String())
	}
	return filepath.Join(parts...)
}

// String renders the recipe for selection listings: a status marker, the
// identity, the variant, and the requirement sets.
func (r *Recipe) String() string {
	status := "cook"
	if r.Installed {
		status = "have"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %-32s %s", status, r.Pkg, r.Variant)
	if r.Requires.Len() > 0 || r.BuildRequires.Len() > 0 {
		fmt.Fprintf(&b, " => %s, %s", r.Requires, r.BuildRequires)
	}
	return b.String()
}
