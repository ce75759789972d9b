// Package resolver turns a package request into a concrete selection of
// recipes. Resolution is a depth-first backtracking walk over the
// catalog: a single constraint set (the accumulator) is narrowed as
// requirements are discovered, candidates are tried newest-first on a
// cloned accumulator, and the clone is committed only when the whole
// subtree resolves. The walk is pure computation over the catalog; no
// side effects happen until the selection is cooked.
package resolver

import (
	"fmt"
	"slices"
	"strings"

	"github.com/cooktop/cooktop/pkg/catalog"
	"github.com/cooktop/cooktop/pkg/errors"
	"github.com/cooktop/cooktop/pkg/recipe"
	"github.com/cooktop/cooktop/pkg/version"
)

// Resolver resolves requests against a fixed catalog. Candidate order
// comes from the catalog (installed first, newest first) and is part of
// the observable contract: the first non-conflicting candidate wins.
type Resolver struct {
	catalog *catalog.Catalog
}

// New creates a resolver over the given catalog.
func New(c *catalog.Catalog) *Resolver {
	return &Resolver{catalog: c}
}

// Result is a successful resolution.
type Result struct {
	// Request is the original top-level request.
	Request recipe.Request

	// Names lists every resolved family in depth-first discovery order,
	// requirements before their dependents. Splitting in this order
	// yields a valid sequential cook order.
	Names []recipe.Name

	// Candidates maps each family to its accepted recipes. Branches
	// that reached the same family contribute alternatives; the final
	// survivor is picked against Constraints by Split.
	Candidates map[recipe.Name][]*recipe.Recipe

	// Constraints is the fully narrowed constraint set covering every
	// family in the selection.
	Constraints *recipe.ConstraintSet
}

// branch holds the outcome of resolving one candidate subtree. Branches
// are merged into their parent only on success, so a failed candidate
// leaves no trace in the result.
type branch struct {
	names      []recipe.Name
	candidates map[recipe.Name][]*recipe.Recipe
}

func newBranch() *branch {
	return &branch{candidates: make(map[recipe.Name][]*recipe.Recipe)}
}

func (b *branch) add(name recipe.Name, r *recipe.Recipe) {
	if _, seen := b.candidates[name]; !seen {
		b.names = append(b.names, name)
	}
	b.candidates[name] = append(b.candidates[name], r)
}

func (b *branch) merge(other *branch) {
	for _, name := range other.names {
		if _, seen := b.candidates[name]; !seen {
			b.names = append(b.names, name)
		}
		b.candidates[name] = append(b.candidates[name], other.candidates[name]...)
	}
}

// Resolve resolves the request under the given initial constraints
// (typically the target variant, e.g. platform and arch). The initial
// set is not modified.
func (r *Resolver) Resolve(req recipe.Request, initial *recipe.ConstraintSet) (*Result, error) {
	if initial == nil {
		initial = &recipe.ConstraintSet{}
	}
	acc := initial.Clone()
	if err := acc.AddConstraint(req); err != nil {
		return nil, errors.Wrap(errors.ErrCodeVersionConflict, err,
			"request %s conflicts with the initial constraints", req)
	}

	candidates := r.catalog.Lookup(req.Name)
	if len(candidates) == 0 {
		return nil, errors.New(errors.ErrCodeRecipeNotFound, "no recipe for %s", req.Name)
	}

	chain := errors.Chain{fmt.Sprintf("requested %s", req)}
	visiting := []recipe.Name{req.Name}

	for _, cand := range candidates {
		if cand.ConflictsWithRequest(req) {
			chain = chain.Push("skipped %s: outside requested range %s", cand.Pkg, req)
			continue
		}
		if msg := cand.ConflictsWithSet(acc); msg != "" {
			chain = chain.Push("rejected %s: %s", cand.Pkg, msg)
			continue
		}

		trial := acc.Clone()
		sub := newBranch()
		next, err := r.resolveRecipe(cand, trial, chain.Push("trying %s", cand.Pkg), visiting, sub)
		if err != nil {
			if fatal(err) {
				return nil, err
			}
			chain = chain.Push("candidate %s failed: %s", cand.Pkg, errors.UserMessage(err))
			continue
		}

		sub.add(req.Name, cand)
		res := &Result{
			Request:     req,
			Names:       sub.names,
			Candidates:  sub.candidates,
			Constraints: next,
		}
		if err := r.pinAnyVariants(res); err != nil {
			return nil, err
		}
		return res, nil
	}

	return nil, errors.New(errors.ErrCodeDependencyConflict,
		"no candidate for %s satisfies the constraints", req).WithChain(chain)
}

// resolveRecipe resolves one accepted recipe's requirement subtree. It
// owns acc exclusively and returns the narrowed set on success; callers
// must discard acc on failure and retry from a fresh clone.
func (r *Resolver) resolveRecipe(
	rec *recipe.Recipe,
	acc *recipe.ConstraintSet,
	chain errors.Chain,
	visiting []recipe.Name,
	out *branch,
) (*recipe.ConstraintSet, error) {
	merged, err := rec.BuildRequires.AdditiveMerged(rec.Requires)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeVersionConflict, err, "resolving %s", rec.Pkg)
	}
	merged, err = merged.AdditiveMerged(rec.Variant)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeVersionConflict, err, "resolving %s", rec.Pkg)
	}

	// Fold every requirement into the accumulator before descending, so
	// a sibling's constraints are visible to siblings resolved after it.
	for _, req := range merged.Requests() {
		if err := acc.AddConstraint(req); err != nil {
			return nil, errors.Wrap(errors.ErrCodeVersionConflict, err, "resolving %s", rec.Pkg)
		}
	}

	for _, p := range merged.Requests() {
		if slices.Contains(visiting, p.Name) {
			cycle := append(slices.Clone(visiting), p.Name)
			return nil, errors.New(errors.ErrCodeCyclicDependency,
				"requirement cycle: %s", nameList(cycle)).WithChain(chain)
		}

		narrowed := p
		if cur, ok := acc.Get(p.Name); ok {
			narrowed = cur
		}

		next, err := r.resolveDependency(narrowed, acc, chain, visiting, out)
		if err != nil {
			return nil, err
		}
		acc = next
	}
	return acc, nil
}

// resolveDependency picks the first catalog candidate for one request
// that leads to a fully resolvable subtree.
func (r *Resolver) resolveDependency(
	p recipe.Request,
	acc *recipe.ConstraintSet,
	chain errors.Chain,
	visiting []recipe.Name,
	out *branch,
) (*recipe.ConstraintSet, error) {
	candidates := r.catalog.Lookup(p.Name)
	if len(candidates) == 0 {
		return nil, errors.New(errors.ErrCodeRecipeNotFound,
			"no recipe for %s (required as %s)", p.Name, p).WithChain(chain)
	}

	deeper := append(slices.Clone(visiting), p.Name)

	for _, cand := range candidates {
		if cand.ConflictsWithRequest(p) {
			chain = chain.Push("skipped %s: incompatible with %s", cand.Pkg, p)
			continue
		}
		if msg := cand.ConflictsWithSet(acc); msg != "" {
			chain = chain.Push("rejected %s: %s", cand.Pkg, msg)
			continue
		}

		trial := acc.Clone()
		sub := newBranch()
		next, err := r.resolveRecipe(cand, trial, chain.Push("trying %s", cand.Pkg), deeper, sub)
		if err != nil {
			if fatal(err) {
				return nil, err
			}
			chain = chain.Push("candidate %s failed: %s", cand.Pkg, errors.UserMessage(err))
			continue
		}

		// Commit: the subtree resolved, adopt its narrowed accumulator
		// and fold its selections into the running result.
		out.merge(sub)
		out.add(p.Name, cand)
		return next, nil
	}

	return nil, errors.New(errors.ErrCodeDependencyConflict,
		"no candidate for %s satisfies the constraints", p).WithChain(chain)
}

// fatal reports whether an error must abort the whole resolve instead
// of triggering a try-next-candidate step. Missing recipes and cycles
// cannot be fixed by backtracking.
func fatal(err error) bool {
	return errors.Is(err, errors.ErrCodeRecipeNotFound) ||
		errors.Is(err, errors.ErrCodeCyclicDependency)
}

// pinAnyVariants handles families whose final range is still
// unconstrained. An unconstrained family cannot be cooked directly, so
// the viable catalog versions are counted: exactly one survivor is
// pinned automatically, several mean the caller must add an explicit
// constraint.
func (r *Resolver) pinAnyVariants(res *Result) error {
	for _, name := range res.Names {
		cur, ok := res.Constraints.Get(name)
		if !ok || !cur.Range.IsAny() {
			continue
		}

		var versions []version.Range
		for _, cand := range r.catalog.Lookup(name) {
			if cand.ConflictsWithSet(res.Constraints) != "" {
				continue
			}
			dup := slices.ContainsFunc(versions, func(v version.Range) bool {
				return v.Equal(cand.Pkg.Range)
			})
			if !dup {
				versions = append(versions, cand.Pkg.Range)
			}
		}

		switch len(versions) {
		case 0:
			return errors.New(errors.ErrCodeUnresolvedSelection,
				"no surviving candidate for %s", name)
		case 1:
			pin := recipe.Request{Name: name, Range: versions[0]}
			if err := res.Constraints.AddConstraint(pin); err != nil {
				return errors.Wrap(errors.ErrCodeInternal, err, "pinning %s", pin)
			}
		default:
			opts := make([]string, len(versions))
			for i, v := range versions {
				opts[i] = fmt.Sprintf("%s-%s", name, v)
			}
			return errors.New(errors.ErrCodeAmbiguousVariant,
				"%s is unconstrained with multiple viable versions: %s; add an explicit constraint",
				name, strings.Join(opts, ", ")).WithOptions(opts...)
		}
	}
	return nil
}

func nameList(names []recipe.Name) string {
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = string(n)
	}
	return strings.Join(parts, " -> ")
}
