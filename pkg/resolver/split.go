package resolver

import (
	"github.com/cooktop/cooktop/pkg/errors"
	"github.com/cooktop/cooktop/pkg/recipe"
)

// Selection is a resolved result split into work: packages that are
// already installed and recipes that still need cooking. ToCook keeps
// the discovery order, so cooking front to back satisfies every
// recipe's requirements before the recipe itself.
type Selection struct {
	Installed []*recipe.Recipe
	ToCook    []*recipe.Recipe
}

// Selected returns the chosen recipe for a family, from either bucket.
func (s *Selection) Selected(name recipe.Name) (*recipe.Recipe, bool) {
	for _, r := range s.Installed {
		if r.Name() == name {
			return r, true
		}
	}
	for _, r := range s.ToCook {
		if r.Name() == name {
			return r, true
		}
	}
	return nil, false
}

// Split picks the final recipe per family: the first candidate still
// compatible with the fully narrowed constraints. Candidates accepted
// early in the walk may have been invalidated by later narrowing (a
// sibling constraining a shared requirement), which is why survival is
// re-checked here rather than trusted from acceptance time.
//
// Each chosen recipe carries its variant expanded against the final
// constraints, so a recipe declaring an open member (a bare "python")
// installs and is recorded under the version that was actually
// resolved.
//
// A family with no survivor indicates a resolver invariant was broken
// and fails with UNRESOLVED_SELECTION.
func Split(res *Result) (*Selection, error) {
	sel := &Selection{}
	for _, name := range res.Names {
		var chosen *recipe.Recipe
		for _, cand := range res.Candidates[name] {
			if cand.ConflictsWithSet(res.Constraints) == "" {
				chosen = cand
				break
			}
		}
		if chosen == nil {
			return nil, errors.New(errors.ErrCodeUnresolvedSelection,
				"no candidate for %s survives the final constraints %s", name, res.Constraints)
		}
		chosen, err := chosen.WithVariantResolved(res.Constraints)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeUnresolvedSelection, err,
				"expanding the variant of %s", name)
		}
		if chosen.Installed {
			sel.Installed = append(sel.Installed, chosen)
		} else {
			sel.ToCook = append(sel.ToCook, chosen)
		}
	}
	return sel, nil
}
