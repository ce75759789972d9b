package resolver

import (
	"github.com/cooktop/cooktop/pkg/dag"
	"github.com/cooktop/cooktop/pkg/recipe"
)

// Graph renders the selection as a dependency graph: one node per
// family with the chosen version, one edge per requirement that is part
// of the selection. The graph is what resolve --dot/--svg exports.
func Graph(res *Result, sel *Selection) (*dag.Graph, error) {
	g := dag.New()

	add := func(r *recipe.Recipe) error {
		return g.AddNode(dag.Node{
			ID: string(r.Name()),
			Meta: dag.Metadata{
				"version":   r.Pkg.Range.String(),
				"variant":   r.Variant.String(),
				"installed": r.Installed,
			},
		})
	}
	for _, r := range sel.Installed {
		if err := add(r); err != nil {
			return nil, err
		}
	}
	for _, r := range sel.ToCook {
		if err := add(r); err != nil {
			return nil, err
		}
	}

	edges := func(r *recipe.Recipe, set *recipe.ConstraintSet) error {
		for _, req := range set.Requests() {
			if req.Name == r.Name() {
				continue
			}
			if _, ok := g.Node(string(req.Name)); !ok {
				continue
			}
			if err := g.AddEdge(dag.Edge{From: string(r.Name()), To: string(req.Name)}); err != nil {
				return err
			}
		}
		return nil
	}
	for _, name := range res.Names {
		r, ok := sel.Selected(name)
		if !ok {
			continue
		}
		for _, set := range []*recipe.ConstraintSet{r.Requires, r.BuildRequires, r.Variant} {
			if err := edges(r, set); err != nil {
				return nil, err
			}
		}
	}

	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}
