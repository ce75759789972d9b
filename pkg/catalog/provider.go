package catalog

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/cooktop/cooktop/pkg/errors"
	"github.com/cooktop/cooktop/pkg/recipe"
)

// RecipeManifest is the filename a recipe directory must contain.
const RecipeManifest = "recipe.toml"

// InstallManifest is the filename written next to an installed package
// after a successful cook. Its presence marks the package as installed.
const InstallManifest = "cook.toml"

// Provider produces a catalog from some backing store.
type Provider interface {
	Scan(ctx context.Context) (*Catalog, error)
}

// DirProvider scans filesystem trees:
//
//   - recipe roots laid out as <root>/<family>/<version>/recipe.toml
//   - an optional installed tree with cook.toml manifests at
//     <root>/<family>/<version>/<variant components...>/cook.toml
//
// Missing roots are skipped silently so a fresh machine with no recipes
// yet still gets an empty catalog instead of an error.
type DirProvider struct {
	// RecipeRoots are the recipe repositories, highest priority first.
	RecipeRoots []string

	// InstallRoot is the installed-packages tree. Empty disables the
	// installed scan.
	InstallRoot string
}

// Scan walks the configured trees and builds the catalog.
func (p *DirProvider) Scan(ctx context.Context) (*Catalog, error) {
	c := New()
	for _, root := range p.RecipeRoots {
		if err := p.scanRecipes(ctx, c, root); err != nil {
			return nil, err
		}
	}
	if p.InstallRoot != "" {
		if err := p.scanInstalled(ctx, c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// recipeManifest mirrors recipe.toml. Name and version default to the
// family and version directory names when omitted.
type recipeManifest struct {
	Name          string     `toml:"name"`
	Version       string     `toml:"version"`
	Requires      []string   `toml:"requires"`
	BuildRequires []string   `toml:"build_requires"`
	Variants      [][]string `toml:"variants"`

	Source struct {
		URL      string `toml:"url"`
		Checksum string `toml:"checksum"`
		Git      string `toml:"git"`
		Branch   string `toml:"branch"`
	} `toml:"source"`

	Build struct {
		PreCook string   `toml:"pre_cook"`
		Command string   `toml:"command"`
		Args    []string `toml:"args"`
	} `toml:"build"`
}

// installManifest mirrors cook.toml.
type installManifest struct {
	Name     string   `toml:"name"`
	Version  string   `toml:"version"`
	Variant  []string `toml:"variant"`
	Requires []string `toml:"requires"`
}

func (p *DirProvider) scanRecipes(ctx context.Context, c *Catalog, root string) error {
	families, err := os.ReadDir(root)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidRecipe, err, "reading recipe root %s", root)
	}

	for _, family := range families {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !family.IsDir() {
			continue
		}
		familyDir := filepath.Join(root, family.Name())
		versions, err := os.ReadDir(familyDir)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidRecipe, err, "reading %s", familyDir)
		}
		for _, ver := range versions {
			if !ver.IsDir() {
				continue
			}
			dir := filepath.Join(familyDir, ver.Name())
			path := filepath.Join(dir, RecipeManifest)
			if _, err := os.Stat(path); os.IsNotExist(err) {
				continue
			}
			if err := p.loadRecipe(c, path, family.Name(), ver.Name()); err != nil {
				return err
			}
		}
	}
	return nil
}

// loadRecipe parses one recipe.toml and adds one recipe per variant
// (or a single variant-less recipe).
func (p *DirProvider) loadRecipe(c *Catalog, path, family, ver string) error {
	var m recipeManifest
	if _, err := toml.DecodeFile(path, &m); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidRecipe, err, "parsing %s", path)
	}
	if m.Name == "" {
		m.Name = family
	}
	if m.Version == "" {
		m.Version = ver
	}
	if m.Name != family {
		return errors.New(errors.ErrCodeInvalidRecipe,
			"%s: name %q does not match family directory %q", path, m.Name, family)
	}

	pkg, err := recipe.ParseRequest(m.Name + "-" + m.Version)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidRecipe, err, "in %s", path)
	}
	requires, err := recipe.ParseConstraintSet(m.Requires...)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidRecipe, err, "requires in %s", path)
	}
	buildRequires, err := recipe.ParseConstraintSet(m.BuildRequires...)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidRecipe, err, "build_requires in %s", path)
	}

	variants := m.Variants
	if len(variants) == 0 {
		variants = [][]string{nil}
	}
	for _, entries := range variants {
		variant, err := recipe.ParseConstraintSet(entries...)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidRecipe, err, "variant in %s", path)
		}
		r := recipe.New(pkg, variant, requires.Clone(), buildRequires.Clone(), false)
		r.Source = recipe.Source{
			URL:      m.Source.URL,
			Checksum: m.Source.Checksum,
			Git:      m.Source.Git,
			Branch:   m.Source.Branch,
		}
		r.BuildSpec = recipe.Build{
			PreCook: m.Build.PreCook,
			Command: m.Build.Command,
			Args:    m.Build.Args,
		}
		r.Dir = filepath.Dir(path)
		c.Add(r)
	}
	return nil
}

func (p *DirProvider) scanInstalled(ctx context.Context, c *Catalog) error {
	err := filepath.WalkDir(p.InstallRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == p.InstallRoot {
				return filepath.SkipAll
			}
			return err
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if d.IsDir() || d.Name() != InstallManifest {
			return nil
		}
		return p.loadInstalled(c, path)
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPackage, err, "scanning installed packages")
	}
	return nil
}

// loadInstalled parses one cook.toml into an installed recipe.
func (p *DirProvider) loadInstalled(c *Catalog, path string) error {
	var m installManifest
	if _, err := toml.DecodeFile(path, &m); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPackage, err, "parsing %s", path)
	}
	if m.Name == "" || m.Version == "" {
		return errors.New(errors.ErrCodeInvalidPackage, "%s: name and version are required", path)
	}

	pkg, err := recipe.ParseRequest(m.Name + "-" + m.Version)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPackage, err, "in %s", path)
	}
	variant, err := recipe.ParseConstraintSet(m.Variant...)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPackage, err, "variant in %s", path)
	}
	requires, err := recipe.ParseConstraintSet(m.Requires...)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPackage, err, "requires in %s", path)
	}

	r := recipe.New(pkg, variant, requires, nil, true)
	r.Dir = filepath.Dir(path)
	c.Add(r)
	return nil
}
