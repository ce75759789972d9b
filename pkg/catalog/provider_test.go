package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cooktop/cooktop/pkg/cache"
	"github.com/cooktop/cooktop/pkg/errors"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestDirProviderScan(t *testing.T) {
	recipes := t.TempDir()
	writeFile(t, filepath.Join(recipes, "openexr", "3.1.5", "recipe.toml"), `
requires = ["imath-3.1"]
build_requires = ["cmake-3.22+"]
variants = [
  ["platform-linux", "arch-x86_64"],
  ["platform-windows", "arch-AMD64"],
]

[source]
url = "https://example.com/openexr-3.1.5.tar.gz"
checksum = "deadbeef"

[build]
command = "bash ./cook.sh"
args = ["-j8"]
`)
	writeFile(t, filepath.Join(recipes, "zlib", "1.2.12", "recipe.toml"), `
name = "zlib"
version = "1.2.12"
`)

	p := &DirProvider{RecipeRoots: []string{recipes}}
	c, err := p.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	// One recipe per variant.
	exr := c.Lookup("openexr")
	if len(exr) != 2 {
		t.Fatalf("openexr candidates = %d, want 2", len(exr))
	}
	if exr[0].Pkg.String() != "openexr-3.1.5" {
		t.Errorf("pkg = %s", exr[0].Pkg)
	}
	if exr[0].Requires.Len() != 1 || exr[0].BuildRequires.Len() != 1 {
		t.Error("requirement sets not loaded")
	}
	if exr[0].Source.URL == "" || exr[0].BuildSpec.Command == "" {
		t.Error("source and build sections not loaded")
	}
	if exr[0].Dir != filepath.Join(recipes, "openexr", "3.1.5") {
		t.Errorf("Dir = %s", exr[0].Dir)
	}

	// Variant-less manifest yields one recipe with an empty variant.
	zlib := c.Lookup("zlib")
	if len(zlib) != 1 || zlib[0].Variant.Len() != 0 {
		t.Errorf("zlib = %v", zlib)
	}
}

func TestDirProviderNameMismatch(t *testing.T) {
	recipes := t.TempDir()
	writeFile(t, filepath.Join(recipes, "openexr", "3.1.5", "recipe.toml"), `
name = "imath"
`)

	p := &DirProvider{RecipeRoots: []string{recipes}}
	_, err := p.Scan(context.Background())
	if !errors.Is(err, errors.ErrCodeInvalidRecipe) {
		t.Fatalf("Scan = %v, want INVALID_RECIPE", err)
	}
}

func TestDirProviderMissingRoot(t *testing.T) {
	p := &DirProvider{
		RecipeRoots: []string{filepath.Join(t.TempDir(), "absent")},
		InstallRoot: filepath.Join(t.TempDir(), "also-absent"),
	}
	c, err := p.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan of missing roots: %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0", c.Len())
	}
}

func TestDirProviderInstalled(t *testing.T) {
	installed := t.TempDir()
	writeFile(t, filepath.Join(installed, "zlib", "1.2.12", "platform-linux", "arch-x86_64", "cook.toml"), `
name = "zlib"
version = "1.2.12"
variant = ["platform-linux", "arch-x86_64"]
`)

	p := &DirProvider{InstallRoot: installed}
	c, err := p.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	zlib := c.Lookup("zlib")
	if len(zlib) != 1 {
		t.Fatalf("zlib candidates = %d, want 1", len(zlib))
	}
	if !zlib[0].Installed {
		t.Error("installed package should be marked Installed")
	}
	if zlib[0].Variant.Len() != 2 {
		t.Errorf("variant = %s", zlib[0].Variant)
	}
}

func TestLoadCached(t *testing.T) {
	recipes := t.TempDir()
	writeFile(t, filepath.Join(recipes, "zlib", "1.2.12", "recipe.toml"), "\n")

	store, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	p := &DirProvider{RecipeRoots: []string{recipes}}
	opts := LoadOptions{Cache: store, Roots: []string{recipes}}

	c, hit, err := Load(context.Background(), p, opts)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if hit {
		t.Error("first load should miss")
	}
	if c.Len() != 1 {
		t.Fatalf("Len = %d", c.Len())
	}

	c2, hit, err := Load(context.Background(), p, opts)
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if !hit {
		t.Error("second load should hit the cache")
	}
	if c2.Hash() != c.Hash() {
		t.Error("cached catalog should match the fresh scan")
	}

	// Refresh bypasses the cached copy.
	opts.Refresh = true
	if _, hit, _ := Load(context.Background(), p, opts); hit {
		t.Error("refresh load should not report a hit")
	}
}
