package catalog

import (
	"testing"

	"github.com/cooktop/cooktop/pkg/recipe"
)

func testRecipe(t *testing.T, pkg string, variant []string, installed bool) *recipe.Recipe {
	t.Helper()
	return recipe.New(
		recipe.MustParseRequest(pkg),
		recipe.MustParseConstraintSet(variant...),
		nil, nil,
		installed,
	)
}

func TestLookupOrder(t *testing.T) {
	c := New()
	c.Add(testRecipe(t, "openexr-2.5.7", nil, false))
	c.Add(testRecipe(t, "openexr-3.1.5", nil, false))
	c.Add(testRecipe(t, "openexr-3.0.1", nil, true))

	got := c.Lookup("openexr")
	if len(got) != 3 {
		t.Fatalf("Lookup len = %d, want 3", len(got))
	}
	// Installed first, then newest cookable first.
	if !got[0].Installed {
		t.Errorf("first candidate should be installed, got %s", got[0])
	}
	if got[1].Pkg.String() != "openexr-3.1.5" || got[2].Pkg.String() != "openexr-2.5.7" {
		t.Errorf("cookable order = %s, %s", got[1].Pkg, got[2].Pkg)
	}
}

func TestLookupNumericOrder(t *testing.T) {
	c := New()
	c.Add(testRecipe(t, "python-3.9", nil, false))
	c.Add(testRecipe(t, "python-3.10", nil, false))

	got := c.Lookup("python")
	if got[0].Pkg.String() != "python-3.10" {
		t.Errorf("3.10 should sort above 3.9, got %s first", got[0].Pkg)
	}
}

func TestLookupUnknownFamily(t *testing.T) {
	c := New()
	if got := c.Lookup("nothing"); got != nil {
		t.Errorf("unknown family = %v, want nil", got)
	}
}

func TestFamilies(t *testing.T) {
	c := New()
	c.Add(testRecipe(t, "zlib-1.2.12", nil, false))
	c.Add(testRecipe(t, "boost-1.78.0", nil, false))
	c.Add(testRecipe(t, "boost-1.79.0", nil, false))

	got := c.Families()
	if len(got) != 2 || got[0] != "boost" || got[1] != "zlib" {
		t.Errorf("Families = %v", got)
	}
	if c.Len() != 3 {
		t.Errorf("Len = %d, want 3", c.Len())
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	c := New()
	r := testRecipe(t, "usd-22.05", []string{"platform-linux", "python-3.9"}, false)
	r.Source = recipe.Source{URL: "https://example.com/usd.tar.gz", Checksum: "abc"}
	r.BuildSpec = recipe.Build{Command: "bash ./cook.sh", Args: []string{"-j8"}}
	r.Dir = "/recipes/usd/22.05"
	c.Add(r)
	c.Add(testRecipe(t, "zlib-1.2.12", nil, true))

	data, err := c.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	back, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if back.Len() != c.Len() {
		t.Fatalf("round trip Len = %d, want %d", back.Len(), c.Len())
	}
	usd := back.Lookup("usd")
	if len(usd) != 1 {
		t.Fatalf("usd candidates = %d", len(usd))
	}
	if usd[0].Source.URL != r.Source.URL || usd[0].BuildSpec.Command != r.BuildSpec.Command {
		t.Error("source and build spec should survive the round trip")
	}
	if usd[0].Variant.String() != r.Variant.String() {
		t.Errorf("variant = %s, want %s", usd[0].Variant, r.Variant)
	}
	if zlib := back.Lookup("zlib"); len(zlib) != 1 || !zlib[0].Installed {
		t.Error("installed flag should survive the round trip")
	}
}

func TestHash(t *testing.T) {
	a := New()
	a.Add(testRecipe(t, "zlib-1.2.12", nil, false))
	b := New()
	b.Add(testRecipe(t, "zlib-1.2.12", nil, false))

	if a.Hash() != b.Hash() {
		t.Error("identical catalogs should hash identically")
	}

	b.Add(testRecipe(t, "zlib-1.2.13", nil, false))
	if a.Hash() == b.Hash() {
		t.Error("adding a recipe should change the hash")
	}
}

func TestHighestFor(t *testing.T) {
	c := New()
	c.Add(testRecipe(t, "boost-1.78.0", nil, false))
	c.Add(testRecipe(t, "boost-1.79.0", nil, false))

	r, ok := c.HighestFor("boost", recipe.MustParseRequest("boost-1.78").Range)
	if !ok || r.Pkg.String() != "boost-1.78.0" {
		t.Errorf("HighestFor(boost-1.78) = %v, %v", r, ok)
	}
	if _, ok := c.HighestFor("boost", recipe.MustParseRequest("boost-2+").Range); ok {
		t.Error("no candidate should satisfy boost-2+")
	}
}
