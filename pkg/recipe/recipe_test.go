package recipe

import (
	"strings"
	"testing"

	"github.com/cooktop/cooktop/pkg/version"
)

func mustVersion(t *testing.T, text string) version.Version {
	t.Helper()
	v, err := version.Parse(text)
	if err != nil {
		t.Fatalf("Parse(%q): %v", text, err)
	}
	return v
}

func testRecipe(t *testing.T, pkg string, variant, requires, buildRequires []string) *Recipe {
	t.Helper()
	return New(
		MustParseRequest(pkg),
		MustParseConstraintSet(variant...),
		MustParseConstraintSet(requires...),
		MustParseConstraintSet(buildRequires...),
		false,
	)
}

func TestConflictsWithRequestOwnFamily(t *testing.T) {
	r := testRecipe(t, "openexr-3.1.5", nil, nil, nil)

	if r.ConflictsWithRequest(MustParseRequest("openexr-2+<3")) == false {
		t.Error("disjoint request for own family should conflict")
	}
	if r.ConflictsWithRequest(MustParseRequest("openexr-3+")) {
		t.Error("overlapping request for own family should not conflict")
	}
	if r.ConflictsWithRequest(MustParseRequest("imath-3.1")) {
		t.Error("unrelated family should not conflict")
	}
}

func TestConflictsWithRequestThroughSets(t *testing.T) {
	r := testRecipe(t, "usd-22.05",
		[]string{"platform-linux", "python-3.9"},
		[]string{"boost-1.78"},
		[]string{"cmake-3.22+"},
	)

	if !r.ConflictsWithRequest(MustParseRequest("python-3.10")) {
		t.Error("variant entry should conflict with disjoint request")
	}
	if !r.ConflictsWithRequest(MustParseRequest("boost-1.80")) {
		t.Error("requires entry should conflict with disjoint request")
	}
	if !r.ConflictsWithRequest(MustParseRequest("cmake-<3")) {
		t.Error("build_requires entry should conflict with disjoint request")
	}
	if r.ConflictsWithRequest(MustParseRequest("python-3.9.7")) {
		t.Error("compatible request should not conflict")
	}
}

func TestConflictsWithSet(t *testing.T) {
	r := testRecipe(t, "usd-22.05",
		[]string{"platform-linux", "python-3.9"},
		nil, nil,
	)

	ok := MustParseConstraintSet("platform-linux", "arch-x86_64")
	if msg := r.ConflictsWithSet(ok); msg != "" {
		t.Errorf("compatible set reported conflict: %s", msg)
	}

	bad := MustParseConstraintSet("platform-linux", "python-3.10")
	msg := r.ConflictsWithSet(bad)
	if msg == "" {
		t.Fatal("conflicting set should be reported")
	}
	if !strings.Contains(msg, "python") {
		t.Errorf("diagnostic should name the conflicting pair, got %q", msg)
	}
}

func TestConflictsWithSetOwnFamily(t *testing.T) {
	r := testRecipe(t, "openexr-3.1.5", nil, nil, nil)

	msg := r.ConflictsWithSet(MustParseConstraintSet("openexr-2"))
	if msg == "" {
		t.Fatal("own-family disjoint entry should be reported")
	}
	if !strings.Contains(msg, "openexr") {
		t.Errorf("diagnostic should name the family, got %q", msg)
	}
}

func TestSubPath(t *testing.T) {
	r := testRecipe(t, "openexr-3.1.5", []string{"platform-linux", "arch-x86_64"}, nil, nil)

	got := r.SubPath()
	want := "openexr/3.1.5/platform-linux/arch-x86_64"
	if got != want {
		t.Errorf("SubPath = %q, want %q", got, want)
	}
}

func TestRecipeString(t *testing.T) {
	r := testRecipe(t, "openexr-3.1.5", []string{"platform-linux"}, []string{"imath-3.1"}, nil)
	s := r.String()
	if !strings.HasPrefix(s, "cook ") {
		t.Errorf("buildable recipe should render with cook marker: %q", s)
	}

	r.Installed = true
	if !strings.HasPrefix(r.String(), "have ") {
		t.Errorf("installed recipe should render with have marker: %q", r.String())
	}
}

func TestWithVariantResolved(t *testing.T) {
	r := testRecipe(t, "usd-22.05", []string{"python", "platform-linux"}, nil, nil)
	final := MustParseConstraintSet("python-3.9", "arch-x86_64")

	out, err := r.WithVariantResolved(final)
	if err != nil {
		t.Fatalf("WithVariantResolved: %v", err)
	}
	if got := out.Variant.String(); got != `["python-3.9", "platform-linux"]` {
		t.Errorf("resolved variant = %s", got)
	}
	// The receiver keeps its declared form.
	if got := r.Variant.String(); got != `["python", "platform-linux"]` {
		t.Errorf("declared variant mutated: %s", got)
	}

	// Disjoint member ranges surface as a conflict.
	r = testRecipe(t, "usd-22.05", []string{"python-3"}, nil, nil)
	if _, err := r.WithVariantResolved(MustParseConstraintSet("python-4")); err == nil {
		t.Error("disjoint variant member should fail")
	}
}
