package recipe

import (
	"testing"

	"github.com/cooktop/cooktop/pkg/errors"
)

func names(s *ConstraintSet) []Name {
	reqs := s.Requests()
	out := make([]Name, len(reqs))
	for i, req := range reqs {
		out[i] = req.Name
	}
	return out
}

func TestAdditiveMerged(t *testing.T) {
	a := MustParseConstraintSet("platform-linux", "python-3+")
	b := MustParseConstraintSet("python-<3.10", "boost-1.78")

	got, err := a.AdditiveMerged(b)
	if err != nil {
		t.Fatalf("AdditiveMerged error: %v", err)
	}

	// Union of names from both sides.
	if got.Len() != 3 {
		t.Fatalf("AdditiveMerged len = %d, want 3: %s", got.Len(), got)
	}
	for _, name := range []Name{"platform", "python", "boost"} {
		if _, ok := got.Get(name); !ok {
			t.Errorf("AdditiveMerged missing %q", name)
		}
	}

	// Shared names get the intersected range.
	py, _ := got.Get("python")
	want := MustParseRequest("python-3+").Range.Intersection(MustParseRequest("python-<3.10").Range)
	if !py.Range.Equal(want) {
		t.Errorf("python range = %q, want %q", py.Range, want)
	}
}

func TestAdditiveMergedConflict(t *testing.T) {
	a := MustParseConstraintSet("vs-2017")
	b := MustParseConstraintSet("vs-2019")

	_, err := a.AdditiveMerged(b)
	if !errors.Is(err, errors.ErrCodeVersionConflict) {
		t.Fatalf("AdditiveMerged of conflicting sets = %v, want VERSION_CONFLICT", err)
	}
}

func TestAdditiveMergedIdempotent(t *testing.T) {
	a := MustParseConstraintSet("platform-linux", "arch-x86_64", "python-3.9+")
	got, err := a.AdditiveMerged(a)
	if err != nil {
		t.Fatalf("AdditiveMerged error: %v", err)
	}
	if !got.Equal(a) {
		t.Errorf("A.AdditiveMerged(A) = %s, want %s", got, a)
	}
}

func TestMerged(t *testing.T) {
	a := MustParseConstraintSet("platform-linux", "python-3+", "boost")
	b := MustParseConstraintSet("python-<3.10", "zlib")

	got, err := a.Merged(b)
	if err != nil {
		t.Fatalf("Merged error: %v", err)
	}

	// Exactly the names present in both.
	if got.Len() != 1 {
		t.Fatalf("Merged len = %d, want 1: %s", got.Len(), got)
	}
	py, ok := got.Get("python")
	if !ok {
		t.Fatal("Merged should keep python")
	}
	if py.Range.IsAny() {
		t.Error("python range should be narrowed")
	}
}

func TestMergedInto(t *testing.T) {
	a := MustParseConstraintSet("platform-linux", "python-3+", "boost")
	b := MustParseConstraintSet("python-<3.10", "zlib")

	got, err := a.MergedInto(b)
	if err != nil {
		t.Fatalf("MergedInto error: %v", err)
	}

	// Exactly the names of the receiver, in order.
	gotNames := names(got)
	wantNames := []Name{"platform", "python", "boost"}
	if len(gotNames) != len(wantNames) {
		t.Fatalf("MergedInto names = %v, want %v", gotNames, wantNames)
	}
	for i := range wantNames {
		if gotNames[i] != wantNames[i] {
			t.Fatalf("MergedInto names = %v, want %v", gotNames, wantNames)
		}
	}

	// Entries absent from other pass through unchanged.
	platform, _ := got.Get("platform")
	if platform.String() != "platform-linux" {
		t.Errorf("platform = %q, want unchanged", platform)
	}
	boost, _ := got.Get("boost")
	if !boost.Range.IsAny() {
		t.Errorf("boost should pass through unconstrained, got %q", boost)
	}

	// Shared entries are narrowed.
	py, _ := got.Get("python")
	if py.Range.IsAny() {
		t.Error("python should be narrowed by other")
	}
}

func TestConstrained(t *testing.T) {
	a := MustParseConstraintSet("python-3+", "boost")

	got := a.Constrained(MustParseRequest("python-<3.10"))
	py, _ := got.Get("python")
	if py.Range.IsAny() || py.Range.Contains(mustVersion(t, "3.10")) {
		t.Errorf("python should be narrowed, got %q", py)
	}

	// Disjoint constraint produces an empty range without failing.
	got = a.Constrained(MustParseRequest("python-2"))
	py, _ = got.Get("python")
	if !py.Range.IsEmpty() {
		t.Errorf("python range should be empty, got %q", py.Range)
	}

	// Unrelated names are untouched, unknown names are not added.
	if got.Len() != 2 {
		t.Errorf("Constrained must not add entries: %s", got)
	}
}

func TestAddConstraint(t *testing.T) {
	s := MustParseConstraintSet("platform-linux")

	if err := s.AddConstraint(MustParseRequest("python-3+")); err != nil {
		t.Fatalf("AddConstraint append error: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("AddConstraint should append, len = %d", s.Len())
	}

	if err := s.AddConstraint(MustParseRequest("python-<3.10")); err != nil {
		t.Fatalf("AddConstraint merge error: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("AddConstraint should merge in place, len = %d", s.Len())
	}
	py, _ := s.Get("python")
	if py.Range.Contains(mustVersion(t, "3.10")) {
		t.Errorf("python not narrowed: %q", py)
	}
}

func TestAddConstraintIdempotent(t *testing.T) {
	s := MustParseConstraintSet("python-3.9+")
	req := MustParseRequest("python-<3.11")

	if err := s.AddConstraint(req); err != nil {
		t.Fatal(err)
	}
	snapshot := s.Clone()
	if err := s.AddConstraint(req); err != nil {
		t.Fatal(err)
	}
	if !s.Equal(snapshot) {
		t.Errorf("AddConstraint twice changed the set: %s vs %s", s, snapshot)
	}
}

func TestAddConstraintConflictLeavesSetUnchanged(t *testing.T) {
	s := MustParseConstraintSet("vs-2017")
	snapshot := s.Clone()

	err := s.AddConstraint(MustParseRequest("vs-2019"))
	if !errors.Is(err, errors.ErrCodeVersionConflict) {
		t.Fatalf("AddConstraint = %v, want VERSION_CONFLICT", err)
	}
	if !s.Equal(snapshot) {
		t.Error("failed AddConstraint must not modify the set")
	}
}

func TestHasConflictsWith(t *testing.T) {
	a := MustParseConstraintSet("platform-windows", "arch-AMD64", "vs")
	b := MustParseConstraintSet("platform-windows", "arch-AMD64", "vs-2017")
	c := MustParseConstraintSet("platform-windows", "arch-AMD64", "vs-2019")
	d := MustParseConstraintSet("platform-windows", "arch-AMD64", "vs-2018+")

	if a.HasConflictsWith(b) {
		t.Error("unconstrained vs should not conflict with vs-2017")
	}
	if !b.HasConflictsWith(c) {
		t.Error("vs-2017 should conflict with vs-2019")
	}
	if !b.HasConflictsWith(d) {
		t.Error("vs-2017 should conflict with vs-2018+")
	}
}

func TestConflictsDiagnostic(t *testing.T) {
	a := MustParseConstraintSet("vs-2017", "arch-AMD64")
	b := MustParseConstraintSet("arch-AMD64", "vs-2019")

	mine, theirs, found := a.Conflicts(b)
	if !found {
		t.Fatal("Conflicts should find the vs pair")
	}
	if mine.Name != "vs" || theirs.Name != "vs" {
		t.Errorf("Conflicts returned %s / %s, want the vs pair", mine, theirs)
	}
}

func TestConstraintSetString(t *testing.T) {
	s := MustParseConstraintSet("platform-linux", "python")
	want := `["platform-linux", "python"]`
	if s.String() != want {
		t.Errorf("String() = %s, want %s", s.String(), want)
	}
}
