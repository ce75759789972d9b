package recipe

import (
	"testing"

	"github.com/cooktop/cooktop/pkg/errors"
)

func TestParseRequest(t *testing.T) {
	cases := []struct {
		text      string
		wantName  Name
		wantAny   bool
		wantRange string
	}{
		{"openexr", "openexr", true, ""},
		{"openexr-3.1", "openexr", false, "3.1"},
		{"boost-1.78+", "boost", false, "1.78+"},
		{"vs-2017|2019", "vs", false, "2017|2019"},
		{"usd-20.08+<23", "usd", false, "20.08+<23"},
	}

	for _, tc := range cases {
		req, err := ParseRequest(tc.text)
		if err != nil {
			t.Errorf("ParseRequest(%q) error: %v", tc.text, err)
			continue
		}
		if req.Name != tc.wantName {
			t.Errorf("ParseRequest(%q).Name = %q, want %q", tc.text, req.Name, tc.wantName)
		}
		if req.Range.IsAny() != tc.wantAny {
			t.Errorf("ParseRequest(%q).Range.IsAny() = %v", tc.text, req.Range.IsAny())
		}
		if !tc.wantAny && req.Range.String() != tc.wantRange {
			t.Errorf("ParseRequest(%q).Range = %q, want %q", tc.text, req.Range.String(), tc.wantRange)
		}
	}
}

func TestParseRequestInvalid(t *testing.T) {
	invalid := []string{"", "-1.0", "pkg-??", "a/b-1.0", "pkg-1..2"}
	for _, text := range invalid {
		if _, err := ParseRequest(text); err == nil {
			t.Errorf("ParseRequest(%q) should fail", text)
		}
	}
}

func TestRequestRoundTrip(t *testing.T) {
	for _, text := range []string{"openexr", "openexr-3.1", "boost-1.78+<2"} {
		req := MustParseRequest(text)
		if req.String() != text {
			t.Errorf("String() = %q, want %q", req.String(), text)
		}
	}
}

func TestRequestConflictsWith(t *testing.T) {
	a := MustParseRequest("python-3.9")
	b := MustParseRequest("python-3.10")
	c := MustParseRequest("python-3+")
	other := MustParseRequest("boost-3.10")

	if !a.ConflictsWith(b) {
		t.Error("disjoint same-family requests should conflict")
	}
	if a.ConflictsWith(c) {
		t.Error("overlapping requests should not conflict")
	}
	if a.ConflictsWith(other) {
		t.Error("different families never conflict")
	}
}

func TestRequestMerged(t *testing.T) {
	a := MustParseRequest("python-3+")
	b := MustParseRequest("python-<3.10")

	m, err := a.Merged(b)
	if err != nil {
		t.Fatalf("Merged error: %v", err)
	}
	if m.Name != "python" {
		t.Errorf("merged name = %q", m.Name)
	}
	if !m.Range.Equal(a.Range.Intersection(b.Range)) {
		t.Errorf("merged range = %q", m.Range)
	}
}

func TestRequestMergedConflict(t *testing.T) {
	a := MustParseRequest("python-3.9")
	b := MustParseRequest("python-3.10")

	_, err := a.Merged(b)
	if !errors.Is(err, errors.ErrCodeVersionConflict) {
		t.Fatalf("Merged of disjoint requests = %v, want VERSION_CONFLICT", err)
	}
}
