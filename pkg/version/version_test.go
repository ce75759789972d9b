package version

import "testing"

func TestParseVersion(t *testing.T) {
	valid := []string{"1", "1.2.3", "2017", "1.0.beta_2", "1.2b.3", "v1.0"}
	for _, text := range valid {
		v, err := Parse(text)
		if err != nil {
			t.Errorf("Parse(%q) error: %v", text, err)
		}
		if v.String() != text {
			t.Errorf("Parse(%q).String() = %q", text, v.String())
		}
	}

	invalid := []string{"1..2", ".1", "1.", "1.2-3", "1 2", "1.2+"}
	for _, text := range invalid {
		if _, err := Parse(text); err == nil {
			t.Errorf("Parse(%q) should fail", text)
		}
	}
}

func TestParseEmptyVersion(t *testing.T) {
	v, err := Parse("")
	if err != nil {
		t.Fatalf("Parse(\"\") error: %v", err)
	}
	if !v.IsEmpty() {
		t.Error("empty string should parse to the empty version")
	}
}

func TestCompare(t *testing.T) {
	cases := []struct {
		a, b string
		want int // sign only
	}{
		{"1.0", "1.0", 0},
		{"1.0", "2.0", -1},
		{"1.2", "1.10", -1},  // numeric, not lexical
		{"1.9", "1.10", -1},  //
		{"1.2", "1.2.0", -1}, // prefix sorts first
		{"1.0.beta", "1.0.1", 1},  // numeric runs before alphabetic
		{"1.0.alpha", "1.0.beta", -1},
		{"2017", "2019", -1},
		{"1.0b", "1.0", 1},
		{"1.2rc1", "1.2rc2", -1},
	}

	for _, tc := range cases {
		a, b := MustParse(tc.a), MustParse(tc.b)
		got := a.Compare(b)
		if sign(got) != tc.want {
			t.Errorf("Compare(%q, %q) = %d, want sign %d", tc.a, tc.b, got, tc.want)
		}
		if sign(b.Compare(a)) != -tc.want {
			t.Errorf("Compare(%q, %q) not antisymmetric", tc.b, tc.a)
		}
	}
}

func TestEmptyVersionSortsFirst(t *testing.T) {
	empty := Version{}
	if empty.Compare(MustParse("0")) >= 0 {
		t.Error("empty version should sort before 0")
	}
}

func TestNext(t *testing.T) {
	cases := []struct{ in, want string }{
		{"1.2", "1.3"},
		{"1.9", "1.10"},
		{"2017", "2018"},
		{"1.0.9", "1.0.10"},
		{"1.2rc1", "1.2rc2"},
	}
	for _, tc := range cases {
		got := MustParse(tc.in).next()
		if got.String() != tc.want {
			t.Errorf("next(%q) = %q, want %q", tc.in, got.String(), tc.want)
		}
	}

	// The bump of an alphabetic token sorts after the token itself and
	// after any of its numeric extensions.
	beta := MustParse("1.0.beta")
	bumped := beta.next()
	if bumped.Compare(beta) <= 0 {
		t.Error("next should sort after the original")
	}
	if bumped.Compare(MustParse("1.0.beta9")) <= 0 {
		t.Error("next of an alphabetic token should sort after numeric extensions")
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}
