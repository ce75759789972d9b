// Package version implements the version domain used by cooktop recipes:
// dotted alphanumeric versions and set-valued version ranges.
//
// Versions are sequences of tokens separated by dots. Tokens are compared
// piecewise: runs of digits compare numerically, runs of letters compare
// lexically, and numeric runs sort before alphabetic ones. This matches the
// ordering used by recipe repositories where "1.10" is newer than "1.9" and
// "1.0.beta" precedes "1.0.1".
//
// A Range is a normalized union of intervals over this domain. Ranges support
// intersection, containment and emptiness tests; intersection is commutative
// and associative, the "any" range is its identity element, and intersecting
// disjoint ranges yields an explicit empty range.
package version

import (
	"strings"

	"github.com/cooktop/cooktop/pkg/errors"
)

// subtoken is a maximal run of digits or non-digits within a token.
type subtoken struct {
	num     uint64
	str     string
	numeric bool
}

// token is one dot-separated component of a version.
type token struct {
	raw  string
	subs []subtoken
}

// Version is an immutable package version: an ordered list of tokens.
// The zero value is the empty version, which sorts before everything else.
type Version struct {
	raw    string
	tokens []token
}

// Parse parses a version string such as "1.2.3", "2017", or "1.0.beta_2".
// Tokens are separated by dots and may contain letters, digits and
// underscores. An empty string yields the empty version.
func Parse(text string) (Version, error) {
	if text == "" {
		return Version{}, nil
	}

	parts := strings.Split(text, ".")
	tokens := make([]token, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			return Version{}, errors.New(errors.ErrCodeInvalidRange, "empty token in version %q", text)
		}
		for _, r := range part {
			if !isTokenRune(r) {
				return Version{}, errors.New(errors.ErrCodeInvalidRange, "invalid character %q in version %q", r, text)
			}
		}
		tokens = append(tokens, newToken(part))
	}

	return Version{raw: text, tokens: tokens}, nil
}

// MustParse parses a version string and panics on error.
// Intended for tests and compile-time constants.
func MustParse(text string) Version {
	v, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return v
}

func isTokenRune(r rune) bool {
	switch {
	case r >= '0' && r <= '9':
		return true
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r == '_':
		return true
	}
	return false
}

func newToken(raw string) token {
	var subs []subtoken
	i := 0
	for i < len(raw) {
		j := i
		numeric := isDigit(raw[i])
		for j < len(raw) && isDigit(raw[j]) == numeric {
			j++
		}
		run := raw[i:j]
		if numeric {
			subs = append(subs, subtoken{num: parseUint(run), str: run, numeric: true})
		} else {
			subs = append(subs, subtoken{str: run})
		}
		i = j
	}
	return token{raw: raw, subs: subs}
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func parseUint(s string) uint64 {
	var n uint64
	for i := 0; i < len(s); i++ {
		n = n*10 + uint64(s[i]-'0')
	}
	return n
}

// String returns the version's textual form.
func (v Version) String() string { return v.raw }

// IsEmpty reports whether this is the empty (zero) version.
func (v Version) IsEmpty() bool { return len(v.tokens) == 0 }

// Compare returns a negative number if v sorts before other, zero if they
// are equal, and a positive number if v sorts after other.
//
// Tokens compare piecewise; a version that is a strict token-prefix of
// another sorts before it ("1.2" < "1.2.0").
func (v Version) Compare(other Version) int {
	for i := 0; i < len(v.tokens) && i < len(other.tokens); i++ {
		if c := compareToken(v.tokens[i], other.tokens[i]); c != 0 {
			return c
		}
	}
	return len(v.tokens) - len(other.tokens)
}

// Equal reports whether the two versions compare equal.
func (v Version) Equal(other Version) bool { return v.Compare(other) == 0 }

func compareToken(a, b token) int {
	for i := 0; i < len(a.subs) && i < len(b.subs); i++ {
		if c := compareSubtoken(a.subs[i], b.subs[i]); c != 0 {
			return c
		}
	}
	return len(a.subs) - len(b.subs)
}

func compareSubtoken(a, b subtoken) int {
	switch {
	case a.numeric && b.numeric:
		if a.num != b.num {
			if a.num < b.num {
				return -1
			}
			return 1
		}
		// Same value, different spelling ("01" vs "1"): fall back to text
		// so the ordering stays total.
		return strings.Compare(a.str, b.str)
	case a.numeric:
		return -1 // numeric runs sort before alphabetic runs
	case b.numeric:
		return 1
	default:
		return strings.Compare(a.str, b.str)
	}
}

// next returns the smallest version that sorts after every version having
// v as a token-prefix. It is the exclusive upper bound of the prefix range
// "v": a numeric final token is incremented, an alphabetic one gets an
// underscore appended (underscore sorts below all letters).
func (v Version) next() Version {
	if v.IsEmpty() {
		return v
	}

	tokens := make([]token, len(v.tokens))
	copy(tokens, v.tokens)
	last := tokens[len(tokens)-1]

	var bumped string
	if sub := last.subs[len(last.subs)-1]; sub.numeric {
		bumped = last.raw[:len(last.raw)-len(sub.str)] + incDecimal(sub.str)
	} else {
		bumped = last.raw + "_"
	}
	tokens[len(tokens)-1] = newToken(bumped)

	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = t.raw
	}
	return Version{raw: strings.Join(parts, "."), tokens: tokens}
}

// incDecimal increments a decimal digit string, preserving leading zeros.
func incDecimal(s string) string {
	b := []byte(s)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] < '9' {
			b[i]++
			return string(b)
		}
		b[i] = '0'
	}
	return "1" + string(b)
}
