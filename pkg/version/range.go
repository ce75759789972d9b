package version

import (
	"strings"

	"github.com/cooktop/cooktop/pkg/errors"
)

// bound is one endpoint of an interval. A bound with infinite set represents
// -inf for lower bounds and +inf for upper bounds.
type bound struct {
	version   Version
	inclusive bool
	infinite  bool
}

// interval is a contiguous, non-empty range of versions between two bounds.
type interval struct {
	lower bound
	upper bound
}

// emptyInterval reports whether the interval contains no versions.
func (iv interval) empty() bool {
	if iv.lower.infinite || iv.upper.infinite {
		return false
	}
	c := iv.lower.version.Compare(iv.upper.version)
	if c > 0 {
		return true
	}
	if c == 0 {
		return !iv.lower.inclusive || !iv.upper.inclusive
	}
	return false
}

// upperBelowLower reports whether upper bound u lies strictly below lower
// bound l, i.e. there is a gap between an interval ending at u and one
// starting at l.
func upperBelowLower(u, l bound) bool {
	if u.infinite || l.infinite {
		return false
	}
	c := u.version.Compare(l.version)
	if c != 0 {
		return c < 0
	}
	return !u.inclusive || !l.inclusive
}

// touches reports whether two intervals overlap or are exactly adjacent,
// in which case they can be merged without creating a gap.
func (iv interval) touches(other interval) bool {
	if upperBelowLower(iv.upper, other.lower) {
		return false
	}
	if upperBelowLower(other.upper, iv.lower) {
		return false
	}
	return true
}

func lowerMin(a, b bound) bound {
	if compareLower(a, b) <= 0 {
		return a
	}
	return b
}

func upperMax(a, b bound) bound {
	if compareUpper(a, b) >= 0 {
		return a
	}
	return b
}

func compareLower(a, b bound) int {
	switch {
	case a.infinite && b.infinite:
		return 0
	case a.infinite:
		return -1
	case b.infinite:
		return 1
	}
	if c := a.version.Compare(b.version); c != 0 {
		return c
	}
	switch {
	case a.inclusive == b.inclusive:
		return 0
	case a.inclusive:
		return -1
	default:
		return 1
	}
}

func compareUpper(a, b bound) int {
	switch {
	case a.infinite && b.infinite:
		return 0
	case a.infinite:
		return 1
	case b.infinite:
		return -1
	}
	if c := a.version.Compare(b.version); c != 0 {
		return c
	}
	switch {
	case a.inclusive == b.inclusive:
		return 0
	case a.inclusive:
		return 1
	default:
		return -1
	}
}

// intersect returns the overlap of two intervals, which may be empty.
func (iv interval) intersect(other interval) (interval, bool) {
	out := interval{
		lower: iv.lower,
		upper: iv.upper,
	}
	if compareLower(other.lower, out.lower) > 0 {
		out.lower = other.lower
	}
	if compareUpper(other.upper, out.upper) < 0 {
		out.upper = other.upper
	}
	if out.empty() {
		return interval{}, false
	}
	return out, true
}

// contains reports whether the interval includes the given version.
func (iv interval) contains(v Version) bool {
	if !iv.lower.infinite {
		c := v.Compare(iv.lower.version)
		if c < 0 || (c == 0 && !iv.lower.inclusive) {
			return false
		}
	}
	if !iv.upper.infinite {
		c := v.Compare(iv.upper.version)
		if c > 0 || (c == 0 && !iv.upper.inclusive) {
			return false
		}
	}
	return true
}

// Range is an immutable set of acceptable versions: a normalized union of
// disjoint, non-adjacent intervals kept in ascending order.
//
// The zero value is the empty range (matches nothing). Use Any for the
// unconstrained range and ParseRange to build one from text.
type Range struct {
	intervals []interval
}

// Any returns the unconstrained range that matches every version.
func Any() Range {
	return Range{intervals: []interval{{
		lower: bound{infinite: true},
		upper: bound{infinite: true},
	}}}
}

// Empty returns the explicit empty range.
func Empty() Range { return Range{} }

// Exact returns the range matching exactly the given version.
func Exact(v Version) Range {
	return Range{intervals: []interval{{
		lower: bound{version: v, inclusive: true},
		upper: bound{version: v, inclusive: true},
	}}}
}

// AtLeast returns the range of versions >= v.
func AtLeast(v Version) Range {
	return Range{intervals: []interval{{
		lower: bound{version: v, inclusive: true},
		upper: bound{infinite: true},
	}}}
}

// Prefix returns the range of versions that have v as a token-prefix:
// [v, v.next()). This is the meaning of a bare version in range syntax,
// so "1.2" matches 1.2 and 1.2.5 but not 1.3 or 1.20.
func Prefix(v Version) Range {
	return Range{intervals: []interval{{
		lower: bound{version: v, inclusive: true},
		upper: bound{version: v.next()},
	}}}
}

// normalize sorts intervals, drops empty ones, and merges overlapping or
// adjacent neighbours so every Range has a single canonical representation.
func normalize(ivs []interval) Range {
	kept := make([]interval, 0, len(ivs))
	for _, iv := range ivs {
		if !iv.empty() {
			kept = append(kept, iv)
		}
	}
	if len(kept) == 0 {
		return Range{}
	}

	// Insertion sort by lower bound; range expressions are tiny.
	for i := 1; i < len(kept); i++ {
		for j := i; j > 0 && compareLower(kept[j].lower, kept[j-1].lower) < 0; j-- {
			kept[j], kept[j-1] = kept[j-1], kept[j]
		}
	}

	merged := kept[:1]
	for _, iv := range kept[1:] {
		last := &merged[len(merged)-1]
		if last.touches(iv) {
			last.lower = lowerMin(last.lower, iv.lower)
			last.upper = upperMax(last.upper, iv.upper)
		} else {
			merged = append(merged, iv)
		}
	}
	return Range{intervals: merged}
}

// IsEmpty reports whether the range matches no versions.
func (r Range) IsEmpty() bool { return len(r.intervals) == 0 }

// IsAny reports whether the range matches every version.
func (r Range) IsAny() bool {
	return len(r.intervals) == 1 &&
		r.intervals[0].lower.infinite &&
		r.intervals[0].upper.infinite
}

// Lower returns the smallest version the range can match and true, or a
// zero version and false when the range is empty or unbounded below.
// Catalogs use this to order recipes newest-first.
func (r Range) Lower() (Version, bool) {
	if len(r.intervals) == 0 || r.intervals[0].lower.infinite {
		return Version{}, false
	}
	return r.intervals[0].lower.version, true
}

// Contains reports whether the range includes the given version.
func (r Range) Contains(v Version) bool {
	for _, iv := range r.intervals {
		if iv.contains(v) {
			return true
		}
	}
	return false
}

// Intersects reports whether the two ranges share at least one version.
// It is symmetric: r.Intersects(o) == o.Intersects(r).
func (r Range) Intersects(other Range) bool {
	for _, a := range r.intervals {
		for _, b := range other.intervals {
			if a.touches(b) {
				if _, ok := a.intersect(b); ok {
					return true
				}
			}
		}
	}
	return false
}

// Intersection returns the set of versions in both ranges. The result may
// be the explicit empty range; this is the conflict signal, not an error.
func (r Range) Intersection(other Range) Range {
	var out []interval
	for _, a := range r.intervals {
		for _, b := range other.intervals {
			if iv, ok := a.intersect(b); ok {
				out = append(out, iv)
			}
		}
	}
	return normalize(out)
}

// Union returns the set of versions in either range.
func (r Range) Union(other Range) Range {
	ivs := make([]interval, 0, len(r.intervals)+len(other.intervals))
	ivs = append(ivs, r.intervals...)
	ivs = append(ivs, other.intervals...)
	return normalize(ivs)
}

// Equal reports whether two ranges describe the same version set.
func (r Range) Equal(other Range) bool {
	if len(r.intervals) != len(other.intervals) {
		return false
	}
	for i := range r.intervals {
		a, b := r.intervals[i], other.intervals[i]
		if compareLower(a.lower, b.lower) != 0 || compareUpper(a.upper, b.upper) != 0 {
			return false
		}
	}
	return true
}

// String renders the range in the same syntax ParseRange accepts.
// The unconstrained range renders as "".
func (r Range) String() string {
	if r.IsEmpty() {
		return "!!"
	}
	parts := make([]string, len(r.intervals))
	for i, iv := range r.intervals {
		parts[i] = iv.String()
	}
	return strings.Join(parts, "|")
}

func (iv interval) String() string {
	lo, hi := iv.lower, iv.upper

	switch {
	case lo.infinite && hi.infinite:
		return ""
	case lo.infinite:
		if hi.inclusive {
			return "<=" + hi.version.String()
		}
		return "<" + hi.version.String()
	case hi.infinite:
		if lo.inclusive {
			return lo.version.String() + "+"
		}
		return ">" + lo.version.String()
	}

	// Exact pin
	if lo.inclusive && hi.inclusive && lo.version.Equal(hi.version) {
		return "==" + lo.version.String()
	}

	// Prefix form: [v, v.next())
	if lo.inclusive && !hi.inclusive && lo.version.next().Equal(hi.version) {
		return lo.version.String()
	}

	var b strings.Builder
	if lo.inclusive {
		b.WriteString(lo.version.String())
		b.WriteByte('+')
	} else {
		b.WriteByte('>')
		b.WriteString(lo.version.String())
	}
	if hi.inclusive {
		b.WriteString("<=")
	} else {
		b.WriteByte('<')
	}
	b.WriteString(hi.version.String())
	return b.String()
}

// ParseRange parses a version range expression. Supported forms:
//
//	""          any version
//	"1.2"       prefix range: >=1.2, <1.3
//	"1.2+"      at least:     >=1.2
//	">=1.2"     at least:     >=1.2
//	">1.2"      greater than
//	"<2"        less than
//	"<=2"       at most
//	"==1.2.3"   exactly
//	"1.2+<2.0"  bounded:      >=1.2, <2.0
//	"1.2|2.0"   union of sub-expressions
//
// Malformed expressions fail with code INVALID_RANGE.
func ParseRange(text string) (Range, error) {
	if text == "" {
		return Any(), nil
	}

	var ivs []interval
	for _, part := range strings.Split(text, "|") {
		iv, err := parseIntervalExpr(part, text)
		if err != nil {
			return Range{}, err
		}
		ivs = append(ivs, iv)
	}
	return normalize(ivs), nil
}

// MustParseRange parses a range expression and panics on error.
// Intended for tests and compile-time constants.
func MustParseRange(text string) Range {
	r, err := ParseRange(text)
	if err != nil {
		panic(err)
	}
	return r
}

func parseIntervalExpr(part, whole string) (interval, error) {
	if part == "" {
		return interval{}, errors.New(errors.ErrCodeInvalidRange, "empty alternative in range %q", whole)
	}

	malformed := func() error {
		return errors.New(errors.ErrCodeInvalidRange, "malformed version range %q", whole)
	}

	// Exact pin
	if rest, ok := strings.CutPrefix(part, "=="); ok {
		v, err := Parse(rest)
		if err != nil || v.IsEmpty() {
			return interval{}, malformed()
		}
		return interval{
			lower: bound{version: v, inclusive: true},
			upper: bound{version: v, inclusive: true},
		}, nil
	}

	lower := bound{infinite: true}
	upper := bound{infinite: true}
	rest := part

	// Lower bound: ">=V", ">V", or "V+"; each may be followed by an upper
	// bound expression.
	switch {
	case strings.HasPrefix(rest, ">="):
		body, tail := splitAtUpper(rest[2:])
		v, err := Parse(body)
		if err != nil || v.IsEmpty() {
			return interval{}, malformed()
		}
		lower = bound{version: v, inclusive: true}
		rest = tail
	case strings.HasPrefix(rest, ">"):
		body, tail := splitAtUpper(rest[1:])
		v, err := Parse(body)
		if err != nil || v.IsEmpty() {
			return interval{}, malformed()
		}
		lower = bound{version: v}
		rest = tail
	case !strings.HasPrefix(rest, "<"):
		body, tail := splitAtUpper(rest)
		if plain, ok := strings.CutSuffix(body, "+"); ok {
			v, err := Parse(plain)
			if err != nil || v.IsEmpty() {
				return interval{}, malformed()
			}
			lower = bound{version: v, inclusive: true}
			rest = tail
		} else {
			// Bare version: prefix range, nothing may follow.
			if tail != "" {
				return interval{}, malformed()
			}
			v, err := Parse(body)
			if err != nil || v.IsEmpty() {
				return interval{}, malformed()
			}
			return interval{
				lower: bound{version: v, inclusive: true},
				upper: bound{version: v.next()},
			}, nil
		}
	}

	// Upper bound: "<V" or "<=V".
	if rest != "" {
		inclusive := false
		body := rest
		switch {
		case strings.HasPrefix(body, "<="):
			inclusive = true
			body = body[2:]
		case strings.HasPrefix(body, "<"):
			body = body[1:]
		default:
			return interval{}, malformed()
		}
		v, err := Parse(body)
		if err != nil || v.IsEmpty() {
			return interval{}, malformed()
		}
		upper = bound{version: v, inclusive: inclusive}
	}

	iv := interval{lower: lower, upper: upper}
	if iv.empty() {
		return interval{}, errors.New(errors.ErrCodeInvalidRange, "range %q is empty as written", whole)
	}
	return iv, nil
}

// splitAtUpper splits "1.2+<2.0" into the part before the upper-bound
// operator and the operator-prefixed tail.
func splitAtUpper(s string) (body, tail string) {
	if i := strings.IndexByte(s, '<'); i >= 0 {
		return s[:i], s[i:]
	}
	return s, ""
}
