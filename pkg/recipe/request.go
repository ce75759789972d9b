// Package recipe defines the constraint model for cooktop: package requests,
// ordered constraint sets with a merge algebra, and recipes: concrete,
// buildable package variants with their requirement sets.
package recipe

import (
	"strings"

	"github.com/cooktop/cooktop/pkg/errors"
	"github.com/cooktop/cooktop/pkg/version"
)

// Name is a package family name, independent of version.
type Name string

// Request is the atomic unit of a constraint: a package family plus a
// version range. Requests are immutable values.
type Request struct {
	Name  Name
	Range version.Range
}

// NewRequest builds a request from a family name and range.
func NewRequest(name Name, r version.Range) Request {
	return Request{Name: name, Range: r}
}

// ParseRequest parses the textual request syntax: "<name>" for an
// unconstrained request or "<name>-<range>" for a constrained one.
// The name is everything before the first dash; family names therefore
// cannot contain dashes, matching the recipe repository layout.
func ParseRequest(text string) (Request, error) {
	name := text
	rangeText := ""
	if i := strings.IndexByte(text, '-'); i >= 0 {
		name, rangeText = text[:i], text[i+1:]
	}

	if err := errors.ValidateFamilyName(name); err != nil {
		return Request{}, errors.Wrap(errors.ErrCodeInvalidRequest, err, "parsing request %q", text)
	}

	r, err := version.ParseRange(rangeText)
	if err != nil {
		return Request{}, errors.Wrap(errors.ErrCodeInvalidRequest, err, "parsing request %q", text)
	}

	return Request{Name: Name(name), Range: r}, nil
}

// MustParseRequest parses a request and panics on error. Intended for tests.
func MustParseRequest(text string) Request {
	req, err := ParseRequest(text)
	if err != nil {
		panic(err)
	}
	return req
}

// ConflictsWith reports whether the two requests name the same family with
// an empty range intersection. Requests for different families never
// conflict.
func (r Request) ConflictsWith(other Request) bool {
	return r.Name == other.Name && !r.Range.Intersects(other.Range)
}

// Merged combines two requests for the same family into one whose range is
// the intersection. It fails with VERSION_CONFLICT when the intersection is
// empty (the atomic conflict signal the rest of the system propagates)
// and with INTERNAL_ERROR when the names differ.
func (r Request) Merged(other Request) (Request, error) {
	if r.Name != other.Name {
		return Request{}, errors.New(errors.ErrCodeInternal, "cannot merge requests for %s and %s", r.Name, other.Name)
	}
	merged := r.Range.Intersection(other.Range)
	if merged.IsEmpty() {
		return Request{}, errors.New(errors.ErrCodeVersionConflict, "cannot merge %s with %s", r, other)
	}
	return Request{Name: r.Name, Range: merged}, nil
}

// String renders the request in the textual request syntax.
func (r Request) String() string {
	if r.Range.IsAny() {
		return string(r.Name)
	}
	return string(r.Name) + "-" + r.Range.String()
}
