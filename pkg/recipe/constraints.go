package recipe

import "strings"

// ConstraintSet is an ordered collection of requests, unique by family
// name. Insertion order is preserved for deterministic display; it has no
// effect on correctness.
//
// All operations return a new set except AddConstraint, which mutates the
// receiver in place: it is the one accumulator threaded through the
// resolver's recursion.
type ConstraintSet struct {
	reqs []Request
}

// NewConstraintSet builds a set from the given requests in order.
// Duplicate names are merged by range intersection; it fails with
// VERSION_CONFLICT if a duplicate has an empty intersection.
func NewConstraintSet(reqs ...Request) (*ConstraintSet, error) {
	s := &ConstraintSet{}
	for _, req := range reqs {
		if err := s.AddConstraint(req); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// ParseConstraintSet parses a list of textual requests into a set.
func ParseConstraintSet(texts ...string) (*ConstraintSet, error) {
	reqs := make([]Request, 0, len(texts))
	for _, text := range texts {
		req, err := ParseRequest(text)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return NewConstraintSet(reqs...)
}

// MustParseConstraintSet parses textual requests and panics on error.
// Intended for tests.
func MustParseConstraintSet(texts ...string) *ConstraintSet {
	s, err := ParseConstraintSet(texts...)
	if err != nil {
		panic(err)
	}
	return s
}

// Len returns the number of requests in the set.
func (s *ConstraintSet) Len() int { return len(s.reqs) }

// Requests returns the requests in insertion order. The returned slice is
// a copy; mutating it does not affect the set.
func (s *ConstraintSet) Requests() []Request {
	out := make([]Request, len(s.reqs))
	copy(out, s.reqs)
	return out
}

// Get returns the request for the given family and whether it exists.
func (s *ConstraintSet) Get(name Name) (Request, bool) {
	for _, req := range s.reqs {
		if req.Name == name {
			return req, true
		}
	}
	return Request{}, false
}

// Clone returns an independent copy of the set.
func (s *ConstraintSet) Clone() *ConstraintSet {
	out := &ConstraintSet{reqs: make([]Request, len(s.reqs))}
	copy(out.reqs, s.reqs)
	return out
}

// AdditiveMerged returns the union of both sets: every name from either
// side, with ranges intersected for names present in both. It fails with
// VERSION_CONFLICT if any shared name has an empty intersection.
//
// This models "accumulate everything learned so far" and is used when a
// recipe's requirement lists are folded into the running accumulator.
func (s *ConstraintSet) AdditiveMerged(other *ConstraintSet) (*ConstraintSet, error) {
	out := s.Clone()
	for _, req := range other.reqs {
		if err := out.AddConstraint(req); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Merged returns only the names present in both sets, with intersected
// ranges. It fails with VERSION_CONFLICT on an empty intersection.
//
// This models "keep only what is mutually relevant" and is used to narrow
// a candidate's variant by what the resolver already knows.
func (s *ConstraintSet) Merged(other *ConstraintSet) (*ConstraintSet, error) {
	out := &ConstraintSet{}
	for _, req := range s.reqs {
		theirs, ok := other.Get(req.Name)
		if !ok {
			continue
		}
		merged, err := req.Merged(theirs)
		if err != nil {
			return nil, err
		}
		out.reqs = append(out.reqs, merged)
	}
	return out, nil
}

// MergedInto returns every name from the receiver: ranges intersected for
// names also present in other, passed through unchanged otherwise. It
// fails with VERSION_CONFLICT on an empty intersection.
//
// This preserves requester-side entries the other set never mentions and
// is used when expanding a recipe's variant into the final build-time
// variant tuple.
func (s *ConstraintSet) MergedInto(other *ConstraintSet) (*ConstraintSet, error) {
	out := &ConstraintSet{reqs: make([]Request, 0, len(s.reqs))}
	for _, req := range s.reqs {
		theirs, ok := other.Get(req.Name)
		if !ok {
			out.reqs = append(out.reqs, req)
			continue
		}
		merged, err := req.Merged(theirs)
		if err != nil {
			return nil, err
		}
		out.reqs = append(out.reqs, merged)
	}
	return out, nil
}

// Constrained returns a copy where the entry matching req's name, if any,
// has its range intersected with req's range. The range may become empty;
// Constrained itself never fails; downstream conflict checks catch the
// emptiness.
func (s *ConstraintSet) Constrained(req Request) *ConstraintSet {
	out := &ConstraintSet{reqs: make([]Request, len(s.reqs))}
	for i, mine := range s.reqs {
		if mine.Name == req.Name {
			out.reqs[i] = Request{Name: mine.Name, Range: mine.Range.Intersection(req.Range)}
		} else {
			out.reqs[i] = mine
		}
	}
	return out
}

// AddConstraint merges req into the set in place: an existing entry for the
// same family is replaced by the merged request, otherwise req is appended.
// It fails with VERSION_CONFLICT when the merge has an empty intersection,
// leaving the set unchanged.
//
// This is the only mutating operation; it exists for the resolver, which
// threads one evolving accumulator through its recursion.
func (s *ConstraintSet) AddConstraint(req Request) error {
	for i, mine := range s.reqs {
		if mine.Name != req.Name {
			continue
		}
		merged, err := mine.Merged(req)
		if err != nil {
			return err
		}
		s.reqs[i] = merged
		return nil
	}
	s.reqs = append(s.reqs, req)
	return nil
}

// ConflictsWith reports whether any entry conflicts with the given request.
func (s *ConstraintSet) ConflictsWith(req Request) bool {
	for _, mine := range s.reqs {
		if mine.ConflictsWith(req) {
			return true
		}
	}
	return false
}

// HasConflictsWith reports whether any pair of same-named entries across
// the two sets has an empty range intersection.
func (s *ConstraintSet) HasConflictsWith(other *ConstraintSet) bool {
	_, _, found := s.firstConflict(other)
	return found
}

// Conflicts returns the first conflicting pair between the two sets, for
// diagnostics. The boolean is false when there is no conflict.
func (s *ConstraintSet) Conflicts(other *ConstraintSet) (Request, Request, bool) {
	return s.firstConflict(other)
}

func (s *ConstraintSet) firstConflict(other *ConstraintSet) (Request, Request, bool) {
	for _, mine := range s.reqs {
		for _, theirs := range other.reqs {
			if mine.ConflictsWith(theirs) {
				return mine, theirs, true
			}
		}
	}
	return Request{}, Request{}, false
}

// Equal reports whether both sets contain the same families with equal
// ranges, regardless of order.
func (s *ConstraintSet) Equal(other *ConstraintSet) bool {
	if len(s.reqs) != len(other.reqs) {
		return false
	}
	for _, mine := range s.reqs {
		theirs, ok := other.Get(mine.Name)
		if !ok || !mine.Range.Equal(theirs.Range) {
			return false
		}
	}
	return true
}

// String renders the set as a bracketed list of requests in insertion
// order, e.g. ["platform-linux", "arch-x86_64", "python-3.9+"].
func (s *ConstraintSet) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, req := range s.reqs {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('"')
		b.WriteString(req.String())
		b.WriteByte('"')
	}
	b.WriteByte(']')
	return b.String()
}
