package version

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidConstraint is returned for malformed version ranges
var ErrInvalidConstraint = errors.New("invalid version constraint")

// Bound is one end of a range; a nil Version means unbounded
type Bound struct {
	Version   *Version
	Inclusive bool
}

// Range is a single interval such as [1.0,2.0)
type Range struct {
	Lower Bound
	Upper Bound
}

// Contains reports whether v lies inside the range
func (r Range) Contains(v Version) bool {
	if r.Lower.Version != nil {
		c := v.Compare(*r.Lower.Version)
		if c < 0 || (c == 0 && !r.Lower.Inclusive) {
			return false
		}
	}
	if r.Upper.Version != nil {
		c := v.Compare(*r.Upper.Version)
		if c > 0 || (c == 0 && !r.Upper.Inclusive) {
			return false
		}
	}
	return true
}

func (r Range) String() string {
	var b strings.Builder
	if r.Lower.Inclusive {
		b.WriteByte('[')
	} else {
		b.WriteByte('(')
	}
	if r.Lower.Version != nil {
		b.WriteString(r.Lower.Version.String())
	}
	if r.Lower.Version != nil && r.Upper.Version != nil && r.Lower.Inclusive && r.Upper.Inclusive &&
		r.Lower.Version.Equal(*r.Upper.Version) {
		b.WriteByte(']')
		return b.String()
	}
	b.WriteByte(',')
	if r.Upper.Version != nil {
		b.WriteString(r.Upper.Version.String())
	}
	if r.Upper.Inclusive {
		b.WriteByte(']')
	} else {
		b.WriteByte(')')
	}
	return b.String()
}

// Constraint is either an exact version or a union of ranges
type Constraint struct {
	raw    string
	exact  *Version
	ranges []Range
}

// ParseConstraint parses "1.0", "[1.0]", "[1.0,2.0)", "(,1.0]" or unions such
// as "[1,2),[3,4)".
func ParseConstraint(s string) (Constraint, error) {
	raw := s
	s = strings.TrimSpace(s)
	if s == "" {
		return Constraint{}, fmt.Errorf("%w: empty", ErrInvalidConstraint)
	}

	if s[0] != '[' && s[0] != '(' {
		if strings.ContainsAny(s, "[](),") {
			return Constraint{}, fmt.Errorf("%w: %q", ErrInvalidConstraint, raw)
		}
		v := Parse(s)
		return Constraint{raw: raw, exact: &v}, nil
	}

	c := Constraint{raw: raw}
	for len(s) > 0 {
		end := strings.IndexAny(s, "])")
		if end < 0 {
			return Constraint{}, fmt.Errorf("%w: unterminated range in %q", ErrInvalidConstraint, raw)
		}
		r, err := parseRange(s[:end+1])
		if err != nil {
			return Constraint{}, fmt.Errorf("%w: %q: %v", ErrInvalidConstraint, raw, err)
		}
		c.ranges = append(c.ranges, r)

		s = strings.TrimSpace(s[end+1:])
		if s == "" {
			break
		}
		if s[0] != ',' {
			return Constraint{}, fmt.Errorf("%w: expected ',' between ranges in %q", ErrInvalidConstraint, raw)
		}
		s = strings.TrimSpace(s[1:])
		if s == "" {
			return Constraint{}, fmt.Errorf("%w: trailing ',' in %q", ErrInvalidConstraint, raw)
		}
	}
	return c, nil
}

// MustParseConstraint is like ParseConstraint but panics on error
func MustParseConstraint(s string) Constraint {
	c, err := ParseConstraint(s)
	if err != nil {
		panic(err)
	}
	return c
}

func parseRange(s string) (Range, error) {
	if len(s) < 2 {
		return Range{}, errors.New("range too short")
	}
	open, close := s[0], s[len(s)-1]
	if open != '[' && open != '(' {
		return Range{}, fmt.Errorf("unexpected %q", open)
	}
	body := strings.TrimSpace(s[1 : len(s)-1])

	if !strings.Contains(body, ",") {
		if open != '[' || close != ']' || body == "" {
			return Range{}, fmt.Errorf("single version range must be [v], got %q", s)
		}
		v := Parse(body)
		return Range{
			Lower: Bound{Version: &v, Inclusive: true},
			Upper: Bound{Version: &v, Inclusive: true},
		}, nil
	}

	parts := strings.Split(body, ",")
	if len(parts) != 2 {
		return Range{}, fmt.Errorf("too many bounds in %q", s)
	}
	r := Range{
		Lower: Bound{Inclusive: open == '['},
		Upper: Bound{Inclusive: close == ']'},
	}
	if lo := strings.TrimSpace(parts[0]); lo != "" {
		v := Parse(lo)
		r.Lower.Version = &v
	}
	if hi := strings.TrimSpace(parts[1]); hi != "" {
		v := Parse(hi)
		r.Upper.Version = &v
	}
	if r.Lower.Version != nil && r.Upper.Version != nil && r.Upper.Version.Less(*r.Lower.Version) {
		return Range{}, fmt.Errorf("lower bound above upper bound in %q", s)
	}
	return r, nil
}

// IsRange reports whether the constraint needs resolution against a repository
func (c Constraint) IsRange() bool { return c.exact == nil }

// Exact returns the pinned version of a non-range constraint
func (c Constraint) Exact() (Version, bool) {
	if c.exact == nil {
		return Version{}, false
	}
	return *c.exact, true
}

// Ranges returns the ranges of a range constraint
func (c Constraint) Ranges() []Range { return c.ranges }

// Contains reports whether v satisfies the constraint
func (c Constraint) Contains(v Version) bool {
	if c.exact != nil {
		return c.exact.Equal(v)
	}
	for _, r := range c.ranges {
		if r.Contains(v) {
			return true
		}
	}
	return false
}

// Filter returns the candidates satisfying the constraint, preserving order
func (c Constraint) Filter(candidates []Version) []Version {
	var out []Version
	for _, v := range candidates {
		if c.Contains(v) {
			out = append(out, v)
		}
	}
	return out
}

func (c Constraint) String() string { return c.raw }
