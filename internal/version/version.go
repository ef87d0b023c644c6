// Package version implements OSGi bundle versions.
//
// A version has the form major[.minor[.micro[.qualifier]]]. Missing numeric
// segments default to zero and the qualifier compares as a plain string, so
// "1.10.0" sorts after "1.2.0" and "1.0.0.v2" sorts after "1.0.0".
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a parsed OSGi version.
type Version struct {
	Major     int
	Minor     int
	Micro     int
	Qualifier string
}

// Empty is the version used when a bundle declares none.
var Empty = Version{}

// Parse parses an OSGi version string.
// Surrounding whitespace is ignored; an empty string parses to Empty.
func Parse(s string) (Version, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Empty, nil
	}

	parts := strings.SplitN(s, ".", 4)
	var v Version
	nums := []*int{&v.Major, &v.Minor, &v.Micro}
	for i, p := range parts {
		if i == 3 {
			if !validQualifier(p) {
				return Empty, fmt.Errorf("invalid version %q: bad qualifier %q", s, p)
			}
			v.Qualifier = p
			break
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Empty, fmt.Errorf("invalid version %q: segment %q is not a non-negative number", s, p)
		}
		*nums[i] = n
	}
	return v, nil
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

func validQualifier(q string) bool {
	if q == "" {
		return false
	}
	for _, r := range q {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}

// Compare returns -1, 0 or 1 comparing v to o.
func (v Version) Compare(o Version) int {
	if c := cmpInt(v.Major, o.Major); c != 0 {
		return c
	}
	if c := cmpInt(v.Minor, o.Minor); c != 0 {
		return c
	}
	if c := cmpInt(v.Micro, o.Micro); c != 0 {
		return c
	}
	return strings.Compare(v.Qualifier, o.Qualifier)
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// String returns the canonical form, omitting an empty qualifier.
func (v Version) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Micro)
	if v.Qualifier != "" {
		s += "." + v.Qualifier
	}
	return s
}

// CompareStrings compares two version strings. Unparsable strings sort before
// parsable ones and compare lexically among themselves.
func CompareStrings(a, b string) int {
	va, errA := Parse(a)
	vb, errB := Parse(b)
	switch {
	case errA != nil && errB != nil:
		return strings.Compare(a, b)
	case errA != nil:
		return -1
	case errB != nil:
		return 1
	}
	return va.Compare(vb)
}

// Range is a version range such as "[1.0.0,2.0.0)". A bare version means
// "at least this version".
type Range struct {
	Min          Version
	Max          *Version
	MinExclusive bool
	MaxExclusive bool
}

// ParseRange parses an OSGi version range. An empty string matches everything.
func ParseRange(s string) (Range, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Range{}, nil
	}
	if s[0] != '[' && s[0] != '(' {
		v, err := Parse(s)
		if err != nil {
			return Range{}, err
		}
		return Range{Min: v}, nil
	}

	last := s[len(s)-1]
	if last != ']' && last != ')' {
		return Range{}, fmt.Errorf("invalid version range %q", s)
	}
	lo, hi, ok := strings.Cut(s[1:len(s)-1], ",")
	if !ok {
		return Range{}, fmt.Errorf("invalid version range %q: missing comma", s)
	}
	minV, err := Parse(lo)
	if err != nil {
		return Range{}, fmt.Errorf("invalid version range %q: %w", s, err)
	}
	maxV, err := Parse(hi)
	if err != nil {
		return Range{}, fmt.Errorf("invalid version range %q: %w", s, err)
	}
	return Range{
		Min:          minV,
		Max:          &maxV,
		MinExclusive: s[0] == '(',
		MaxExclusive: last == ')',
	}, nil
}

// Includes reports whether v lies within r.
func (r Range) Includes(v Version) bool {
	c := v.Compare(r.Min)
	if c < 0 || (c == 0 && r.MinExclusive) {
		return false
	}
	if r.Max == nil {
		return true
	}
	c = v.Compare(*r.Max)
	return c < 0 || (c == 0 && !r.MaxExclusive)
}
