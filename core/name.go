package core

import (
	"fmt"
	"strings"
)

// NameDelimiter separates the segments of a hierarchical content name.
// It must not appear inside a segment.
const NameDelimiter = "/"

// Name is the hierarchical identifier of a piece of catalog content or a
// content collection, e.g. "decoder/syslog/0" or "decoder". A Name is
// immutable once constructed; equality is segment-wise.
type Name struct {
	parts []string
}

// NewName parses a delimited name string, e.g. "decoder/syslog/0".
func NewName(s string) (Name, error) {
	if s == "" {
		return Name{}, fmt.Errorf("%w: name is empty", ErrMalformedName)
	}
	parts := strings.Split(s, NameDelimiter)
	return NameFromParts(parts...)
}

// NameFromParts builds a Name from explicit segments.
func NameFromParts(parts ...string) (Name, error) {
	if len(parts) == 0 {
		return Name{}, fmt.Errorf("%w: name is empty", ErrMalformedName)
	}
	for _, part := range parts {
		if part == "" {
			return Name{}, fmt.Errorf("%w: name contains an empty segment", ErrMalformedName)
		}
	}
	n := Name{parts: make([]string, len(parts))}
	copy(n.parts, parts)
	return n, nil
}

// Parts returns a copy of the name's segments.
func (n Name) Parts() []string {
	parts := make([]string, len(n.parts))
	copy(parts, n.parts)
	return parts
}

// NumParts returns the segment count.
func (n Name) NumParts() int {
	return len(n.parts)
}

// Part returns the i-th segment. It panics if i is out of range, matching
// slice semantics.
func (n Name) Part(i int) string {
	return n.parts[i]
}

// String returns the delimited form of the name.
func (n Name) String() string {
	return strings.Join(n.parts, NameDelimiter)
}

// Equal reports whether two names have identical segments.
func (n Name) Equal(other Name) bool {
	if len(n.parts) != len(other.parts) {
		return false
	}
	for i := range n.parts {
		if n.parts[i] != other.parts[i] {
			return false
		}
	}
	return true
}
