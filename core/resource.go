package core

import "fmt"

// Type is the closed taxonomy of catalog content categories.
type Type int

// Content categories. The order is not significant; the wire strings are.
const (
	TypeDecoder Type = iota
	TypeRule
	TypeFilter
	TypeOutput
	TypeIntegration
	TypePolicy
	TypeSchema
)

// typeNames is the bijective mapping between Type and its wire string.
var typeNames = map[Type]string{
	TypeDecoder:     "decoder",
	TypeRule:        "rule",
	TypeFilter:      "filter",
	TypeOutput:      "output",
	TypeIntegration: "integration",
	TypePolicy:      "policy",
	TypeSchema:      "schema",
}

// ParseType maps a wire string to a Type. Unknown strings fail with
// ErrInvalidType carrying the offending string verbatim.
func ParseType(s string) (Type, error) {
	for t, name := range typeNames {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w %q", ErrInvalidType, s)
}

// String returns the wire string of the type.
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "unknown"
}

// Types returns every known content type in declaration order.
func Types() []Type {
	return []Type{
		TypeDecoder,
		TypeRule,
		TypeFilter,
		TypeOutput,
		TypeIntegration,
		TypePolicy,
		TypeSchema,
	}
}

// Resource pairs a Name with a serialization Format and the Type derived
// from the name's first segment. It is a value object recomputed per
// request and owns nothing.
type Resource struct {
	Name   Name
	Format Format
	Type   Type
}

// NewResource derives a Resource from a Name and a Format. The only check
// performed here is the type taxonomy on the first segment; segment-count
// legality depends on the operation and is checked by the catalog.
func NewResource(name Name, format Format) (Resource, error) {
	t, err := ParseType(name.Part(0))
	if err != nil {
		return Resource{}, err
	}
	return Resource{Name: name, Format: format, Type: t}, nil
}

// IsCollection reports whether the resource addresses a whole content
// collection (single-segment name) rather than a single item.
func (r Resource) IsCollection() bool {
	return r.Name.NumParts() == 1
}
