package core

import "fmt"

// Format identifies the serialization used at the system boundary.
type Format int

// Supported serialization formats.
const (
	FormatJSON Format = iota
	FormatYAML
)

// ParseFormat maps a wire string to a Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return 0, fmt.Errorf("%w %q", ErrInvalidFormat, s)
	}
}

// String returns the wire string of the format.
func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	default:
		return "unknown"
	}
}
