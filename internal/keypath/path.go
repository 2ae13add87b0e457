package keypath

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// segmentRegex matches a single path segment, e.g. `OBS` or `wave_min`.
var segmentRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidSegment reports whether name can be used as one path segment. Element
// and effect names must satisfy it so that addresses stay unambiguous.
func ValidSegment(name string) bool {
	return name != "-" && segmentRegex.MatchString(name)
}

// Parse creates a Path from its canonical string form.
func Parse(raw string) (Path, error) {
	if raw == "" {
		return Path{}, fmt.Errorf("path cannot be empty")
	}

	parts := strings.Split(raw, Separator)
	for _, seg := range parts {
		if seg == "" {
			return Path{}, fmt.Errorf("path %q contains empty segment", raw)
		}
		if !ValidSegment(seg) {
			return Path{}, fmt.Errorf("invalid path segment %q in %q", seg, raw)
		}
	}
	return Path{Segments: parts}, nil
}

// String serializes the Path into its canonical form.
func (p Path) String() string {
	return strings.Join(p.Segments, Separator)
}

// Equal reports whether both paths have the same segments.
func (p Path) Equal(other Path) bool {
	return slices.Equal(p.Segments, other.Segments)
}

// Join appends segments to a copy of p.
func (p Path) Join(segments ...string) Path {
	out := make([]string, 0, len(p.Segments)+len(segments))
	out = append(out, p.Segments...)
	out = append(out, segments...)
	return Path{Segments: out}
}
