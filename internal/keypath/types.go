package keypath

const (
	// Separator joins the segments of a path.
	Separator = "."
	// RefMarker prefixes a string that refers to a system-state path.
	RefMarker = "!"
	// AddrMarker prefixes a manager address string.
	AddrMarker = "#"
)

// Path is the structured form of a dot-separated hierarchical name.
type Path struct {
	Segments []string
}

// Len returns the number of segments.
func (p Path) Len() int {
	return len(p.Segments)
}

// Parent returns the path without its last segment.
func (p Path) Parent() Path {
	if len(p.Segments) == 0 {
		return p
	}
	return Path{Segments: p.Segments[:len(p.Segments)-1]}
}

// Last returns the final segment, or "" for an empty path.
func (p Path) Last() string {
	if len(p.Segments) == 0 {
		return ""
	}
	return p.Segments[len(p.Segments)-1]
}
