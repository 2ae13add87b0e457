package sysstate

import (
	"maps"
	"slices"
	"sync"

	"github.com/specialistvlad/lightpath/internal/keypath"
	"github.com/specialistvlad/lightpath/internal/simerr"
)

// Store is a hierarchical key/value tree. Namespaces are map[string]any
// nodes; anything else is a leaf value.
type Store struct {
	mu   sync.RWMutex
	root map[string]any
}

// New creates an empty Store.
func New() *Store {
	return &Store{root: make(map[string]any)}
}

// NewFromMap creates a Store seeded with props, as Merge("", props) would.
func NewFromMap(props map[string]any) (*Store, error) {
	s := New()
	if err := s.Merge("", props); err != nil {
		return nil, err
	}
	return s, nil
}

// Get returns the value stored at path. Namespaces are returned as a copy.
func (s *Store) Get(path string) (any, error) {
	p, err := keypath.Parse(path)
	if err != nil {
		return nil, simerr.Wrap(simerr.ErrConfigKey, err, "sysstate.Get", path)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var node any = s.root
	for i, seg := range p.Segments {
		ns, ok := node.(map[string]any)
		if !ok {
			return nil, simerr.ConfigKey("sysstate.Get", path,
				"%q holds a value, not a namespace", keypath.Path{Segments: p.Segments[:i]}.String())
		}
		node, ok = ns[seg]
		if !ok {
			return nil, simerr.ConfigKey("sysstate.Get", path, "segment %q not found", seg)
		}
	}
	return copyValue(node), nil
}

// Has reports whether path exists.
func (s *Store) Has(path string) bool {
	_, err := s.Get(path)
	return err == nil
}

// Set writes value at path, creating intermediate namespaces. An existing
// leaf is overwritten in place; writing beneath a leaf fails.
func (s *Store) Set(path string, value any) error {
	p, err := keypath.Parse(path)
	if err != nil {
		return simerr.Wrap(simerr.ErrConfigKey, err, "sysstate.Set", path)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ns := s.root
	for i, seg := range p.Segments[:p.Len()-1] {
		next, ok := ns[seg]
		if !ok {
			child := make(map[string]any)
			ns[seg] = child
			ns = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return simerr.ConfigKey("sysstate.Set", path,
				"%q holds a value, not a namespace", keypath.Path{Segments: p.Segments[:i+1]}.String())
		}
		ns = child
	}
	ns[p.Last()] = copyValue(value)
	return nil
}

// Merge writes every entry of props below prefix (which may be empty). Nested
// maps are merged recursively, so existing siblings survive. Keys may be
// dotted paths and may carry the reference marker, e.g. "!OBS.dit".
func (s *Store) Merge(prefix string, props map[string]any) error {
	for _, key := range slices.Sorted(maps.Keys(props)) {
		full := key
		if ref, ok := keypath.Reference(key); ok {
			full = ref
		}
		if prefix != "" {
			full = prefix + keypath.Separator + full
		}
		if nested, ok := props[key].(map[string]any); ok && len(nested) > 0 {
			if err := s.Merge(full, nested); err != nil {
				return err
			}
			continue
		}
		if err := s.Set(full, props[key]); err != nil {
			return err
		}
	}
	return nil
}

// Flatten returns every leaf keyed by its full dotted path.
func (s *Store) Flatten() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]any)
	var walk func(prefix string, ns map[string]any)
	walk = func(prefix string, ns map[string]any) {
		for k, v := range ns {
			full := k
			if prefix != "" {
				full = prefix + keypath.Separator + k
			}
			if child, ok := v.(map[string]any); ok {
				walk(full, child)
				continue
			}
			out[full] = copyValue(v)
		}
	}
	walk("", s.root)
	return out
}

// copyValue deep-copies namespaces and lists so callers never alias the tree.
func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = copyValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = copyValue(val)
		}
		return out
	default:
		return v
	}
}
