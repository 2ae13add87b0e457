package sysstate

import "github.com/specialistvlad/lightpath/internal/keypath"

// Resolve returns the value a raw parameter stands for. A reference string
// (`!OBS.dit`) is replaced by the value stored at its path; anything else is
// returned unchanged. Only one level is followed: if the stored value is
// itself a reference string it is returned as is.
func (s *Store) Resolve(raw any) (any, error) {
	path, ok := keypath.Reference(raw)
	if !ok {
		return raw, nil
	}
	return s.Get(path)
}

// ResolveMap resolves every value of params, descending into nested maps and
// lists. The input is left untouched.
func (s *Store) ResolveMap(params map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(params))
	for k, v := range params {
		resolved, err := s.resolveDeep(v)
		if err != nil {
			return nil, err
		}
		out[k] = resolved
	}
	return out, nil
}

func (s *Store) resolveDeep(v any) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		return s.ResolveMap(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			resolved, err := s.resolveDeep(item)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	default:
		return s.Resolve(v)
	}
}
