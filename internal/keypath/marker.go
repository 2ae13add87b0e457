package keypath

import "strings"

// Reference returns the path named by a `!`-prefixed string. ok is false for
// any value that is not such a string; the path itself is not validated.
func Reference(v any) (path string, ok bool) {
	s, isString := v.(string)
	if !isString || !strings.HasPrefix(s, RefMarker) {
		return "", false
	}
	return strings.TrimPrefix(s, RefMarker), true
}

// Ref builds the reference string for path.
func Ref(path string) string {
	return RefMarker + path
}

// IsAddress reports whether key carries the manager address marker.
func IsAddress(key string) bool {
	return strings.HasPrefix(key, AddrMarker)
}

// SplitAddress strips the address marker and splits the remainder into its
// segments. A bare marker yields no segments; empty segments are kept so the
// caller can reject them.
func SplitAddress(key string) []string {
	body := strings.TrimPrefix(key, AddrMarker)
	if body == "" {
		return nil
	}
	return strings.Split(body, Separator)
}
