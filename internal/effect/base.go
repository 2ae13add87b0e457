package effect

import (
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/specialistvlad/lightpath/internal/datasource"
	"github.com/specialistvlad/lightpath/internal/imageplane"
	"github.com/specialistvlad/lightpath/internal/keypath"
	"github.com/specialistvlad/lightpath/internal/simerr"
	"github.com/specialistvlad/lightpath/internal/sysstate"
)

// Base carries the name, kind, raw parameters and metadata of an effect.
type Base struct {
	name   string
	kind   string
	params map[string]any
	meta   map[string]any
}

// NewBase copies def. defaults fill parameters the definition leaves out;
// every effect gets include=true unless it says otherwise.
func NewBase(def Definition, defaults map[string]any) (Base, error) {
	if def.Name == "" {
		return Base{}, simerr.Format("effect.NewBase", def.Kind, "effect definition has no name")
	}
	if !keypath.ValidSegment(def.Name) {
		return Base{}, simerr.Address("effect.NewBase", def.Name, "effect names must be a single path segment")
	}

	params := map[string]any{"include": true}
	maps.Copy(params, defaults)
	maps.Copy(params, def.Parameters)

	meta := maps.Clone(def.Metadata)
	if meta == nil {
		meta = make(map[string]any)
	}
	return Base{name: def.Name, kind: def.Kind, params: params, meta: meta}, nil
}

// Name returns the effect name.
func (b *Base) Name() string { return b.name }

// Kind returns the kind tag the effect was built for.
func (b *Base) Kind() string { return b.kind }

// Meta returns the effect metadata.
func (b *Base) Meta() map[string]any { return b.meta }

// ParamKeys implements Effect.
func (b *Base) ParamKeys() []string {
	return slices.Sorted(maps.Keys(b.params))
}

// Raw returns the unresolved parameter value.
func (b *Base) Raw(key string) (any, bool) {
	v, ok := b.params[key]
	return v, ok
}

// Param implements Effect.
func (b *Base) Param(state *sysstate.Store, key string) (any, error) {
	raw, ok := b.params[key]
	if !ok {
		return nil, simerr.Address("effect.Param", b.name+keypath.Separator+key, "effect has no parameter %q", key)
	}
	return state.Resolve(raw)
}

// Params returns every parameter resolved against state.
func (b *Base) Params(state *sysstate.Store) (map[string]any, error) {
	return state.ResolveMap(b.params)
}

// Included implements Effect.
func (b *Base) Included(state *sysstate.Store) (bool, error) {
	v, err := b.Param(state, "include")
	if err != nil {
		return false, err
	}
	inc, ok := v.(bool)
	if !ok {
		return false, simerr.InvalidParameter("effect.Included", b.name, "include must be a bool, got %T", v)
	}
	return inc, nil
}

// Float resolves a numeric parameter.
func (b *Base) Float(state *sysstate.Store, key string) (float64, error) {
	v, err := b.Param(state, key)
	if err != nil {
		return 0, err
	}
	f, ok := datasource.ToFloat(v)
	if !ok {
		return 0, simerr.InvalidParameter("effect.Float", b.name+"."+key, "expected a number, got %T (%v)", v, v)
	}
	return f, nil
}

// OptionalFloat resolves a numeric parameter that may be absent or null.
// set is false in both of those cases.
func (b *Base) OptionalFloat(state *sysstate.Store, key string) (f float64, set bool, err error) {
	if _, ok := b.params[key]; !ok {
		return 0, false, nil
	}
	v, err := b.Param(state, key)
	if err != nil || v == nil {
		return 0, false, err
	}
	f, ok := datasource.ToFloat(v)
	if !ok {
		return 0, false, simerr.InvalidParameter("effect.OptionalFloat", b.name+"."+key, "expected a number or null, got %T (%v)", v, v)
	}
	return f, true, nil
}

// Int resolves an integral parameter.
func (b *Base) Int(state *sysstate.Store, key string) (int, error) {
	f, err := b.Float(state, key)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, simerr.InvalidParameter("effect.Int", b.name+"."+key, "expected an integer, got %v", f)
	}
	return int(f), nil
}

// String resolves a string parameter.
func (b *Base) String(state *sysstate.Store, key string) (string, error) {
	v, err := b.Param(state, key)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", simerr.InvalidParameter("effect.String", b.name+"."+key, "expected a string, got %T", v)
	}
	return s, nil
}

// RefPath returns the system-state path a reference parameter points at,
// for effects that write their results back through the reference.
func (b *Base) RefPath(key string) (string, error) {
	raw, ok := b.params[key]
	if !ok {
		return "", simerr.Address("effect.RefPath", b.name+"."+key, "effect has no parameter %q", key)
	}
	path, ok := keypath.Reference(raw)
	if !ok {
		return "", simerr.InvalidParameter("effect.RefPath", b.name+"."+key,
			"expected a system-state reference like %q, got %v", keypath.Ref("OBS.dit"), raw)
	}
	return path, nil
}

// Address formats the manager address of a parameter.
func Address(element, effect, param string) string {
	return fmt.Sprintf("%s%s.%s.%s", keypath.AddrMarker, element, effect, param)
}

// Require fails when any of keys is missing from the definition. Kinds call
// it from their constructors so a bad definition fails before the run starts.
func (b *Base) Require(keys ...string) error {
	var missing []string
	for _, k := range keys {
		if _, ok := b.params[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return simerr.Format("effect.Require", b.name, "missing required parameters %v", missing)
	}
	return nil
}

// CheckPlane rejects a nil image plane.
func CheckPlane(name string, plane *imageplane.ImagePlane) error {
	if plane == nil {
		return simerr.InvalidParameter("effect.Apply", name, "no image plane to apply to")
	}
	return nil
}
