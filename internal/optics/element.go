package optics

import (
	"maps"
	"slices"

	"github.com/specialistvlad/lightpath/internal/effect"
	"github.com/specialistvlad/lightpath/internal/imageplane"
	"github.com/specialistvlad/lightpath/internal/keypath"
	"github.com/specialistvlad/lightpath/internal/registry"
	"github.com/specialistvlad/lightpath/internal/simerr"
	"github.com/specialistvlad/lightpath/internal/sysstate"
)

// Element is a named, ordered group of effects, typically one optical
// component or the detector.
type Element struct {
	name    string
	meta    map[string]any
	effects []effect.Effect
}

// newElement builds the effects of def in list order. On failure every
// effect built so far is closed again.
func newElement(reg *registry.Registry, def effect.GroupDefinition) (_ *Element, err error) {
	const op = "optics.newElement"
	if !keypath.ValidSegment(def.Name) {
		return nil, simerr.Address(op, def.Name, "element names must be a single non-empty path segment")
	}

	var built []effect.Effect
	defer func() {
		if err != nil {
			_ = closeEffects(built)
		}
	}()

	seen := make(map[string]struct{}, len(def.Effects))
	for _, fxDef := range def.Effects {
		if _, dup := seen[fxDef.Name]; dup {
			return nil, simerr.Address(op, def.Name+keypath.Separator+fxDef.Name, "duplicate effect name in element")
		}
		seen[fxDef.Name] = struct{}{}

		fx, err := reg.Build(fxDef)
		if err != nil {
			return nil, err
		}
		built = append(built, fx)
	}

	meta := maps.Clone(def.Metadata)
	if meta == nil {
		meta = make(map[string]any)
	}
	return &Element{name: def.Name, meta: meta, effects: built}, nil
}

// Name returns the element name.
func (e *Element) Name() string { return e.name }

// Meta returns the element metadata.
func (e *Element) Meta() map[string]any { return e.meta }

// Effects returns the effects in pipeline order.
func (e *Element) Effects() []effect.Effect { return slices.Clone(e.effects) }

// Effect returns the effect called name.
func (e *Element) Effect(name string) (effect.Effect, bool) {
	for _, fx := range e.effects {
		if fx.Name() == name {
			return fx, true
		}
	}
	return nil, false
}

// Geometry unions the footprints of the element's included geometric
// effects. ok is false when there are none.
func (e *Element) Geometry(state *sysstate.Store) (g imageplane.Geometry, ok bool, err error) {
	var gs []imageplane.Geometry
	for _, fx := range e.effects {
		geo, isGeo := fx.(effect.Geometric)
		if !isGeo {
			continue
		}
		inc, err := fx.Included(state)
		if err != nil {
			return imageplane.Geometry{}, false, err
		}
		if !inc {
			continue
		}
		fg, err := geo.Geometry(state)
		if err != nil {
			return imageplane.Geometry{}, false, err
		}
		gs = append(gs, fg)
	}
	if len(gs) == 0 {
		return imageplane.Geometry{}, false, nil
	}
	return imageplane.Union(gs...), true, nil
}
