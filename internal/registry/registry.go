package registry

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/specialistvlad/lightpath/internal/effect"
	"github.com/specialistvlad/lightpath/internal/simerr"
)

// Module is the interface that all effect modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds the effect constructors for a single application instance.
type Registry struct {
	kinds map[string]effect.Constructor
}

// New creates a registry and registers every given module into it.
func New(modules ...Module) *Registry {
	r := &Registry{kinds: make(map[string]effect.Constructor)}
	for _, m := range modules {
		m.Register(r)
	}
	return r
}

// RegisterKind adds the constructor for kind.
func (r *Registry) RegisterKind(kind string, ctor effect.Constructor) {
	if _, exists := r.kinds[kind]; exists {
		panic(fmt.Sprintf("effect kind '%s' already registered", kind))
	}
	slog.Debug("Registering effect kind.", "kind", kind)
	r.kinds[kind] = ctor
}

// Kinds returns the registered kind tags in sorted order.
func (r *Registry) Kinds() []string {
	return slices.Sorted(maps.Keys(r.kinds))
}

// Has reports whether kind is registered.
func (r *Registry) Has(kind string) bool {
	_, ok := r.kinds[kind]
	return ok
}

// Build constructs the effect described by def.
func (r *Registry) Build(def effect.Definition) (effect.Effect, error) {
	ctor, ok := r.kinds[def.Kind]
	if !ok {
		return nil, simerr.Format("registry.Build", def.Name, "unknown effect kind %q", def.Kind)
	}
	fx, err := ctor(def)
	if err != nil {
		return nil, fmt.Errorf("building effect '%s' of kind '%s': %w", def.Name, def.Kind, err)
	}
	return fx, nil
}
