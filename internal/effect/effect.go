package effect

import (
	"context"

	"github.com/specialistvlad/lightpath/internal/imageplane"
	"github.com/specialistvlad/lightpath/internal/sysstate"
)

// Effect is one processing step of the pipeline.
type Effect interface {
	Name() string
	Kind() string
	Meta() map[string]any

	// ParamKeys lists the parameter names in sorted order.
	ParamKeys() []string
	// Param returns the named parameter resolved against state. A name the
	// effect does not have is an address error.
	Param(state *sysstate.Store, key string) (any, error)
	// Included resolves the "include" parameter; excluded effects are skipped.
	Included(state *sysstate.Store) (bool, error)

	// Apply runs the effect. It may modify plane in place and return it, or
	// return a new plane.
	Apply(ctx context.Context, state *sysstate.Store, plane *imageplane.ImagePlane) (*imageplane.ImagePlane, error)
}

// Geometric effects describe a detector footprint. The optics manager
// aggregates them into the image-plane headers.
type Geometric interface {
	Effect
	Geometry(state *sysstate.Store) (imageplane.Geometry, error)
}

// Constructor builds an effect of one kind from its definition.
type Constructor func(def Definition) (Effect, error)
