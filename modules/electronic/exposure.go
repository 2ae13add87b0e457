package electronic

import (
	"context"

	"github.com/specialistvlad/lightpath/internal/ctxlog"
	"github.com/specialistvlad/lightpath/internal/effect"
	"github.com/specialistvlad/lightpath/internal/imageplane"
	"github.com/specialistvlad/lightpath/internal/simerr"
	"github.com/specialistvlad/lightpath/internal/sysstate"
)

// integration resolves dit and ndit and returns their product.
func integration(b *effect.Base, state *sysstate.Store) (dit float64, ndit int, err error) {
	dit, err = b.Float(state, "dit")
	if err != nil {
		return 0, 0, err
	}
	ndit, err = b.Int(state, "ndit")
	if err != nil {
		return 0, 0, err
	}
	if dit <= 0 {
		return 0, 0, simerr.InvalidParameter("electronic.integration", b.Name()+".dit", "must be positive, got %v", dit)
	}
	if ndit < 1 {
		return 0, 0, simerr.InvalidParameter("electronic.integration", b.Name()+".ndit", "must be at least 1, got %d", ndit)
	}
	return dit, ndit, nil
}

// SummedExposure turns a rate image (e-/s) into the counts summed over all
// frames: value * dit * ndit.
type SummedExposure struct {
	effect.Base
}

// NewSummedExposure is the constructor for kind summed_exposure.
func NewSummedExposure(def effect.Definition) (effect.Effect, error) {
	base, err := effect.NewBase(def, exposureDefaults())
	if err != nil {
		return nil, err
	}
	return &SummedExposure{Base: base}, nil
}

// Apply scales the plane in place.
func (s *SummedExposure) Apply(ctx context.Context, state *sysstate.Store, plane *imageplane.ImagePlane) (*imageplane.ImagePlane, error) {
	if err := effect.CheckPlane(s.Name(), plane); err != nil {
		return nil, err
	}
	dit, ndit, err := integration(&s.Base, state)
	if err != nil {
		return nil, err
	}
	plane.Scale(dit * float64(ndit))
	plane.Header.Set("DIT", dit, "[s] frame integration time")
	plane.Header.Set("NDIT", ndit, "number of frames")
	plane.Header.Set("EXPTIME", dit*float64(ndit), "[s] total integration time")

	ctxlog.FromContext(ctx).Debug("Summed exposure applied.", "effect", s.Name(), "dit", dit, "ndit", ndit)
	return plane, nil
}

// DarkCurrent adds the thermal signal dark_current * dit * ndit to every
// pixel. dark_current is in e-/s/pixel.
type DarkCurrent struct {
	effect.Base
}

// NewDarkCurrent is the constructor for kind dark_current.
func NewDarkCurrent(def effect.Definition) (effect.Effect, error) {
	base, err := effect.NewBase(def, exposureDefaults())
	if err != nil {
		return nil, err
	}
	if err := base.Require("dark_current"); err != nil {
		return nil, err
	}
	return &DarkCurrent{Base: base}, nil
}

// Apply adds the dark signal in place.
func (d *DarkCurrent) Apply(ctx context.Context, state *sysstate.Store, plane *imageplane.ImagePlane) (*imageplane.ImagePlane, error) {
	if err := effect.CheckPlane(d.Name(), plane); err != nil {
		return nil, err
	}
	dark, err := d.Float(state, "dark_current")
	if err != nil {
		return nil, err
	}
	if dark < 0 {
		return nil, simerr.InvalidParameter("electronic.DarkCurrent", d.Name()+".dark_current", "must not be negative, got %v", dark)
	}
	dit, ndit, err := integration(&d.Base, state)
	if err != nil {
		return nil, err
	}
	plane.Add(dark * dit * float64(ndit))

	ctxlog.FromContext(ctx).Debug("Dark current applied.", "effect", d.Name(), "dark_current", dark, "dit", dit, "ndit", ndit)
	return plane, nil
}
