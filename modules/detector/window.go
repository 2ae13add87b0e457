package detector

import (
	"context"

	"github.com/specialistvlad/lightpath/internal/ctxlog"
	"github.com/specialistvlad/lightpath/internal/effect"
	"github.com/specialistvlad/lightpath/internal/imageplane"
	"github.com/specialistvlad/lightpath/internal/simerr"
	"github.com/specialistvlad/lightpath/internal/sysstate"
)

// Window is a rectangular detector readout. width and height are in pixels,
// x and y place its centre on sky in arcsec, pixel_scale is in arcsec/pix.
//
// Window is geometric: the optics manager sizes the image plane from it.
// Applied to a plane, it reads out its footprint from that plane.
type Window struct {
	effect.Base
}

var _ effect.Geometric = (*Window)(nil)

// NewWindow is the constructor for kind detector_window.
func NewWindow(def effect.Definition) (effect.Effect, error) {
	base, err := effect.NewBase(def, map[string]any{
		"x":           0.0,
		"y":           0.0,
		"pixel_scale": "!INST.pixel_scale",
	})
	if err != nil {
		return nil, err
	}
	if err := base.Require("width", "height"); err != nil {
		return nil, err
	}
	return &Window{Base: base}, nil
}

// Geometry resolves the window footprint.
func (w *Window) Geometry(state *sysstate.Store) (imageplane.Geometry, error) {
	const op = "detector.Window"

	width, err := w.Int(state, "width")
	if err != nil {
		return imageplane.Geometry{}, err
	}
	height, err := w.Int(state, "height")
	if err != nil {
		return imageplane.Geometry{}, err
	}
	scale, err := w.Float(state, "pixel_scale")
	if err != nil {
		return imageplane.Geometry{}, err
	}
	x, err := w.Float(state, "x")
	if err != nil {
		return imageplane.Geometry{}, err
	}
	y, err := w.Float(state, "y")
	if err != nil {
		return imageplane.Geometry{}, err
	}

	if width <= 0 || height <= 0 {
		return imageplane.Geometry{}, simerr.InvalidParameter(op, w.Name(), "window must have positive size, got %dx%d", width, height)
	}
	if scale <= 0 {
		return imageplane.Geometry{}, simerr.InvalidParameter(op, w.Name()+".pixel_scale", "must be positive, got %v", scale)
	}
	return imageplane.Geometry{Width: width, Height: height, PixelScale: scale, XCenter: x, YCenter: y}, nil
}

// Apply returns the part of plane the window sees, as a new plane.
func (w *Window) Apply(ctx context.Context, state *sysstate.Store, plane *imageplane.ImagePlane) (*imageplane.ImagePlane, error) {
	if err := effect.CheckPlane(w.Name(), plane); err != nil {
		return nil, err
	}
	g, err := w.Geometry(state)
	if err != nil {
		return nil, err
	}
	out, err := plane.Extract(g, w.Name())
	if err != nil {
		return nil, err
	}
	// Keep whatever earlier effects recorded.
	for _, c := range plane.Header.Cards() {
		if _, exists := out.Header.Get(c.Name); !exists {
			out.Header.Set(c.Name, c.Value, c.Comment)
		}
	}

	ctxlog.FromContext(ctx).Debug("Detector window read out.", "effect", w.Name(),
		"width", g.Width, "height", g.Height, "x", g.XCenter, "y", g.YCenter)
	return out, nil
}
