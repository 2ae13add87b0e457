package detector

import (
	"context"
	"fmt"
	"sync"

	"github.com/specialistvlad/lightpath/internal/ctxlog"
	"github.com/specialistvlad/lightpath/internal/datasource"
	"github.com/specialistvlad/lightpath/internal/effect"
	"github.com/specialistvlad/lightpath/internal/imageplane"
	"github.com/specialistvlad/lightpath/internal/simerr"
	"github.com/specialistvlad/lightpath/internal/sysstate"
)

// FlatField multiplies the plane by a relative pixel response read from an
// image extension of a FITS file. ext selects the extension; layer selects
// a slice when the extension holds a cube.
//
// The file is opened on first use and held until Close.
type FlatField struct {
	effect.Base

	mu   sync.Mutex
	path string
	src  *datasource.SegmentedSource
}

// NewFlatField is the constructor for kind flat_field.
func NewFlatField(def effect.Definition) (effect.Effect, error) {
	base, err := effect.NewBase(def, map[string]any{"ext": 0, "layer": nil})
	if err != nil {
		return nil, err
	}
	if err := base.Require("filename"); err != nil {
		return nil, err
	}
	return &FlatField{Base: base}, nil
}

// source returns the open data source for path, reopening when the
// resolved filename changed since the last call.
func (f *FlatField) source(ctx context.Context, path string) (*datasource.SegmentedSource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.src != nil && f.path == path {
		return f.src, nil
	}
	if f.src != nil {
		if err := f.src.Close(); err != nil {
			return nil, err
		}
		f.src = nil
	}

	src, err := datasource.Open(path, map[string]any{"description": "flat field for " + f.Name()})
	if err != nil {
		return nil, fmt.Errorf("opening flat field for '%s': %w", f.Name(), err)
	}
	seg, ok := src.(*datasource.SegmentedSource)
	if !ok {
		_ = src.Close()
		return nil, simerr.Format("detector.FlatField", path, "flat field must be a FITS image")
	}
	ctxlog.FromContext(ctx).Debug("Flat field opened.", "effect", f.Name(), "path", path, "extensions", seg.NumSegments())
	f.src, f.path = seg, path
	return seg, nil
}

// Apply multiplies the plane in place.
func (f *FlatField) Apply(ctx context.Context, state *sysstate.Store, plane *imageplane.ImagePlane) (*imageplane.ImagePlane, error) {
	const op = "detector.FlatField"

	if err := effect.CheckPlane(f.Name(), plane); err != nil {
		return nil, err
	}
	path, err := f.String(state, "filename")
	if err != nil {
		return nil, err
	}
	ext, err := f.Int(state, "ext")
	if err != nil {
		return nil, err
	}
	var opts []datasource.GetOption
	layer, hasLayer, err := f.OptionalFloat(state, "layer")
	if err != nil {
		return nil, err
	}
	if hasLayer {
		opts = append(opts, datasource.WithLayer(int(layer)))
	}

	src, err := f.source(ctx, path)
	if err != nil {
		return nil, err
	}
	payload, err := src.Get(ext, opts...)
	if err != nil {
		return nil, err
	}
	arr, ok := payload.(*datasource.Array)
	if !ok || arr.NDim() != 2 {
		return nil, simerr.Format(op, fmt.Sprintf("%s[%d]", path, ext), "extension is not a 2-D image")
	}
	if arr.Shape[0] != plane.Height || arr.Shape[1] != plane.Width {
		return nil, simerr.InvalidParameter(op, f.Name(), "flat is %dx%d but the plane is %dx%d",
			arr.Shape[1], arr.Shape[0], plane.Width, plane.Height)
	}

	for i := range plane.Data {
		plane.Data[i] *= arr.Data[i]
	}
	ctxlog.FromContext(ctx).Debug("Flat field applied.", "effect", f.Name(), "path", path, "ext", ext)
	return plane, nil
}

// Close releases the flat-field file.
func (f *FlatField) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.src == nil {
		return nil
	}
	err := f.src.Close()
	f.src = nil
	return err
}
