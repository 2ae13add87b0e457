package throughput

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/specialistvlad/lightpath/internal/ctxlog"
	"github.com/specialistvlad/lightpath/internal/datasource"
	"github.com/specialistvlad/lightpath/internal/effect"
	"github.com/specialistvlad/lightpath/internal/imageplane"
	"github.com/specialistvlad/lightpath/internal/simerr"
	"github.com/specialistvlad/lightpath/internal/sysstate"
)

// Kind tags.
const (
	KindTER    = "ter_curve"
	KindQE     = "qe_curve"
	KindFilter = "filter_curve"
)

// Column names every curve table must carry.
const (
	ColWavelength   = "wavelength"
	ColTransmission = "transmission"
)

// Curve is a transmission curve effect.
type Curve struct {
	effect.Base

	mu     sync.Mutex
	path   string // file the cached table came from; empty for literal data
	source datasource.Source
	table  *datasource.Table
}

func curveDefaults() map[string]any {
	return map[string]any{
		"wave_min": "!SIM.spectral.wave_min",
		"wave_max": "!SIM.spectral.wave_max",
	}
}

// NewTERCurve is the constructor for kind ter_curve.
func NewTERCurve(def effect.Definition) (effect.Effect, error) {
	return build(def)
}

// NewQECurve is the constructor for kind qe_curve.
func NewQECurve(def effect.Definition) (effect.Effect, error) {
	return build(def)
}

// NewFilterCurve is the constructor for kind filter_curve. Besides the usual
// sources, a filter may be named by filter_name plus a filename_format whose
// "{}" is replaced with the name, e.g. "filters/TC_filter_{}.dat".
func NewFilterCurve(def effect.Definition) (effect.Effect, error) {
	return build(def)
}

func build(def effect.Definition) (effect.Effect, error) {
	c, err := newCurve(def, curveDefaults())
	if err != nil {
		return nil, err
	}
	return c, nil
}

// NewFromTable builds a curve around a table that already lives in memory.
// def.Kind names the curve kind; def must not name another data source.
func NewFromTable(def effect.Definition, table *datasource.Table) (*Curve, error) {
	base, err := effect.NewBase(def, curveDefaults())
	if err != nil {
		return nil, err
	}
	src, err := datasource.FromTable(table, map[string]any{"name": def.Name})
	if err != nil {
		return nil, err
	}
	if err := checkColumns(def.Name, table); err != nil {
		return nil, err
	}
	return &Curve{Base: base, source: src, table: table}, nil
}

func newCurve(def effect.Definition, defaults map[string]any) (*Curve, error) {
	const op = "throughput.newCurve"

	base, err := effect.NewBase(def, defaults)
	if err != nil {
		return nil, err
	}
	c := &Curve{Base: base}

	_, hasFile := base.Raw("filename")
	arrays, hasArrays := base.Raw("array_dict")
	if !hasArrays {
		arrays, hasArrays = base.Raw("table")
	}
	_, hasFilter := base.Raw("filter_name")
	_, hasFormat := base.Raw("filename_format")
	byName := def.Kind == KindFilter && hasFilter && hasFormat

	sources := 0
	for _, has := range []bool{hasFile, hasArrays, byName} {
		if has {
			sources++
		}
	}
	if sources != 1 {
		return nil, simerr.Format(op, def.Name,
			"need exactly one of filename, array_dict or table (or filter_name with filename_format for filters), got %d", sources)
	}

	if hasArrays {
		m, ok := arrays.(map[string]any)
		if !ok {
			return nil, simerr.Format(op, def.Name, "array_dict must be a mapping of column name to values, got %T", arrays)
		}
		src, err := datasource.FromArrayMap(m, map[string]any{"name": def.Name}, ColWavelength, ColTransmission)
		if err != nil {
			return nil, err
		}
		c.source, c.table = src, src.Table()
		if err := checkColumns(def.Name, c.table); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func checkColumns(name string, t *datasource.Table) error {
	for _, col := range []string{ColWavelength, ColTransmission} {
		if _, ok := t.Column(col); !ok {
			return simerr.Format("throughput.checkColumns", name, "curve table has no %q column (has %v)", col, t.ColNames())
		}
	}
	return nil
}

// filename resolves the file the curve reads, if it reads one.
func (c *Curve) filename(state *sysstate.Store) (string, bool, error) {
	if _, ok := c.Raw("filename"); ok {
		path, err := c.String(state, "filename")
		return path, true, err
	}
	if _, ok := c.Raw("filename_format"); !ok {
		return "", false, nil
	}
	format, err := c.String(state, "filename_format")
	if err != nil {
		return "", true, err
	}
	filter, err := c.String(state, "filter_name")
	if err != nil {
		return "", true, err
	}
	return strings.ReplaceAll(format, "{}", filter), true, nil
}

// Table returns the curve table, loading or reloading the file when needed.
func (c *Curve) Table(ctx context.Context, state *sysstate.Store) (*datasource.Table, error) {
	path, fromFile, err := c.filename(state)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !fromFile || (c.table != nil && c.path == path) {
		return c.table, nil
	}
	if c.source != nil {
		if err := c.source.Close(); err != nil {
			return nil, err
		}
		c.source, c.table = nil, nil
	}

	src, err := datasource.Open(path, map[string]any{"name": c.Name()})
	if err != nil {
		return nil, fmt.Errorf("loading curve for '%s': %w", c.Name(), err)
	}
	payload, err := src.Data()
	if err != nil {
		_ = src.Close()
		return nil, err
	}
	table, ok := payload.(*datasource.Table)
	if !ok {
		_ = src.Close()
		return nil, simerr.Format("throughput.Curve", path, "curve file holds no table")
	}
	if err := checkColumns(c.Name(), table); err != nil {
		_ = src.Close()
		return nil, err
	}

	ctxlog.FromContext(ctx).Debug("Curve loaded.", "effect", c.Name(), "path", path, "rows", table.Len())
	c.source, c.table, c.path = src, table, path
	return table, nil
}

// Mean returns the mean transmission over the simulated band.
func (c *Curve) Mean(ctx context.Context, state *sysstate.Store) (float64, error) {
	table, err := c.Table(ctx, state)
	if err != nil {
		return 0, err
	}
	lo, err := c.Float(state, "wave_min")
	if err != nil {
		return 0, err
	}
	hi, err := c.Float(state, "wave_max")
	if err != nil {
		return 0, err
	}
	wave, err := table.Floats(ColWavelength)
	if err != nil {
		return 0, err
	}
	trans, err := table.Floats(ColTransmission)
	if err != nil {
		return 0, err
	}
	mean, err := MeanTransmission(wave, trans, lo, hi)
	if err != nil {
		return 0, fmt.Errorf("curve '%s': %w", c.Name(), err)
	}
	return mean, nil
}

// Apply scales the plane in place by the mean transmission.
func (c *Curve) Apply(ctx context.Context, state *sysstate.Store, plane *imageplane.ImagePlane) (*imageplane.ImagePlane, error) {
	if err := effect.CheckPlane(c.Name(), plane); err != nil {
		return nil, err
	}
	mean, err := c.Mean(ctx, state)
	if err != nil {
		return nil, err
	}
	plane.Scale(mean)

	ctxlog.FromContext(ctx).Debug("Transmission applied.", "effect", c.Name(), "kind", c.Kind(), "mean", mean)
	return plane, nil
}

// Close releases a file-backed source.
func (c *Curve) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.source == nil || c.path == "" {
		return nil
	}
	err := c.source.Close()
	c.source, c.table, c.path = nil, nil, ""
	return err
}
