package electronic

import (
	"context"
	"math"

	"github.com/specialistvlad/lightpath/internal/ctxlog"
	"github.com/specialistvlad/lightpath/internal/effect"
	"github.com/specialistvlad/lightpath/internal/imageplane"
	"github.com/specialistvlad/lightpath/internal/simerr"
	"github.com/specialistvlad/lightpath/internal/sysstate"
)

// Quantization rounds every pixel to whole electrons and clips it to
// [0, full_well * ndit].
type Quantization struct {
	effect.Base
}

// NewQuantization is the constructor for kind quantization.
func NewQuantization(def effect.Definition) (effect.Effect, error) {
	base, err := effect.NewBase(def, map[string]any{"ndit": "!OBS.ndit"})
	if err != nil {
		return nil, err
	}
	if err := base.Require("full_well"); err != nil {
		return nil, err
	}
	return &Quantization{Base: base}, nil
}

// Apply quantizes the plane in place.
func (q *Quantization) Apply(ctx context.Context, state *sysstate.Store, plane *imageplane.ImagePlane) (*imageplane.ImagePlane, error) {
	const op = "electronic.Quantization"

	if err := effect.CheckPlane(q.Name(), plane); err != nil {
		return nil, err
	}
	fullWell, err := q.Float(state, "full_well")
	if err != nil {
		return nil, err
	}
	if fullWell <= 0 {
		return nil, simerr.InvalidParameter(op, q.Name()+".full_well", "must be positive, got %v", fullWell)
	}
	ndit, err := q.Int(state, "ndit")
	if err != nil {
		return nil, err
	}
	if ndit < 1 {
		return nil, simerr.InvalidParameter(op, q.Name()+".ndit", "must be at least 1, got %d", ndit)
	}

	ceiling := fullWell * float64(ndit)
	clipped := 0
	plane.Map(func(v float64) float64 {
		v = math.Round(v)
		if v > ceiling {
			clipped++
			return ceiling
		}
		return math.Max(v, 0)
	})

	logger := ctxlog.FromContext(ctx)
	if clipped > 0 {
		logger.Warn("Pixels clipped at full well.", "effect", q.Name(), "pixels", clipped, "ceiling", ceiling)
	}
	logger.Debug("Quantization applied.", "effect", q.Name(), "ceiling", ceiling)
	return plane, nil
}
