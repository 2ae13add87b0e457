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

// AutoExposure picks the frame time (dit) and frame count (ndit) that fill
// the brightest pixel to fill_frac of the full well while covering the
// requested total exposure.
//
// Parameters: fill_frac, full_well, mindit, optional exptime, and dit / ndit,
// which must be references. The current total exposure is read through them
// when exptime is unset, and the solution is written back through them.
type AutoExposure struct {
	effect.Base
}

// NewAutoExposure is the constructor for kind auto_exposure.
func NewAutoExposure(def effect.Definition) (effect.Effect, error) {
	defaults := exposureDefaults()
	defaults["exptime"] = nil
	base, err := effect.NewBase(def, defaults)
	if err != nil {
		return nil, err
	}
	if err := base.Require("fill_frac", "full_well", "mindit"); err != nil {
		return nil, err
	}
	for _, key := range []string{"dit", "ndit"} {
		if _, err := base.RefPath(key); err != nil {
			return nil, err
		}
	}
	return &AutoExposure{Base: base}, nil
}

// Apply solves for dit and ndit and stores them. The plane is returned as is.
func (a *AutoExposure) Apply(ctx context.Context, state *sysstate.Store, plane *imageplane.ImagePlane) (*imageplane.ImagePlane, error) {
	const op = "electronic.AutoExposure"
	logger := ctxlog.FromContext(ctx)

	if err := effect.CheckPlane(a.Name(), plane); err != nil {
		return nil, err
	}
	fillFrac, err := a.Float(state, "fill_frac")
	if err != nil {
		return nil, err
	}
	fullWell, err := a.Float(state, "full_well")
	if err != nil {
		return nil, err
	}
	mindit, err := a.Float(state, "mindit")
	if err != nil {
		return nil, err
	}
	switch {
	case fullWell <= 0:
		return nil, simerr.InvalidParameter(op, a.Name()+".full_well", "must be positive, got %v", fullWell)
	case fillFrac <= 0 || fillFrac > 1:
		return nil, simerr.InvalidParameter(op, a.Name()+".fill_frac", "must be in (0, 1], got %v", fillFrac)
	case mindit <= 0:
		return nil, simerr.InvalidParameter(op, a.Name()+".mindit", "must be positive, got %v", mindit)
	}

	rate := plane.Max()
	if !(rate > 0) {
		return nil, simerr.InvalidParameter(op, a.Name(), "peak rate must be positive, got %v", rate)
	}

	total, err := a.totalExposure(state)
	if err != nil {
		return nil, err
	}

	dit := fillFrac * fullWell / rate
	if dit < mindit {
		logger.Warn("Requested fill fraction needs a frame time below mindit; the brightest pixels will saturate.",
			"effect", a.Name(), "dit_ideal", dit, "mindit", mindit, "peak_rate", rate)
		dit = mindit
	}
	ndit := CoveringCount(total, dit)

	ditPath, _ := a.RefPath("dit")
	nditPath, _ := a.RefPath("ndit")
	if err := state.Set(ditPath, dit); err != nil {
		return nil, err
	}
	if err := state.Set(nditPath, ndit); err != nil {
		return nil, err
	}

	logger.Info("Exposure solved.", "effect", a.Name(), "dit", dit, "ndit", ndit, "exptime", total, "peak_rate", rate)
	return plane, nil
}

// totalExposure returns exptime when set, else the current dit * ndit.
func (a *AutoExposure) totalExposure(state *sysstate.Store) (float64, error) {
	const op = "electronic.AutoExposure"

	total, set, err := a.OptionalFloat(state, "exptime")
	if err != nil {
		return 0, err
	}
	if !set {
		dit, err := a.Float(state, "dit")
		if err != nil {
			return 0, err
		}
		ndit, err := a.Float(state, "ndit")
		if err != nil {
			return 0, err
		}
		total = dit * ndit
	}
	if !(total > 0) {
		return 0, simerr.InvalidParameter(op, a.Name()+".exptime", "total exposure must be positive, got %v", total)
	}
	return total, nil
}

// CoveringCount returns the smallest n with dit*n >= total, so that
// dit*(n-1) < total. Both arguments must be positive.
func CoveringCount(total, dit float64) int {
	n := int(math.Ceil(total / dit))
	if n < 1 {
		n = 1
	}
	// The division can land one off either side of an exact multiple.
	for n > 1 && dit*float64(n-1) >= total {
		n--
	}
	for dit*float64(n) < total {
		n++
	}
	return n
}
