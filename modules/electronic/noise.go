package electronic

import (
	"context"
	"math"
	"math/rand/v2"

	"github.com/specialistvlad/lightpath/internal/ctxlog"
	"github.com/specialistvlad/lightpath/internal/effect"
	"github.com/specialistvlad/lightpath/internal/imageplane"
	"github.com/specialistvlad/lightpath/internal/simerr"
	"github.com/specialistvlad/lightpath/internal/sysstate"
)

// poissonNormalLimit is the mean above which Poisson draws use the normal
// approximation.
const poissonNormalLimit = 30

// newRand returns a generator seeded from random_seed. A null seed gives a
// fresh, unrepeatable stream.
func newRand(b *effect.Base, state *sysstate.Store) (*rand.Rand, error) {
	seed, set, err := b.OptionalFloat(state, "random_seed")
	if err != nil {
		return nil, err
	}
	if !set {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())), nil
	}
	if seed < 0 || seed != math.Trunc(seed) {
		return nil, simerr.InvalidParameter("electronic.newRand", b.Name()+".random_seed", "must be a non-negative integer, got %v", seed)
	}
	return rand.New(rand.NewPCG(uint64(seed), 0)), nil
}

// poisson draws one Poisson variate with mean lambda.
func poisson(r *rand.Rand, lambda float64) float64 {
	if lambda <= 0 {
		return 0
	}
	if lambda > poissonNormalLimit {
		return math.Max(0, math.Round(lambda+math.Sqrt(lambda)*r.NormFloat64()))
	}
	// Knuth's multiplication method.
	limit := math.Exp(-lambda)
	k, p := 0.0, 1.0
	for {
		p *= r.Float64()
		if p <= limit {
			return k
		}
		k++
	}
}

// ShotNoise replaces every pixel by a Poisson draw with the pixel value as
// mean. Negative pixels become zero.
type ShotNoise struct {
	effect.Base
}

// NewShotNoise is the constructor for kind shot_noise.
func NewShotNoise(def effect.Definition) (effect.Effect, error) {
	base, err := effect.NewBase(def, map[string]any{"random_seed": "!SIM.random.seed"})
	if err != nil {
		return nil, err
	}
	return &ShotNoise{Base: base}, nil
}

// Apply draws the noise in place.
func (s *ShotNoise) Apply(ctx context.Context, state *sysstate.Store, plane *imageplane.ImagePlane) (*imageplane.ImagePlane, error) {
	if err := effect.CheckPlane(s.Name(), plane); err != nil {
		return nil, err
	}
	r, err := newRand(&s.Base, state)
	if err != nil {
		return nil, err
	}
	plane.Map(func(v float64) float64 { return poisson(r, v) })

	ctxlog.FromContext(ctx).Debug("Shot noise applied.", "effect", s.Name())
	return plane, nil
}

// ReadoutNoise adds zero-mean Gaussian noise. noise_std is the per-read
// sigma in electrons; the ndit reads of an exposure add in quadrature.
type ReadoutNoise struct {
	effect.Base
}

// NewReadoutNoise is the constructor for kind readout_noise.
func NewReadoutNoise(def effect.Definition) (effect.Effect, error) {
	base, err := effect.NewBase(def, map[string]any{
		"ndit":        "!OBS.ndit",
		"random_seed": "!SIM.random.seed",
	})
	if err != nil {
		return nil, err
	}
	if err := base.Require("noise_std"); err != nil {
		return nil, err
	}
	return &ReadoutNoise{Base: base}, nil
}

// Apply adds the noise in place.
func (n *ReadoutNoise) Apply(ctx context.Context, state *sysstate.Store, plane *imageplane.ImagePlane) (*imageplane.ImagePlane, error) {
	const op = "electronic.ReadoutNoise"

	if err := effect.CheckPlane(n.Name(), plane); err != nil {
		return nil, err
	}
	std, err := n.Float(state, "noise_std")
	if err != nil {
		return nil, err
	}
	if std < 0 {
		return nil, simerr.InvalidParameter(op, n.Name()+".noise_std", "must not be negative, got %v", std)
	}
	ndit, err := n.Int(state, "ndit")
	if err != nil {
		return nil, err
	}
	if ndit < 1 {
		return nil, simerr.InvalidParameter(op, n.Name()+".ndit", "must be at least 1, got %d", ndit)
	}
	r, err := newRand(&n.Base, state)
	if err != nil {
		return nil, err
	}

	sigma := std * math.Sqrt(float64(ndit))
	plane.Map(func(v float64) float64 { return v + sigma*r.NormFloat64() })

	ctxlog.FromContext(ctx).Debug("Readout noise applied.", "effect", n.Name(), "sigma", sigma, "ndit", ndit)
	return plane, nil
}
