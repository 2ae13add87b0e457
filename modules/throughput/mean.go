package throughput

import (
	"sort"

	"github.com/specialistvlad/lightpath/internal/simerr"
)

// MeanTransmission integrates the piecewise linear curve (wave, trans) over
// [lo, hi] and divides by the band width. The curve is zero outside
// [wave[0], wave[len-1]]. wave must be strictly increasing.
func MeanTransmission(wave, trans []float64, lo, hi float64) (float64, error) {
	const op = "throughput.MeanTransmission"
	switch {
	case len(wave) != len(trans):
		return 0, simerr.Format(op, "", "wavelength and transmission lengths differ: %d != %d", len(wave), len(trans))
	case len(wave) < 2:
		return 0, simerr.Format(op, "", "a curve needs at least two points, got %d", len(wave))
	case !(hi > lo):
		return 0, simerr.InvalidParameter(op, "wave_min", "band [%v, %v] is empty", lo, hi)
	}
	for i := 1; i < len(wave); i++ {
		if wave[i] <= wave[i-1] {
			return 0, simerr.Format(op, "wavelength", "values must increase strictly (index %d)", i)
		}
	}

	a, b := max(lo, wave[0]), min(hi, wave[len(wave)-1])
	if a >= b {
		return 0, nil
	}

	xs := []float64{a}
	for _, w := range wave {
		if w > a && w < b {
			xs = append(xs, w)
		}
	}
	xs = append(xs, b)

	var area float64
	for i := 1; i < len(xs); i++ {
		area += (xs[i] - xs[i-1]) * (interp(wave, trans, xs[i-1]) + interp(wave, trans, xs[i])) / 2
	}
	return area / (hi - lo), nil
}

// interp evaluates the curve at x, which must lie inside its range.
func interp(wave, trans []float64, x float64) float64 {
	i := sort.SearchFloat64s(wave, x)
	if i < len(wave) && wave[i] == x {
		return trans[i]
	}
	if i == 0 || i == len(wave) {
		return 0
	}
	t := (x - wave[i-1]) / (wave[i] - wave[i-1])
	return trans[i-1] + t*(trans[i]-trans[i-1])
}
