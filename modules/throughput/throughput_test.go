package throughput

import (
	"testing"

	"github.com/specialistvlad/lightpath/internal/datasource"
	"github.com/specialistvlad/lightpath/internal/effect"
	"github.com/specialistvlad/lightpath/internal/imageplane"
	"github.com/specialistvlad/lightpath/internal/registry"
	"github.com/specialistvlad/lightpath/internal/simerr"
	"github.com/specialistvlad/lightpath/internal/sysstate"
	"github.com/specialistvlad/lightpath/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bandState(t *testing.T, lo, hi float64, extra map[string]any) *sysstate.Store {
	t.Helper()
	props := map[string]any{
		"SIM": map[string]any{"spectral": map[string]any{"wave_min": lo, "wave_max": hi}},
	}
	for k, v := range extra {
		props[k] = v
	}
	state, err := sysstate.NewFromMap(props)
	require.NoError(t, err)
	return state
}

func onesPlane(t *testing.T) *imageplane.ImagePlane {
	t.Helper()
	p, err := imageplane.New(2, 2)
	require.NoError(t, err)
	p.Add(1)
	return p
}

func TestMeanTransmission(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name   string
		wave   []float64
		trans  []float64
		lo, hi float64
		want   float64
	}{
		{name: "flat inside band", wave: []float64{1, 2}, trans: []float64{0.5, 0.5}, lo: 1.2, hi: 1.8, want: 0.5},
		{name: "ramp", wave: []float64{0, 1}, trans: []float64{0, 1}, lo: 0, hi: 1, want: 0.5},
		{name: "half the band uncovered", wave: []float64{1, 2}, trans: []float64{1, 1}, lo: 0, hi: 2, want: 0.5},
		{name: "disjoint band", wave: []float64{1, 2}, trans: []float64{1, 1}, lo: 3, hi: 4, want: 0},
		{name: "step through interior points", wave: []float64{0, 1, 1.5, 3}, trans: []float64{0, 1, 1, 0}, lo: 1, hi: 1.5, want: 1},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := MeanTransmission(tc.wave, tc.trans, tc.lo, tc.hi)
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, 1e-12)
		})
	}
}

func TestMeanTransmission_Errors(t *testing.T) {
	t.Parallel()
	_, err := MeanTransmission([]float64{1, 2}, []float64{1}, 0, 1)
	require.ErrorIs(t, err, simerr.ErrFormat)
	_, err = MeanTransmission([]float64{1}, []float64{1}, 0, 1)
	require.ErrorIs(t, err, simerr.ErrFormat)
	_, err = MeanTransmission([]float64{2, 1}, []float64{1, 1}, 0, 1)
	require.ErrorIs(t, err, simerr.ErrFormat)
	_, err = MeanTransmission([]float64{1, 2}, []float64{1, 1}, 2, 2)
	require.ErrorIs(t, err, simerr.ErrInvalidParameter)
}

func TestCurve_ArrayDict(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.Context(t)
	fx, err := NewTERCurve(effect.Definition{Name: "mirror", Kind: KindTER, Parameters: map[string]any{
		"array_dict": map[string]any{
			"wavelength":   []any{0.5, 2.5},
			"transmission": []any{0.8, 0.8},
		},
	}})
	require.NoError(t, err)

	out, err := fx.Apply(ctx, bandState(t, 1, 2, nil), onesPlane(t))
	require.NoError(t, err)
	assert.InDelta(t, 0.8, out.Max(), 1e-12)
	require.NoError(t, fx.(*Curve).Close())
}

func TestCurve_TextFile(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.Context(t)
	path := testutil.WriteFile(t, "qe.dat", `# description: detector QE
# wavelength_unit: um
wavelength transmission
0.5 0.9
2.5 0.9
`)
	state := bandState(t, 1, 2, map[string]any{"DET": map[string]any{"qe": path}})

	fx, err := NewQECurve(effect.Definition{Name: "qe", Kind: KindQE, Parameters: map[string]any{"filename": "!DET.qe"}})
	require.NoError(t, err)
	c := fx.(*Curve)
	defer c.Close()

	table, err := c.Table(ctx, state)
	require.NoError(t, err)
	assert.Equal(t, "detector QE", table.Meta["description"])

	mean, err := c.Mean(ctx, state)
	require.NoError(t, err)
	assert.InDelta(t, 0.9, mean, 1e-12)

	// A narrower band moved half off the curve.
	require.NoError(t, state.Set("SIM.spectral.wave_min", 2.0))
	require.NoError(t, state.Set("SIM.spectral.wave_max", 3.0))
	mean, err = c.Mean(ctx, state)
	require.NoError(t, err)
	assert.InDelta(t, 0.45, mean, 1e-12)
}

func TestCurve_FITSTable(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.Context(t)
	path := testutil.WriteFITS(t, "ter.fits", testutil.TableHDU{
		Name:    "TER",
		Columns: []string{"wavelength", "transmission"},
		Rows:    [][]float64{{0, 0.5}, {10, 0.5}},
	})

	fx, err := NewTERCurve(effect.Definition{Name: "ter", Kind: KindTER, Parameters: map[string]any{"filename": path}})
	require.NoError(t, err)
	defer fx.(*Curve).Close()

	out, err := fx.Apply(ctx, bandState(t, 1, 2, nil), onesPlane(t))
	require.NoError(t, err)
	assert.InDelta(t, 0.5, out.Max(), 1e-12)
}

func TestFilterCurve_ByName(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.Context(t)
	dir := testutil.WriteFiles(t, t.TempDir(), map[string]string{
		"TC_filter_J.dat":  "wavelength transmission\n1.1 1\n1.4 1\n",
		"TC_filter_Ks.dat": "wavelength transmission\n2.0 1\n2.3 1\n",
	})
	state := bandState(t, 1.0, 1.5, map[string]any{"OBS": map[string]any{"filter_name": "J"}})

	fx, err := NewFilterCurve(effect.Definition{Name: "filter", Kind: KindFilter, Parameters: map[string]any{
		"filter_name":     "!OBS.filter_name",
		"filename_format": dir + "/TC_filter_{}.dat",
	}})
	require.NoError(t, err)
	c := fx.(*Curve)
	defer c.Close()

	mean, err := c.Mean(ctx, state)
	require.NoError(t, err)
	assert.InDelta(t, 0.6, mean, 1e-12)

	// Switching the filter reloads the file.
	require.NoError(t, state.Set("OBS.filter_name", "Ks"))
	mean, err = c.Mean(ctx, state)
	require.NoError(t, err)
	assert.Equal(t, 0.0, mean)
}

func TestNewFromTable(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.Context(t)
	table, err := datasource.NewTable(
		datasource.FloatColumn("wavelength", []float64{0, 10}),
		datasource.FloatColumn("transmission", []float64{0.25, 0.25}),
	)
	require.NoError(t, err)

	c, err := NewFromTable(effect.Definition{Name: "atmo", Kind: KindTER}, table)
	require.NoError(t, err)
	mean, err := c.Mean(ctx, bandState(t, 1, 2, nil))
	require.NoError(t, err)
	assert.Equal(t, 0.25, mean)

	bad, err := datasource.NewTable(datasource.FloatColumn("wave", []float64{0, 1}))
	require.NoError(t, err)
	_, err = NewFromTable(effect.Definition{Name: "atmo", Kind: KindTER}, bad)
	require.ErrorIs(t, err, simerr.ErrFormat)
}

func TestCurve_Errors(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name   string
		kind   string
		params map[string]any
	}{
		{name: "no source", kind: KindTER, params: nil},
		{name: "two sources", kind: KindTER, params: map[string]any{
			"filename":   "x.dat",
			"array_dict": map[string]any{"wavelength": []any{1, 2}, "transmission": []any{1, 1}},
		}},
		{name: "array_dict not a mapping", kind: KindQE, params: map[string]any{"array_dict": []any{1, 2}}},
		{name: "array_dict without transmission", kind: KindQE, params: map[string]any{
			"array_dict": map[string]any{"wavelength": []any{1, 2}},
		}},
		{name: "filter naming on a non-filter", kind: KindTER, params: map[string]any{
			"filter_name": "J", "filename_format": "{}.dat",
		}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := build(effect.Definition{Name: "curve", Kind: tc.kind, Parameters: tc.params})
			require.ErrorIs(t, err, simerr.ErrFormat)
		})
	}
}

func TestCurve_MissingFile(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.Context(t)
	fx, err := NewTERCurve(effect.Definition{Name: "ter", Kind: KindTER, Parameters: map[string]any{
		"filename": t.TempDir() + "/missing.dat",
	}})
	require.NoError(t, err)
	_, err = fx.Apply(ctx, bandState(t, 1, 2, nil), onesPlane(t))
	require.Error(t, err)
	assert.ErrorContains(t, err, "loading curve for 'ter'")
}

func TestModule_Register(t *testing.T) {
	t.Parallel()
	r := registry.New(&Module{})
	assert.Equal(t, []string{KindFilter, KindQE, KindTER}, r.Kinds())
}
