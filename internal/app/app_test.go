package app

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/specialistvlad/lightpath/internal/datasource"
	"github.com/specialistvlad/lightpath/internal/definition"
	"github.com/specialistvlad/lightpath/internal/effect"
	"github.com/specialistvlad/lightpath/internal/imageplane"
	"github.com/specialistvlad/lightpath/internal/registry"
	"github.com/specialistvlad/lightpath/internal/simerr"
	"github.com/specialistvlad/lightpath/internal/sysstate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const detectorYAML = `
name: detector
alias: DET
properties:
  pixel_scale: 0.004
  full_well: 1.0e+5
effects:
  - name: window
    kind: detector_window
    parameters:
      width: 8
      height: 4
      pixel_scale: "!DET.pixel_scale"
  - name: auto_exposure
    kind: auto_exposure
    parameters:
      fill_frac: 0.75
      full_well: "!DET.full_well"
      mindit: 0.011
  - name: summed_exposure
    kind: summed_exposure
---
alias: OBS
properties:
  dit: 100
  ndit: 1
`

func writeDefinitions(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "system.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newTestConfig(t *testing.T, cfg Config) *Config {
	t.Helper()
	c, err := NewConfig(cfg)
	require.NoError(t, err)
	return c
}

func TestRun_WritesExposedPlane(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	defs := writeDefinitions(t, detectorYAML)
	out := filepath.Join(t.TempDir(), "out.fits")
	cfg := newTestConfig(t, Config{DefinitionPaths: []string{defs}, OutputPath: out, Flux: 1e5})
	a, logs := SetupAppTest(t, cfg)

	// --- Act ---
	err := a.Run(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "Exposure solved.")
	assert.Contains(t, logs.String(), a.RunID())

	err = datasource.Use(out, nil, func(src datasource.Source) error {
		assert.Equal(t, a.RunID(), src.Meta()["RUN_ID"])
		assert.InDelta(t, 0.75*134, src.Meta()["EXPTIME"], 1e-9)

		data, err := src.Data()
		require.NoError(t, err)
		arr := data.(*datasource.Array)
		assert.Equal(t, []int{4, 8}, arr.Shape)
		for _, v := range arr.Data {
			assert.InEpsilon(t, 1e5*0.75*134, v, 1e-12)
		}
		return nil
	})
	require.NoError(t, err)
}

func TestRun_OverridesWinOverDefinitions(t *testing.T) {
	t.Parallel()

	defs := writeDefinitions(t, detectorYAML)
	cfg := newTestConfig(t, Config{
		DefinitionPaths: []string{defs},
		Flux:            1e5,
		Set:             []string{"OBS.dit=10", "!OBS.ndit=2"},
	})
	a, logs := SetupAppTest(t, cfg)

	require.NoError(t, a.Run(context.Background()))
	// T = 10 * 2 = 20s at 0.75s per frame.
	assert.Contains(t, logs.String(), "ndit=27")
}

func TestRun_ListDescribesSystem(t *testing.T) {
	t.Parallel()

	defs := writeDefinitions(t, detectorYAML)
	cfg := newTestConfig(t, Config{DefinitionPaths: []string{defs}, ListOnly: true})
	a, logs := SetupAppTest(t, cfg)

	require.NoError(t, a.Run(context.Background()))
	out := logs.String()
	assert.Contains(t, out, "ELEMENT")
	assert.Contains(t, out, "auto_exposure")
	assert.NotContains(t, out, "Starting simulation")
}

func TestRun_InputImage(t *testing.T) {
	t.Parallel()

	// A plane of 10 e-/s read from disk, scaled by a fixed exposure.
	input, err := imageplane.New(3, 2)
	require.NoError(t, err)
	input.Add(10)
	inPath := filepath.Join(t.TempDir(), "in.fits")
	f, err := os.Create(inPath)
	require.NoError(t, err)
	require.NoError(t, input.WriteFITS(f))
	require.NoError(t, f.Close())

	defs := writeDefinitions(t, `
name: electronics
effects:
  - name: exposure
    kind: summed_exposure
---
alias: OBS
properties:
  dit: 2
  ndit: 3
`)
	out := filepath.Join(t.TempDir(), "out.fits")
	cfg := newTestConfig(t, Config{DefinitionPaths: []string{defs}, InputPath: inPath, OutputPath: out})
	a, _ := SetupAppTest(t, cfg)

	require.NoError(t, a.Run(context.Background()))
	err = datasource.Use(out, nil, func(src datasource.Source) error {
		data, err := src.Data()
		require.NoError(t, err)
		assert.Equal(t, []float64{60, 60, 60, 60, 60, 60}, data.(*datasource.Array).Data)
		return nil
	})
	require.NoError(t, err)
}

func TestRun_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		cfg     Config
		kind    error
		wantErr string
	}{
		{
			name:    "no geometry and no input",
			content: "name: electronics\neffects:\n  - name: exposure\n    kind: summed_exposure\n",
			kind:    simerr.ErrInvalidParameter,
			wantErr: "failed to prepare image plane",
		},
		{
			name:    "unknown kind",
			content: "name: electronics\neffects:\n  - name: fx\n    kind: warp_drive\n",
			kind:    simerr.ErrFormat,
			wantErr: "failed to build optical system",
		},
		{
			name:    "override below a leaf",
			content: detectorYAML,
			cfg:     Config{Set: []string{"DET.full_well.x=1"}},
			kind:    simerr.ErrConfigKey,
			wantErr: "failed to build system state",
		},
		{
			name:    "failing effect",
			content: detectorYAML,
			cfg:     Config{Set: []string{"OBS.ndit=0"}},
			kind:    simerr.ErrInvalidParameter,
			wantErr: "simulation failed",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			tc.cfg.DefinitionPaths = []string{writeDefinitions(t, tc.content)}
			tc.cfg.Flux = 1e5
			a, _ := SetupAppTest(t, newTestConfig(t, tc.cfg))

			err := a.Run(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.kind)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestRun_MissingDefinitions(t *testing.T) {
	t.Parallel()

	cfg := newTestConfig(t, Config{DefinitionPaths: []string{filepath.Join(t.TempDir(), "nope.yaml")}})
	a, _ := SetupAppTest(t, cfg)

	err := a.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist), "got %v", err)
}

func TestRun_CancelledContext(t *testing.T) {
	t.Parallel()

	cfg := newTestConfig(t, Config{DefinitionPaths: []string{writeDefinitions(t, detectorYAML)}, Flux: 1e5})
	a, _ := SetupAppTest(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := a.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRun_RecordsMetrics(t *testing.T) {
	t.Parallel()

	cfg := newTestConfig(t, Config{DefinitionPaths: []string{writeDefinitions(t, detectorYAML)}, Flux: 1e5})
	a, _ := SetupAppTest(t, cfg)
	require.NoError(t, a.Run(context.Background()))

	srv := httptest.NewServer(a.handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `lightpath_effect_applied_total{element="detector",kind="auto_exposure",status="ok"} 1`)

	health, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}

// countingModule registers a kind that records the store it saw.
type countingModule struct {
	seen *sysstate.Store
}

type countingEffect struct {
	effect.Base
	mod *countingModule
}

func (c *countingEffect) Apply(_ context.Context, state *sysstate.Store, plane *imageplane.ImagePlane) (*imageplane.ImagePlane, error) {
	c.mod.seen = state
	return plane, nil
}

func (m *countingModule) Register(r *registry.Registry) {
	r.RegisterKind("count", func(def effect.Definition) (effect.Effect, error) {
		base, err := effect.NewBase(def, nil)
		if err != nil {
			return nil, err
		}
		return &countingEffect{Base: base, mod: m}, nil
	})
}

func TestRun_CustomModulesAndSeedDefault(t *testing.T) {
	t.Parallel()

	input, err := imageplane.New(1, 1)
	require.NoError(t, err)
	inPath := filepath.Join(t.TempDir(), "in.fits")
	f, err := os.Create(inPath)
	require.NoError(t, err)
	require.NoError(t, input.WriteFITS(f))
	require.NoError(t, f.Close())

	mod := &countingModule{}
	cfg := newTestConfig(t, Config{
		DefinitionPaths: []string{writeDefinitions(t, "name: probe\neffects:\n  - name: c\n    kind: count\n")},
		InputPath:       inPath,
	})
	a, _ := SetupAppTest(t, cfg, mod)
	assert.Equal(t, []string{"count"}, a.Registry().Kinds())

	require.NoError(t, a.Run(context.Background()))
	require.NotNil(t, mod.seen)
	seed, err := mod.seen.Get("SIM.random.seed")
	require.NoError(t, err)
	assert.Nil(t, seed)
}

func TestNewApp_UsesLoader(t *testing.T) {
	t.Parallel()

	var _ definition.Loader = definition.NewLoader()
	cfg := newTestConfig(t, Config{DefinitionPaths: []string{"x"}, LogFormat: "json"})
	a := NewApp(io.Discard, cfg, stubLoader{err: errors.New("boom")})

	err := a.Run(context.Background())
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "failed to load definitions"))
}

type stubLoader struct{ err error }

func (s stubLoader) Load(context.Context, ...string) (*definition.Model, error) {
	return nil, s.err
}
