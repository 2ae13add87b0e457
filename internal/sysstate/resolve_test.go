package sysstate

import (
	"testing"

	"github.com/specialistvlad/lightpath/internal/simerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	s, err := NewFromMap(map[string]any{
		"OBS": map[string]any{
			"dit":   60,
			"alias": "!OBS.dit",
		},
	})
	require.NoError(t, err)

	testCases := []struct {
		name     string
		raw      any
		expected any
	}{
		{name: "literal number", raw: 3.5, expected: 3.5},
		{name: "literal string", raw: "TER_blank.dat", expected: "TER_blank.dat"},
		{name: "nil", raw: nil, expected: nil},
		{name: "reference", raw: "!OBS.dit", expected: 60},
		{name: "reference to reference is one level only", raw: "!OBS.alias", expected: "!OBS.dit"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := s.Resolve(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, v)
		})
	}
}

func TestResolve_MissingReference(t *testing.T) {
	_, err := New().Resolve("!SIM.spectral.wave_min")
	require.ErrorIs(t, err, simerr.ErrConfigKey)
}

func TestResolve_ObservesLaterWrites(t *testing.T) {
	s := New()
	require.NoError(t, s.Set("OBS.dit", 60))

	v, err := s.Resolve("!OBS.dit")
	require.NoError(t, err)
	assert.Equal(t, 60, v)

	require.NoError(t, s.Set("OBS.dit", 0.75))
	v, err = s.Resolve("!OBS.dit")
	require.NoError(t, err)
	assert.Equal(t, 0.75, v)
}

func TestResolveMap(t *testing.T) {
	s, err := NewFromMap(map[string]any{"SIM": map[string]any{"spectral": map[string]any{"wave_min": 0.7, "wave_max": 2.5}}})
	require.NoError(t, err)

	params := map[string]any{
		"wave_min": "!SIM.spectral.wave_min",
		"range":    []any{"!SIM.spectral.wave_min", "!SIM.spectral.wave_max"},
		"nested":   map[string]any{"max": "!SIM.spectral.wave_max"},
		"include":  true,
	}

	out, err := s.ResolveMap(params)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"wave_min": 0.7,
		"range":    []any{0.7, 2.5},
		"nested":   map[string]any{"max": 2.5},
		"include":  true,
	}, out)
	assert.Equal(t, "!SIM.spectral.wave_min", params["wave_min"], "input must not be mutated")

	_, err = s.ResolveMap(map[string]any{"x": "!SIM.missing"})
	require.ErrorIs(t, err, simerr.ErrConfigKey)
}
