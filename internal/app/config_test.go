package app

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_ParsesOverrides(t *testing.T) {
	t.Parallel()

	cfg, err := NewConfig(Config{
		DefinitionPaths: []string{"defs"},
		Set: []string{
			"OBS.dit=60",
			"!OBS.ndit = 4",
			"SIM.random.seed=",
			"DET.full_well=1e5",
			"DET.layout=!INST.layout",
			"INST.enabled=true",
			"INST.name=micado",
			"INST.list=[1, 2]",
		},
	})
	require.NoError(t, err)

	want := []Override{
		{Path: "OBS.dit", Value: 60},
		{Path: "OBS.ndit", Value: 4},
		{Path: "SIM.random.seed", Value: nil},
		{Path: "DET.full_well", Value: 1e5},
		{Path: "DET.layout", Value: "!INST.layout"},
		{Path: "INST.enabled", Value: true},
		{Path: "INST.name", Value: "micado"},
		{Path: "INST.list", Value: "[1, 2]"},
	}
	if diff := cmp.Diff(want, cfg.Overrides); diff != "" {
		t.Errorf("overrides mismatch (-want +got):\n%s", diff)
	}
}

func TestNewConfig_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "no paths", cfg: Config{}, wantErr: "definition path is required"},
		{name: "negative port", cfg: Config{DefinitionPaths: []string{"d"}, MetricsPort: -1}, wantErr: "metrics port"},
		{name: "negative flux", cfg: Config{DefinitionPaths: []string{"d"}, Flux: -1}, wantErr: "flux"},
		{name: "override without value", cfg: Config{DefinitionPaths: []string{"d"}, Set: []string{"OBS.dit"}}, wantErr: "want PATH=VALUE"},
		{name: "override with bad path", cfg: Config{DefinitionPaths: []string{"d"}, Set: []string{"OBS..dit=1"}}, wantErr: "invalid override"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg, err := NewConfig(tc.cfg)
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
