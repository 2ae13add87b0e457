package electronic

import "github.com/specialistvlad/lightpath/internal/registry"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register adds the electronic effect kinds.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterKind("auto_exposure", NewAutoExposure)
	r.RegisterKind("summed_exposure", NewSummedExposure)
	r.RegisterKind("dark_current", NewDarkCurrent)
	r.RegisterKind("shot_noise", NewShotNoise)
	r.RegisterKind("readout_noise", NewReadoutNoise)
	r.RegisterKind("quantization", NewQuantization)
}

// exposureDefaults point dit and ndit at the observation properties.
func exposureDefaults() map[string]any {
	return map[string]any{"dit": "!OBS.dit", "ndit": "!OBS.ndit"}
}
