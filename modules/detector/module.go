package detector

import "github.com/specialistvlad/lightpath/internal/registry"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register adds the detector effect kinds.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterKind("detector_window", NewWindow)
	r.RegisterKind("flat_field", NewFlatField)
}
