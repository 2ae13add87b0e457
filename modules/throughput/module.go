package throughput

import "github.com/specialistvlad/lightpath/internal/registry"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register adds the curve kinds.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterKind(KindTER, NewTERCurve)
	r.RegisterKind(KindQE, NewQECurve)
	r.RegisterKind(KindFilter, NewFilterCurve)
}
