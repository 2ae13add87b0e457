package registry

import (
	"context"
	"errors"

	"github.com/specialistvlad/lightpath/internal/ctxlog"
	"github.com/specialistvlad/lightpath/internal/effect"
	"github.com/specialistvlad/lightpath/internal/simerr"
)

// Validate checks that every effect in groups names a registered kind. All
// problems are reported together.
func (r *Registry) Validate(ctx context.Context, groups []effect.GroupDefinition) error {
	logger := ctxlog.FromContext(ctx)

	var errs []error
	for _, g := range groups {
		for _, def := range g.Effects {
			if def.Kind == "" {
				errs = append(errs, simerr.Format("registry.Validate", g.Name+"."+def.Name, "effect has no kind"))
				continue
			}
			if !r.Has(def.Kind) {
				errs = append(errs, simerr.Format("registry.Validate", g.Name+"."+def.Name, "unknown effect kind %q", def.Kind))
			}
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	logger.Debug("Registry validation passed.", "groups", len(groups), "kinds", len(r.kinds))
	return nil
}
