package optics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/specialistvlad/lightpath/internal/ctxlog"
	"github.com/specialistvlad/lightpath/internal/effect"
	"github.com/specialistvlad/lightpath/internal/imageplane"
	"github.com/specialistvlad/lightpath/internal/keypath"
	"github.com/specialistvlad/lightpath/internal/metrics"
	"github.com/specialistvlad/lightpath/internal/registry"
	"github.com/specialistvlad/lightpath/internal/simerr"
	"github.com/specialistvlad/lightpath/internal/sysstate"
)

// Manager owns the elements of one simulation and the store they resolve
// their parameters against.
type Manager struct {
	state    *sysstate.Store
	elements []*Element
	metrics  *metrics.Metrics
}

// Option configures a Manager.
type Option func(*Manager)

// WithMetrics records effect and run metrics into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(mgr *Manager) { mgr.metrics = m }
}

// New builds one element per definition, in order. Unknown kinds are all
// reported together before anything is built.
func New(ctx context.Context, reg *registry.Registry, state *sysstate.Store, defs []effect.GroupDefinition, opts ...Option) (*Manager, error) {
	const op = "optics.New"
	logger := ctxlog.FromContext(ctx)

	if state == nil {
		return nil, simerr.InvalidParameter(op, "state", "a system-state store is required")
	}
	if err := reg.Validate(ctx, defs); err != nil {
		return nil, err
	}

	m := &Manager{state: state}
	for _, opt := range opts {
		opt(m)
	}

	seen := make(map[string]struct{}, len(defs))
	for _, def := range defs {
		if _, dup := seen[def.Name]; dup {
			_ = m.Close()
			return nil, simerr.Address(op, def.Name, "duplicate element name")
		}
		seen[def.Name] = struct{}{}

		el, err := newElement(reg, def)
		if err != nil {
			_ = m.Close()
			return nil, fmt.Errorf("element '%s': %w", def.Name, err)
		}
		m.elements = append(m.elements, el)
		logger.Debug("Element built.", "element", el.name, "effects", len(el.effects))
	}

	logger.Debug("Optics manager ready.", "elements", len(m.elements))
	return m, nil
}

// State returns the store the manager resolves against.
func (m *Manager) State() *sysstate.Store { return m.state }

// Elements returns the elements in pipeline order.
func (m *Manager) Elements() []*Element { return slices.Clone(m.elements) }

// Element returns the element called name.
func (m *Manager) Element(name string) (*Element, error) {
	for _, el := range m.elements {
		if el.name == name {
			return el, nil
		}
	}
	return nil, simerr.Address("optics.Element", name, "no such element")
}

// Effect returns the first effect called name, searching elements in order.
func (m *Manager) Effect(name string) (effect.Effect, error) {
	for _, el := range m.elements {
		if fx, ok := el.Effect(name); ok {
			return fx, nil
		}
	}
	return nil, simerr.Address("optics.Effect", name, "no such effect")
}

// Param resolves a "#effect.param" or "#element.effect.param" address.
func (m *Manager) Param(address string) (any, error) {
	const op = "optics.Param"
	if !keypath.IsAddress(address) {
		return nil, simerr.Address(op, address, "addresses start with %q", keypath.AddrMarker)
	}
	segs := keypath.SplitAddress(address)
	if slices.Contains(segs, "") {
		return nil, simerr.Address(op, address, "address has an empty segment")
	}

	var fx effect.Effect
	switch len(segs) {
	case 2:
		if _, err := m.Element(segs[0]); err == nil {
			return nil, simerr.Address(op, address, "%q is an element; use #element.effect.param", segs[0])
		}
		found, err := m.Effect(segs[0])
		if err != nil {
			return nil, simerr.Wrap(simerr.ErrAddress, err, op, address)
		}
		fx = found
	case 3:
		el, err := m.Element(segs[0])
		if err != nil {
			return nil, simerr.Wrap(simerr.ErrAddress, err, op, address)
		}
		found, ok := el.Effect(segs[1])
		if !ok {
			return nil, simerr.Address(op, address, "element %q has no effect %q", segs[0], segs[1])
		}
		fx = found
	default:
		return nil, simerr.Address(op, address, "malformed address: want 2 or 3 segments, got %d", len(segs))
	}
	return fx.Param(m.state, segs[len(segs)-1])
}

// Lookup resolves key to an *Element, an effect.Effect or a parameter value.
func (m *Manager) Lookup(key string) (any, error) {
	if el, err := m.Element(key); err == nil {
		return el, nil
	}
	if fx, err := m.Effect(key); err == nil {
		return fx, nil
	}
	if keypath.IsAddress(key) {
		return m.Param(key)
	}
	return nil, simerr.Address("optics.Lookup", key, "not an element, effect or #address")
}

// ImagePlaneHeaders returns one header per element that owns an included
// geometric effect, in element order. The headers are built from the
// current store on every call.
func (m *Manager) ImagePlaneHeaders() ([]imageplane.Header, error) {
	var headers []imageplane.Header
	for _, el := range m.elements {
		g, ok, err := el.Geometry(m.state)
		if err != nil {
			return nil, fmt.Errorf("geometry of element '%s': %w", el.name, err)
		}
		if ok {
			headers = append(headers, g.Header(el.name))
		}
	}
	return headers, nil
}

// Run applies every included effect to plane in order and returns the final
// plane. The first failing effect aborts the run; store writes made before
// it are kept.
func (m *Manager) Run(ctx context.Context, plane *imageplane.ImagePlane) (out *imageplane.ImagePlane, err error) {
	logger := ctxlog.FromContext(ctx)
	start := time.Now()
	defer func() {
		status := metrics.StatusOK
		if err != nil {
			status = metrics.StatusError
		}
		m.metrics.ObserveRun(status, time.Since(start))
	}()

	logger.Info("Pipeline started.", "elements", len(m.elements))
	for _, el := range m.elements {
		for _, fx := range el.effects {
			addr := el.name + keypath.Separator + fx.Name()
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("pipeline stopped before '%s': %w", addr, err)
			}

			inc, err := fx.Included(m.state)
			if err != nil {
				return nil, fmt.Errorf("effect '%s': %w", addr, err)
			}
			if !inc {
				logger.Debug("Effect excluded, skipping.", "effect", addr)
				m.metrics.ObserveEffect(el.name, fx.Kind(), metrics.StatusSkipped, 0)
				continue
			}

			t0 := time.Now()
			next, err := fx.Apply(ctx, m.state, plane)
			if err == nil && next == nil {
				err = simerr.InvalidParameter("optics.Run", addr, "effect returned no image plane")
			}
			if err != nil {
				m.metrics.ObserveEffect(el.name, fx.Kind(), metrics.StatusError, time.Since(t0))
				logger.Error("Effect failed, aborting pipeline.", "effect", addr, "kind", fx.Kind(), "error", err)
				return nil, fmt.Errorf("effect '%s' (%s): %w", addr, fx.Kind(), err)
			}
			m.metrics.ObserveEffect(el.name, fx.Kind(), metrics.StatusOK, time.Since(t0))
			logger.Debug("Effect applied.", "effect", addr, "kind", fx.Kind(), "duration", time.Since(t0))
			plane = next
		}
	}

	logger.Info("Pipeline finished.", "duration", time.Since(start))
	return plane, nil
}

// Describe writes one line per effect: element, effect, kind and whether it
// is currently included.
func (m *Manager) Describe(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ELEMENT\tEFFECT\tKIND\tINCLUDED")
	for _, el := range m.elements {
		for _, fx := range el.effects {
			included := "?"
			if inc, err := fx.Included(m.state); err == nil {
				included = fmt.Sprint(inc)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", el.name, fx.Name(), fx.Kind(), included)
		}
	}
	return tw.Flush()
}

// Close releases every effect that holds a resource.
func (m *Manager) Close() error {
	var errs []error
	for _, el := range m.elements {
		errs = append(errs, closeEffects(el.effects))
	}
	return errors.Join(errs...)
}

func closeEffects(effects []effect.Effect) error {
	var errs []error
	for _, fx := range effects {
		if c, ok := fx.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("closing effect '%s': %w", fx.Name(), err))
			}
		}
	}
	return errors.Join(errs...)
}
