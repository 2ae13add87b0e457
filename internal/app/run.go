package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/specialistvlad/lightpath/internal/ctxlog"
	"github.com/specialistvlad/lightpath/internal/datasource"
	"github.com/specialistvlad/lightpath/internal/definition"
	"github.com/specialistvlad/lightpath/internal/imageplane"
	"github.com/specialistvlad/lightpath/internal/optics"
	"github.com/specialistvlad/lightpath/internal/simerr"
	"github.com/specialistvlad/lightpath/internal/sysstate"
)

// seedPath is created empty so effects that default to it resolve to an
// unseeded generator unless a definition or override sets it.
const seedPath = "SIM.random.seed"

// Run executes one simulation: load, build, run and write.
func (app *App) Run(ctx context.Context) (err error) {
	ctx = ctxlog.WithLogger(ctx, app.logger)
	app.logger.Debug("App.Run method started.")

	app.startServer()
	defer func() {
		err = errors.Join(err, app.closeServer())
	}()

	model, err := app.loader.Load(ctx, app.config.DefinitionPaths...)
	if err != nil {
		return fmt.Errorf("failed to load definitions: %w", err)
	}
	app.logger.Debug("Definitions loaded.", "elements", len(model.Elements), "property_blocks", len(model.Properties))

	state, err := app.buildState(model)
	if err != nil {
		return fmt.Errorf("failed to build system state: %w", err)
	}

	mgr, err := optics.New(ctx, app.registry, state, model.Elements, optics.WithMetrics(app.metrics))
	if err != nil {
		return fmt.Errorf("failed to build optical system: %w", err)
	}
	defer func() {
		err = errors.Join(err, mgr.Close())
	}()

	if app.config.ListOnly {
		return mgr.Describe(app.outW)
	}

	plane, err := app.initialPlane(ctx, mgr)
	if err != nil {
		return fmt.Errorf("failed to prepare image plane: %w", err)
	}

	app.logger.Info("🚀 Starting simulation...", "width", plane.Width, "height", plane.Height)
	out, err := mgr.Run(ctx, plane)
	if err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}
	out.Header.Set("RUN_ID", app.runID, "lightpath run identifier")

	if app.config.OutputPath != "" {
		if err := writePlane(app.config.OutputPath, out); err != nil {
			return err
		}
	}
	app.logger.Info("🏁 Simulation finished.",
		"output", app.config.OutputPath, "max", out.Max(), "sum", out.Sum())
	return nil
}

// buildState merges the property blocks in load order and applies the
// command line overrides last.
func (app *App) buildState(model *definition.Model) (*sysstate.Store, error) {
	state := sysstate.New()
	if err := state.Set(seedPath, nil); err != nil {
		return nil, err
	}
	for _, block := range model.Properties {
		if err := state.Merge(block.Alias, block.Values); err != nil {
			return nil, fmt.Errorf("properties of '%s' from %s: %w", block.Alias, block.Source, err)
		}
	}
	for _, o := range app.config.Overrides {
		if err := state.Set(o.Path, o.Value); err != nil {
			return nil, fmt.Errorf("override '%s': %w", o.Path, err)
		}
		app.logger.Debug("Override applied.", "path", o.Path, "value", o.Value)
	}
	return state, nil
}

// initialPlane reads the plane from the input file when one is given, and
// otherwise builds it from the first geometry the optical system defines,
// filled with the configured flux.
func (app *App) initialPlane(ctx context.Context, mgr *optics.Manager) (*imageplane.ImagePlane, error) {
	logger := ctxlog.FromContext(ctx)
	if path := app.config.InputPath; path != "" {
		var plane *imageplane.ImagePlane
		err := datasource.Use(path, nil, func(src datasource.Source) error {
			payload, err := src.Data()
			if err != nil {
				return err
			}
			arr, ok := payload.(*datasource.Array)
			if !ok {
				return simerr.Format("app.initialPlane", path, "input holds no image")
			}
			plane, err = imageplane.FromArray(arr)
			return err
		})
		if err != nil {
			return nil, err
		}
		logger.Debug("Image plane read from input.", "path", path)
		return plane, nil
	}

	headers, err := mgr.ImagePlaneHeaders()
	if err != nil {
		return nil, err
	}
	if len(headers) == 0 {
		return nil, simerr.InvalidParameter("app.initialPlane", "",
			"no input image given and no element defines an image plane geometry")
	}
	if len(headers) > 1 {
		logger.Warn("Several image planes defined, simulating the first.", "count", len(headers))
	}
	plane, err := imageplane.FromHeader(headers[0])
	if err != nil {
		return nil, err
	}
	plane.Add(app.config.Flux)
	return plane, nil
}

func writePlane(path string, plane *imageplane.ImagePlane) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	if err := plane.WriteFITS(f); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
