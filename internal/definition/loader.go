package definition

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/lightpath/internal/ctxlog"
	"github.com/specialistvlad/lightpath/internal/fsutil"
	"github.com/specialistvlad/lightpath/internal/simerr"
)

// Extensions lists the file extensions the loader reads from directories.
var Extensions = []string{".yaml", ".yml", ".hcl"}

// FileLoader reads YAML and HCL definition files.
type FileLoader struct{}

// NewLoader creates a new definition loader.
func NewLoader() *FileLoader {
	return &FileLoader{}
}

// Load implements Loader.
func (l *FileLoader) Load(ctx context.Context, paths ...string) (*Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Definition loader started.", "path_count", len(paths))

	files, err := fsutil.FindFiles(paths, Extensions...)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		logger.Warn("No definition files found.", "paths", paths)
	}

	model := &Model{}
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}

		var part *Model
		switch ext := strings.ToLower(filepath.Ext(file)); ext {
		case ".yaml", ".yml":
			part, err = decodeYAML(file, data)
		case ".hcl":
			part, err = decodeHCL(file, data)
		default:
			err = simerr.Format("definition.Load", file, "unsupported definition file extension %q", ext)
		}
		if err != nil {
			return nil, err
		}

		logger.Debug("Loaded definition file.", "file", file, "elements", len(part.Elements), "property_blocks", len(part.Properties))
		model.merge(part)
	}

	logger.Info("Definitions loaded.", "files", len(files), "elements", len(model.Elements), "property_blocks", len(model.Properties))
	return model, nil
}

// elementMeta builds the metadata map recorded on an element.
func elementMeta(source, alias, description string, extra map[string]any) map[string]any {
	meta := map[string]any{"source": source}
	if alias != "" {
		meta["alias"] = alias
	}
	if description != "" {
		meta["description"] = description
	}
	for k, v := range extra {
		meta[k] = v
	}
	return meta
}
