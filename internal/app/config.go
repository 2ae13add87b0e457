package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/specialistvlad/lightpath/internal/keypath"
	"gopkg.in/yaml.v3"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	DefinitionPaths []string // yaml/hcl files or directories
	InputPath       string   // optional 2-D image that seeds the plane
	OutputPath      string   // FITS file the final plane is written to
	Flux            float64  // uniform rate filling a plane built from geometry
	Set             []string // PATH=VALUE store overrides

	LogFormat   string
	LogLevel    string
	MetricsPort int
	ListOnly    bool

	// Overrides is Set parsed by NewConfig.
	Overrides []Override
}

// Override is one `--set` entry applied to the system state after the
// definition files have been merged.
type Override struct {
	Path  string
	Value any
}

func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.DefinitionPaths) == 0 {
		return nil, errors.New("at least one definition path is required")
	}
	if cfg.MetricsPort < 0 {
		return nil, fmt.Errorf("metrics port must not be negative, got %d", cfg.MetricsPort)
	}
	if cfg.Flux < 0 {
		return nil, fmt.Errorf("flux must not be negative, got %g", cfg.Flux)
	}

	cfg.Overrides = nil
	for _, raw := range cfg.Set {
		o, err := parseOverride(raw)
		if err != nil {
			return nil, err
		}
		cfg.Overrides = append(cfg.Overrides, o)
	}
	return &cfg, nil
}

// parseOverride splits PATH=VALUE. The value is read as a YAML scalar so
// numbers and booleans keep their type; references stay strings.
func parseOverride(raw string) (Override, error) {
	path, value, ok := strings.Cut(raw, "=")
	if !ok {
		return Override{}, fmt.Errorf("invalid override %q: want PATH=VALUE", raw)
	}
	path = strings.TrimPrefix(strings.TrimSpace(path), keypath.RefMarker)
	if _, err := keypath.Parse(path); err != nil {
		return Override{}, fmt.Errorf("invalid override %q: %w", raw, err)
	}
	return Override{Path: path, Value: parseValue(strings.TrimSpace(value))}, nil
}

func parseValue(s string) any {
	if strings.HasPrefix(s, keypath.RefMarker) {
		return s
	}
	var v any
	if err := yaml.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	switch v.(type) {
	case map[string]any, []any:
		return s
	}
	return v
}
