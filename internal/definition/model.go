package definition

import (
	"context"

	"github.com/specialistvlad/lightpath/internal/effect"
)

// Model is the format-agnostic result of loading definition files.
type Model struct {
	Elements   []effect.GroupDefinition
	Properties []PropertyBlock
}

// PropertyBlock is a set of system-state values to be merged under Alias.
// Blocks are applied in order, so later ones win.
type PropertyBlock struct {
	Alias  string
	Values map[string]any
	Source string
}

// Loader is the interface for a definition loader.
type Loader interface {
	// Load reads every definition file reachable from paths.
	Load(ctx context.Context, paths ...string) (*Model, error)
}

// merge appends other to m.
func (m *Model) merge(other *Model) {
	m.Elements = append(m.Elements, other.Elements...)
	m.Properties = append(m.Properties, other.Properties...)
}

// addElement records an element and, when it carries properties, its
// property block.
func (m *Model) addElement(def effect.GroupDefinition, alias string, props map[string]any, source string) {
	if len(props) > 0 {
		m.Properties = append(m.Properties, PropertyBlock{Alias: alias, Values: props, Source: source})
	}
	if def.Name != "" {
		m.Elements = append(m.Elements, def)
	}
}
