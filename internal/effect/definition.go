package effect

// Definition is the parsed form of one effect.
type Definition struct {
	Name       string         `yaml:"name"`
	Kind       string         `yaml:"kind"`
	Parameters map[string]any `yaml:"parameters"`
	Metadata   map[string]any `yaml:"metadata"`
}

// GroupDefinition is the parsed form of one optical element: a named, ordered
// list of effects.
type GroupDefinition struct {
	Name     string         `yaml:"name"`
	Metadata map[string]any `yaml:"metadata"`
	Effects  []Definition   `yaml:"effects"`
}
