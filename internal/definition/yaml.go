package definition

import (
	"bytes"
	"errors"
	"io"

	"github.com/specialistvlad/lightpath/internal/effect"
	"github.com/specialistvlad/lightpath/internal/simerr"
	"gopkg.in/yaml.v3"
)

type yamlDocument struct {
	Name        string         `yaml:"name"`
	Alias       string         `yaml:"alias"`
	Description string         `yaml:"description"`
	Properties  map[string]any `yaml:"properties"`
	Metadata    map[string]any `yaml:"metadata"`
	Effects     []yamlEffect   `yaml:"effects"`
}

type yamlEffect struct {
	Name        string         `yaml:"name"`
	Kind        string         `yaml:"kind"`
	Description string         `yaml:"description"`
	Parameters  map[string]any `yaml:"parameters"`
	Metadata    map[string]any `yaml:"metadata"`
}

func (d yamlDocument) empty() bool {
	return d.Name == "" && d.Alias == "" && len(d.Properties) == 0 && len(d.Effects) == 0
}

// decodeYAML reads every document of a YAML definition file.
func decodeYAML(path string, data []byte) (*Model, error) {
	const op = "definition.decodeYAML"

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	model := &Model{}
	for i := 0; ; i++ {
		var doc yamlDocument
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, simerr.Wrap(simerr.ErrFormat, err, op, path)
		}
		if doc.empty() {
			continue
		}
		if len(doc.Properties) > 0 && doc.Alias == "" {
			return nil, simerr.Format(op, path, "document %d has properties but no alias", i)
		}
		if doc.Name == "" && len(doc.Effects) > 0 {
			return nil, simerr.Format(op, path, "document %d has effects but no element name", i)
		}

		def := effect.GroupDefinition{
			Name:     doc.Name,
			Metadata: elementMeta(path, doc.Alias, doc.Description, doc.Metadata),
		}
		for _, fx := range doc.Effects {
			meta := fx.Metadata
			if fx.Description != "" {
				if meta == nil {
					meta = map[string]any{}
				}
				meta["description"] = fx.Description
			}
			def.Effects = append(def.Effects, effect.Definition{
				Name:       fx.Name,
				Kind:       fx.Kind,
				Parameters: fx.Parameters,
				Metadata:   meta,
			})
		}
		model.addElement(def, doc.Alias, doc.Properties, path)
	}
	return model, nil
}
