package definition

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/lightpath/internal/effect"
	"github.com/specialistvlad/lightpath/internal/simerr"
)

// hclRoot is used to decode all top-level blocks of a file.
type hclRoot struct {
	Properties []*hclProperties `hcl:"properties,block"`
	Elements   []*hclElement    `hcl:"element,block"`
}

type hclProperties struct {
	Alias  string   `hcl:"alias,label"`
	Remain hcl.Body `hcl:",remain"`
}

// hclElement lists the element attributes explicitly; a remain body would
// still carry the effect blocks and JustAttributes rejects those.
type hclElement struct {
	Name        string         `hcl:"name,label"`
	Alias       hcl.Expression `hcl:"alias,optional"`
	Description hcl.Expression `hcl:"description,optional"`
	Properties  hcl.Expression `hcl:"properties,optional"`
	Metadata    hcl.Expression `hcl:"metadata,optional"`
	Effects     []*hclEffect   `hcl:"effect,block"`
}

type hclEffect struct {
	Kind   string   `hcl:"kind,label"`
	Name   string   `hcl:"name,label"`
	Remain hcl.Body `hcl:",remain"`
}

// decodeHCL reads an HCL definition file. Blocks of one kind keep their
// order; property blocks come before the element properties of the file.
func decodeHCL(path string, data []byte) (*Model, error) {
	const op = "definition.decodeHCL"

	file, diags := hclparse.NewParser().ParseHCL(data, path)
	if diags.HasErrors() {
		return nil, simerr.Wrap(simerr.ErrFormat, diags, op, path)
	}
	var root hclRoot
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, simerr.Wrap(simerr.ErrFormat, diags, op, path)
	}

	model := &Model{}
	for _, p := range root.Properties {
		values, err := attributes(p.Remain)
		if err != nil {
			return nil, simerr.Wrap(simerr.ErrFormat, err, op, path)
		}
		model.Properties = append(model.Properties, PropertyBlock{Alias: p.Alias, Values: values, Source: path})
	}

	for _, el := range root.Elements {
		def, alias, props, err := translateElement(path, el)
		if err != nil {
			return nil, simerr.Wrap(simerr.ErrFormat, err, op, path)
		}
		model.addElement(def, alias, props, path)
	}
	return model, nil
}

func translateElement(path string, el *hclElement) (def effect.GroupDefinition, alias string, props map[string]any, err error) {
	var description string
	var meta map[string]any
	fields := []struct {
		name   string
		expr   hcl.Expression
		assign func(v any) bool
	}{
		{"alias", el.Alias, func(v any) (ok bool) { alias, ok = v.(string); return ok }},
		{"description", el.Description, func(v any) (ok bool) { description, ok = v.(string); return ok }},
		{"properties", el.Properties, func(v any) (ok bool) { props, ok = v.(map[string]any); return ok }},
		{"metadata", el.Metadata, func(v any) (ok bool) { meta, ok = v.(map[string]any); return ok }},
	}
	for _, f := range fields {
		v, err := expressionValue(f.expr)
		if err != nil {
			return def, "", nil, fmt.Errorf("element '%s': attribute %q: %w", el.Name, f.name, err)
		}
		if v == nil {
			continue
		}
		if !f.assign(v) {
			return def, "", nil, fmt.Errorf("element '%s': attribute %q has type %T", el.Name, f.name, v)
		}
	}
	if len(props) > 0 && alias == "" {
		return def, "", nil, fmt.Errorf("element '%s': properties need an alias", el.Name)
	}

	def = effect.GroupDefinition{Name: el.Name, Metadata: elementMeta(path, alias, description, meta)}
	for _, fx := range el.Effects {
		params, err := attributes(fx.Remain)
		if err != nil {
			return def, "", nil, fmt.Errorf("effect '%s.%s': %w", el.Name, fx.Name, err)
		}
		fxDef := effect.Definition{Name: fx.Name, Kind: fx.Kind, Parameters: params}
		if m, ok := params["metadata"].(map[string]any); ok {
			fxDef.Metadata = m
			delete(params, "metadata")
		}
		def.Effects = append(def.Effects, fxDef)
	}
	return def, alias, props, nil
}

// attributes evaluates every attribute of body without variables or
// functions.
func attributes(body hcl.Body) (map[string]any, error) {
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}
	out := make(map[string]any, len(attrs))
	for name, attr := range attrs {
		native, err := expressionValue(attr.Expr)
		if err != nil {
			return nil, fmt.Errorf("attribute '%s': %w", name, err)
		}
		out[name] = native
	}
	return out, nil
}

// expressionValue evaluates expr without variables or functions. A missing
// optional attribute evaluates to nil.
func expressionValue(expr hcl.Expression) (any, error) {
	if expr == nil {
		return nil, nil
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}
	return ctyToNative(val)
}
