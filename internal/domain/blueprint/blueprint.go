package blueprint

import (
	"fmt"

	"github.com/goccy/go-yaml"
)

const (
	topKey     = "blueprint"
	inputRef   = "input"
	defaultKey = "default"
)

// MissingInputError indicates a declared input without a binding or default.
type MissingInputError struct {
	Input string
}

func (e MissingInputError) Error() string {
	return "Missing input " + e.Input
}

// UndefinedSubstitutionError indicates the template references an input that
// has no binding.
type UndefinedSubstitutionError struct {
	Input string
}

func (e UndefinedSubstitutionError) Error() string {
	return "No substitution found for input " + e.Input
}

// Input is one declared blueprint input.
type Input struct {
	Default    interface{}
	HasDefault bool
}

// Blueprint is a parsed template.
type Blueprint struct {
	Name   string
	Domain string
	Inputs map[string]Input

	body yaml.MapSlice
}

// Parse decodes a blueprint document.
func Parse(data []byte) (*Blueprint, error) {
	var decoded interface{}
	if err := yaml.UnmarshalWithOptions(data, &decoded, yaml.UseOrderedMap()); err != nil {
		return nil, fmt.Errorf("parse blueprint: %w", err)
	}

	doc, ok := decoded.(yaml.MapSlice)
	if !ok {
		return nil, fmt.Errorf("parse blueprint: top level is not a mapping")
	}

	bp := &Blueprint{Inputs: make(map[string]Input)}
	var meta yaml.MapSlice
	for _, item := range doc {
		if item.Key == topKey {
			meta, _ = item.Value.(yaml.MapSlice)
			continue
		}
		bp.body = append(bp.body, item)
	}
	if meta == nil {
		return nil, fmt.Errorf("parse blueprint: missing %q section", topKey)
	}

	for _, item := range meta {
		switch item.Key {
		case "name":
			bp.Name, _ = item.Value.(string)
		case "domain":
			bp.Domain, _ = item.Value.(string)
		case inputRef:
			decl, _ := item.Value.(yaml.MapSlice)
			for _, in := range decl {
				name, ok := in.Key.(string)
				if !ok {
					continue
				}
				bp.Inputs[name] = parseInput(in.Value)
			}
		}
	}

	if bp.Domain == "" {
		return nil, fmt.Errorf("parse blueprint: missing domain")
	}
	return bp, nil
}

func parseInput(v interface{}) Input {
	spec, ok := v.(yaml.MapSlice)
	if !ok {
		return Input{}
	}
	for _, item := range spec {
		if item.Key == defaultKey {
			return Input{Default: item.Value, HasDefault: true}
		}
	}
	return Input{}
}

// Inputs is a set of bound input values for one blueprint.
type Inputs struct {
	bp     *Blueprint
	values map[string]interface{}
}

// Bind validates the supplied values against the declared inputs, filling in
// defaults. A declared input with neither value nor default fails with
// MissingInputError.
func (b *Blueprint) Bind(values map[string]interface{}) (*Inputs, error) {
	bound := make(map[string]interface{}, len(b.Inputs))
	for name, input := range b.Inputs {
		if v, ok := values[name]; ok {
			bound[name] = v
			continue
		}
		if input.HasDefault {
			bound[name] = input.Default
			continue
		}
		return nil, MissingInputError{Input: name}
	}
	return &Inputs{bp: b, values: bound}, nil
}

// Substitute expands the template body with the bound values. A reference to
// an unbound input fails with UndefinedSubstitutionError.
func (in *Inputs) Substitute() (yaml.MapSlice, error) {
	expanded, err := in.substitute(in.bp.body)
	if err != nil {
		return nil, err
	}
	return expanded.(yaml.MapSlice), nil
}

func (in *Inputs) substitute(node interface{}) (interface{}, error) {
	switch v := node.(type) {
	case yaml.MapSlice:
		if name, ok := refName(v); ok {
			value, bound := in.values[name]
			if !bound {
				return nil, UndefinedSubstitutionError{Input: name}
			}
			return value, nil
		}
		out := make(yaml.MapSlice, 0, len(v))
		for _, item := range v {
			sub, err := in.substitute(item.Value)
			if err != nil {
				return nil, err
			}
			out = append(out, yaml.MapItem{Key: item.Key, Value: sub})
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			sub, err := in.substitute(item)
			if err != nil {
				return nil, err
			}
			out[i] = sub
		}
		return out, nil
	default:
		return node, nil
	}
}

// refName reports whether node is an input reference: {input: <name>}.
func refName(node yaml.MapSlice) (string, bool) {
	if len(node) != 1 || node[0].Key != inputRef {
		return "", false
	}
	name, ok := node[0].Value.(string)
	return name, ok
}
