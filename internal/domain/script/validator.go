package script

import (
	"fmt"
	"regexp"

	"github.com/goccy/go-yaml"

	"github.com/crazyserver/homeassistant-core/internal/domain/blueprint"
	"github.com/crazyserver/homeassistant-core/internal/domain/registry"
	"github.com/crazyserver/homeassistant-core/internal/domain/schema"
)

// Domain is the collection name, used as entity ID prefix and blueprint
// namespace.
const Domain = "script"

const (
	keyUseBlueprint = "use_blueprint"
	keyEntityID     = "entity_id"
)

// Registry entry references are 32 hex chars, distinguishable from entity
// IDs which always contain a dot.
var entryRefPattern = regexp.MustCompile(`^[0-9a-f]{32}$`)

// entrySchema is the concrete script entry shape. Field order here is the
// canonical key order of persisted bodies.
var entrySchema = schema.New(
	schema.Field{Name: "alias", Kind: schema.String},
	schema.Field{Name: "description", Kind: schema.String},
	schema.Field{Name: "icon", Kind: schema.String},
	schema.Field{Name: "mode", Kind: schema.String, Options: []string{"single", "restart", "queued", "parallel"}},
	schema.Field{Name: "max", Kind: schema.Int},
	schema.Field{Name: "fields", Kind: schema.Map},
	schema.Field{Name: "variables", Kind: schema.Map},
	schema.Field{Name: "sequence", Kind: schema.List, Required: true},
)

// blueprintEntrySchema is the shape of an entry built on a blueprint; the
// sequence comes from the expanded template instead.
var blueprintEntrySchema = schema.New(
	schema.Field{Name: "alias", Kind: schema.String},
	schema.Field{Name: "description", Kind: schema.String},
	schema.Field{Name: "icon", Kind: schema.String},
	schema.Field{Name: keyUseBlueprint, Kind: schema.Map, Required: true},
)

// EntryResolver resolves registry entry references.
type EntryResolver interface {
	Get(id string) (*registry.Entry, bool)
}

// BlueprintStore loads blueprint templates.
type BlueprintStore interface {
	Load(domain, path string) (*blueprint.Blueprint, error)
}

// Validator validates candidate script entry bodies.
type Validator struct {
	registry   EntryResolver
	blueprints BlueprintStore
}

// NewValidator creates a validator backed by the given collaborators.
func NewValidator(reg EntryResolver, blueprints BlueprintStore) *Validator {
	return &Validator{registry: reg, blueprints: blueprints}
}

// Validate checks body against the script schema and returns the normalized
// body to persist under key. Any returned error is a validation failure whose
// message is safe to surface to the caller.
func (v *Validator) Validate(key string, body map[string]interface{}) (yaml.MapSlice, error) {
	if _, ok := body[keyUseBlueprint]; ok {
		return v.validateBlueprintEntry(body)
	}

	normalized, err := entrySchema.Apply(body)
	if err != nil {
		return nil, err
	}

	resolved, err := v.resolveRefs(normalized)
	if err != nil {
		return nil, err
	}
	return resolved.(yaml.MapSlice), nil
}

// validateBlueprintEntry expands the referenced blueprint and validates the
// expansion; the body persisted is the blueprint form, not the expansion.
func (v *Validator) validateBlueprintEntry(body map[string]interface{}) (yaml.MapSlice, error) {
	normalized, err := blueprintEntrySchema.Apply(body)
	if err != nil {
		return nil, err
	}

	path, values, err := blueprintRef(body[keyUseBlueprint])
	if err != nil {
		return nil, err
	}

	bp, err := v.blueprints.Load(Domain, path)
	if err != nil {
		return nil, schema.NewInvalid(fmt.Sprintf("Failed to load blueprint: %v", err))
	}

	inputs, err := bp.Bind(values)
	if err != nil {
		return nil, err
	}
	expanded, err := inputs.Substitute()
	if err != nil {
		return nil, err
	}

	concrete, err := entrySchema.Apply(expanded)
	if err != nil {
		return nil, err
	}
	if _, err := v.resolveRefs(concrete); err != nil {
		return nil, err
	}

	return normalized, nil
}

// blueprintRef pulls the path and input bindings out of a use_blueprint
// mapping.
func blueprintRef(value interface{}) (string, map[string]interface{}, error) {
	ref, ok := value.(map[string]interface{})
	if !ok {
		return "", nil, schema.NewInvalid("expected a dictionary for dictionary value", keyUseBlueprint)
	}

	path, ok := ref["path"].(string)
	if !ok || path == "" {
		return "", nil, schema.NewInvalid("required key not provided", keyUseBlueprint, "path")
	}

	values := map[string]interface{}{}
	if raw, present := ref["input"]; present {
		values, ok = raw.(map[string]interface{})
		if !ok {
			return "", nil, schema.NewInvalid("expected a dictionary for dictionary value", keyUseBlueprint, "input")
		}
	}
	return path, values, nil
}

// resolveRefs walks the body and resolves every entity_id value that looks
// like a registry entry reference into the entity ID it stands for.
func (v *Validator) resolveRefs(node interface{}) (interface{}, error) {
	switch val := node.(type) {
	case yaml.MapSlice:
		out := make(yaml.MapSlice, 0, len(val))
		for _, item := range val {
			resolved, err := v.resolveValue(item.Key, item.Value)
			if err != nil {
				return nil, err
			}
			out = append(out, yaml.MapItem{Key: item.Key, Value: resolved})
		}
		return out, nil
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			resolved, err := v.resolveValue(k, item)
			if err != nil {
				return nil, err
			}
			out[k] = resolved
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			resolved, err := v.resolveRefs(item)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	default:
		return node, nil
	}
}

func (v *Validator) resolveValue(key, value interface{}) (interface{}, error) {
	if key == keyEntityID {
		switch ref := value.(type) {
		case string:
			return v.resolveEntry(ref)
		case []interface{}:
			out := make([]interface{}, len(ref))
			for i, item := range ref {
				s, ok := item.(string)
				if !ok {
					out[i] = item
					continue
				}
				resolved, err := v.resolveEntry(s)
				if err != nil {
					return nil, err
				}
				out[i] = resolved
			}
			return out, nil
		}
	}
	return v.resolveRefs(value)
}

func (v *Validator) resolveEntry(ref string) (string, error) {
	if !entryRefPattern.MatchString(ref) {
		return ref, nil
	}
	entry, ok := v.registry.Get(ref)
	if !ok {
		return "", schema.NewInvalid("Unknown entity registry entry " + ref)
	}
	return entry.EntityID, nil
}
