package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"
)

// Kind is the expected shape of a field value.
type Kind int

const (
	Any Kind = iota
	String
	Bool
	Int
	List
	Map
)

// Field describes one permitted key of a mapping schema.
type Field struct {
	Name     string
	Kind     Kind
	Required bool
	// Options restricts a String field to an enumerated set.
	Options []string
}

// Schema validates a mapping against an ordered field list. Unknown keys are
// rejected; normalization emits keys in field declaration order.
type Schema struct {
	fields []Field
}

// New creates a schema from the given fields.
func New(fields ...Field) *Schema {
	return &Schema{fields: fields}
}

// Invalid is a validation failure. Error renders the message the way the
// caller-facing API expects, e.g.
//
//	required key not provided @ data['sequence']
type Invalid struct {
	message string
	path    []string
}

// NewInvalid creates a failure with an optional key path.
func NewInvalid(message string, path ...string) *Invalid {
	return &Invalid{message: message, path: path}
}

func (e *Invalid) Error() string {
	if len(e.path) == 0 {
		return e.message
	}
	var b strings.Builder
	b.WriteString(e.message)
	b.WriteString(" @ data")
	for _, p := range e.path {
		fmt.Fprintf(&b, "['%s']", p)
	}
	return b.String()
}

// Apply validates value against the schema and returns the normalized body:
// an ordered mapping holding the present fields in declaration order. The
// error, if any, is always an *Invalid.
func (s *Schema) Apply(value interface{}) (yaml.MapSlice, error) {
	entries, err := mapping(value)
	if err != nil {
		return nil, err
	}

	known := make(map[string]bool, len(s.fields))
	for _, f := range s.fields {
		known[f.Name] = true
	}
	for _, key := range orderedKeys(entries) {
		if !known[key] {
			return nil, NewInvalid("extra keys not allowed", key)
		}
	}

	var out yaml.MapSlice
	for _, f := range s.fields {
		v, present := entries[f.Name]
		if !present {
			if f.Required {
				return nil, NewInvalid("required key not provided", f.Name)
			}
			continue
		}
		if err := checkKind(f, v); err != nil {
			return nil, err
		}
		out = append(out, yaml.MapItem{Key: f.Name, Value: v})
	}
	return out, nil
}

// mapping coerces a decoded YAML or JSON value into key lookup form.
func mapping(value interface{}) (map[string]interface{}, error) {
	switch v := value.(type) {
	case nil:
		return map[string]interface{}{}, nil
	case map[string]interface{}:
		return v, nil
	case yaml.MapSlice:
		m := make(map[string]interface{}, len(v))
		for _, item := range v {
			if k, ok := item.Key.(string); ok {
				m[k] = item.Value
			}
		}
		return m, nil
	default:
		return nil, NewInvalid("expected a dictionary")
	}
}

func orderedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Deterministic failure selection when several keys are unknown.
	sort.Strings(keys)
	return keys
}

func checkKind(f Field, v interface{}) error {
	switch f.Kind {
	case Any:
		return nil
	case String:
		s, ok := v.(string)
		if !ok {
			return NewInvalid("expected str for dictionary value", f.Name)
		}
		if len(f.Options) > 0 && !contains(f.Options, s) {
			return NewInvalid(
				fmt.Sprintf("value must be one of %s for dictionary value", renderOptions(f.Options)),
				f.Name,
			)
		}
		return nil
	case Bool:
		if _, ok := v.(bool); !ok {
			return NewInvalid("expected bool for dictionary value", f.Name)
		}
		return nil
	case Int:
		if !isInt(v) {
			return NewInvalid("expected int for dictionary value", f.Name)
		}
		return nil
	case List:
		if _, ok := v.([]interface{}); !ok {
			return NewInvalid("expected list for dictionary value", f.Name)
		}
		return nil
	case Map:
		switch v.(type) {
		case map[string]interface{}, yaml.MapSlice:
			return nil
		}
		return NewInvalid("expected a dictionary for dictionary value", f.Name)
	default:
		return nil
	}
}

func isInt(v interface{}) bool {
	switch n := v.(type) {
	case int, int64, uint64:
		return true
	case float64:
		// JSON numbers decode as float64; accept integral values.
		return n == float64(int64(n))
	default:
		return false
	}
}

func contains(opts []string, s string) bool {
	for _, o := range opts {
		if o == s {
			return true
		}
	}
	return false
}

func renderOptions(opts []string) string {
	sorted := append([]string(nil), opts...)
	sort.Strings(sorted)
	quoted := make([]string, len(sorted))
	for i, o := range sorted {
		quoted[i] = "'" + o + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
