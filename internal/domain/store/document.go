package store

import (
	"github.com/goccy/go-yaml"
)

// Document is an ordered mapping from entry key to entry body.
type Document struct {
	items yaml.MapSlice
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	return &Document{}
}

// Keys returns entry keys in document order.
func (d *Document) Keys() []string {
	keys := make([]string, 0, len(d.items))
	for _, item := range d.items {
		if k, ok := item.Key.(string); ok {
			keys = append(keys, k)
		}
	}
	return keys
}

// Len returns the number of entries.
func (d *Document) Len() int {
	return len(d.items)
}

// Get returns the body stored under key.
func (d *Document) Get(key string) (interface{}, bool) {
	for _, item := range d.items {
		if item.Key == key {
			return item.Value, true
		}
	}
	return nil, false
}

// Set stores body under key. An existing entry keeps its position; a new
// entry is appended.
func (d *Document) Set(key string, body interface{}) {
	for i, item := range d.items {
		if item.Key == key {
			d.items[i].Value = body
			return
		}
	}
	d.items = append(d.items, yaml.MapItem{Key: key, Value: body})
}

// Delete removes the entry under key. Reports whether it was present.
func (d *Document) Delete(key string) bool {
	for i, item := range d.items {
		if item.Key == key {
			d.items = append(d.items[:i], d.items[i+1:]...)
			return true
		}
	}
	return false
}

// Plain converts a decoded YAML value into plain JSON-encodable Go types,
// turning ordered mappings into map[string]interface{}.
func Plain(v interface{}) interface{} {
	switch val := v.(type) {
	case yaml.MapSlice:
		m := make(map[string]interface{}, len(val))
		for _, item := range val {
			if k, ok := item.Key.(string); ok {
				m[k] = Plain(item.Value)
			}
		}
		return m
	case map[string]interface{}:
		m := make(map[string]interface{}, len(val))
		for k, item := range val {
			m[k] = Plain(item)
		}
		return m
	case []interface{}:
		list := make([]interface{}, len(val))
		for i, item := range val {
			list[i] = Plain(item)
		}
		return list
	default:
		return v
	}
}
