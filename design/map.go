package design

import (
	"iter"
	"strings"
)

// Map is an insertion ordered mapping used for theme values. Values are
// string, []any or *Map.
type Map struct {
	keys   []string
	values map[string]any
}

// NewMap creates an empty map.
func NewMap() *Map {
	return &Map{values: make(map[string]any)}
}

// Set stores value under key. A new key is appended, an existing key keeps
// its position.
func (m *Map) Set(key string, value any) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns value for key.
func (m *Map) Get(key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Delete removes key, preserving order of remaining keys.
func (m *Map) Delete(key string) {
	if _, ok := m.values[key]; !ok {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i:i], m.keys[i+1:]...)
			break
		}
	}
}

// Keys returns a copy of keys in order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.keys...)
}

// Len returns number of entries.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// All iterates over entries in order.
func (m *Map) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		if m == nil {
			return
		}
		for _, k := range m.keys {
			if !yield(k, m.values[k]) {
				return
			}
		}
	}
}

// Clone returns a deep copy.
func (m *Map) Clone() *Map {
	if m == nil {
		return nil
	}
	out := &Map{keys: append([]string(nil), m.keys...), values: make(map[string]any, len(m.values))}
	for k, v := range m.values {
		out.values[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case *Map:
		return v.Clone()
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// Flatten turns nested maps into a single level joining keys with "-", so
// {red: {100: x}} becomes {red-100: x}. The key "DEFAULT" is dropped from the
// joined name.
func Flatten(m *Map) *Map {
	out := NewMap()
	var walk func(prefix string, m *Map)
	walk = func(prefix string, m *Map) {
		for k, v := range m.All() {
			name := k
			switch {
			case prefix != "" && k == "DEFAULT":
				name = prefix
			case prefix != "":
				name = prefix + "-" + k
			}
			if sub, ok := v.(*Map); ok {
				walk(name, sub)
				continue
			}
			out.Set(name, v)
		}
	}
	walk("", m)
	return out
}

// ValueString renders theme value as CSS text. Lists are joined with ", ".
func ValueString(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case []any:
		parts := make([]string, 0, len(v))
		for _, e := range v {
			parts = append(parts, ValueString(e))
		}
		return strings.Join(parts, ", ")
	case *Map:
		parts := make([]string, 0, v.Len())
		for k, e := range v.All() {
			parts = append(parts, k+": "+ValueString(e))
		}
		return strings.Join(parts, "; ")
	default:
		return ""
	}
}
