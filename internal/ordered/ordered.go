// Package ordered provides an insertion-ordered string-keyed mapping.
//
// CV input relies on key order: sections appear in the order the author
// wrote them, and Go maps do not keep that order.
package ordered

import "sort"

// Pair is one key/value entry of a Map.
type Pair struct {
	Key   string
	Value any
}

// Map is a mapping that preserves insertion order. Values may themselves be
// Map, []any or scalars.
type Map []Pair

// Get returns the value stored under key.
func (m Map) Get(key string) (any, bool) {
	for _, p := range m {
		if p.Key == key {
			return p.Value, true
		}
	}
	return nil, false
}

// Has reports whether key is present.
func (m Map) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Keys returns the keys in insertion order.
func (m Map) Keys() []string {
	keys := make([]string, len(m))
	for i, p := range m {
		keys[i] = p.Key
	}
	return keys
}

// SortedKeys returns the keys in lexical order.
func (m Map) SortedKeys() []string {
	keys := m.Keys()
	sort.Strings(keys)
	return keys
}

// Plain converts v into plain Go values: every Map becomes map[string]any,
// slices are converted element by element. Order is lost.
func Plain(v any) any {
	switch t := v.(type) {
	case Map:
		out := make(map[string]any, len(t))
		for _, p := range t {
			out[p.Key] = Plain(p.Value)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Plain(e)
		}
		return out
	default:
		return v
	}
}
