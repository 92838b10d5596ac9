// Package orderedmap provides a minimal insertion-ordered map, used anywhere
// the collection model requires stable iteration order (profile fields,
// recipe headers, chain/profile/recipe registries). No third-party
// dependency in this module's tree ships an ordering primitive, so this is
// a small hand-rolled type. Set and Delete mutate the map in place; Clone
// returns an independent copy.
package orderedmap

// Map is an insertion-ordered string-keyed map. The zero value is ready to use.
type Map[V any] struct {
	keys   []string
	values map[string]V
}

// New returns an empty ordered map.
func New[V any]() *Map[V] {
	return &Map[V]{values: make(map[string]V)}
}

// Set inserts or updates the value for key, preserving the original
// insertion position on update.
func (m *Map[V]) Set(key string, value V) {
	if m.values == nil {
		m.values = make(map[string]V)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value for key and whether it was present.
func (m *Map[V]) Get(key string) (V, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Delete removes key, if present.
func (m *Map[V]) Delete(key string) {
	if _, ok := m.values[key]; !ok {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (m *Map[V]) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of entries.
func (m *Map[V]) Len() int {
	return len(m.keys)
}

// Clone returns a shallow copy that shares no backing storage with m.
func (m *Map[V]) Clone() *Map[V] {
	out := &Map[V]{
		keys:   make([]string, len(m.keys)),
		values: make(map[string]V, len(m.values)),
	}
	copy(out.keys, m.keys)
	for k, v := range m.values {
		out.values[k] = v
	}
	return out
}

// Range calls fn for each entry in insertion order. Stops early if fn
// returns false.
func (m *Map[V]) Range(fn func(key string, value V) bool) {
	for _, k := range m.keys {
		if !fn(k, m.values[k]) {
			return
		}
	}
}

// Pair is a single ordered key/value association. Used where duplicate keys
// must be preserved (recipe query parameters), which a Map cannot express.
type Pair[V any] struct {
	Key   string
	Value V
}

// List is an ordered sequence of key/value pairs that allows duplicate keys,
// used for recipe query parameters per spec.md §3 ("ordered list of
// (name, Template) allowing duplicate names").
type List[V any] []Pair[V]

// Values returns all values whose key equals name, in order.
func (l List[V]) Values(name string) []V {
	var out []V
	for _, p := range l {
		if p.Key == name {
			out = append(out, p.Value)
		}
	}
	return out
}
