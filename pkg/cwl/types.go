package cwl

import "gopkg.in/yaml.v3"

// Entry is one key/value pair of an ordered CWL mapping.
type Entry[T any] struct {
	Key   string
	Value T
}

// Entries is an insertion-ordered mapping. CWL documents and job orders are
// maps, but generated documents must be reproducible, so order is kept
// explicitly instead of relying on Go map iteration.
type Entries[T any] []Entry[T]

// Set stores v under key. An existing key keeps its position.
func (e *Entries[T]) Set(key string, v T) {
	for i := range *e {
		if (*e)[i].Key == key {
			(*e)[i].Value = v
			return
		}
	}
	*e = append(*e, Entry[T]{Key: key, Value: v})
}

// Get returns the value stored under key.
func (e Entries[T]) Get(key string) (T, bool) {
	for _, ent := range e {
		if ent.Key == key {
			return ent.Value, true
		}
	}
	var zero T
	return zero, false
}

// Has reports whether key is present.
func (e Entries[T]) Has(key string) bool {
	_, ok := e.Get(key)
	return ok
}

// Keys returns the keys in insertion order.
func (e Entries[T]) Keys() []string {
	keys := make([]string, len(e))
	for i, ent := range e {
		keys[i] = ent.Key
	}
	return keys
}

// MarshalYAML renders the entries as a YAML mapping in insertion order.
func (e Entries[T]) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, ent := range e {
		var val yaml.Node
		if err := val.Encode(ent.Value); err != nil {
			return nil, err
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: ent.Key},
			&val,
		)
	}
	return node, nil
}
