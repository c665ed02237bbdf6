package terrastore

import (
	"iter"
	"slices"
)

// Values is an ordered mapping from key to value, as returned by bulk queries.
// Range queries return keys in comparator order; other queries use the server's order.
type Values[T any] struct {
	keys   []string
	values map[string]T
}

func newValues[T any](size int) *Values[T] {
	return &Values[T]{
		keys:   make([]string, 0, size),
		values: make(map[string]T, size),
	}
}

func (v *Values[T]) add(key string, value T) {
	if _, ok := v.values[key]; !ok {
		v.keys = append(v.keys, key)
	}
	v.values[key] = value
}

// Len returns the number of values.
func (v *Values[T]) Len() int {
	return len(v.keys)
}

// Keys returns the keys in order.
func (v *Values[T]) Keys() []string {
	return slices.Clone(v.keys)
}

// Get returns the value stored under key.
func (v *Values[T]) Get(key string) (T, bool) {
	value, ok := v.values[key]
	return value, ok
}

// All iterates over keys and values in order.
func (v *Values[T]) All() iter.Seq2[string, T] {
	return func(yield func(string, T) bool) {
		for _, key := range v.keys {
			if !yield(key, v.values[key]) {
				return
			}
		}
	}
}

// Map returns the values as an unordered map.
func (v *Values[T]) Map() map[string]T {
	m := make(map[string]T, len(v.values))
	for k, value := range v.values {
		m[k] = value
	}
	return m
}

func decodeValues[T any](codec Codec, entries []Entry) (*Values[T], error) {
	values := newValues[T](len(entries))
	for _, e := range entries {
		var value T
		if err := decodeValue(codec, e.Document, &value); err != nil {
			return nil, err
		}
		values.add(e.Key, value)
	}
	return values, nil
}
