package terrastore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValues(t *testing.T) {
	v := newValues[int](3)
	v.add("b", 1)
	v.add("a", 2)
	v.add("b", 3)

	assert.Equal(t, 2, v.Len())
	assert.Equal(t, []string{"b", "a"}, v.Keys())
	assert.Equal(t, map[string]int{"a": 2, "b": 3}, v.Map())

	_, ok := v.Get("c")
	assert.False(t, ok)

	var first []string
	for k := range v.All() {
		first = append(first, k)
		break
	}
	assert.Equal(t, []string{"b"}, first)

	// Keys returns a copy
	keys := v.Keys()
	keys[0] = "z"
	assert.Equal(t, []string{"b", "a"}, v.Keys())
}
