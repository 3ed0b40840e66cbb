package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryOrder(t *testing.T) {
	r := New[string]()
	require.NoError(t, r.Register("b", "second"))
	require.NoError(t, r.RegisterWithPriority("a", -1, "first"))
	require.NoError(t, r.Register("c", "third"))

	assert.Equal(t, []string{"first", "second", "third"}, r.All())
	assert.Equal(t, []string{"a", "b", "c"}, r.IDs())
	assert.Equal(t, 3, r.Len())
}

func TestRegistryDuplicate(t *testing.T) {
	r := New[int]()
	require.NoError(t, r.Register("x", 1))
	assert.Error(t, r.Register("x", 2))
	assert.Panics(t, func() { r.MustRegister("x", 3) })

	v, ok := r.Get("x")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestRegistryUnregister(t *testing.T) {
	r := New[int]()
	r.MustRegister("x", 1)
	r.MustRegister("y", 2)

	assert.True(t, r.Unregister("x"))
	assert.False(t, r.Unregister("x"))
	assert.Equal(t, []int{2}, r.All())

	_, ok := r.Get("x")
	assert.False(t, ok)
}
