package reactive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreate_IdentityUniqueness(t *testing.T) {
	reg := NewRegistry()
	defer reg.Cleanup()

	_, err := Create(reg, func() int { return 1 }, WithKey("K"))
	require.NoError(t, err)

	_, err = Create(reg, func() int { return 2 }, WithKey("K"))
	require.Error(t, err)

	var conflict *IdentityConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "K", conflict.Key)

	// same key under a different type is a different identity
	_, err = Create(reg, func() string { return "" }, WithKey("K"))
	require.NoError(t, err)
}

func TestCreate_KeylessAlwaysNew(t *testing.T) {
	reg := NewRegistry()
	defer reg.Cleanup()

	first, err := Create(reg, func() int { return 1 })
	require.NoError(t, err)
	second, err := Create(reg, func() int { return 2 })
	require.NoError(t, err)

	assert.True(t, first.Keyless())
	assert.NotEqual(t, first.Key(), second.Key())
	assert.Equal(t, 2, CountByType[int](reg))
}

func TestGet_ByKeyAndByType(t *testing.T) {
	reg := NewRegistry()
	defer reg.Cleanup()

	created, err := Create(reg, func() int { return 7 }, WithKey("solo"))
	require.NoError(t, err)

	byKey, err := Get[int](reg, "solo")
	require.NoError(t, err)
	assert.Same(t, created, byKey)

	byType, err := Get[int](reg, "")
	require.NoError(t, err)
	assert.Same(t, created, byType)

	_, err = Get[string](reg, "")
	require.Error(t, err)

	_, err = Create(reg, func() int { return 8 }, WithKey("second"))
	require.NoError(t, err)

	_, err = Get[int](reg, "")
	require.Error(t, err) // ambiguous without a key
}

func TestRegistry_Counts(t *testing.T) {
	reg := NewRegistry()
	defer reg.Cleanup()

	_, err := Create(reg, func() int { return 0 }, WithKey("a"))
	require.NoError(t, err)
	_, err = Create(reg, func() int { return 0 }, WithKey("b"))
	require.NoError(t, err)
	_, err = Create(reg, func() string { return "" }, WithKey("c"))
	require.NoError(t, err)

	assert.Equal(t, 3, reg.Count())
	assert.Equal(t, 2, CountByType[int](reg))
	assert.Equal(t, 1, CountByType[string](reg))
	assert.True(t, IsActive[int](reg, "a"))
	assert.False(t, IsActive[int](reg, "missing"))
}

func TestRegistry_Cleanup(t *testing.T) {
	reg := NewRegistry()

	a, err := Create(reg, func() int { return 0 }, WithKey("a"))
	require.NoError(t, err)
	b, err := Create(reg, func() string { return "" }, WithKey("b"))
	require.NoError(t, err)

	reg.Cleanup()

	assert.Equal(t, 0, reg.Count())
	assert.True(t, a.Disposed())
	assert.True(t, b.Disposed())
	assert.False(t, IsActive[int](reg, "a"))
}

func TestRecreate_PreservesIdentityAndObservers(t *testing.T) {
	reg := NewRegistry()
	defer reg.Cleanup()

	created, err := Create(reg, func() int { return 1 }, WithKey("cfg"))
	require.NoError(t, err)

	calls := 0
	created.AddObserver(func(v int) { calls++ })

	// a second handle to the same identity
	held, err := Get[int](reg, "cfg")
	require.NoError(t, err)

	got, err := RecreateInstance(reg, "cfg", func() int { return 2 })
	require.NoError(t, err)
	assert.Equal(t, 2, got)

	assert.Equal(t, 1, calls, "recreate fires notification exactly once")
	assert.Equal(t, 2, held.Value(), "held handle observes the new value")
	assert.Same(t, created, held)
}

func TestRecreate_MissingAndDisposed(t *testing.T) {
	reg := NewRegistry()
	defer reg.Cleanup()

	_, err := RecreateInstance(reg, "nope", func() int { return 0 })
	require.Error(t, err)

	var stateErr *StateError
	require.ErrorAs(t, err, &stateErr)

	cell, err := Create(reg, func() int { return 1 }, WithKey("gone"))
	require.NoError(t, err)
	cell.Dispose()

	_, err = RecreateInstance(reg, "gone", func() int { return 2 })
	require.Error(t, err)
	require.ErrorAs(t, err, &stateErr)
}

func TestRecreate_ReentrantRejected(t *testing.T) {
	reg := NewRegistry()
	defer reg.Cleanup()

	var nestedErr error
	recreated := false

	_, err := CreateController(reg, func() int { return 1 },
		func(c *Controller[int]) {
			if recreated {
				_, nestedErr = RecreateInstance(reg, "loop", func() int { return 99 })
			}
		},
		WithKey("loop"),
	)
	require.NoError(t, err)

	recreated = true
	_, err = RecreateInstance(reg, "loop", func() int { return 2 })
	require.NoError(t, err)

	require.Error(t, nestedErr)
	var stateErr *StateError
	require.ErrorAs(t, nestedErr, &stateErr)
	assert.Contains(t, stateErr.Reason, "in flight")
}

func TestRecreate_RerunsControllerInit(t *testing.T) {
	reg := NewRegistry()
	defer reg.Cleanup()

	inits := 0
	ctrl, err := CreateController(reg, func() int { return 1 },
		func(c *Controller[int]) { inits++ },
		WithKey("svc"),
	)
	require.NoError(t, err)
	require.Equal(t, 1, inits)

	_, err = RecreateInstance(reg, "svc", func() int { return 2 })
	require.NoError(t, err)

	assert.Equal(t, 2, inits)
	assert.Equal(t, 2, ctrl.Value())
	assert.True(t, ctrl.InitializationComplete())
}

func TestCell_ResurrectOnAccess(t *testing.T) {
	reg := NewRegistry()
	defer reg.Cleanup()

	builds := 0
	cell, err := Create(reg, func() int { builds++; return builds }, WithKey("phoenix"))
	require.NoError(t, err)
	require.Equal(t, 1, cell.Value())

	cell.Dispose()
	require.True(t, cell.Disposed())
	require.False(t, IsActive[int](reg, "phoenix"))

	// reading a disposed cell reconstructs it under the same identity
	assert.Equal(t, 2, cell.Value())
	assert.False(t, cell.Disposed())
	assert.True(t, IsActive[int](reg, "phoenix"))

	again, err := Get[int](reg, "phoenix")
	require.NoError(t, err)
	assert.Same(t, cell, again)
}

func TestDefaultRegistry(t *testing.T) {
	defer Default().Cleanup()

	_, err := Create(Default(), func() int { return 0 }, WithKey("global"))
	require.NoError(t, err)
	assert.True(t, IsActive[int](Default(), "global"))
}
