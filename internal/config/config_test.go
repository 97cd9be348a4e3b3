package config

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wazerocore/wasmvm/internal/wasm"
)

func TestNewDefaults(t *testing.T) {
	c := New()
	require.Equal(t, wasm.CallStackLimit, c.CallStackLimit)
	require.Equal(t, uint32(wasm.MaxMemoryPagesLimit), c.MaxMemoryPagesLimit)
	require.NotNil(t, c.Logger)
}

func TestWithCallStackLimit(t *testing.T) {
	c := New(WithCallStackLimit(4))
	require.Equal(t, 4, c.CallStackLimit)

	// non-positive values are ignored, keeping the default.
	c2 := New(WithCallStackLimit(0))
	require.Equal(t, wasm.CallStackLimit, c2.CallStackLimit)
}

func TestWithMaxMemoryPagesLimit(t *testing.T) {
	c := New(WithMaxMemoryPagesLimit(10))
	require.Equal(t, uint32(10), c.MaxMemoryPagesLimit)

	// Anything above the hard ceiling is clamped back down to it.
	c2 := New(WithMaxMemoryPagesLimit(wasm.MaxMemoryPagesLimit + 1))
	require.Equal(t, uint32(wasm.MaxMemoryPagesLimit), c2.MaxMemoryPagesLimit)
}

func TestNewExecutionContext(t *testing.T) {
	c := New(WithCallStackLimit(1))
	ctx := c.NewExecutionContext()
	leave, err := ctx.EnterCall()
	require.NoError(t, err)
	leave()
}
