// Package config implements the Vm's tunable runtime limits, in the style
// of the teacher's RuntimeConfig option-struct builder scoped down to the
// two knobs spec.md §6 names for this core: call-stack depth and linear
// memory page count.
package config

import (
	"go.uber.org/zap"

	"github.com/wazerocore/wasmvm/internal/logging"
	"github.com/wazerocore/wasmvm/internal/wasm"
)

// VmConfig holds the interpreter's configurable limits and diagnostics
// sink. The zero value is invalid; use New.
type VmConfig struct {
	CallStackLimit      int
	MaxMemoryPagesLimit uint32
	Logger              *zap.Logger
}

// Option configures a VmConfig constructed by New.
type Option func(*VmConfig)

// New builds a VmConfig with spec.md §6's defaults (CallStackLimit=2048,
// MaxMemoryPagesLimit=65536, a no-op logger), applying opts in order.
func New(opts ...Option) *VmConfig {
	c := &VmConfig{
		CallStackLimit:      wasm.CallStackLimit,
		MaxMemoryPagesLimit: wasm.MaxMemoryPagesLimit,
		Logger:              logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithCallStackLimit overrides the call-depth limit. Values <= 0 are
// ignored, keeping the default.
func WithCallStackLimit(limit int) Option {
	return func(c *VmConfig) {
		if limit > 0 {
			c.CallStackLimit = limit
		}
	}
}

// WithMaxMemoryPagesLimit sets VmConfig.MaxMemoryPagesLimit. It is clamped
// to wasm.MaxMemoryPagesLimit, the hard ceiling spec.md §6 sets for any
// 32-bit linear memory; 0 also selects that ceiling. Nothing in this package
// applies the value to a memory: memory.grow checks the MemoryInstance's own
// PagesLimit.
func WithMaxMemoryPagesLimit(limit uint32) Option {
	return func(c *VmConfig) {
		if limit == 0 || limit > wasm.MaxMemoryPagesLimit {
			limit = wasm.MaxMemoryPagesLimit
		}
		c.MaxMemoryPagesLimit = limit
	}
}

// WithLogger installs a structured logger for call/return/trap/memory-grow
// diagnostics. A nil logger is treated as NewNop.
func WithLogger(log *zap.Logger) Option {
	return func(c *VmConfig) {
		if log == nil {
			log = logging.NewNop()
		}
		c.Logger = log
	}
}

// NewExecutionContext builds a wasm.ExecutionContext honoring c's call
// stack limit and diagnostic logger.
func (c *VmConfig) NewExecutionContext() *wasm.ExecutionContext {
	ctx := wasm.NewExecutionContext(c.CallStackLimit)
	ctx.Logger = c.Logger
	return ctx
}
