package wasm

import (
	"errors"

	"go.uber.org/zap"
)

// ErrCallStackExhausted is the trap cause reported when a call would push
// ctx.depth past its configured limit (spec.md §5/§8 "Call depth").
var ErrCallStackExhausted = errors.New("call stack exhausted")

// ExecutionContext is per-thread shared state for a chain of reentrant
// execute calls (spec.md §3/§5): the current call depth, which is the only
// mutable state a host function's recursive call into execute shares with
// its caller, plus the diagnostic logger the caller configured.
type ExecutionContext struct {
	depth  int
	limit  int
	Logger *zap.Logger
}

// NewExecutionContext builds a default ExecutionContext with the given
// recursion limit (spec.md §6's CallStackLimit; pass 0 to use
// CallStackLimit) and a no-op logger.
func NewExecutionContext(limit int) *ExecutionContext {
	if limit <= 0 {
		limit = CallStackLimit
	}
	return &ExecutionContext{limit: limit, Logger: zap.NewNop()}
}

// Depth returns the current call depth.
func (c *ExecutionContext) Depth() int { return c.depth }

// EnterCall acquires the scoped call-depth guard: it increments depth, and
// returns a func that must be deferred to decrement it again on every exit
// path — normal return, trap, or panic (spec.md §5). It returns an error
// instead of incrementing if depth is already at the configured limit, per
// spec.md §4.3's "Depth check".
func (c *ExecutionContext) EnterCall() (leave func(), err error) {
	if c.depth >= c.limit {
		return func() {}, ErrCallStackExhausted
	}
	c.depth++
	return func() { c.depth-- }, nil
}
