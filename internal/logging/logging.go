// Package logging provides the Vm's optional diagnostic logger. It is kept
// independent of internal/interp so that a nil *zap.Logger can be resolved
// to a safe no-op without the dispatch loop importing zap's construction
// machinery directly.
package logging

import "go.uber.org/zap"

// NewNop returns a logger that discards everything, used whenever a VmConfig
// is built without an explicit WithLogger option.
func NewNop() *zap.Logger {
	return zap.NewNop()
}

// Call logs a function invocation at Debug level: which function index, at
// which call depth, with how many arguments. Cheap enough to call
// unconditionally since zap no-ops the check when the core is disabled.
func Call(log *zap.Logger, funcIdx uint32, depth int, numArgs int) {
	log.Debug("call",
		zap.Uint32("func", funcIdx),
		zap.Int("depth", depth),
		zap.Int("args", numArgs),
	)
}

// Return logs a function's normal completion.
func Return(log *zap.Logger, funcIdx uint32, depth int, hasResult bool) {
	log.Debug("return",
		zap.Uint32("func", funcIdx),
		zap.Int("depth", depth),
		zap.Bool("result", hasResult),
	)
}

// Trap logs a trapping completion, recording the cause.
func Trap(log *zap.Logger, funcIdx uint32, depth int, cause error) {
	log.Debug("trap",
		zap.Uint32("func", funcIdx),
		zap.Int("depth", depth),
		zap.Error(cause),
	)
}

// MemoryGrow logs a memory.grow attempt and its outcome.
func MemoryGrow(log *zap.Logger, deltaPages uint32, previousPages uint32, ok bool) {
	log.Debug("memory.grow",
		zap.Uint32("delta_pages", deltaPages),
		zap.Uint32("previous_pages", previousPages),
		zap.Bool("ok", ok),
	)
}
