// Package moremath provides floating point helpers whose IEEE-754-plus-NaN
// behavior the standard library's math package does not quite match.
package moremath

import "math"

// WasmCompatMin implements this engine's float min (spec.md §4.5): NaN
// propagates if either operand is NaN, and if both operands are zero with
// either carrying a negative sign bit, the result is -0. This is a
// deliberate departure from the canonical Wasm spec, which resolves
// min(-0, +0) to -0 but max(-0, +0) to +0 — here both directions agree on
// -0.
func WasmCompatMin(x, y float64) float64 {
	switch {
	case math.IsNaN(x) || math.IsNaN(y):
		return math.NaN()
	case x == 0 && y == 0:
		if math.Signbit(x) || math.Signbit(y) {
			return math.Copysign(0, -1)
		}
		return 0
	case x < y:
		return x
	default:
		return y
	}
}

// WasmCompatMax is WasmCompatMin's counterpart for max. See its doc comment
// for the shared, non-standard zero-sign rule.
func WasmCompatMax(x, y float64) float64 {
	switch {
	case math.IsNaN(x) || math.IsNaN(y):
		return math.NaN()
	case x == 0 && y == 0:
		if math.Signbit(x) || math.Signbit(y) {
			return math.Copysign(0, -1)
		}
		return 0
	case x > y:
		return x
	default:
		return y
	}
}
