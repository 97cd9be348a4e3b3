package interp

import (
	"encoding/binary"
	"math"

	"github.com/wazerocore/wasmvm/internal/moremath"
)

func leU16(b []byte) uint16 { return binary.LittleEndian.Uint16(b) }
func leU32(b []byte) uint32 { return binary.LittleEndian.Uint32(b) }
func leU64(b []byte) uint64 { return binary.LittleEndian.Uint64(b) }

func putU16(b []byte, v uint16) { binary.LittleEndian.PutUint16(b, v) }
func putU32(b []byte, v uint32) { binary.LittleEndian.PutUint32(b, v) }
func putU64(b []byte, v uint64) { binary.LittleEndian.PutUint64(b, v) }

func mathAbs(x float64) float64 { return math.Abs(x) }

func ceil32(x float32) float32     { return float32(math.Ceil(float64(x))) }
func floor32(x float32) float32    { return float32(math.Floor(float64(x))) }
func trunc32(x float32) float32    { return float32(math.Trunc(float64(x))) }
func nearest32(x float32) float32  { return float32(math.RoundToEven(float64(x))) }
func sqrt32(x float32) float32     { return float32(math.Sqrt(float64(x))) }
func copysign32(x, y float32) float32 {
	return float32(math.Copysign(float64(x), float64(y)))
}

func ceil64(x float64) float64  { return math.Ceil(x) }
func floor64(x float64) float64 { return math.Floor(x) }
func trunc64(x float64) float64 { return math.Trunc(x) }
func nearest64(x float64) float64 {
	return math.RoundToEven(x)
}
func sqrt64(x float64) float64 { return math.Sqrt(x) }
func copysign64(x, y float64) float64 {
	return math.Copysign(x, y)
}

// divS32 implements signed i32.div_s: traps on divide-by-zero and on the
// INT_MIN/-1 overflow case (spec.md §4.5).
func divS32(a, b int32) (int32, error) {
	if b == 0 {
		return 0, ErrIntegerDivideByZero
	}
	if a == math.MinInt32 && b == -1 {
		return 0, ErrIntegerOverflow
	}
	return a / b, nil
}

// remS32 implements signed i32.rem_s. Unlike div_s, INT_MIN % -1 does NOT
// trap; it returns 0 (spec.md §4.5, §8).
func remS32(a, b int32) (int32, error) {
	if b == 0 {
		return 0, ErrIntegerDivideByZero
	}
	if a == math.MinInt32 && b == -1 {
		return 0, nil
	}
	return a % b, nil
}

func divU32(a, b uint32) (uint32, error) {
	if b == 0 {
		return 0, ErrIntegerDivideByZero
	}
	return a / b, nil
}

func remU32(a, b uint32) (uint32, error) {
	if b == 0 {
		return 0, ErrIntegerDivideByZero
	}
	return a % b, nil
}

func divS64(a, b int64) (int64, error) {
	if b == 0 {
		return 0, ErrIntegerDivideByZero
	}
	if a == math.MinInt64 && b == -1 {
		return 0, ErrIntegerOverflow
	}
	return a / b, nil
}

// remS64 follows the same INT64_MIN % -1 == 0 rule as remS32. spec.md §9
// notes the reference source mistakenly compared against the *unsigned*
// minimum (0) instead of INT64_MIN here; we follow the corrected rule.
func remS64(a, b int64) (int64, error) {
	if b == 0 {
		return 0, ErrIntegerDivideByZero
	}
	if a == math.MinInt64 && b == -1 {
		return 0, nil
	}
	return a % b, nil
}

func divU64(a, b uint64) (uint64, error) {
	if b == 0 {
		return 0, ErrIntegerDivideByZero
	}
	return a / b, nil
}

func remU64(a, b uint64) (uint64, error) {
	if b == 0 {
		return 0, ErrIntegerDivideByZero
	}
	return a % b, nil
}

// rotl32/rotr32/rotl64/rotr64 implement the MVP rotate instructions. The
// shift count is masked to width-1 (spec.md §4.5), matching Go's
// bits.RotateLeft semantics once the count is reduced mod the width.
func rotl32(v uint32, n uint32) uint32 {
	n &= 31
	return (v << n) | (v >> (32 - n) & maskIfNonzero32(n))
}

func rotr32(v uint32, n uint32) uint32 {
	n &= 31
	return (v >> n) | (v << (32 - n) & maskIfNonzero32(n))
}

func rotl64(v uint64, n uint64) uint64 {
	n &= 63
	return (v << n) | (v >> (64 - n) & maskIfNonzero64(n))
}

func rotr64(v uint64, n uint64) uint64 {
	n &= 63
	return (v >> n) | (v << (64 - n) & maskIfNonzero64(n))
}

// maskIfNonzero32/64 zero the wrapped-around half of a rotate by 0. Go
// already defines a shift by the full width (32-0=32, 64-0=64) to yield 0,
// so the mask does not change the result; it makes the rotate-by-zero case
// explicit.
func maskIfNonzero32(n uint32) uint32 {
	if n == 0 {
		return 0
	}
	return ^uint32(0)
}

func maskIfNonzero64(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	return ^uint64(0)
}

// wasmMin/wasmMax delegate to moremath for spec.md §4.5's float min/max
// rule.
func wasmMin(a, b float64) float64 { return moremath.WasmCompatMin(a, b) }

func wasmMax(a, b float64) float64 { return moremath.WasmCompatMax(a, b) }

// truncF64ToI32S converts x to int32, trapping on NaN, infinities, and
// out-of-range values per the canonical Wasm bounds (spec.md §4.5):
// i32_trunc_f32/f64_s requires -2147483649 < x < 2147483648.
func truncF64ToI32S(x float64) (int32, error) {
	if math.IsNaN(x) || !(x > -2147483649.0 && x < 2147483648.0) {
		return 0, ErrInvalidConversionToInt
	}
	return int32(math.Trunc(x)), nil
}

// truncF64ToI32U requires -1 < x < 4294967296.
func truncF64ToI32U(x float64) (uint32, error) {
	if math.IsNaN(x) || !(x > -1.0 && x < 4294967296.0) {
		return 0, ErrInvalidConversionToInt
	}
	return uint32(math.Trunc(x)), nil
}

// truncF64ToI64S requires -9223372036854777856 < x < 9223372036854775808.
func truncF64ToI64S(x float64) (int64, error) {
	if math.IsNaN(x) || !(x >= -9223372036854775808.0 && x < 9223372036854775808.0) {
		return 0, ErrInvalidConversionToInt
	}
	return int64(math.Trunc(x)), nil
}

// truncF64ToI64U requires -1 < x < 18446744073709551616.
func truncF64ToI64U(x float64) (uint64, error) {
	if math.IsNaN(x) || !(x > -1.0 && x < 18446744073709551616.0) {
		return 0, ErrInvalidConversionToInt
	}
	return uint64(math.Trunc(x)), nil
}
