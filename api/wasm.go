// Package api includes the types used to execute a single Wasm function
// against an already-instantiated module: value types, function signatures,
// and the execution result. The entry points themselves (Execute,
// ExecuteWithContext) are in internal/interp. Everything needed
// to decode a module into this shape and to instantiate it (element/data
// segment initialization, start-function invocation, the binary parser
// itself) is a collaborator specified elsewhere, not implemented here.
package api

import (
	"fmt"
	"math"
)

// ValueType describes a numeric type used in WebAssembly 1.0 (MVP). Function
// parameters, results, and locals are only definable as a value type.
//
// Note: This is a type alias as it is easier to encode and decode in the
// binary format.
//
// See https://www.w3.org/TR/2019/REC-wasm-core-1-20191205/#binary-valtype
type ValueType = byte

const (
	// ValueTypeI32 is a 32-bit integer.
	ValueTypeI32 ValueType = 0x7f
	// ValueTypeI64 is a 64-bit integer.
	ValueTypeI64 ValueType = 0x7e
	// ValueTypeF32 is a 32-bit floating point number.
	ValueTypeF32 ValueType = 0x7d
	// ValueTypeF64 is a 64-bit floating point number.
	ValueTypeF64 ValueType = 0x7c
)

// ValueTypeName returns the WebAssembly text format name of t, or "unknown"
// if t is not one of the ValueType constants.
func ValueTypeName(t ValueType) string {
	switch t {
	case ValueTypeI32:
		return "i32"
	case ValueTypeI64:
		return "i64"
	case ValueTypeF32:
		return "f32"
	case ValueTypeF64:
		return "f64"
	}
	return "unknown"
}

// EncodeI32 encodes input as the untyped 64-bit cell representation of a
// ValueTypeI32: the high 32 bits are zero, per spec.md §3 ("the high bits of
// a 32-bit value ... must be zeroed when pushed as i32").
func EncodeI32(input int32) uint64 {
	return uint64(uint32(input))
}

// EncodeI64 encodes input as the untyped 64-bit cell representation of a
// ValueTypeI64.
func EncodeI64(input int64) uint64 {
	return uint64(input)
}

// EncodeF32 encodes input as the untyped 64-bit cell representation of a
// ValueTypeF32 (bitwise, zero-extended).
//
// See DecodeF32
func EncodeF32(input float32) uint64 {
	return uint64(math.Float32bits(input))
}

// DecodeF32 decodes input (a ValueTypeF32 cell) to a float32.
//
// See EncodeF32
func DecodeF32(input uint64) float32 {
	return math.Float32frombits(uint32(input))
}

// EncodeF64 encodes input as the untyped 64-bit cell representation of a
// ValueTypeF64 (bitwise).
//
// See DecodeF64
func EncodeF64(input float64) uint64 {
	return math.Float64bits(input)
}

// DecodeF64 decodes input (a ValueTypeF64 cell) to a float64.
//
// See EncodeF64
func DecodeF64(input uint64) float64 {
	return math.Float64frombits(input)
}

// FuncType is the static signature of a function: its parameter and result
// value types. MVP Wasm allows at most one result.
type FuncType struct {
	Params  []ValueType
	Results []ValueType
}

// EqualTo reports whether f and o describe the same signature. Used by
// call_indirect (spec.md §4.3) to check the callee's actual type against the
// statically declared one; this must be structural equality, not identity,
// since the two FuncType values usually come from different modules.
func (f *FuncType) EqualTo(o *FuncType) bool {
	if f == o {
		return true
	}
	if f == nil || o == nil {
		return false
	}
	if len(f.Params) != len(o.Params) || len(f.Results) != len(o.Results) {
		return false
	}
	for i, p := range f.Params {
		if o.Params[i] != p {
			return false
		}
	}
	for i, r := range f.Results {
		if o.Results[i] != r {
			return false
		}
	}
	return true
}

func (f *FuncType) String() string {
	return fmt.Sprintf("(%s)->(%s)", valueTypesString(f.Params), valueTypesString(f.Results))
}

func valueTypesString(ts []ValueType) string {
	s := ""
	for i, t := range ts {
		if i > 0 {
			s += ", "
		}
		s += ValueTypeName(t)
	}
	return s
}

// ResultKind discriminates the three states an ExecutionResult can be in.
// See spec.md §6/§7.
type ResultKind byte

const (
	// ResultTrap means execution was aborted; the function produced no
	// value, and all Wasm frames created by the call have unwound.
	ResultTrap ResultKind = iota
	// ResultVoid means execution completed normally with no return value.
	ResultVoid
	// ResultValue means execution completed normally with one return value,
	// available via ExecutionResult.Value.
	ResultValue
)

// ExecutionResult is the discriminated record every function invocation
// produces: Trap, Void, or Value(v). See spec.md §6.
type ExecutionResult struct {
	Kind  ResultKind
	Val   uint64
	Cause error // non-nil only when Kind == ResultTrap; the trap reason
}

// Trapped reports whether the call aborted.
func (r ExecutionResult) Trapped() bool { return r.Kind == ResultTrap }

// TrapResult builds a trapping ExecutionResult, recording cause for
// diagnostics.
func TrapResult(cause error) ExecutionResult {
	return ExecutionResult{Kind: ResultTrap, Cause: cause}
}

// VoidResult builds a successful, valueless ExecutionResult.
func VoidResult() ExecutionResult {
	return ExecutionResult{Kind: ResultVoid}
}

// ValueResult builds a successful ExecutionResult carrying one value cell.
func ValueResult(v uint64) ExecutionResult {
	return ExecutionResult{Kind: ResultValue, Val: v}
}

func (r ExecutionResult) String() string {
	switch r.Kind {
	case ResultTrap:
		return fmt.Sprintf("trap(%v)", r.Cause)
	case ResultValue:
		return fmt.Sprintf("value(%d)", r.Val)
	default:
		return "void"
	}
}
