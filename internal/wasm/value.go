package wasm

import "github.com/wazerocore/wasmvm/api"

// Value is the untyped 64-bit operand-stack cell described in spec.md §3.
// Validation fixes the type at each use site, so the cell itself carries no
// tag; an instruction interprets its bit pattern through whichever view
// (I32/I64/F32/F64) the opcode calls for.
type Value uint64

// I32 returns the low 32 bits, reinterpreted as a signed int32.
func (v Value) I32() int32 { return int32(uint32(v)) }

// U32 returns the low 32 bits as an unsigned uint32 — used for addresses,
// table/memory indices, and unsigned arithmetic.
func (v Value) U32() uint32 { return uint32(v) }

// I64 returns the full 64 bits, reinterpreted as a signed int64.
func (v Value) I64() int64 { return int64(v) }

// U64 returns the full 64 bits as an unsigned uint64.
func (v Value) U64() uint64 { return uint64(v) }

// F32 returns the low 32 bits, bit-reinterpreted as a float32.
func (v Value) F32() float32 { return api.DecodeF32(uint64(v)) }

// F64 returns the full 64 bits, bit-reinterpreted as a float64.
func (v Value) F64() float64 { return api.DecodeF64(uint64(v)) }

// ValueFromI32 zero-extends a 32-bit cell, per spec.md §3: "the high bits
// ... must be zeroed when pushed as i32 so that the i64 view of a
// freshly-pushed i32 is the zero-extended value."
func ValueFromI32(v int32) Value { return Value(uint32(v)) }

// ValueFromU32 zero-extends an unsigned 32-bit cell.
func ValueFromU32(v uint32) Value { return Value(v) }

// ValueFromI64 builds a 64-bit cell.
func ValueFromI64(v int64) Value { return Value(v) }

// ValueFromU64 builds a 64-bit cell.
func ValueFromU64(v uint64) Value { return Value(v) }

// ValueFromF32 builds a cell from a float32, zero-extended, bit-reinterpreted.
func ValueFromF32(v float32) Value { return Value(api.EncodeF32(v)) }

// ValueFromF64 builds a cell from a float64, bit-reinterpreted.
func ValueFromF64(v float64) Value { return Value(api.EncodeF64(v)) }

// OperandStack is the contiguous array described in spec.md §3: the first
// numInputs+numLocals cells are the locals region (arguments followed by
// zero-initialized locals), and the remainder is the operand region growing
// upward from there. Its capacity is fixed at construction time from the
// validated function's maxStackHeight, so push/pop never need to check
// capacity — only validated code ever runs through it.
type OperandStack struct {
	cells      []Value
	localCount int // numInputs + numLocals
	top        int // index one past the highest live operand cell
}

// NewOperandStack allocates a stack sized for numInputs+numLocals+maxHeight
// cells, copies args into the first numInputs cells, and zero-initializes
// the remaining numLocals local cells.
func NewOperandStack(args []Value, numLocals int, maxHeight int) *OperandStack {
	localCount := len(args) + numLocals
	cells := make([]Value, localCount+maxHeight)
	copy(cells, args)
	return &OperandStack{cells: cells, localCount: localCount, top: localCount}
}

// Push appends v to the operand region.
func (s *OperandStack) Push(v Value) {
	s.cells[s.top] = v
	s.top++
}

// Pop removes and returns the top operand cell.
func (s *OperandStack) Pop() Value {
	s.top--
	return s.cells[s.top]
}

// Top returns a pointer to the top operand cell without removing it, so
// callers can read it (e.g. local.tee) or mutate it in place.
func (s *OperandStack) Top() *Value {
	return &s.cells[s.top-1]
}

// PeekAt returns the operand cell `depth` cells below the top (0 is the top
// itself), without removing anything.
func (s *OperandStack) PeekAt(depth int) Value {
	return s.cells[s.top-1-depth]
}

// Drop discards n operand cells from immediately below the current top,
// preserving the top cell itself — the operation named in spec.md §3's
// "drop(n)" and used by Branch (§4.1) after saving an arity-1 result.
func (s *OperandStack) Drop(n int) {
	if n == 0 {
		return
	}
	top := s.cells[s.top-1]
	s.top -= n
	s.cells[s.top-1] = top
}

// DropAll discards n operand cells from the top, with no result to
// preserve — used by Branch when arity is 0.
func (s *OperandStack) DropAll(n int) {
	s.top -= n
}

// Local returns a pointer to local slot i (an argument or a declared
// local), counted from the base of the locals region.
func (s *OperandStack) Local(i int) *Value {
	return &s.cells[i]
}

// Size returns the current height of the operand region (excludes locals).
func (s *OperandStack) Size() int {
	return s.top - s.localCount
}

// Rend returns the offset where the operand region begins: one past the
// last cell of the locals region (arguments plus declared locals).
func (s *OperandStack) Rend() int {
	return s.localCount
}

// ArgsPtr returns the slice of the top numArgs operand cells, by reference
// into the stack's backing array: arguments stay on the caller's stack and
// the slice is a view of them, not a copy (spec.md §4.3, §9). A Wasm callee's
// NewOperandStack then copies them into its own locals region.
func (s *OperandStack) ArgsPtr(numArgs int) []Value {
	return s.cells[s.top-numArgs : s.top]
}
