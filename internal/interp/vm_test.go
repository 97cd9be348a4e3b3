package interp

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wazerocore/wasmvm/api"
	"github.com/wazerocore/wasmvm/internal/wasm"
)

// --- hand-built instruction stream helpers -------------------------------
//
// The binary parser that would normally produce these byte streams from a
// .wasm module is out of scope, so tests assemble the rewritten instruction
// stream directly, the same way interpreter_test.go hands a *code to the
// engine without going through a compiler.

func uleb(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if v == 0 {
			break
		}
	}
	return out
}

func sleb(v int64) []byte {
	var out []byte
	more := true
	for more {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			more = false
		} else {
			b |= 0x80
		}
		out = append(out, b)
	}
	return out
}

func u32le(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func branchImm(offset, drop uint32) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint32(b[0:], offset)
	binary.LittleEndian.PutUint32(b[4:], drop)
	return b
}

func cat(chunks ...[]byte) []byte {
	var out []byte
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}

func i32Type(params, results int) *api.FuncType {
	ft := &api.FuncType{}
	for i := 0; i < params; i++ {
		ft.Params = append(ft.Params, api.ValueTypeI32)
	}
	for i := 0; i < results; i++ {
		ft.Results = append(ft.Results, api.ValueTypeI32)
	}
	return ft
}

// --- scenario 1: simple add ----------------------------------------------

func TestVmSimpleAdd(t *testing.T) {
	body := cat(
		[]byte{OpLocalGet}, uleb(0),
		[]byte{OpLocalGet}, uleb(1),
		[]byte{OpI32Add},
		[]byte{OpReturn},
	)
	mod := &wasm.DecodedModule{
		Codes:         []*wasm.Code{{Body: body, LocalCount: 0, MaxStackHeight: 2}},
		FunctionTypes: []*api.FuncType{i32Type(2, 1)},
	}
	inst := &wasm.Instance{Module: mod}

	result := Execute(inst, 0, []wasm.Value{wasm.ValueFromI32(3), wasm.ValueFromI32(4)})
	require.False(t, result.Trapped())
	require.Equal(t, int32(7), wasm.Value(result.Val).I32())
}

// --- scenario 2: if/else branching on local.get 0 ------------------------

func TestVmIfElse(t *testing.T) {
	// pos 0: local.get 0                       (2 bytes)
	// pos 2: if <L_else_body>                   (5 bytes: opcode + u32)
	// pos 7: i32.const 1                        (2 bytes)
	// pos 9 (L_else): else <L_end>               (5 bytes: opcode + u32)
	// pos 14 (L_else_body): i32.const 2          (2 bytes)
	// pos 16 (L_end): end                        (1 byte)
	// pos 17: return                             (1 byte)
	//
	// A taken then-arm falls through into the live `else` opcode at pos 9,
	// which reads its own u32 immediate and seeks to L_end (16) to skip the
	// else-body. A false condition jumps straight past the `else` marker to
	// L_else_body (14).
	body := cat(
		[]byte{OpLocalGet}, uleb(0),
		[]byte{OpIf}, u32le(14),
		[]byte{OpI32Const}, sleb(1),
		[]byte{OpElse}, u32le(16),
		[]byte{OpI32Const}, sleb(2),
		[]byte{OpEnd},
		[]byte{OpReturn},
	)
	require.Equal(t, 18, len(body))

	mod := &wasm.DecodedModule{
		Codes:         []*wasm.Code{{Body: body, LocalCount: 0, MaxStackHeight: 1}},
		FunctionTypes: []*api.FuncType{i32Type(1, 1)},
	}
	inst := &wasm.Instance{Module: mod}

	truthy := Execute(inst, 0, []wasm.Value{wasm.ValueFromI32(1)})
	require.False(t, truthy.Trapped())
	require.Equal(t, int32(1), wasm.Value(truthy.Val).I32())

	falsy := Execute(inst, 0, []wasm.Value{wasm.ValueFromI32(0)})
	require.False(t, falsy.Trapped())
	require.Equal(t, int32(2), wasm.Value(falsy.Val).I32())
}

// --- scenario 2b: a bare `br` with arity=1 preserves the branch result ----

func TestVmBrArityPreservesResult(t *testing.T) {
	// pos 0: i32.const 7                        (2 bytes)
	// pos 2: br <L_end, drop=0> arity=1           (1 + 1 + 8 bytes)
	// pos 12: i32.const 5 (dead code, skipped)    (2 bytes)
	// pos 14 (L_end): return                      (1 byte)
	body := cat(
		[]byte{OpI32Const}, sleb(7),
		[]byte{OpBr}, uleb(1), branchImm(14, 0),
		[]byte{OpI32Const}, sleb(5),
		[]byte{OpReturn},
	)
	require.Equal(t, 15, len(body))

	mod := &wasm.DecodedModule{
		Codes:         []*wasm.Code{{Body: body, LocalCount: 0, MaxStackHeight: 1}},
		FunctionTypes: []*api.FuncType{i32Type(0, 1)},
	}
	inst := &wasm.Instance{Module: mod}

	result := Execute(inst, 0, nil)
	require.False(t, result.Trapped())
	require.Equal(t, int32(7), wasm.Value(result.Val).I32())
}

// --- scenario 2c: a function body ending in a bare `end`, with no explicit
// `return`, completes normally (spec.md §8 scenario 1) -------------------

func TestVmImplicitEndReturnsNormally(t *testing.T) {
	body := cat(
		[]byte{OpI32Const}, sleb(1),
		[]byte{OpI32Const}, sleb(2),
		[]byte{OpI32Add},
		[]byte{OpEnd},
	)
	mod := &wasm.DecodedModule{
		Codes:         []*wasm.Code{{Body: body, LocalCount: 0, MaxStackHeight: 2}},
		FunctionTypes: []*api.FuncType{i32Type(0, 1)},
	}
	inst := &wasm.Instance{Module: mod}

	result := Execute(inst, 0, nil)
	require.False(t, result.Trapped())
	require.Equal(t, int32(3), wasm.Value(result.Val).I32())
}

// --- scenario 3: div_u by zero traps --------------------------------------

func TestVmDivUByZeroTraps(t *testing.T) {
	body := cat(
		[]byte{OpLocalGet}, uleb(0),
		[]byte{OpLocalGet}, uleb(1),
		[]byte{OpI32DivU},
		[]byte{OpReturn},
	)
	mod := &wasm.DecodedModule{
		Codes:         []*wasm.Code{{Body: body, LocalCount: 0, MaxStackHeight: 2}},
		FunctionTypes: []*api.FuncType{i32Type(2, 1)},
	}
	inst := &wasm.Instance{Module: mod}

	result := Execute(inst, 0, []wasm.Value{wasm.ValueFromI32(10), wasm.ValueFromI32(0)})
	require.True(t, result.Trapped())
	require.ErrorIs(t, result.Cause, ErrIntegerDivideByZero)
}

// --- scenario 4: memory.grow sequence to exhaustion -----------------------

func TestVmMemoryGrowToExhaustion(t *testing.T) {
	body := cat(
		[]byte{OpLocalGet}, uleb(0),
		[]byte{OpMemoryGrow},
		[]byte{OpReturn},
	)
	mod := &wasm.DecodedModule{
		Codes:         []*wasm.Code{{Body: body, LocalCount: 0, MaxStackHeight: 1}},
		FunctionTypes: []*api.FuncType{i32Type(1, 1)},
	}
	mem := &wasm.MemoryInstance{Buffer: make([]byte, wasm.PageSize), Min: 1, PagesLimit: 2}
	inst := &wasm.Instance{Module: mod, Memory: mem}

	first := Execute(inst, 0, []wasm.Value{wasm.ValueFromI32(1)})
	require.False(t, first.Trapped())
	require.Equal(t, uint32(1), wasm.Value(first.Val).U32()) // previous page count

	second := Execute(inst, 0, []wasm.Value{wasm.ValueFromI32(1)})
	require.False(t, second.Trapped())
	require.Equal(t, uint32(0xFFFFFFFF), wasm.Value(second.Val).U32()) // exhausted
}

// --- scenario 4b: memory access exactly at the buffer's edge succeeds, one
// byte further traps (spec.md §8's memory-bounds property) ---------------

func TestVmMemoryLoadBoundary(t *testing.T) {
	body := cat(
		[]byte{OpLocalGet}, uleb(0),
		[]byte{OpI32Load}, uleb(0), uleb(0), // align, offset
		[]byte{OpReturn},
	)
	mod := &wasm.DecodedModule{
		Codes:         []*wasm.Code{{Body: body, LocalCount: 0, MaxStackHeight: 1}},
		FunctionTypes: []*api.FuncType{i32Type(1, 1)},
	}
	mem := &wasm.MemoryInstance{Buffer: make([]byte, wasm.PageSize), Min: 1, PagesLimit: 1}
	inst := &wasm.Instance{Module: mod, Memory: mem}

	atEdge := Execute(inst, 0, []wasm.Value{wasm.ValueFromI32(int32(wasm.PageSize - 4))})
	require.False(t, atEdge.Trapped())

	pastEdge := Execute(inst, 0, []wasm.Value{wasm.ValueFromI32(int32(wasm.PageSize - 3))})
	require.True(t, pastEdge.Trapped())
	require.ErrorIs(t, pastEdge.Cause, ErrOutOfBoundsMemoryAccess)
}

// --- scenario 4c: br_table falls back to its default label for an
// out-of-range selector (spec.md §8's br_table property) ------------------

func TestVmBrTableDefaultFallback(t *testing.T) {
	// pos 0: local.get 0 (selector)             (2 bytes)
	// pos 2: br_table count=2 arity=0            (1 + 1 + 1 bytes)
	// pos 5: target[0]  <T0, drop=0>              (8 bytes)
	// pos 13: target[1] <T1, drop=0>              (8 bytes)
	// pos 21: default   <T2, drop=0>              (8 bytes)
	// pos 29 (T0): i32.const 50, return           (2 + 1 bytes)
	// pos 32 (T1): i32.const 51, return           (2 + 1 bytes)
	// pos 35 (T2): i32.const 42, return           (2 + 1 bytes)
	//
	// The target values are kept within the single-byte signed-LEB128 range
	// (-64..63) so each target's encoded size is exactly 3 bytes.
	const t0, t1, t2 = 29, 32, 35
	body := cat(
		[]byte{OpLocalGet}, uleb(0),
		[]byte{OpBrTable}, uleb(2), uleb(0),
		branchImm(t0, 0), branchImm(t1, 0), branchImm(t2, 0),
		[]byte{OpI32Const}, sleb(50), []byte{OpReturn},
		[]byte{OpI32Const}, sleb(51), []byte{OpReturn},
		[]byte{OpI32Const}, sleb(42), []byte{OpReturn},
	)
	require.Equal(t, t2+3, len(body))

	mod := &wasm.DecodedModule{
		Codes:         []*wasm.Code{{Body: body, LocalCount: 0, MaxStackHeight: 1}},
		FunctionTypes: []*api.FuncType{i32Type(1, 1)},
	}
	inst := &wasm.Instance{Module: mod}

	inRange0 := Execute(inst, 0, []wasm.Value{wasm.ValueFromI32(0)})
	require.False(t, inRange0.Trapped())
	require.Equal(t, int32(50), wasm.Value(inRange0.Val).I32())

	inRange1 := Execute(inst, 0, []wasm.Value{wasm.ValueFromI32(1)})
	require.False(t, inRange1.Trapped())
	require.Equal(t, int32(51), wasm.Value(inRange1.Val).I32())

	outOfRange := Execute(inst, 0, []wasm.Value{wasm.ValueFromI32(5)})
	require.False(t, outOfRange.Trapped())
	require.Equal(t, int32(42), wasm.Value(outOfRange.Val).I32())
}

// --- scenario 5: call_indirect null / type-mismatch / success ------------

func TestVmCallIndirect(t *testing.T) {
	niladicI32 := &api.FuncType{Results: []api.ValueType{api.ValueTypeI32}}

	calleeBody := cat([]byte{OpI32Const}, sleb(42), []byte{OpReturn})
	calleeMod := &wasm.DecodedModule{
		Codes: []*wasm.Code{
			{Body: calleeBody, LocalCount: 0, MaxStackHeight: 1}, // funcIdx 0: matches
			{Body: []byte{OpReturn}, LocalCount: 0, MaxStackHeight: 0},
		},
		FunctionTypes: []*api.FuncType{
			niladicI32,   // funcIdx 0
			i32Type(1, 1), // funcIdx 1: wrong type
		},
	}
	calleeInst := &wasm.Instance{Module: calleeMod}

	table := &wasm.TableInstance{Elements: []wasm.TableElement{
		{Instance: nil},                             // slot 0: uninitialized
		{Instance: calleeInst, FuncIdx: 1},            // slot 1: wrong signature
		{Instance: calleeInst, FuncIdx: 0},            // slot 2: matches
	}}

	callerBody := cat(
		[]byte{OpLocalGet}, uleb(0),
		[]byte{OpCallIndirect}, uleb(0),
		[]byte{OpReturn},
	)
	callerMod := &wasm.DecodedModule{
		Codes:         []*wasm.Code{{Body: callerBody, LocalCount: 0, MaxStackHeight: 1}},
		FunctionTypes: []*api.FuncType{i32Type(1, 1)},
		TypeSec:       []*api.FuncType{niladicI32},
	}
	callerInst := &wasm.Instance{Module: callerMod, Table: table}

	nullSlot := Execute(callerInst, 0, []wasm.Value{wasm.ValueFromI32(0)})
	require.True(t, nullSlot.Trapped())
	require.ErrorIs(t, nullSlot.Cause, ErrInvalidTableAccess)

	mismatched := Execute(callerInst, 0, []wasm.Value{wasm.ValueFromI32(1)})
	require.True(t, mismatched.Trapped())
	require.ErrorIs(t, mismatched.Cause, ErrIndirectCallTypeMismatch)

	ok := Execute(callerInst, 0, []wasm.Value{wasm.ValueFromI32(2)})
	require.False(t, ok.Trapped())
	require.Equal(t, int32(42), wasm.Value(ok.Val).I32())
}

// --- scenario 6: self-recursion traps at exactly the call-stack limit ----

func TestVmSelfRecursionTrapsAtCallStackLimit(t *testing.T) {
	body := cat(
		[]byte{OpCall}, uleb(0), // call self
		[]byte{OpReturn},
	)
	mod := &wasm.DecodedModule{
		Codes:         []*wasm.Code{{Body: body, LocalCount: 0, MaxStackHeight: 0}},
		FunctionTypes: []*api.FuncType{{}}, // () -> ()
	}
	inst := &wasm.Instance{Module: mod}

	ctx := wasm.NewExecutionContext(5)
	result := ExecuteWithContext(inst, 0, nil, ctx)
	require.True(t, result.Trapped())
	require.ErrorIs(t, result.Cause, wasm.ErrCallStackExhausted)
	// Every EnterCall is balanced by a deferred leave, even on a panic path.
	require.Equal(t, 0, ctx.Depth())
}
