package interp

import (
	"fmt"
	"math/bits"

	"go.uber.org/zap"

	"github.com/wazerocore/wasmvm/api"
	"github.com/wazerocore/wasmvm/internal/logging"
	"github.com/wazerocore/wasmvm/internal/wasm"
)

// Vm is one activation of a Wasm function body: its operand stack,
// instruction cursor, and the instance it runs against. A Vm is built fresh
// for every call to a locally-defined function; imported functions bypass
// it entirely (spec.md §2, §4.3).
type Vm struct {
	stack    *wasm.OperandStack
	cursor   *wasm.Cursor
	instance *wasm.Instance
	ctx      *wasm.ExecutionContext
	codeEnd  uint32
}

// Execute runs funcIdx in instance with args, starting a fresh call-depth
// counter. This is the simple public entry point (spec.md §6).
func Execute(instance *wasm.Instance, funcIdx uint32, args []wasm.Value) api.ExecutionResult {
	return ExecuteWithContext(instance, funcIdx, args, wasm.NewExecutionContext(0))
}

// ExecuteWithContext runs funcIdx in instance with args, sharing ctx's call
// depth counter with whatever chain of reentrant calls is already in
// progress — the shape a host function uses to call back into Wasm without
// resetting the recursion budget (spec.md §5).
func ExecuteWithContext(instance *wasm.Instance, funcIdx uint32, args []wasm.Value, ctx *wasm.ExecutionContext) (result api.ExecutionResult) {
	defer func() {
		if r := recover(); r != nil {
			if err, ok := r.(error); ok {
				result = api.TrapResult(err)
				return
			}
			result = api.TrapResult(fmt.Errorf("%v", r))
		}
	}()
	return callFunction(instance, funcIdx, args, ctx)
}

// callFunction is the single dispatch point for every call in the system —
// the initial entry, a nested `call`/`call_indirect`, and a host function's
// callback into Wasm all resolve funcIdx through here (spec.md §4.3). It
// resolves funcIdx to either an imported host function or a local Wasm
// function body and invokes it, enforcing the shared call-depth limit on
// every frame.
func callFunction(instance *wasm.Instance, funcIdx uint32, args []wasm.Value, ctx *wasm.ExecutionContext) api.ExecutionResult {
	log := effectiveLogger(ctx)

	leave, err := ctx.EnterCall()
	if err != nil {
		logging.Trap(log, funcIdx, ctx.Depth(), err)
		return api.TrapResult(err)
	}
	defer leave()

	logging.Call(log, funcIdx, ctx.Depth(), len(args))

	importedCount := instance.Module.ImportedFunctionCount()
	var result api.ExecutionResult
	if funcIdx < importedCount {
		imported := instance.ImportedFunctions[funcIdx]
		result = imported.Func.Call(instance, args, ctx)
	} else {
		code := instance.Module.GetCode(funcIdx)
		fnType := instance.Module.GetFunctionType(funcIdx)

		vm := &Vm{
			stack:    wasm.NewOperandStack(args, code.LocalCount, code.MaxStackHeight),
			cursor:   wasm.NewCursor(code.Body, 0),
			instance: instance,
			ctx:      ctx,
			codeEnd:  uint32(len(code.Body)),
		}
		result = vm.run(fnType)
	}

	if result.Trapped() {
		logging.Trap(log, funcIdx, ctx.Depth(), result.Cause)
	} else {
		logging.Return(log, funcIdx, ctx.Depth(), result.Kind == api.ResultValue)
	}
	return result
}

// effectiveLogger returns ctx's configured logger, or a no-op one if ctx
// was built without config.VmConfig (e.g. via wasm.NewExecutionContext
// directly in a test).
func effectiveLogger(ctx *wasm.ExecutionContext) *zap.Logger {
	if ctx.Logger == nil {
		return logging.NewNop()
	}
	return ctx.Logger
}

// callChecked invokes callFunction and converts a trapping result into a
// panic, so that a nested call's trap unwinds this Vm's dispatch loop the
// same way a directly-raised trap does — through the one recover in
// ExecuteWithContext.
func callChecked(instance *wasm.Instance, funcIdx uint32, args []wasm.Value, ctx *wasm.ExecutionContext) api.ExecutionResult {
	result := callFunction(instance, funcIdx, args, ctx)
	if result.Trapped() {
		panic(result.Cause)
	}
	return result
}

// run executes vm's instruction stream to completion, returning the
// function's result per fnType's arity. Every trap is raised via panic and
// caught by the recover in ExecuteWithContext; run itself never returns an
// error value.
func (vm *Vm) run(fnType *api.FuncType) api.ExecutionResult {
	for {
		op, err := vm.cursor.ReadByte()
		if err != nil {
			panic(err)
		}

		switch op {
		case OpUnreachable:
			panic(ErrUnreachable)

		case OpNop, OpBlock, OpLoop:
			// Structured markers are erased by the rewriter; nothing to do
			// at execution time (spec.md §4.2).

		case OpEnd:
			// A structural end at pc == codeEnd is the function body's own
			// closing end: execution completes normally (spec.md §4.2, §8
			// scenario 1). Any other end is a nested block's or loop's
			// marker, erased at execution time like OpNop.
			if vm.cursor.Pos() == vm.codeEnd {
				return vm.finish(fnType)
			}

		case OpElse:
			// Reached only by falling off the end of a taken `if` body's
			// then-arm: `else` carries its own u32 immediate, the codeOffset
			// to skip to the matching end, which must be consumed and
			// seeked to so the else-body is not executed (spec.md §4.1).
			target, err := vm.cursor.ReadU32()
			if err != nil {
				panic(err)
			}
			vm.cursor.Seek(target)

		case OpReturn:
			return vm.finish(fnType)

		case OpIf:
			target, err := vm.cursor.ReadU32()
			if err != nil {
				panic(err)
			}
			if vm.stack.Pop().I32() == 0 {
				vm.cursor.Seek(target)
			}

		case OpBr:
			arity, err := vm.cursor.ReadVarU32()
			if err != nil {
				panic(err)
			}
			imm, err := vm.cursor.ReadBranchImmediate()
			if err != nil {
				panic(err)
			}
			vm.branch(imm, arity)

		case OpBrIf:
			arity, err := vm.cursor.ReadVarU32()
			if err != nil {
				panic(err)
			}
			imm, err := vm.cursor.ReadBranchImmediate()
			if err != nil {
				panic(err)
			}
			if vm.stack.Pop().I32() != 0 {
				vm.branch(imm, arity)
			}

		case OpBrTable:
			vm.execBrTable()

		case OpCall:
			vm.execCall()

		case OpCallIndirect:
			vm.execCallIndirect()

		case OpDrop:
			vm.stack.Pop()

		case OpSelect:
			vm.execSelect()

		case OpLocalGet:
			idx, err := vm.cursor.ReadVarU32()
			if err != nil {
				panic(err)
			}
			vm.stack.Push(*vm.stack.Local(int(idx)))

		case OpLocalSet:
			idx, err := vm.cursor.ReadVarU32()
			if err != nil {
				panic(err)
			}
			*vm.stack.Local(int(idx)) = vm.stack.Pop()

		case OpLocalTee:
			idx, err := vm.cursor.ReadVarU32()
			if err != nil {
				panic(err)
			}
			*vm.stack.Local(int(idx)) = *vm.stack.Top()

		case OpGlobalGet:
			idx, err := vm.cursor.ReadVarU32()
			if err != nil {
				panic(err)
			}
			vm.stack.Push(vm.instance.GetGlobal(idx).Val)

		case OpGlobalSet:
			idx, err := vm.cursor.ReadVarU32()
			if err != nil {
				panic(err)
			}
			vm.instance.GetGlobal(idx).Val = vm.stack.Pop()

		case OpI32Const:
			v, err := vm.cursor.ReadVarI32()
			if err != nil {
				panic(err)
			}
			vm.stack.Push(wasm.ValueFromI32(v))

		case OpI64Const:
			v, err := vm.cursor.ReadVarI64()
			if err != nil {
				panic(err)
			}
			vm.stack.Push(wasm.ValueFromI64(v))

		case OpF32Const:
			v, err := vm.cursor.ReadU32()
			if err != nil {
				panic(err)
			}
			vm.stack.Push(wasm.Value(uint64(v)))

		case OpF64Const:
			bits, err := vm.cursor.ReadU64()
			if err != nil {
				panic(err)
			}
			vm.stack.Push(wasm.Value(bits))

		case OpMemorySize:
			vm.stack.Push(wasm.ValueFromU32(vm.mustMemory().PageCount()))

		case OpMemoryGrow:
			delta := vm.stack.Pop().U32()
			mem := vm.mustMemory()
			before := mem.PageCount()
			grown := mem.Grow(delta)
			logging.MemoryGrow(effectiveLogger(vm.ctx), delta, before, grown != 0xFFFFFFFF)
			vm.stack.Push(wasm.ValueFromU32(grown))

		default:
			if !vm.execNumericOrMemory(op) {
				panic(fmt.Errorf("unknown opcode 0x%02x", op))
			}
		}
	}
}

// finish builds the ExecutionResult for fnType's declared arity by reading
// off the top of the operand stack — at most one result value in MVP Wasm
// (spec.md §3).
func (vm *Vm) finish(fnType *api.FuncType) api.ExecutionResult {
	if len(fnType.Results) == 0 {
		return api.VoidResult()
	}
	return api.ValueResult(uint64(vm.stack.Pop()))
}

// branch implements spec.md §4.1's Branch(arity): discard StackDrop cells,
// preserving the top cell only if the target expects a result. arity is
// encoded once per branching instruction, not per BranchImmediate, since a
// br_table's targets all share a single result type.
func (vm *Vm) branch(imm wasm.BranchImmediate, arity uint32) {
	if arity == 0 {
		vm.stack.DropAll(int(imm.StackDrop))
	} else {
		vm.stack.Drop(int(imm.StackDrop))
	}
	vm.cursor.Seek(imm.CodeOffset)
}

// execBrTable implements br_table: a selector-indexed jump table rewritten
// by the parser into a LEB128 count, a single shared arity, and count+1
// BranchImmediates, the last of which is the default target used when the
// selector is out of range (spec.md §4.1).
func (vm *Vm) execBrTable() {
	count, err := vm.cursor.ReadVarU32()
	if err != nil {
		panic(err)
	}
	arity, err := vm.cursor.ReadVarU32()
	if err != nil {
		panic(err)
	}
	selector := vm.stack.Pop().U32()

	var chosen wasm.BranchImmediate
	for i := uint32(0); i <= count; i++ {
		imm, err := vm.cursor.ReadBranchImmediate()
		if err != nil {
			panic(err)
		}
		if i == selector || i == count {
			chosen = imm
			if i == selector {
				// The remaining table entries are left unread: the seek
				// in branch abandons the cursor's current position.
				break
			}
		}
	}
	vm.branch(chosen, arity)
}

// execCall implements the direct `call` instruction: the callee index is a
// plain LEB128 immediate into the whole function index space (spec.md
// §4.3).
func (vm *Vm) execCall() {
	funcIdx, err := vm.cursor.ReadVarU32()
	if err != nil {
		panic(err)
	}
	calleeType := vm.instance.Module.GetFunctionType(funcIdx)
	args := vm.stack.ArgsPtr(len(calleeType.Params))

	result := callChecked(vm.instance, funcIdx, args, vm.ctx)
	vm.stack.DropAll(len(calleeType.Params))
	vm.pushResult(calleeType, result)
}

// execCallIndirect implements call_indirect: the callee is resolved through
// the current instance's table, and its actual signature is checked against
// the statically-declared type index before the call proceeds (spec.md
// §4.3). A table slot may reference a function owned by a different
// instance (a cross-instance call); the callee always runs against its own
// owning instance, not vm.instance.
func (vm *Vm) execCallIndirect() {
	typeIdx, err := vm.cursor.ReadVarU32()
	if err != nil {
		panic(err)
	}
	expectedType := vm.instance.Module.TypeSection(typeIdx)

	table := vm.instance.Table
	if table == nil {
		panic(ErrInvalidTableAccess)
	}
	elemIdx := vm.stack.Pop().U32()
	if elemIdx >= uint32(len(table.Elements)) {
		panic(ErrInvalidTableAccess)
	}
	elem := table.Elements[elemIdx]
	if elem.Instance == nil {
		panic(ErrInvalidTableAccess)
	}

	actualType := elem.Instance.Module.GetFunctionType(elem.FuncIdx)
	if !expectedType.EqualTo(actualType) {
		panic(ErrIndirectCallTypeMismatch)
	}

	args := vm.stack.ArgsPtr(len(expectedType.Params))
	result := callChecked(elem.Instance, elem.FuncIdx, args, vm.ctx)
	vm.stack.DropAll(len(expectedType.Params))
	vm.pushResult(expectedType, result)
}

// pushResult pushes a callee's ExecutionResult onto vm's stack, if its type
// declares a result. A void callee that declares a result (or vice versa)
// indicates a validation bug upstream of the Vm, so it is not re-checked
// here.
func (vm *Vm) pushResult(calleeType *api.FuncType, result api.ExecutionResult) {
	if len(calleeType.Results) != 0 {
		vm.stack.Push(wasm.Value(result.Val))
	}
}

// execSelect implements select: pop the condition, then the two candidate
// values, pushing whichever the condition picked.
func (vm *Vm) execSelect() {
	cond := vm.stack.Pop().I32()
	b := vm.stack.Pop()
	a := vm.stack.Pop()
	if cond != 0 {
		vm.stack.Push(a)
	} else {
		vm.stack.Push(b)
	}
}

// mustMemory returns the instance's linear memory, trapping if it has none
// — a validation invariant (every module using memory instructions declares
// or imports one), defended here because the Vm trusts no upstream
// guarantee it cannot itself verify cheaply.
func (vm *Vm) mustMemory() *wasm.MemoryInstance {
	if vm.instance.Memory == nil {
		panic(ErrOutOfBoundsMemoryAccess)
	}
	return vm.instance.Memory
}

// loadAddr computes and bounds-checks the effective address for a memory
// access of size accessSize at static offset immOffset from the popped
// dynamic base address. The addition is carried out in 64 bits specifically
// so that a base address near 2^32 cannot wrap around and defeat the bounds
// check (spec.md §4.4).
func (vm *Vm) loadAddr(immOffset uint32, accessSize uint32) uint32 {
	base := vm.stack.Pop().U32()
	effective := uint64(base) + uint64(immOffset)
	mem := vm.mustMemory()
	if effective+uint64(accessSize) > uint64(len(mem.Buffer)) {
		panic(ErrOutOfBoundsMemoryAccess)
	}
	return uint32(effective)
}

// readMemImmediates reads the alignment hint (discarded — this core does
// not emulate misalignment penalties) and offset immediate shared by every
// load/store instruction.
func (vm *Vm) readMemImmediates() uint32 {
	if _, err := vm.cursor.ReadVarU32(); err != nil { // align, unused
		panic(err)
	}
	offset, err := vm.cursor.ReadVarU32()
	if err != nil {
		panic(err)
	}
	return offset
}

// execNumericOrMemory handles every arithmetic, comparison, conversion, and
// memory load/store opcode not already special-cased in run's main switch.
// It reports false for any opcode it does not recognize.
func (vm *Vm) execNumericOrMemory(op Opcode) bool {
	s := vm.stack
	switch op {
	// --- memory loads ---
	case OpI32Load:
		off := vm.readMemImmediates()
		addr := vm.loadAddr(off, 4)
		s.Push(wasm.ValueFromU32(leU32(vm.mustMemory().Buffer[addr:])))
	case OpI64Load:
		off := vm.readMemImmediates()
		addr := vm.loadAddr(off, 8)
		s.Push(wasm.ValueFromU64(leU64(vm.mustMemory().Buffer[addr:])))
	case OpF32Load:
		off := vm.readMemImmediates()
		addr := vm.loadAddr(off, 4)
		s.Push(wasm.Value(uint64(leU32(vm.mustMemory().Buffer[addr:]))))
	case OpF64Load:
		off := vm.readMemImmediates()
		addr := vm.loadAddr(off, 8)
		s.Push(wasm.Value(leU64(vm.mustMemory().Buffer[addr:])))
	case OpI32Load8S:
		off := vm.readMemImmediates()
		addr := vm.loadAddr(off, 1)
		s.Push(wasm.ValueFromI32(int32(int8(vm.mustMemory().Buffer[addr]))))
	case OpI32Load8U:
		off := vm.readMemImmediates()
		addr := vm.loadAddr(off, 1)
		s.Push(wasm.ValueFromU32(uint32(vm.mustMemory().Buffer[addr])))
	case OpI32Load16S:
		off := vm.readMemImmediates()
		addr := vm.loadAddr(off, 2)
		s.Push(wasm.ValueFromI32(int32(int16(leU16(vm.mustMemory().Buffer[addr:])))))
	case OpI32Load16U:
		off := vm.readMemImmediates()
		addr := vm.loadAddr(off, 2)
		s.Push(wasm.ValueFromU32(uint32(leU16(vm.mustMemory().Buffer[addr:]))))
	case OpI64Load8S:
		off := vm.readMemImmediates()
		addr := vm.loadAddr(off, 1)
		s.Push(wasm.ValueFromI64(int64(int8(vm.mustMemory().Buffer[addr]))))
	case OpI64Load8U:
		off := vm.readMemImmediates()
		addr := vm.loadAddr(off, 1)
		s.Push(wasm.ValueFromU64(uint64(vm.mustMemory().Buffer[addr])))
	case OpI64Load16S:
		off := vm.readMemImmediates()
		addr := vm.loadAddr(off, 2)
		s.Push(wasm.ValueFromI64(int64(int16(leU16(vm.mustMemory().Buffer[addr:])))))
	case OpI64Load16U:
		off := vm.readMemImmediates()
		addr := vm.loadAddr(off, 2)
		s.Push(wasm.ValueFromU64(uint64(leU16(vm.mustMemory().Buffer[addr:]))))
	case OpI64Load32S:
		off := vm.readMemImmediates()
		addr := vm.loadAddr(off, 4)
		s.Push(wasm.ValueFromI64(int64(int32(leU32(vm.mustMemory().Buffer[addr:])))))
	case OpI64Load32U:
		off := vm.readMemImmediates()
		addr := vm.loadAddr(off, 4)
		s.Push(wasm.ValueFromU64(uint64(leU32(vm.mustMemory().Buffer[addr:]))))

	// --- memory stores ---
	case OpI32Store:
		off := vm.readMemImmediates()
		v := s.Pop().U32()
		addr := vm.loadAddr(off, 4)
		putU32(vm.mustMemory().Buffer[addr:], v)
	case OpI64Store:
		off := vm.readMemImmediates()
		v := s.Pop().U64()
		addr := vm.loadAddr(off, 8)
		putU64(vm.mustMemory().Buffer[addr:], v)
	case OpF32Store:
		off := vm.readMemImmediates()
		v := uint32(s.Pop())
		addr := vm.loadAddr(off, 4)
		putU32(vm.mustMemory().Buffer[addr:], v)
	case OpF64Store:
		off := vm.readMemImmediates()
		v := uint64(s.Pop())
		addr := vm.loadAddr(off, 8)
		putU64(vm.mustMemory().Buffer[addr:], v)
	case OpI32Store8:
		off := vm.readMemImmediates()
		v := byte(s.Pop().U32())
		addr := vm.loadAddr(off, 1)
		vm.mustMemory().Buffer[addr] = v
	case OpI32Store16:
		off := vm.readMemImmediates()
		v := uint16(s.Pop().U32())
		addr := vm.loadAddr(off, 2)
		putU16(vm.mustMemory().Buffer[addr:], v)
	case OpI64Store8:
		off := vm.readMemImmediates()
		v := byte(s.Pop().U64())
		addr := vm.loadAddr(off, 1)
		vm.mustMemory().Buffer[addr] = v
	case OpI64Store16:
		off := vm.readMemImmediates()
		v := uint16(s.Pop().U64())
		addr := vm.loadAddr(off, 2)
		putU16(vm.mustMemory().Buffer[addr:], v)
	case OpI64Store32:
		off := vm.readMemImmediates()
		v := uint32(s.Pop().U64())
		addr := vm.loadAddr(off, 4)
		putU32(vm.mustMemory().Buffer[addr:], v)

	// --- i32 comparisons ---
	case OpI32Eqz:
		s.Push(boolValue(s.Pop().I32() == 0))
	case OpI32Eq:
		b, a := s.Pop().I32(), s.Pop().I32()
		s.Push(boolValue(a == b))
	case OpI32Ne:
		b, a := s.Pop().I32(), s.Pop().I32()
		s.Push(boolValue(a != b))
	case OpI32LtS:
		b, a := s.Pop().I32(), s.Pop().I32()
		s.Push(boolValue(a < b))
	case OpI32LtU:
		b, a := s.Pop().U32(), s.Pop().U32()
		s.Push(boolValue(a < b))
	case OpI32GtS:
		b, a := s.Pop().I32(), s.Pop().I32()
		s.Push(boolValue(a > b))
	case OpI32GtU:
		b, a := s.Pop().U32(), s.Pop().U32()
		s.Push(boolValue(a > b))
	case OpI32LeS:
		b, a := s.Pop().I32(), s.Pop().I32()
		s.Push(boolValue(a <= b))
	case OpI32LeU:
		b, a := s.Pop().U32(), s.Pop().U32()
		s.Push(boolValue(a <= b))
	case OpI32GeS:
		b, a := s.Pop().I32(), s.Pop().I32()
		s.Push(boolValue(a >= b))
	case OpI32GeU:
		b, a := s.Pop().U32(), s.Pop().U32()
		s.Push(boolValue(a >= b))

	// --- i64 comparisons ---
	case OpI64Eqz:
		s.Push(boolValue(s.Pop().I64() == 0))
	case OpI64Eq:
		b, a := s.Pop().I64(), s.Pop().I64()
		s.Push(boolValue(a == b))
	case OpI64Ne:
		b, a := s.Pop().I64(), s.Pop().I64()
		s.Push(boolValue(a != b))
	case OpI64LtS:
		b, a := s.Pop().I64(), s.Pop().I64()
		s.Push(boolValue(a < b))
	case OpI64LtU:
		b, a := s.Pop().U64(), s.Pop().U64()
		s.Push(boolValue(a < b))
	case OpI64GtS:
		b, a := s.Pop().I64(), s.Pop().I64()
		s.Push(boolValue(a > b))
	case OpI64GtU:
		b, a := s.Pop().U64(), s.Pop().U64()
		s.Push(boolValue(a > b))
	case OpI64LeS:
		b, a := s.Pop().I64(), s.Pop().I64()
		s.Push(boolValue(a <= b))
	case OpI64LeU:
		b, a := s.Pop().U64(), s.Pop().U64()
		s.Push(boolValue(a <= b))
	case OpI64GeS:
		b, a := s.Pop().I64(), s.Pop().I64()
		s.Push(boolValue(a >= b))
	case OpI64GeU:
		b, a := s.Pop().U64(), s.Pop().U64()
		s.Push(boolValue(a >= b))

	// --- f32/f64 comparisons (operate in float64 precision; f32 values are
	// stored widened, so identical logic serves both widths) ---
	case OpF32Eq, OpF64Eq:
		b, a := s.Pop().F64(), s.Pop().F64()
		s.Push(boolValue(a == b))
	case OpF32Ne, OpF64Ne:
		b, a := s.Pop().F64(), s.Pop().F64()
		s.Push(boolValue(a != b))
	case OpF32Lt, OpF64Lt:
		b, a := s.Pop().F64(), s.Pop().F64()
		s.Push(boolValue(a < b))
	case OpF32Gt, OpF64Gt:
		b, a := s.Pop().F64(), s.Pop().F64()
		s.Push(boolValue(a > b))
	case OpF32Le, OpF64Le:
		b, a := s.Pop().F64(), s.Pop().F64()
		s.Push(boolValue(a <= b))
	case OpF32Ge, OpF64Ge:
		b, a := s.Pop().F64(), s.Pop().F64()
		s.Push(boolValue(a >= b))

	// --- i32 arithmetic ---
	case OpI32Clz:
		s.Push(wasm.ValueFromU32(uint32(bits.LeadingZeros32(s.Pop().U32()))))
	case OpI32Ctz:
		s.Push(wasm.ValueFromU32(uint32(bits.TrailingZeros32(s.Pop().U32()))))
	case OpI32Popcnt:
		s.Push(wasm.ValueFromU32(uint32(bits.OnesCount32(s.Pop().U32()))))
	case OpI32Add:
		b, a := s.Pop().U32(), s.Pop().U32()
		s.Push(wasm.ValueFromU32(a + b))
	case OpI32Sub:
		b, a := s.Pop().U32(), s.Pop().U32()
		s.Push(wasm.ValueFromU32(a - b))
	case OpI32Mul:
		b, a := s.Pop().U32(), s.Pop().U32()
		s.Push(wasm.ValueFromU32(a * b))
	case OpI32DivS:
		b, a := s.Pop().I32(), s.Pop().I32()
		v, err := divS32(a, b)
		if err != nil {
			panic(err)
		}
		s.Push(wasm.ValueFromI32(v))
	case OpI32DivU:
		b, a := s.Pop().U32(), s.Pop().U32()
		v, err := divU32(a, b)
		if err != nil {
			panic(err)
		}
		s.Push(wasm.ValueFromU32(v))
	case OpI32RemS:
		b, a := s.Pop().I32(), s.Pop().I32()
		v, err := remS32(a, b)
		if err != nil {
			panic(err)
		}
		s.Push(wasm.ValueFromI32(v))
	case OpI32RemU:
		b, a := s.Pop().U32(), s.Pop().U32()
		v, err := remU32(a, b)
		if err != nil {
			panic(err)
		}
		s.Push(wasm.ValueFromU32(v))
	case OpI32And:
		b, a := s.Pop().U32(), s.Pop().U32()
		s.Push(wasm.ValueFromU32(a & b))
	case OpI32Or:
		b, a := s.Pop().U32(), s.Pop().U32()
		s.Push(wasm.ValueFromU32(a | b))
	case OpI32Xor:
		b, a := s.Pop().U32(), s.Pop().U32()
		s.Push(wasm.ValueFromU32(a ^ b))
	case OpI32Shl:
		b, a := s.Pop().U32(), s.Pop().U32()
		s.Push(wasm.ValueFromU32(a << (b & 31)))
	case OpI32ShrS:
		b, a := s.Pop().U32(), s.Pop().I32()
		s.Push(wasm.ValueFromI32(a >> (b & 31)))
	case OpI32ShrU:
		b, a := s.Pop().U32(), s.Pop().U32()
		s.Push(wasm.ValueFromU32(a >> (b & 31)))
	case OpI32Rotl:
		b, a := s.Pop().U32(), s.Pop().U32()
		s.Push(wasm.ValueFromU32(rotl32(a, b)))
	case OpI32Rotr:
		b, a := s.Pop().U32(), s.Pop().U32()
		s.Push(wasm.ValueFromU32(rotr32(a, b)))

	// --- i64 arithmetic ---
	case OpI64Clz:
		s.Push(wasm.ValueFromU64(uint64(bits.LeadingZeros64(s.Pop().U64()))))
	case OpI64Ctz:
		s.Push(wasm.ValueFromU64(uint64(bits.TrailingZeros64(s.Pop().U64()))))
	case OpI64Popcnt:
		s.Push(wasm.ValueFromU64(uint64(bits.OnesCount64(s.Pop().U64()))))
	case OpI64Add:
		b, a := s.Pop().U64(), s.Pop().U64()
		s.Push(wasm.ValueFromU64(a + b))
	case OpI64Sub:
		b, a := s.Pop().U64(), s.Pop().U64()
		s.Push(wasm.ValueFromU64(a - b))
	case OpI64Mul:
		b, a := s.Pop().U64(), s.Pop().U64()
		s.Push(wasm.ValueFromU64(a * b))
	case OpI64DivS:
		b, a := s.Pop().I64(), s.Pop().I64()
		v, err := divS64(a, b)
		if err != nil {
			panic(err)
		}
		s.Push(wasm.ValueFromI64(v))
	case OpI64DivU:
		b, a := s.Pop().U64(), s.Pop().U64()
		v, err := divU64(a, b)
		if err != nil {
			panic(err)
		}
		s.Push(wasm.ValueFromU64(v))
	case OpI64RemS:
		b, a := s.Pop().I64(), s.Pop().I64()
		v, err := remS64(a, b)
		if err != nil {
			panic(err)
		}
		s.Push(wasm.ValueFromI64(v))
	case OpI64RemU:
		b, a := s.Pop().U64(), s.Pop().U64()
		v, err := remU64(a, b)
		if err != nil {
			panic(err)
		}
		s.Push(wasm.ValueFromU64(v))
	case OpI64And:
		b, a := s.Pop().U64(), s.Pop().U64()
		s.Push(wasm.ValueFromU64(a & b))
	case OpI64Or:
		b, a := s.Pop().U64(), s.Pop().U64()
		s.Push(wasm.ValueFromU64(a | b))
	case OpI64Xor:
		b, a := s.Pop().U64(), s.Pop().U64()
		s.Push(wasm.ValueFromU64(a ^ b))
	case OpI64Shl:
		b, a := s.Pop().U64(), s.Pop().U64()
		s.Push(wasm.ValueFromU64(a << (b & 63)))
	case OpI64ShrS:
		b, a := s.Pop().U64(), s.Pop().I64()
		s.Push(wasm.ValueFromI64(a >> (b & 63)))
	case OpI64ShrU:
		b, a := s.Pop().U64(), s.Pop().U64()
		s.Push(wasm.ValueFromU64(a >> (b & 63)))
	case OpI64Rotl:
		b, a := s.Pop().U64(), s.Pop().U64()
		s.Push(wasm.ValueFromU64(rotl64(a, b)))
	case OpI64Rotr:
		b, a := s.Pop().U64(), s.Pop().U64()
		s.Push(wasm.ValueFromU64(rotr64(a, b)))

	// --- f32 arithmetic (stored widened to float64; demoted to float32
	// precision only where the op would otherwise lose the narrower
	// rounding behavior observable across a store/reload) ---
	case OpF32Abs:
		s.Push(wasm.ValueFromF32(float32(mathAbs(s.Pop().F64()))))
	case OpF32Neg:
		s.Push(wasm.ValueFromF32(-float32(s.Pop().F64())))
	case OpF32Ceil:
		s.Push(wasm.ValueFromF32(ceil32(float32(s.Pop().F64()))))
	case OpF32Floor:
		s.Push(wasm.ValueFromF32(floor32(float32(s.Pop().F64()))))
	case OpF32Trunc:
		s.Push(wasm.ValueFromF32(trunc32(float32(s.Pop().F64()))))
	case OpF32Nearest:
		s.Push(wasm.ValueFromF32(nearest32(float32(s.Pop().F64()))))
	case OpF32Sqrt:
		s.Push(wasm.ValueFromF32(sqrt32(float32(s.Pop().F64()))))
	case OpF32Add:
		b, a := s.Pop().F64(), s.Pop().F64()
		s.Push(wasm.ValueFromF32(float32(a) + float32(b)))
	case OpF32Sub:
		b, a := s.Pop().F64(), s.Pop().F64()
		s.Push(wasm.ValueFromF32(float32(a) - float32(b)))
	case OpF32Mul:
		b, a := s.Pop().F64(), s.Pop().F64()
		s.Push(wasm.ValueFromF32(float32(a) * float32(b)))
	case OpF32Div:
		b, a := s.Pop().F64(), s.Pop().F64()
		s.Push(wasm.ValueFromF32(float32(a) / float32(b)))
	case OpF32Min:
		b, a := s.Pop().F64(), s.Pop().F64()
		s.Push(wasm.ValueFromF32(float32(wasmMin(a, b))))
	case OpF32Max:
		b, a := s.Pop().F64(), s.Pop().F64()
		s.Push(wasm.ValueFromF32(float32(wasmMax(a, b))))
	case OpF32Copysign:
		b, a := s.Pop().F64(), s.Pop().F64()
		s.Push(wasm.ValueFromF32(copysign32(float32(a), float32(b))))

	// --- f64 arithmetic ---
	case OpF64Abs:
		s.Push(wasm.ValueFromF64(mathAbs(s.Pop().F64())))
	case OpF64Neg:
		s.Push(wasm.ValueFromF64(-s.Pop().F64()))
	case OpF64Ceil:
		s.Push(wasm.ValueFromF64(ceil64(s.Pop().F64())))
	case OpF64Floor:
		s.Push(wasm.ValueFromF64(floor64(s.Pop().F64())))
	case OpF64Trunc:
		s.Push(wasm.ValueFromF64(trunc64(s.Pop().F64())))
	case OpF64Nearest:
		s.Push(wasm.ValueFromF64(nearest64(s.Pop().F64())))
	case OpF64Sqrt:
		s.Push(wasm.ValueFromF64(sqrt64(s.Pop().F64())))
	case OpF64Add:
		b, a := s.Pop().F64(), s.Pop().F64()
		s.Push(wasm.ValueFromF64(a + b))
	case OpF64Sub:
		b, a := s.Pop().F64(), s.Pop().F64()
		s.Push(wasm.ValueFromF64(a - b))
	case OpF64Mul:
		b, a := s.Pop().F64(), s.Pop().F64()
		s.Push(wasm.ValueFromF64(a * b))
	case OpF64Div:
		b, a := s.Pop().F64(), s.Pop().F64()
		s.Push(wasm.ValueFromF64(a / b))
	case OpF64Min:
		b, a := s.Pop().F64(), s.Pop().F64()
		s.Push(wasm.ValueFromF64(wasmMin(a, b)))
	case OpF64Max:
		b, a := s.Pop().F64(), s.Pop().F64()
		s.Push(wasm.ValueFromF64(wasmMax(a, b)))
	case OpF64Copysign:
		b, a := s.Pop().F64(), s.Pop().F64()
		s.Push(wasm.ValueFromF64(copysign64(a, b)))

	// --- conversions ---
	case OpI32WrapI64:
		s.Push(wasm.ValueFromI32(int32(s.Pop().I64())))
	case OpI32TruncF32S, OpI32TruncF64S:
		v, err := truncF64ToI32S(s.Pop().F64())
		if err != nil {
			panic(err)
		}
		s.Push(wasm.ValueFromI32(v))
	case OpI32TruncF32U, OpI32TruncF64U:
		v, err := truncF64ToI32U(s.Pop().F64())
		if err != nil {
			panic(err)
		}
		s.Push(wasm.ValueFromU32(v))
	case OpI64ExtendI32S:
		s.Push(wasm.ValueFromI64(int64(s.Pop().I32())))
	case OpI64ExtendI32U:
		s.Push(wasm.ValueFromU64(uint64(s.Pop().U32())))
	case OpI64TruncF32S, OpI64TruncF64S:
		v, err := truncF64ToI64S(s.Pop().F64())
		if err != nil {
			panic(err)
		}
		s.Push(wasm.ValueFromI64(v))
	case OpI64TruncF32U, OpI64TruncF64U:
		v, err := truncF64ToI64U(s.Pop().F64())
		if err != nil {
			panic(err)
		}
		s.Push(wasm.ValueFromU64(v))
	case OpF32ConvertI32S:
		s.Push(wasm.ValueFromF32(float32(s.Pop().I32())))
	case OpF32ConvertI32U:
		s.Push(wasm.ValueFromF32(float32(s.Pop().U32())))
	case OpF32ConvertI64S:
		s.Push(wasm.ValueFromF32(float32(s.Pop().I64())))
	case OpF32ConvertI64U:
		s.Push(wasm.ValueFromF32(float32(s.Pop().U64())))
	case OpF32DemoteF64:
		s.Push(wasm.ValueFromF32(float32(s.Pop().F64())))
	case OpF64ConvertI32S:
		s.Push(wasm.ValueFromF64(float64(s.Pop().I32())))
	case OpF64ConvertI32U:
		s.Push(wasm.ValueFromF64(float64(s.Pop().U32())))
	case OpF64ConvertI64S:
		s.Push(wasm.ValueFromF64(float64(s.Pop().I64())))
	case OpF64ConvertI64U:
		s.Push(wasm.ValueFromF64(float64(s.Pop().U64())))
	case OpF64PromoteF32:
		s.Push(wasm.ValueFromF64(float64(float32(s.Pop().F64()))))
	case OpI32ReinterpretF32:
		s.Push(wasm.Value(uint64(uint32(s.Pop()))))
	case OpI64ReinterpretF64:
		s.Push(wasm.Value(uint64(s.Pop())))
	case OpF32ReinterpretI32:
		s.Push(wasm.Value(uint64(s.Pop().U32())))
	case OpF64ReinterpretI64:
		s.Push(wasm.Value(s.Pop().U64()))

	default:
		return false
	}
	return true
}

func boolValue(b bool) wasm.Value {
	if b {
		return wasm.ValueFromI32(1)
	}
	return wasm.ValueFromI32(0)
}
