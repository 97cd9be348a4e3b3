package wasm

import "github.com/wazerocore/wasmvm/api"

// Code is a function body, already rewritten by the (out-of-scope) parser
// so that every control instruction's branch targets are pre-computed
// offsets and stack-drop counts (spec.md §3, §4.1). The Vm treats it as
// opaque bytes plus the two sizing numbers it needs to build the operand
// stack: LocalCount and MaxStackHeight.
type Code struct {
	// Body is the packed instruction stream: one opcode byte per
	// instruction, followed by that opcode's immediates (LEB128-encoded,
	// except for the fixed-width branch immediates of §4.1).
	Body []byte

	// LocalCount is the total count of non-parameter locals declared by
	// this function (zero-initialized at call entry).
	LocalCount int

	// MaxStackHeight is the validator-computed high-water mark of the
	// operand region, used to size the OperandStack so that push/pop never
	// need a bounds check.
	MaxStackHeight int
}

// Global is the static, decoded description of one of a module's declared
// globals: its value type and whether it may be mutated after
// instantiation (global.set requires mutability, enforced by validation —
// the interpreter does not re-check it at runtime).
type Global struct {
	Type    api.ValueType
	Mutable bool
	Init    Value // the initializer value, used by instantiation (out of scope here)
}

// MemoryLimits describes a memory's page bounds as declared in the module,
// before any host-imposed cap is applied (spec.md §3).
type MemoryLimits struct {
	Min uint32
	Max *uint32 // nil means unbounded (up to MaxMemoryPagesLimit)
}

// TableLimits describes a table's element-count bounds as declared in the
// module.
type TableLimits struct {
	Min uint32
	Max *uint32
}

// Module is the read-only, decoded module the Vm executes against. It is
// immutable for the lifetime of any Instance built from it. Per spec.md §1,
// the binary parser that produces a Module from a .wasm byte stream is an
// external collaborator; this interface specifies only the shape it must
// yield.
type Module interface {
	// GetCode returns the rewritten body of the funcIdx-th function defined
	// in this module (funcIdx is in the whole function index space,
	// imports first — see ImportedFunctionCount).
	GetCode(funcIdx uint32) *Code

	// GetFunctionType returns the static signature of the funcIdx-th
	// function in the whole function index space.
	GetFunctionType(funcIdx uint32) *api.FuncType

	// TypeSection returns the typeIdx-th entry of the module's type
	// section, used by call_indirect to check a callee's actual type.
	TypeSection(typeIdx uint32) *api.FuncType

	// GlobalType returns the declared type of the i-th module-defined
	// global (not counting imported globals).
	GlobalType(i uint32) Global

	// ImportedFunctionCount returns how many entries at the start of the
	// function index space are imports rather than locally-defined
	// functions; spec.md §4.3's "Imported functions" dispatch depends on
	// this boundary.
	ImportedFunctionCount() uint32

	// ImportedFunctionType returns the signature of the i-th imported
	// function.
	ImportedFunctionType(i uint32) *api.FuncType

	// MemoryLimits returns the module-declared bounds of its memory, or
	// (MemoryLimits{}, false) if the module declares none (and does not
	// import one).
	MemoryLimits() (MemoryLimits, bool)

	// TableLimits returns the module-declared bounds of its table, or
	// (TableLimits{}, false) if the module declares none.
	TableLimits() (TableLimits, bool)
}

// DecodedModule is a concrete, struct-backed Module implementation. The
// (out-of-scope) binary parser is expected to populate one of these;
// hand-built instances are also how this repo's own tests construct fixture
// modules without a parser.
type DecodedModule struct {
	Codes                  []*Code
	FunctionTypes          []*api.FuncType // whole function index space, imports first
	TypeSec                []*api.FuncType
	Globals                []Global
	ImportedFunctionCnt    uint32
	ImportedFunctionTypes_ []*api.FuncType
	Mem                    *MemoryLimits
	Tab                    *TableLimits
}

func (m *DecodedModule) GetCode(funcIdx uint32) *Code {
	return m.Codes[funcIdx-m.ImportedFunctionCnt]
}

func (m *DecodedModule) GetFunctionType(funcIdx uint32) *api.FuncType {
	return m.FunctionTypes[funcIdx]
}

func (m *DecodedModule) TypeSection(typeIdx uint32) *api.FuncType {
	return m.TypeSec[typeIdx]
}

func (m *DecodedModule) GlobalType(i uint32) Global {
	return m.Globals[i]
}

func (m *DecodedModule) ImportedFunctionCount() uint32 {
	return m.ImportedFunctionCnt
}

func (m *DecodedModule) ImportedFunctionType(i uint32) *api.FuncType {
	return m.ImportedFunctionTypes_[i]
}

func (m *DecodedModule) MemoryLimits() (MemoryLimits, bool) {
	if m.Mem == nil {
		return MemoryLimits{}, false
	}
	return *m.Mem, true
}

func (m *DecodedModule) TableLimits() (TableLimits, bool) {
	if m.Tab == nil {
		return TableLimits{}, false
	}
	return *m.Tab, true
}
