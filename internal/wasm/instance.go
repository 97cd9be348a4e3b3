package wasm

import "github.com/wazerocore/wasmvm/api"

// PageSize is the unit of linear-memory growth: 65536 bytes. See spec.md §6.
const PageSize = 65536

// MaxMemoryPagesLimit is the hard ceiling on memoryPagesLimit any Instance
// may configure — 4 GiB worth of pages. See spec.md §6.
const MaxMemoryPagesLimit = 65536

// CallStackLimit caps recursive execute/call depth (spec.md §5/§6). This is
// the interpreter's default; VmConfig's WithCallStackLimit replaces it with
// any positive value, lower or higher.
const CallStackLimit = 2048

// ExecuteFunction is the polymorphic callable described in spec.md §2: a
// function index resolves either to a Wasm function body (executed by the
// Vm) or to a host function — both are invoked identically from a caller's
// point of view.
type ExecuteFunction interface {
	Call(instance *Instance, args []Value, ctx *ExecutionContext) api.ExecutionResult
}

// HostFunc is the Go-native shape of a host function: a closure receiving
// whatever embedder-defined context it was registered with, plus the
// argument cells, returning an ExecutionResult. See spec.md §6.
type HostFunc func(hostCtx any, args []Value) api.ExecutionResult

// GoFunction adapts a HostFunc to ExecuteFunction, so imported functions are
// invoked through the same interface as Wasm functions (spec.md §4.3,
// "Imported functions").
type GoFunction struct {
	Fn      HostFunc
	HostCtx any
}

func (g *GoFunction) Call(_ *Instance, args []Value, _ *ExecutionContext) api.ExecutionResult {
	return g.Fn(g.HostCtx, args)
}

// ImportedFunction is a resolved import: its callable plus the signature
// the caller needs to know how many arguments to pass and whether a result
// is produced.
type ImportedFunction struct {
	Type *api.FuncType
	Func ExecuteFunction
}

// GlobalType describes a global's value type and mutability (spec.md §3).
type GlobalType struct {
	ValType api.ValueType
	Mutable bool
}

// GlobalCell is a single runtime global slot: its declared type plus the
// current value. Module-defined globals (Instance.Globals) and imported
// globals (Instance.ImportedGlobals) both use this shape.
type GlobalCell struct {
	Type GlobalType
	Val  Value
}

// TableElement is one slot of a Table: either empty (Instance == nil, a
// trapping call_indirect target) or a reference to a function defined in
// some instance — which, per spec.md §3's "TableElement lifecycle"
// paragraph, may not be the instance that owns the table (a cross-instance
// call, spec.md §4.3).
type TableElement struct {
	// Instance is the instance owning FuncIdx's function body. Nil means
	// this table slot was never initialized.
	Instance *Instance
	// FuncIdx is Instance's function index space index of the referenced
	// function.
	FuncIdx uint32
	// SharedInstance is a back-reference kept so that, if the instance
	// that wrote this element traps during its own instantiation (after
	// having already mutated a table it shares with other instances), the
	// referenced function's owning instance is kept alive regardless. See
	// spec.md §3 and §9 ("Back-reference in table elements").
	SharedInstance *Instance
}

// MemoryInstance is the runtime linear memory: a resizable byte buffer
// whose length is always a multiple of PageSize, plus the page bounds that
// constrain Grow. Field names follow the shape of wazero's own
// memory-instance type, adapted to this core's simpler MVP model (no
// shared/atomic memory).
type MemoryInstance struct {
	Buffer []byte
	Min    uint32
	Max    *uint32 // nil means unbounded, subject to PagesLimit
	// PagesLimit is the host-imposed hard cap on this memory's page count
	// (spec.md §4.4's memoryPagesLimit), always <= MaxMemoryPagesLimit.
	PagesLimit uint32
}

// PageCount returns the memory's current size in pages.
func (m *MemoryInstance) PageCount() uint32 {
	return uint32(len(m.Buffer) / PageSize)
}

// Grow implements spec.md §4.4's memory.grow: attempts to extend the buffer
// by delta pages, zero-initializing the new bytes, and returns the page
// count from before the grow. It returns 0xFFFFFFFF (-1 as i32) without
// mutating the buffer if the new size would exceed either the module's
// declared Max or the host's PagesLimit.
func (m *MemoryInstance) Grow(delta uint32) uint32 {
	current := m.PageCount()
	newPages := current + delta
	if newPages < current { // overflow
		return 0xFFFFFFFF
	}
	limit := m.PagesLimit
	if limit == 0 || limit > MaxMemoryPagesLimit {
		limit = MaxMemoryPagesLimit
	}
	if m.Max != nil && newPages > *m.Max {
		return 0xFFFFFFFF
	}
	if newPages > limit {
		return 0xFFFFFFFF
	}
	grown := make([]byte, int(newPages)*PageSize)
	copy(grown, m.Buffer)
	m.Buffer = grown
	return current
}

// TableInstance is the runtime function table: a slice of TableElement plus
// the bounds the module declared.
type TableInstance struct {
	Elements []TableElement
	Min      uint32
	Max      *uint32
}

// Instance is the runtime counterpart of a Module (spec.md §3): the linear
// memory, table, globals, and resolved imports a particular instantiation
// owns or borrows. Instantiation itself (element/data segment
// initialization, start-function invocation) is out of this core's scope
// per spec.md §1 — callers are expected to hand the Vm a fully-populated
// Instance.
type Instance struct {
	Module Module

	// Memory is nil if the instance neither owns nor imports one.
	Memory *MemoryInstance
	// Table is nil if the instance neither owns nor imports one.
	Table *TableInstance

	// Globals holds the cells for this module's own (non-imported)
	// globals, indexed from 0.
	Globals []GlobalCell

	// ImportedFunctions holds resolved imports, indexed from 0; the whole
	// function index space is ImportedFunctions followed by the module's
	// own functions (spec.md §3, §4.3).
	ImportedFunctions []ImportedFunction

	// ImportedGlobals holds resolved imported global cells, indexed from
	// 0; global.get/global.set index ImportedGlobals first, then Globals
	// (spec.md §4.6).
	ImportedGlobals []*GlobalCell
}

// GetGlobal returns a pointer to the cell backing global index idx in the
// combined (imported-first) global index space, per spec.md §4.6.
func (inst *Instance) GetGlobal(idx uint32) *GlobalCell {
	if int(idx) < len(inst.ImportedGlobals) {
		return inst.ImportedGlobals[idx]
	}
	return &inst.Globals[int(idx)-len(inst.ImportedGlobals)]
}
