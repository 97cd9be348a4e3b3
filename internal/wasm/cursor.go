package wasm

import (
	"encoding/binary"
	"io"

	"github.com/wazerocore/wasmvm/internal/leb128"
)

// Cursor is a bounded reader over a function's rewritten instruction stream.
// It is the component named "Input cursor" in spec.md §2: it exposes
// fixed-width little-endian reads (used for the §4.1 if/else targets and
// branch immediates, which are pre-canonicalized to raw 32-bit words for
// O(1) access, and for the f32.const/f64.const bit patterns) and LEB128
// reads (used for every other instruction's immediates, which remain in
// their original variable-length encoding).
type Cursor struct {
	code []byte
	pos  uint32
}

// NewCursor returns a Cursor over code starting at offset pos.
func NewCursor(code []byte, pos uint32) *Cursor {
	return &Cursor{code: code, pos: pos}
}

// Pos returns the cursor's current offset within its code.
func (c *Cursor) Pos() uint32 { return c.pos }

// Seek repositions the cursor to an absolute offset, used when a branch
// sets pc to a precomputed codeOffset.
func (c *Cursor) Seek(pos uint32) { c.pos = pos }

// ReadByte reads one raw byte, advancing the cursor. It returns
// io.ErrUnexpectedEOF if the cursor is at or past the end of the code.
func (c *Cursor) ReadByte() (byte, error) {
	if int(c.pos) >= len(c.code) {
		return 0, io.ErrUnexpectedEOF
	}
	b := c.code[c.pos]
	c.pos++
	return b, nil
}

// ReadU32 reads a fixed-width little-endian u32, used for the §4.1 if/else
// targets and branch immediates and for f32.const immediates.
func (c *Cursor) ReadU32() (uint32, error) {
	if int(c.pos)+4 > len(c.code) {
		return 0, io.ErrUnexpectedEOF
	}
	v := binary.LittleEndian.Uint32(c.code[c.pos:])
	c.pos += 4
	return v, nil
}

// ReadU64 reads a fixed-width little-endian u64, used for f64.const
// immediates — like f32.const's, these are fixed-width in the original Wasm
// binary encoding (spec.md §4.2).
func (c *Cursor) ReadU64() (uint64, error) {
	if int(c.pos)+8 > len(c.code) {
		return 0, io.ErrUnexpectedEOF
	}
	v := binary.LittleEndian.Uint64(c.code[c.pos:])
	c.pos += 8
	return v, nil
}

// ReadVarU32 reads an unsigned LEB128 varint immediate.
func (c *Cursor) ReadVarU32() (uint32, error) {
	v, n, err := leb128.DecodeUint32(c.code[c.pos:])
	if err != nil {
		return 0, err
	}
	c.pos += uint32(n)
	return v, nil
}

// ReadVarU64 reads an unsigned LEB128 varint immediate.
func (c *Cursor) ReadVarU64() (uint64, error) {
	v, n, err := leb128.DecodeUint64(c.code[c.pos:])
	if err != nil {
		return 0, err
	}
	c.pos += uint32(n)
	return v, nil
}

// ReadVarI32 reads a signed LEB128 varint immediate.
func (c *Cursor) ReadVarI32() (int32, error) {
	v, n, err := leb128.DecodeInt32(c.code[c.pos:])
	if err != nil {
		return 0, err
	}
	c.pos += uint32(n)
	return v, nil
}

// ReadVarI64 reads a signed LEB128 varint immediate.
func (c *Cursor) ReadVarI64() (int64, error) {
	v, n, err := leb128.DecodeInt64(c.code[c.pos:])
	if err != nil {
		return 0, err
	}
	c.pos += uint32(n)
	return v, nil
}

// BranchImmediate is the precomputed pair described in spec.md §4.1: a
// target byte offset within the function's instruction vector, and the
// number of operand cells to discard below the preserved branch result.
// The arity (0 or 1) of that result is not part of this tuple — it is
// encoded once per branching instruction (once for `br`/`br_if`, once for
// the whole `br_table`), never duplicated per BranchImmediate, since it
// does not vary across a `br_table`'s targets.
type BranchImmediate struct {
	CodeOffset uint32
	StackDrop  uint32
}

// BranchImmediateSize is the on-wire size, in bytes, of one BranchImmediate:
// two fixed-width u32 words. See spec.md §6.
const BranchImmediateSize = 8

// ReadBranchImmediate reads one BranchImmediate (§4.1).
func (c *Cursor) ReadBranchImmediate() (BranchImmediate, error) {
	offset, err := c.ReadU32()
	if err != nil {
		return BranchImmediate{}, err
	}
	drop, err := c.ReadU32()
	if err != nil {
		return BranchImmediate{}, err
	}
	return BranchImmediate{CodeOffset: offset, StackDrop: drop}, nil
}
