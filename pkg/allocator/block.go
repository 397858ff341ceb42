// Package allocator implements the general heap: arena management over
// mapped pages, a uniform block representation, the two pluggable free-
// block indices (address-sorted list, size-ordered tree), and the
// split/coalesce surgery between them.
package allocator

import (
	"unsafe"

	"github.com/flier/allocgo/pkg/xunsafe"
	"github.com/flier/allocgo/pkg/xunsafe/layout"
)

// Align is the alignment every block's payload and size are rounded to.
const Align = 16

// block is the physical header at the start of every block, free or
// allocated. The free-list's listNext and the tree's left/right/height are
// only meaningful while the block is free, but both live in the same
// struct: a union would save a handful of bytes per allocated block at the
// cost of a second code path through split and coalesce, which isn't worth
// it here.
type block struct {
	size uintptr // payload size in bytes, a multiple of Align, >= Align
	free bool

	prevPhys *block
	nextPhys *block

	// listNext threads this block into the address-sorted free list
	// (first-fit / next-fit). Unused while the tree index is active.
	listNext *block

	// left, right, height are this block's position in the (size, address)
	// tree (best-fit / worst-fit). Unused while the list index is active.
	left, right *block
	height      int
}

// hdrSize is sizeof(block) rounded up to Align; the user pointer for any
// block b is always b's address plus exactly hdrSize.
var hdrSize = uintptr(layout.RoundUp(layout.Size[block](), Align))

// blockOf recovers the header preceding a user pointer.
func blockOf(p unsafe.Pointer) *block {
	return xunsafe.ByteAdd[block]((*byte)(p), -int(hdrSize))
}

// ptr returns the user-visible pointer for this block.
func (b *block) ptr() unsafe.Pointer {
	return unsafe.Pointer(xunsafe.ByteAdd[byte](b, int(hdrSize)))
}

// addr is this block's identity for ordering purposes: its own header
// address. Two blocks are never at the same address, so it serves as the
// tiebreaker for both the free-list's ascending order and the tree's
// (size, address) key.
func (b *block) addr() uintptr {
	return uintptr(unsafe.Pointer(b))
}

// resetIndexFields clears whichever index fields a block last used. Called
// whenever a block changes index membership (insert after split/coalesce),
// so stale pointers from a previous life never leak into the new one.
func (b *block) resetIndexFields() {
	b.listNext = nil
	b.left, b.right, b.height = nil, nil, 0
}
