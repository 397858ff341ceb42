package allocator

import "github.com/flier/allocgo/pkg/xunsafe"

// split carves an aligned, need-sized block out of a larger free block b
// found by an index lookup, leaving the leftover spliced into the physical
// chain and reinserted into the active index. If the leftover isn't large
// enough to host a standalone block (a header plus at least one aligned
// payload word), b is handed over whole and the caller just gets slack.
//
// On return b.size == need if b was split (unchanged if it was handed over
// whole), and b.free is still true; the caller clears it.
func (h *Heap) split(b *block, need uintptr) {
	remainder := b.size - need
	if remainder < hdrSize+Align {
		return
	}

	rem := xunsafe.ByteAdd[block]((*byte)(b.ptr()), int(need))
	*rem = block{size: remainder - hdrSize, free: true}

	rem.prevPhys = b
	rem.nextPhys = b.nextPhys
	if rem.nextPhys != nil {
		rem.nextPhys.prevPhys = rem
	}
	b.nextPhys = rem

	b.size = need

	h.indexInsert(rem)
}

// coalesce marks b free, absorbs any free physical neighbor on either side
// (removing them from the index first), and reinserts the resulting block.
// The invariant this maintains: after coalesce returns, no two adjacent
// blocks in the physical chain are both free.
func (h *Heap) coalesce(b *block) {
	b.free = true

	if p := b.prevPhys; p != nil && p.free {
		h.indexRemove(p)
		p.size += hdrSize + b.size
		p.nextPhys = b.nextPhys
		if p.nextPhys != nil {
			p.nextPhys.prevPhys = p
		}
		b = p
	}

	if n := b.nextPhys; n != nil && n.free {
		h.indexRemove(n)
		b.size += hdrSize + n.size
		b.nextPhys = n.nextPhys
		if b.nextPhys != nil {
			b.nextPhys.prevPhys = b
		}
	}

	h.indexInsert(b)
}
