package allocator

import (
	"unsafe"

	"github.com/flier/allocgo/internal/debug"
	"github.com/flier/allocgo/pkg/xunsafe/layout"
)

// Heap is a general-purpose heap over OS-mapped arenas, dispatching every
// insert/remove/find to whichever free-block index its latched Strategy
// selects.
//
// A Heap is not safe for concurrent use - spec.md's allocator assumes a
// single mutator - and instantiating a fresh Heap per test (rather than
// relying on one process-wide singleton) is the preferred way to exercise
// more than one strategy without forking.
type Heap struct {
	strategy Strategy
	arenas   *arena
	list     freeList
	tree     sizeTree
	opts     Options
}

// NewHeap returns a fresh, unlatched Heap.
func NewHeap(opts Options) *Heap {
	return &Heap{opts: opts}
}

func alignUp(n uintptr) uintptr {
	return uintptr(layout.RoundUp(int(n), Align))
}

// AllocFirstFit allocates size bytes using the first-fit discipline.
func (h *Heap) AllocFirstFit(size uintptr) unsafe.Pointer {
	return h.allocWith(StrategyFirstFit, size)
}

// AllocNextFit allocates size bytes using the next-fit discipline.
func (h *Heap) AllocNextFit(size uintptr) unsafe.Pointer {
	return h.allocWith(StrategyNextFit, size)
}

// AllocBestFit allocates size bytes using the best-fit discipline.
func (h *Heap) AllocBestFit(size uintptr) unsafe.Pointer {
	return h.allocWith(StrategyBestFit, size)
}

// AllocWorstFit allocates size bytes using the worst-fit discipline.
func (h *Heap) AllocWorstFit(size uintptr) unsafe.Pointer {
	return h.allocWith(StrategyWorstFit, size)
}

// allocWith latches s and runs the general allocation path. A fatal abort
// normally never returns, but when a test has overridden Options.Abort to
// merely record the error, the latch is left unchanged - so this still
// refuses to dispatch a mismatched strategy through the wrong index
// instead of silently misbehaving.
func (h *Heap) allocWith(s Strategy, size uintptr) unsafe.Pointer {
	h.Latch(s)
	if h.strategy != s {
		return nil
	}
	return h.allocateGeneral(size)
}

// allocateGeneral implements the spec's allocate_general: round up, look
// up, grow-and-retry once on a miss, remove, split, clear the free flag.
func (h *Heap) allocateGeneral(size uintptr) unsafe.Pointer {
	if size == 0 {
		return nil
	}

	need := alignUp(size)

	b := h.indexFind(need)
	if b == nil {
		if !h.growArena(need) {
			return nil
		}
		b = h.indexFind(need)
		if b == nil {
			return nil
		}
	}

	h.indexRemove(b)
	h.split(b, need)
	b.free = false

	debug.Log(nil, "alloc", "%s %d -> %p", h.strategy, size, b.ptr())

	return b.ptr()
}

// Free returns a previously allocated block to the general heap. A nil
// pointer or a double free (the block is already marked free) is a silent
// no-op.
func (h *Heap) Free(p unsafe.Pointer) {
	if p == nil {
		return
	}

	b := blockOf(p)
	if b.free {
		return
	}

	h.coalesce(b)

	debug.Log(nil, "free", "%p", p)
}

// growArena maps a fresh arena sized to satisfy at least minUsable bytes
// (after headers), links it at the head of the arena chain, and seeds the
// active index with its single initial free block. Returns false only when
// the OS denies the mapping; prior arenas remain valid either way.
func (h *Heap) growArena(minUsable uintptr) bool {
	a, first, err := mapArena(minUsable, h.opts.arenaMin())
	if err != nil {
		return false
	}

	a.next = h.arenas
	h.arenas = a

	h.indexInsert(first)

	debug.Log(nil, "grow", "%d bytes at %p", a.size(), unsafe.Pointer(a.base()))

	return true
}

// ArenaCount reports how many arenas this heap has mapped so far. It is a
// read-only diagnostic, not the formatted reporting spec.md keeps out of
// scope.
func (h *Heap) ArenaCount() int {
	n := 0
	for a := h.arenas; a != nil; a = a.next {
		n++
	}
	return n
}

// Strategy reports the heap's latched strategy, or StrategyUnset if
// neither Latch nor any Alloc* method has been called yet.
func (h *Heap) Strategy() Strategy { return h.strategy }

// Stats is a read-only snapshot of heap-wide counters, in the same spirit
// as the teacher's AllocatorExt diagnostic accessors: a peek for tests and
// cmd/allocgo-bench, not a reporting subsystem.
type Stats struct {
	Arenas      int
	BytesMapped uintptr
	FreeBlocks  int
}

// Stats walks the arena chain and active index to produce a snapshot.
func (h *Heap) Stats() Stats {
	var s Stats

	for a := h.arenas; a != nil; a = a.next {
		s.Arenas++
		s.BytesMapped += a.size()
	}

	switch h.strategy {
	case StrategyFirstFit, StrategyNextFit:
		for b := h.list.head; b != nil; b = b.listNext {
			s.FreeBlocks++
		}
	case StrategyBestFit, StrategyWorstFit:
		s.FreeBlocks = countTree(h.tree.root)
	}

	return s
}

func countTree(n *block) int {
	if n == nil {
		return 0
	}
	return 1 + countTree(n.left) + countTree(n.right)
}
