package allocator

import (
	"unsafe"

	"github.com/flier/allocgo/internal/pages"
	"github.com/flier/allocgo/pkg/xunsafe"
)

// ArenaMin is the default minimum number of bytes mapped per arena.
const ArenaMin = 1 << 20 // 1 MiB

// arena is one contiguous region obtained from the page source. Arenas are
// linked in creation order, newest first, and are never split or returned
// to the OS during the process's life.
type arena struct {
	next   *arena
	region []byte // keeps the mapped region pinned; its length is the arena's size
}

func (a *arena) base() *byte {
	return unsafe.SliceData(a.region)
}

func (a *arena) size() uintptr {
	return uintptr(len(a.region))
}

// mapArena requests at least minUsable bytes of usable space (after the
// first block's own header; the arena struct itself lives outside the
// mapped region), floors the request at
// arenaMin, maps it, and lays down a single free block spanning the
// remainder. It does not link the arena or insert the block into any
// index - the caller (Heap.growArena) owns that, since it knows which
// index is active.
func mapArena(minUsable, arenaMin uintptr) (*arena, *block, error) {
	need := hdrSize + minUsable
	if need < arenaMin {
		need = arenaMin
	}

	region, err := pages.Map(need)
	if err != nil {
		return nil, nil, err
	}

	a := &arena{region: region}

	first := xunsafe.Cast[block](a.base())
	*first = block{size: uintptr(len(region)) - hdrSize, free: true}

	return a, first, nil
}
