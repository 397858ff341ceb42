//go:build go1.22

package allocator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// newTestBlock returns a block header allocated on the Go heap, so its
// addr() is a genuine, comparable address - the free list only ever
// touches header fields, never payload bytes, so a bare header is enough
// scaffolding without mapping real arenas.
func newTestBlock(size uintptr) *block {
	b := new(block)
	b.size = size
	b.free = true
	return b
}

func TestFreeListInsertKeepsAscendingAddress(t *testing.T) {
	var l freeList

	blocks := make([]*block, 5)
	for i := range blocks {
		blocks[i] = newTestBlock(16)
	}

	// Insert out of address order; the list must still end up sorted.
	order := []int{3, 1, 4, 0, 2}
	for _, i := range order {
		l.insert(blocks[i])
	}

	var addrs []uintptr
	for b := l.head; b != nil; b = b.listNext {
		addrs = append(addrs, b.addr())
	}

	assert.Len(t, addrs, 5)
	for i := 1; i < len(addrs); i++ {
		assert.Less(t, addrs[i-1], addrs[i], "free list must be strictly ascending by address")
	}
}

func TestFreeListFindFirstFit(t *testing.T) {
	var l freeList

	small := newTestBlock(16)
	mid := newTestBlock(64)
	large := newTestBlock(256)
	l.insert(small)
	l.insert(mid)
	l.insert(large)

	found := l.findFirstFit(32)

	assert.True(t, found == mid || found == large)
	assert.GreaterOrEqual(t, found.size, uintptr(32))
}

func TestFreeListFindFirstFitMiss(t *testing.T) {
	var l freeList
	l.insert(newTestBlock(16))

	assert.Nil(t, l.findFirstFit(1<<20))
}

func TestFreeListRemoveAdvancesCursor(t *testing.T) {
	var l freeList

	a := newTestBlock(16)
	b := newTestBlock(16)
	c := newTestBlock(16)
	l.insert(a)
	l.insert(b)
	l.insert(c)

	l.cursor = b
	l.remove(b)

	assert.Equal(t, c, l.cursor)
}

func TestFreeListRemoveCursorWrapsToHead(t *testing.T) {
	var l freeList

	a := newTestBlock(16)
	b := newTestBlock(16)
	l.insert(a)
	l.insert(b)

	l.cursor = b // tail
	l.remove(b)

	assert.Equal(t, a, l.cursor)
}

func TestFreeListNextFitScansCircularly(t *testing.T) {
	var l freeList

	a := newTestBlock(16)
	b := newTestBlock(256)
	c := newTestBlock(16)
	l.insert(a)
	l.insert(b)
	l.insert(c)

	l.cursor = c // start past b; must wrap around to find it

	found := l.findNextFit(128)

	assert.Equal(t, b, found)
}

func TestFreeListNextFitMissLeavesCursorUntouched(t *testing.T) {
	var l freeList
	a := newTestBlock(16)
	l.insert(a)
	l.cursor = a

	found := l.findNextFit(1 << 20)

	assert.Nil(t, found)
	assert.Equal(t, a, l.cursor)
}
