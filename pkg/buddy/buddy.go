// Package buddy implements a self-contained binary-buddy allocator: one
// power-of-two-sized pool, order-indexed LIFO free bins, and address-XOR
// buddy discovery on free. It shares no state with pkg/allocator - the two
// allocators are independent subsystems joined only by pkg/alloc's pointer
// classifier.
package buddy

import (
	"math/bits"
	"unsafe"

	"github.com/flier/allocgo/internal/debug"
	"github.com/flier/allocgo/internal/pages"
	"github.com/flier/allocgo/pkg/xunsafe"
)

// Align is the alignment every requested payload size is rounded to before
// an order is chosen. It matches pkg/allocator.Align but is declared
// independently, since the two packages share no types.
const Align = 16

// DefaultOrder is the pool order chosen at lazy init when the first
// request's need fits within it.
const DefaultOrder = 22

// BuddyMaxOrder caps how large the pool is ever allowed to grow at init.
const BuddyMaxOrder = 26

// minOrder is the smallest order a block may ever occupy: large enough to
// hold either a free-bin link (one machine word) or an allocation tag
// (one machine word) plus slack up to Align, so both lifetimes of a block's
// storage fit regardless of which one currently owns it.
var minOrder = orderOf(uintptr(Align))

func orderOf(n uintptr) int {
	if n <= 1 {
		return 0
	}
	log := bits.Len(uint(n) - 1)
	return log
}

// Options configures a Pool.
type Options struct {
	// MaxOrder overrides BuddyMaxOrder. Zero means the default.
	MaxOrder int
}

func (o Options) maxOrder() int {
	if o.MaxOrder == 0 {
		return BuddyMaxOrder
	}
	return o.MaxOrder
}

// Pool is one binary-buddy arena. The zero Pool is valid and lazily maps
// its backing region on the first Alloc call.
type Pool struct {
	opts Options

	region []byte
	base   uintptr
	order  int // P; zero means not yet initialized
	bins   []xunsafe.Addr[byte]

	live int
}

// NewPool returns a Pool configured by opts. Nothing is mapped until the
// first Alloc.
func NewPool(opts Options) *Pool {
	return &Pool{opts: opts}
}

// Alloc rounds size to Align, finds the smallest sufficient order, and
// splits blocks from the first non-empty larger bin down to size. Returns
// nil if the pool (lazily initializing on the first call) cannot satisfy
// the request.
func (p *Pool) Alloc(size uintptr) unsafe.Pointer {
	need := alignUp(size, Align) + tagWord

	if p.order == 0 {
		if !p.init(need) {
			return nil
		}
	}

	want := orderOf(need)
	if want < minOrder {
		want = minOrder
	}
	if want > p.order {
		return nil
	}

	k := want
	for k <= p.order && p.bins[k] == 0 {
		k++
	}
	if k > p.order {
		return nil
	}

	addr, _ := p.pop(k)

	for k > want {
		k--
		half := addr + (uintptr(1) << uint(k))
		p.push(k, half)
	}

	*xunsafe.Cast[uintptr]((xunsafe.Addr[byte](addr)).AssertValid()) = encodeTag(want)
	p.live++

	ptr := unsafe.Pointer(uintptr(addr) + tagWord)

	debug.Log(nil, "buddy-alloc", "order %d -> %p", want, ptr)

	return ptr
}

// Free merges ptr with its buddies as far up the order chain as possible
// and pushes the surviving block. A pointer that doesn't classify as a
// live buddy allocation is silently ignored - the caller (pkg/alloc's
// unified free) is expected to have already classified it, but Free stays
// defensive so a corrupted tag never walks off the pool.
func (p *Pool) Free(ptr unsafe.Pointer) {
	order, ok := p.Classify(ptr)
	if !ok {
		return
	}

	p.live--
	p.mergeCascade(uintptr(ptr)-tagWord, order)

	debug.Log(nil, "buddy-free", "order %d %p", order, ptr)
}

// Classify reports whether ptr is a live buddy allocation and, if so, the
// order its tag records. It is O(1): a bounds check plus one tag-word
// load, exactly the discipline pkg/alloc's unified free needs to route
// between buddy and general without touching either unnecessarily.
func (p *Pool) Classify(ptr unsafe.Pointer) (order int, ok bool) {
	if p.order == 0 || ptr == nil {
		return 0, false
	}

	addr := uintptr(ptr)
	if addr <= p.base || addr >= p.base+(uintptr(1)<<uint(p.order)) {
		return 0, false
	}

	word := *xunsafe.Cast[uintptr]((xunsafe.Addr[byte](addr - tagWord)).AssertValid())

	return decodeTag(word, p.order)
}

// mergeCascade walks up from order, XOR-ing the current offset against
// 2^order to find each candidate buddy, unlinking it from its bin on a
// match and continuing one order higher. It stops at the first missing
// buddy, or at the pool's top order, and pushes the final merged block.
func (p *Pool) mergeCascade(addr uintptr, order int) {
	off := addr - p.base

	for order < p.order {
		buddyOff := off ^ (uintptr(1) << uint(order))
		if buddyOff >= uintptr(1)<<uint(p.order) {
			break
		}

		if !p.unlink(order, p.base+buddyOff) {
			break
		}

		if buddyOff < off {
			off = buddyOff
		}
		order++
	}

	p.push(order, p.base+off)
}

// init lazily maps the pool's backing region, sized to the smallest order
// (at least DefaultOrder, capped at the configured max order) that fits
// need, and seeds the top bin with the whole pool as one free block.
func (p *Pool) init(need uintptr) bool {
	maxOrder := p.opts.maxOrder()

	order := DefaultOrder
	for uintptr(1)<<uint(order) < need {
		order++
	}
	if order > maxOrder {
		return false
	}

	region, err := pages.Map(uintptr(1) << uint(order))
	if err != nil {
		return false
	}

	p.region = region
	p.base = uintptr(unsafe.Pointer(unsafe.SliceData(region)))
	p.order = order
	p.bins = make([]xunsafe.Addr[byte], order+1)

	p.push(order, p.base)

	debug.Log(nil, "buddy-init", "order %d, %d bytes at %#x", order, len(region), p.base)

	return true
}

// push threads addr onto the front of bins[order], writing the prior head
// into addr's first machine word - the same in-place LIFO-link trick the
// general heap's free list avoids needing, because here a free block has
// no other metadata competing for that space.
func (p *Pool) push(order int, addr uintptr) {
	a := xunsafe.Addr[byte](addr)
	*xunsafe.Cast[uintptr](a.AssertValid()) = uintptr(p.bins[order])
	p.bins[order] = a
}

// pop removes and returns the head of bins[order], or ok=false if empty.
func (p *Pool) pop(order int) (addr uintptr, ok bool) {
	head := p.bins[order]
	if head == 0 {
		return 0, false
	}

	next := *xunsafe.Cast[uintptr](head.AssertValid())
	p.bins[order] = xunsafe.Addr[byte](next)

	return uintptr(head), true
}

// unlink removes addr from bins[order] if present, reporting whether it
// was found. Used only by the merge cascade to claim a buddy out of its
// bin before absorbing it.
func (p *Pool) unlink(order int, addr uintptr) bool {
	var prev xunsafe.Addr[byte]
	cur := p.bins[order]

	for cur != 0 {
		if uintptr(cur) == addr {
			next := *xunsafe.Cast[uintptr](cur.AssertValid())
			if prev == 0 {
				p.bins[order] = xunsafe.Addr[byte](next)
			} else {
				*xunsafe.Cast[uintptr](prev.AssertValid()) = next
			}
			return true
		}
		prev = cur
		cur = xunsafe.Addr[byte](*xunsafe.Cast[uintptr](cur.AssertValid()))
	}

	return false
}

func alignUp(n, align uintptr) uintptr {
	return (n + align - 1) &^ (align - 1)
}

// Stats is a read-only snapshot of pool-wide counters, mirroring
// pkg/allocator.Heap.Stats.
type Stats struct {
	Order       int
	BytesMapped uintptr
	LiveAllocs  int
}

// Stats reports the pool's current order, mapped size, and live
// allocation count. Zero values before the first Alloc triggers init.
func (p *Pool) Stats() Stats {
	if p.order == 0 {
		return Stats{}
	}
	return Stats{
		Order:       p.order,
		BytesMapped: uintptr(1) << uint(p.order),
		LiveAllocs:  p.live,
	}
}
