// Package alloc is the library's public surface: five allocation
// strategies over two independent subsystems (pkg/allocator's general
// heap, pkg/buddy's pool), joined by a single unified Free that classifies
// a pointer's owner in O(1) before dispatching.
package alloc

import (
	"unsafe"

	"github.com/flier/allocgo/pkg/allocator"
	"github.com/flier/allocgo/pkg/buddy"
)

// Allocator bundles a general heap and a buddy pool behind the five
// strategy entry points plus one unified Free. The zero value is not
// usable; construct with New.
type Allocator struct {
	heap  *allocator.Heap
	buddy *buddy.Pool
}

// Options configures a new Allocator: Heap is passed to the general heap
// and Buddy to the buddy pool.
type Options struct {
	Heap  allocator.Options
	Buddy buddy.Options
}

// New returns a fresh Allocator. Strategies are unlatched; the buddy pool
// is unmapped until its first use.
func New(opts Options) *Allocator {
	return &Allocator{
		heap:  allocator.NewHeap(opts.Heap),
		buddy: buddy.NewPool(opts.Buddy),
	}
}

// Init pre-arms the general heap's strategy latch without performing an
// allocation. Calling it again with the same strategy is a no-op; a
// different strategy aborts, exactly as a mismatched Alloc* call would.
func (a *Allocator) Init(strategy allocator.Strategy) {
	a.heap.Latch(strategy)
}

// AllocFirstFit allocates n bytes from the general heap, latching
// first-fit if no strategy has been chosen yet.
func (a *Allocator) AllocFirstFit(n uintptr) unsafe.Pointer {
	return a.heap.AllocFirstFit(n)
}

// AllocNextFit allocates n bytes from the general heap, latching
// next-fit if no strategy has been chosen yet.
func (a *Allocator) AllocNextFit(n uintptr) unsafe.Pointer {
	return a.heap.AllocNextFit(n)
}

// AllocBestFit allocates n bytes from the general heap, latching
// best-fit if no strategy has been chosen yet.
func (a *Allocator) AllocBestFit(n uintptr) unsafe.Pointer {
	return a.heap.AllocBestFit(n)
}

// AllocWorstFit allocates n bytes from the general heap, latching
// worst-fit if no strategy has been chosen yet.
func (a *Allocator) AllocWorstFit(n uintptr) unsafe.Pointer {
	return a.heap.AllocWorstFit(n)
}

// AllocBuddy allocates n bytes from the buddy pool. It never touches the
// general heap's strategy latch - the buddy allocator is independent of
// it, per spec.
func (a *Allocator) AllocBuddy(n uintptr) unsafe.Pointer {
	return a.buddy.Alloc(n)
}

// Free is the unified free path: null-safe, and dispatches to whichever
// subsystem owns ptr. A pointer the buddy pool classifies as its own
// (tag intact, in range) is merged back into the buddy bins; every other
// non-null pointer is handed to the general heap's coalescing free, which
// is itself a no-op on an already-free block.
func (a *Allocator) Free(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}

	if _, ok := a.buddy.Classify(ptr); ok {
		a.buddy.Free(ptr)
		return
	}

	a.heap.Free(ptr)
}

// Strategy reports the general heap's latched strategy.
func (a *Allocator) Strategy() allocator.Strategy {
	return a.heap.Strategy()
}

// Stats bundles both subsystems' read-only snapshots.
type Stats struct {
	Heap  allocator.Stats
	Buddy buddy.Stats
}

// Stats snapshots both the general heap and the buddy pool.
func (a *Allocator) Stats() Stats {
	return Stats{Heap: a.heap.Stats(), Buddy: a.buddy.Stats()}
}
