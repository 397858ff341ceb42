// Command allocgo-bench is a thin harness over pkg/alloc: pick a
// strategy, run a canned allocate/free workload, print the resulting
// stats. It is not part of the library - an external collaborator in the
// same sense spec.md's "command-line drivers" are out of scope.
package main

import (
	"flag"
	"fmt"
	"os"
	"unsafe"

	"github.com/flier/allocgo/internal/xflag"
	"github.com/flier/allocgo/pkg/alloc"
	"github.com/flier/allocgo/pkg/allocator"
)

var strategies = map[string]allocator.Strategy{
	"first": allocator.StrategyFirstFit,
	"next":  allocator.StrategyNextFit,
	"best":  allocator.StrategyBestFit,
	"worst": allocator.StrategyWorstFit,
}

func parseStrategy(s string) (allocator.Strategy, error) {
	st, ok := strategies[s]
	if !ok {
		return 0, fmt.Errorf("unknown strategy %q (want first|next|best|worst)", s)
	}
	return st, nil
}

func allocOne(a *alloc.Allocator, strategy allocator.Strategy, buddy bool, size uintptr) unsafe.Pointer {
	if buddy {
		return a.AllocBuddy(size)
	}

	switch strategy {
	case allocator.StrategyFirstFit:
		return a.AllocFirstFit(size)
	case allocator.StrategyNextFit:
		return a.AllocNextFit(size)
	case allocator.StrategyBestFit:
		return a.AllocBestFit(size)
	case allocator.StrategyWorstFit:
		return a.AllocWorstFit(size)
	default:
		return nil
	}
}

func main() {
	strategy := xflag.Func("strategy", "allocation strategy: first, next, best, or worst", parseStrategy)
	count := flag.Int("count", 1000, "number of alloc/free pairs to run")
	size := flag.Uint64("size", 64, "payload size per allocation, in bytes")
	buddy := flag.Bool("buddy", false, "exercise the buddy pool instead of the general heap")
	flag.Parse()

	if !*buddy && !xflag.Parsed("strategy") {
		fmt.Fprintln(os.Stderr, "allocgo-bench: -strategy is required unless -buddy is set")
		os.Exit(2)
	}

	a := alloc.New(alloc.Options{})

	ptrs := make([]unsafe.Pointer, 0, *count)
	for range *count {
		p := allocOne(a, *strategy, *buddy, uintptr(*size))
		if p != nil {
			ptrs = append(ptrs, p)
		}
	}

	for _, p := range ptrs {
		a.Free(p)
	}

	stats := a.Stats()
	fmt.Printf("heap: arenas=%d bytes_mapped=%d free_blocks=%d\n",
		stats.Heap.Arenas, stats.Heap.BytesMapped, stats.Heap.FreeBlocks)
	fmt.Printf("buddy: order=%d bytes_mapped=%d live_allocs=%d\n",
		stats.Buddy.Order, stats.Buddy.BytesMapped, stats.Buddy.LiveAllocs)
}
